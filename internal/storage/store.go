// Package storage provides the persistence collaborators behind the
// ledger's load/save contract. Every store materializes the full
// snapshot in one shot; there is no streaming or partial persistence.
package storage

import (
	"context"

	"subtrack/internal/core"
)

// Store is the persistence port. Save must be observed as a single
// atomic replacement of the persisted state: a failed Save leaves the
// previous state readable.
type Store interface {
	Load(ctx context.Context) (core.Snapshot, error)
	Save(ctx context.Context, snap core.Snapshot) error
	Close() error
}
