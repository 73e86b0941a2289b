package storage

import (
	"context"
	"sync"

	"subtrack/internal/core"
)

// MemoryStore holds the snapshot in process memory only. Used for
// tests and for ephemeral runs where persistence is not wanted.
type MemoryStore struct {
	mu   sync.Mutex
	snap core.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (core.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSnapshot(m.snap), nil
}

func (m *MemoryStore) Save(_ context.Context, snap core.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = cloneSnapshot(snap)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func cloneSnapshot(snap core.Snapshot) core.Snapshot {
	return core.Snapshot{
		Currencies:    append([]core.Currency(nil), snap.Currencies...),
		Subscriptions: append([]core.Subscription(nil), snap.Subscriptions...),
		Payments:      append([]core.Payment(nil), snap.Payments...),
	}
}
