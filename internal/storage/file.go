package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"subtrack/internal/core"
	"subtrack/internal/snapshot"
)

// FileStore keeps the whole snapshot in a single JSON document on
// disk, using the same schema the user-facing export produces. It is
// the default backend: the file is the local equivalent of the
// browser-persisted storage the tracker grew out of.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Load reads and validates the stored document. A missing file is an
// empty snapshot, not an error; first launch starts from defaults.
func (f *FileStore) Load(ctx context.Context) (core.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		slog.InfoContext(ctx, "No store file yet, starting empty", "path", f.path)
		return core.Snapshot{}, nil
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read store file: %w", err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("decode store file %s: %w", f.path, err)
	}
	return snap, nil
}

// Save writes the snapshot through a temp file and rename so a crash
// mid-write never leaves a corrupted store behind.
func (f *FileStore) Save(ctx context.Context, snap core.Snapshot) error {
	data, err := snapshot.Encode(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved",
		"path", f.path,
		"currencies", len(snap.Currencies),
		"subscriptions", len(snap.Subscriptions),
		"payments", len(snap.Payments))
	return nil
}

func (f *FileStore) Close() error { return nil }
