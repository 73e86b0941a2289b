// Package backend constructs the persistence store selected by
// configuration.
package backend

import (
	"fmt"

	"subtrack/internal/config"
	"subtrack/internal/log"
	"subtrack/internal/storage"
)

// New returns the store for the configured data backend. Callers own
// the returned store and must Close it on shutdown.
func New(cfg *config.Config, logger *log.Logger) (storage.Store, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent("backend")

	switch cfg.DataBackend {
	case "file":
		store, err := storage.NewFileStore(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("initialize file store: %w", err)
		}
		logger.Info("Initialized file backend", "path", cfg.StorePath)
		return store, nil

	case "sqlite":
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		logger.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return store, nil

	case "memory":
		logger.Info("Initialized memory backend; state will not survive restarts")
		return storage.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
