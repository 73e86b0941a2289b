// Package cli provides common initialization shared by the binaries
// under cmd/.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"subtrack/internal/backend"
	"subtrack/internal/config"
	"subtrack/internal/ledger"
	"subtrack/internal/log"
	"subtrack/internal/storage"
)

// LoadEnvFile loads the .env file for local development. Errors are
// ignored silently as the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// ParseLogLevel maps a level name to a slog level, defaulting to Info
// so the binaries can log before configuration is validated.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger initializes structured logging at the given level and
// sets it as the process default.
func SetupLogger(level slog.Level, component string) *log.Logger {
	logger := log.New(log.Config{Level: level, Component: component})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it. Exits
// the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStore constructs the configured persistence backend. Exits the
// process on failure.
func InitStore(cfg *config.Config, logger *log.Logger) storage.Store {
	store, err := backend.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return store
}

// InitLedger constructs the state-owning ledger over the store and
// loads the persisted snapshot. Exits the process on failure.
func InitLedger(ctx context.Context, store storage.Store, logger *log.Logger) *ledger.Ledger {
	l := ledger.New(store, logger)
	if err := l.Load(ctx); err != nil {
		logger.Error("Failed to load ledger", "error", err)
		os.Exit(1)
	}
	return l
}

// ShutdownContext returns a context cancelled on SIGINT/SIGTERM, plus
// the signal stop function.
func ShutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// ShutdownTimeout is how long a binary waits for in-flight work when a
// shutdown signal arrives.
const ShutdownTimeout = 30 * time.Second
