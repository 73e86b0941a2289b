package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"subtrack/internal/cli"
	apphttp "subtrack/internal/http"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(cli.ParseLogLevel(os.Getenv("LOG_LEVEL")), "subtrack")
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.ShutdownContext()
	defer stop()

	store := cli.InitStore(cfg, logger)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Store close error", "error", err)
		}
	}()

	ledger := cli.InitLedger(ctx, store, logger)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting subtrack server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
