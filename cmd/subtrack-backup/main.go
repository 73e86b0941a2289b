// subtrack-backup exports and imports the tracker's data document
// against the configured store without going through the HTTP server.
//
// Usage:
//
//	subtrack-backup export [-out backup.json]
//	subtrack-backup import -in backup.json
package main

import (
	"flag"
	"fmt"
	"os"

	"subtrack/internal/cli"
	"subtrack/internal/snapshot"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(cli.ParseLogLevel(os.Getenv("LOG_LEVEL")), "subtrack-backup")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	ctx, stop := cli.ShutdownContext()
	defer stop()

	store := cli.InitStore(cfg, logger)
	defer store.Close()

	ledger := cli.InitLedger(ctx, store, logger)

	switch os.Args[1] {
	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		out := fs.String("out", "backup.json", "destination file")
		_ = fs.Parse(os.Args[2:])

		data, err := snapshot.Encode(ledger.Export())
		if err != nil {
			logger.Error("Export failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			logger.Error("Failed to write backup", "error", err, "path", *out)
			os.Exit(1)
		}
		logger.Info("Exported snapshot", "path", *out, "bytes", len(data))

	case "import":
		fs := flag.NewFlagSet("import", flag.ExitOnError)
		in := fs.String("in", "", "backup file to import")
		_ = fs.Parse(os.Args[2:])
		if *in == "" {
			fmt.Fprintln(os.Stderr, "import requires -in")
			os.Exit(2)
		}

		data, err := os.ReadFile(*in)
		if err != nil {
			logger.Error("Failed to read backup", "error", err, "path", *in)
			os.Exit(1)
		}
		snap, err := snapshot.Decode(data)
		if err != nil {
			logger.Error("Backup rejected", "error", err, "path", *in)
			os.Exit(1)
		}
		if err := ledger.Import(ctx, snap); err != nil {
			logger.Error("Import failed", "error", err)
			os.Exit(1)
		}
		logger.Info("Imported snapshot",
			"currencies", len(snap.Currencies),
			"subscriptions", len(snap.Subscriptions),
			"payments", len(snap.Payments))

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: subtrack-backup <export|import> [flags]")
}
