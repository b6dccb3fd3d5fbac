// Command ledgerctl is an operator tool for the payment ledger stored in
// SQLite.
//
// Usage:
//
//	ledgerctl migrate
//	ledgerctl history -participant part_...
//	ledgerctl override -participant part_... -cents 4000 -actor usr_... -description "discount"
//	ledgerctl pay -participant part_... -amount 51.00 -actor usr_...
//	ledgerctl import-legacy -file events.csv
//
// Configuration is read from the environment and an optional .env file:
// LEDGER_SQLITE_DSN, LEDGER_CURRENCY, LEDGER_LOG_LEVEL and
// LEDGER_METRICS_TEXTFILE.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/campreg/ledger"
	audithook "github.com/campreg/ledger/audit_hook"
	"github.com/campreg/ledger/observability"
	"github.com/campreg/ledger/store/sqlite"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Debug(err.Error())
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel(os.Getenv("LEDGER_LOG_LEVEL")),
			TimeFormat: time.RFC1123Z,
		}),
	))
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:]); err != nil {
		slog.Error("ledgerctl failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		usage()
		return fmt.Errorf("unknown command %q", name)
	}

	dsn := envOr("LEDGER_SQLITE_DSN", "file:ledger.db")
	s, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	l := ledger.New(s,
		ledger.WithLogger(slog.Default()),
		ledger.WithCurrency(os.Getenv("LEDGER_CURRENCY")),
		ledger.WithPlugin(audithook.New(audithook.RecorderFunc(logAudit))),
		ledger.WithPlugin(observability.NewMetricsExtension(observability.NewPrometheusFactory(registry))),
	)
	if err := l.Start(ctx); err != nil {
		_ = s.Close()
		return err
	}
	defer func() {
		if err := l.Stop(); err != nil {
			slog.Warn("can't close store", "error", err)
		}
	}()

	if err := cmd(ctx, l, args); err != nil {
		return err
	}

	if path := os.Getenv("LEDGER_METRICS_TEXTFILE"); path != "" {
		if err := prometheus.WriteToTextfile(path, registry); err != nil {
			slog.Warn("can't write metrics", "path", path, "error", err)
		}
	}
	return nil
}

func logAudit(_ context.Context, e *audithook.AuditEvent) error {
	slog.Info("audit",
		"action", e.Action,
		"resource", e.Resource,
		"resource_id", e.ResourceID,
		"outcome", e.Outcome,
	)
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ledgerctl <migrate|history|override|pay|import-legacy> [flags]")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
