// cmd/migrate/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"invoicer/internal/app/migrate"
	"invoicer/internal/application/migration"
	"invoicer/internal/domain/docstore"
	appcfg "invoicer/internal/infra/config"
	"invoicer/internal/infra/logger"
	"invoicer/internal/platform/di"
)

func main() {
	cfg := appcfg.Load()

	log, err := logger.New(logger.Config{ServiceName: "invoicer-migrate", Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(migrate.ExitMigrationFailed)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := migrate.NewApp(migrate.Deps{
		Log: log,
		OpenStore: func(ctx context.Context, projectID, creds string) (docstore.Store, func() error, error) {
			s, closer, err := di.OpenFirestoreStore(ctx, log, projectID, creds)
			return s, closer, err
		},
		OpenSource: func(ctx context.Context, source, creds string) (migration.Source, func() error, error) {
			s, closer, err := di.OpenExportSource(ctx, log, cfg, source, creds)
			return s, closer, err
		},
		NewNotifier: func(to string) migration.Notifier {
			return di.ReportNotifier(cfg, log, to)
		},
	})

	// cli.Exit errors terminate the process with their code
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error("[migrate] failed", zap.Error(err))
		os.Exit(migrate.ExitMigrationFailed)
	}
}
