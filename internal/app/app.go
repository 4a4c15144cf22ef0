// Package app bootstraps the clipstream backend: it builds dependencies from the
// configuration and runs the HTTP server or the migration tool.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/httpserver"
	"github.com/clipstream/backend/internal/logging"
)

// Serve runs the API until ctx is cancelled.
func Serve(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.SlogLevel())
	slog.SetDefault(logger)

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	media, err := newMediaStorage(ctx, cfg)
	if err != nil {
		return err
	}

	deps := buildDependencies(store, media, cfg, logger)
	srv := httpserver.New(cfg.AppPort, handlers.NewRouter(deps), logger)

	logger.Info("clipstream starting",
		"port", cfg.AppPort,
		"database_driver", cfg.Database.Driver,
		"object_store", cfg.ObjectStore.Bucket != "",
	)
	return srv.Run(ctx)
}

// Migrate applies, rolls back or reports the embedded schema migrations.
func Migrate(ctx context.Context, cfg config.Config, command string) error {
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations require the postgres driver, got %q", cfg.Database.Driver)
	}

	var cmd db.MigrateCommand
	switch command {
	case "", "up":
		cmd = db.MigrateUp
	case "down":
		cmd = db.MigrateDown
	case "status":
		cmd = db.MigrateStatus
	default:
		return fmt.Errorf("unknown migrate command %q: expected up, down or status", command)
	}

	pool, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	return db.Migrate(ctx, pool, cmd)
}
