package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	migrationMaxRetries  = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

var retryablePgErrorCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

// MigrateCommand selects the goose operation run by Migrate.
type MigrateCommand string

const (
	MigrateUp     MigrateCommand = "up"
	MigrateDown   MigrateCommand = "down"
	MigrateStatus MigrateCommand = "status"
)

// Migrate runs the embedded goose migrations against the pool's database. Transient
// serialization and lock errors on "up" are retried with exponential backoff.
func Migrate(ctx context.Context, pool *pgxpool.Pool, command MigrateCommand) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("sub migrations fs: %w", err)
	}
	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	switch command {
	case MigrateUp, "":
		return upWithRetry(ctx, sqlDB)
	case MigrateDown:
		if err := goose.DownContext(ctx, sqlDB, "."); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		return nil
	case MigrateStatus:
		if err := goose.StatusContext(ctx, sqlDB, "."); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

func upWithRetry(ctx context.Context, sqlDB *sql.DB) error {
	var lastErr error
	for attempt := 0; attempt < migrationMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * migrationBaseBackoff
			if backoff > migrationMaxBackoff {
				backoff = migrationMaxBackoff
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = goose.UpContext(ctx, sqlDB, ".")
		if lastErr == nil {
			return nil
		}
		if !shouldRetryMigration(lastErr) {
			return fmt.Errorf("migrate up: %w", lastErr)
		}
	}

	return fmt.Errorf("migrate up: exceeded max retries (%d): %w", migrationMaxRetries, lastErr)
}

func shouldRetryMigration(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := retryablePgErrorCodes[pgErr.Code]; ok {
			return true
		}
	}

	return errors.Is(err, pgx.ErrTxClosed)
}
