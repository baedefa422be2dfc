package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"leasebill/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationDir = "migrations"

// goose keeps its dialect, filesystem and logger in package state.
var gooseMu sync.Mutex

// migrationLogger routes goose output into the application logger.
type migrationLogger struct {
	log *logger.Logger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.log.Infof(strings.TrimRight(format, "\n"), v...)
}

func (l migrationLogger) Fatalf(format string, v ...any) {
	l.log.Fatalf(strings.TrimRight(format, "\n"), v...)
}

func setupGoose(ctx context.Context) error {
	goose.SetBaseFS(migrationFS)
	goose.SetLogger(migrationLogger{log: logger.FromContext(ctx)})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return nil
}

// withGoose runs fn against a database/sql handle sharing pool's connections.
func withGoose(ctx context.Context, pool *Pool, fn func(db *sql.DB) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(ctx); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(pool.Pool)
	defer db.Close()
	return fn(db)
}

// LoadMigrations lists the embedded migrations sorted by version.
func LoadMigrations(ctx context.Context) (goose.Migrations, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(ctx); err != nil {
		return nil, err
	}
	migrations, err := goose.CollectMigrations(migrationDir, 0, math.MaxInt64)
	if err != nil {
		return nil, fmt.Errorf("collect migrations: %w", err)
	}
	return migrations, nil
}

// Migrate applies pending migrations and returns how many ran.
func Migrate(ctx context.Context, pool *Pool) (int, error) {
	applied := 0
	err := withGoose(ctx, pool, func(db *sql.DB) error {
		before, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if err := goose.UpContext(ctx, db, migrationDir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		after, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if after > before {
			ran, err := goose.CollectMigrations(migrationDir, before, after)
			if err != nil {
				return fmt.Errorf("collect migrations: %w", err)
			}
			applied = len(ran)
		}
		return nil
	})
	return applied, err
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, pool *Pool) error {
	return withGoose(ctx, pool, func(db *sql.DB) error {
		if err := goose.DownContext(ctx, db, migrationDir); err != nil {
			return fmt.Errorf("roll back migration: %w", err)
		}
		return nil
	})
}

// MigrationStatus logs the applied/pending state of every migration.
func MigrationStatus(ctx context.Context, pool *Pool) error {
	return withGoose(ctx, pool, func(db *sql.DB) error {
		if err := goose.StatusContext(ctx, db, migrationDir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}
