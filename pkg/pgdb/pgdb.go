// Package pgdb bootstraps the Postgres connection and runs embedded schema
// migrations via goose against the postgres dialect.
package pgdb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Open connects to Postgres via the given DSN, verifies the connection,
// and runs every pending migration before returning.
func Open(ctx context.Context, dsn string, logger *log.Logger) (*sqlx.DB, error) {
	sdb, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := RunMigrations(sdb.DB); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("database ready")
	return sdb, nil
}

// RunMigrations applies every pending embedded migration via goose.
func RunMigrations(sqlDB *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.Up(sqlDB, "migrations")
}
