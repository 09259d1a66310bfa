package database

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/cenkalti/backoff/v4"
	// Registers the "pgx" driver with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var Schema string

// Variable substitution to support testing.
var sqlOpen = sql.Open

const pingTimeout = 10 * time.Second

// Connect opens a pool against cfg.DatabaseURL and verifies it with a ping, retried
// cfg.ConnectRetries times with exponential backoff. Pool limits that are not
// positive are left at the database/sql defaults.
func Connect(ctx context.Context, cfg *Config) (*sql.DB, error) {
	db, err := sqlOpen("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// SetMaxIdleConns(0) drops every released connection.
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	ping := func() error {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return db.PingContext(ctx)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cfg.ConnectRetries), ctx)
	if err := backoff.Retry(ping, b); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to reach database")
	}
	return db, nil
}

// Migrate creates the run and summary tables when they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return errors.Wrap(err, "failed to apply schema")
}
