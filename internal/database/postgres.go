// Package database owns the Postgres connection pool lifecycle and the
// schema the repositories run against.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx both a pool and a transaction satisfy, so
// repositories work unchanged inside and outside transactions.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Database wraps a pgx pool with explicit startup/shutdown ownership.
type Database struct {
	dsn  string
	pool *pgxpool.Pool
}

// New creates an unconnected Database for the given DSN.
func New(dsn string) *Database {
	return &Database{dsn: dsn}
}

// Connect starts the connection pool. The pool is the second bound in the
// system next to the HTTP request cap: acquiring a connection blocks when
// the pool is exhausted.
func (d *Database) Connect(ctx context.Context) error {
	cfg, err := pgxpool.ParseConfig(d.dsn)
	if err != nil {
		return fmt.Errorf("parsing database config: %w", err)
	}

	cfg.MaxConns = 8
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.ConnConfig.ConnectTimeout = 5 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("starting connection pool: %w", err)
	}
	d.pool = pool
	return nil
}

// Pool returns the underlying pool. Connect must have been called.
func (d *Database) Pool() *pgxpool.Pool {
	return d.pool
}

// InTx runs fn inside a transaction, committing on nil and rolling back on
// error.
func (d *Database) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close shuts the pool down. Safe to call on an unconnected Database.
func (d *Database) Close() {
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
}
