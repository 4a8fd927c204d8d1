// Package database manages the PostgreSQL pool shared by the request
// store, the audit trail, and the identifier sequence. An unset URL is not
// an error: the server falls back to in-memory stores for demo use.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const pingTimeout = 5 * time.Second

// Config holds pool settings.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns pool defaults sized for the intake workload: short
// insert/select statements, no long-running transactions.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Pool wraps a *sql.DB opened over the pgx stdlib driver. All methods are
// safe on a nil receiver, so callers can hold a nil Pool in memory-only mode.
type Pool struct {
	db *sql.DB
}

// New opens and pings the pool. Returns a nil Pool and no error when no URL
// is configured.
func New(cfg Config) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{db: db}, nil
}

// DB returns the underlying *sql.DB the stores run their queries on.
func (p *Pool) DB() *sql.DB {
	if p == nil {
		return nil
	}
	return p.db
}

// Health reports whether the database is reachable. Backs the readiness
// probe's "database" check.
func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return fmt.Errorf("database not configured")
	}
	return p.db.PingContext(ctx)
}

// Close releases all connections.
func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
