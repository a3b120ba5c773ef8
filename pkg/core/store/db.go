// Package store persists analysis runs in Postgres.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
	// initErr is kept so later InitDB calls report the first failure.
	initErr error
)

// InitDB initializes the shared connection pool from dbURL. Only the first
// call has an effect.
func InitDB(ctx context.Context, dbURL string) error {
	once.Do(func() {
		if strings.TrimSpace(dbURL) == "" {
			initErr = fmt.Errorf("DATABASE_URL not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			initErr = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		p, err := pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			initErr = fmt.Errorf("failed to create pool: %w", err)
			return
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			initErr = fmt.Errorf("database ping: %w", err)
			return
		}
		pool = p
	})
	return initErr
}

// GetPool returns the database connection pool, nil before InitDB succeeds.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	run_id      UUID PRIMARY KEY,
	ticker      TEXT NOT NULL,
	form        TEXT NOT NULL,
	cik         TEXT,
	result_json JSONB NOT NULL,
	report_md   TEXT,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS analysis_runs_ticker_created_idx ON analysis_runs (ticker, created_at DESC);
`

// EnsureSchema creates the analysis_runs table if it is missing.
func EnsureSchema(ctx context.Context, p *pgxpool.Pool) error {
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}
	if _, err := p.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
