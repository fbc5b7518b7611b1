package store

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS scouts (
		id          TEXT PRIMARY KEY,
		account_id  TEXT NOT NULL,
		title       TEXT NOT NULL DEFAULT '',
		goal        TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		location    TEXT NOT NULL DEFAULT '',
		queries     TEXT[] NOT NULL DEFAULT '{}',
		frequency   TEXT NOT NULL DEFAULT '',
		hour_of_day INT,
		day_of_week INT,
		active      BOOLEAN NOT NULL DEFAULT true,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scouts_active_account ON scouts (account_id) WHERE active`,
	`CREATE TABLE IF NOT EXISTS executions (
		id            TEXT PRIMARY KEY,
		scout_id      TEXT NOT NULL REFERENCES scouts (id),
		status        TEXT NOT NULL,
		started_at    TIMESTAMPTZ NOT NULL,
		completed_at  TIMESTAMPTZ,
		error_message TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_executions_scout_started ON executions (scout_id, started_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_executions_running ON executions (started_at) WHERE status = 'running'`,
	`CREATE TABLE IF NOT EXISTS account_activity (
		account_id      TEXT PRIMARY KEY,
		last_sign_in_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate applies the schema. Every statement is idempotent, so running it on
// startup against an existing database is safe.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	return nil
}
