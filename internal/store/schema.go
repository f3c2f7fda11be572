package store

import (
	"context"
	"fmt"
)

// schemaStatements are applied in order at startup. Each one is idempotent so
// the service can bootstrap a fresh database and upgrade an existing one; the
// JSONB columns arrived after the initial schema and are added in place.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS prompts (
		id BIGSERIAL PRIMARY KEY,
		version TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_active BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS optimization_runs (
		id BIGSERIAL PRIMARY KEY,
		prompt_id BIGINT NOT NULL REFERENCES prompts(id) ON DELETE CASCADE,
		alert_id TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		model TEXT,
		previous_version TEXT,
		new_version TEXT,
		improvement DOUBLE PRECISION,
		duration_seconds DOUBLE PRECISION,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ
	)`,
	`ALTER TABLE optimization_runs ADD COLUMN IF NOT EXISTS score_components JSONB`,
	`ALTER TABLE optimization_runs ADD COLUMN IF NOT EXISTS conversion_snapshot JSONB`,
	`CREATE INDEX IF NOT EXISTS idx_prompts_active ON prompts (is_active) WHERE is_active`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON optimization_runs (created_at DESC)`,
}

// EnsureSchema creates or upgrades the tables this service owns.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.conn(ctx).Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
