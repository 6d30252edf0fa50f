package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/reconcile/internal/core"
)

// bootstrapStatements create the engine's tables and indexes. Every
// statement is idempotent so Bootstrap can run on every startup.
var bootstrapStatements = []string{
	`CREATE TABLE IF NOT EXISTS mapping_rules (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		schema_key TEXT NOT NULL,
		normalized_header TEXT NOT NULL,
		target_field TEXT NOT NULL,
		confirmed_count INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_confirmed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (schema_key, normalized_header)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mapping_rules_schema
		ON mapping_rules (schema_key, normalized_header)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		schema_key TEXT NOT NULL,
		source_name TEXT NOT NULL,
		state TEXT NOT NULL,
		matched INTEGER NOT NULL DEFAULT 0,
		needs_review INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		rules_degraded BOOLEAN NOT NULL DEFAULT FALSE,
		document JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_schema_state
		ON sessions (schema_key, state)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_updated
		ON sessions (updated_at DESC)`,

	`CREATE TABLE IF NOT EXISTS session_events (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL,
		action TEXT NOT NULL,
		column_index INTEGER,
		old_target TEXT NOT NULL DEFAULT '',
		new_target TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		actor TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_session_events_session
		ON session_events (session_id, created_at)`,
}

// Bootstrap creates the engine's tables when absent, so a fresh database
// works without a separate migration step.
func Bootstrap(ctx context.Context, db core.DBTX) error {
	for _, stmt := range bootstrapStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
