package core

// stores.go declares the persistence interfaces the reconciliation service
// depends on. The Postgres implementations live in internal/store; tests
// substitute in-memory fakes.

import (
	"context"
	"time"
)

// RuleStore persists mapping rules keyed by (schema, normalized header).
type RuleStore interface {
	// Lookup returns the rule for one normalized header, or ErrRuleNotFound.
	Lookup(ctx context.Context, schemaKey, normalizedHeader string) (MappingRule, error)

	// Snapshot returns every rule for a schema keyed by normalized header.
	// The matcher works from the snapshot so one read covers a whole session.
	Snapshot(ctx context.Context, schemaKey string) (RuleSnapshot, error)

	// Upsert inserts the rule or updates the existing row for its key.
	// An unchanged target field bumps the confirmed count; a different
	// target overwrites and resets the count to 1. The returned bool
	// reports whether a new row was inserted.
	Upsert(ctx context.Context, rule MappingRule) (MappingRule, bool, error)

	// List returns a schema's rules ordered by normalized header.
	List(ctx context.Context, schemaKey string) ([]MappingRule, error)

	// Correct rebinds the rule to a new target field and resets its
	// confirmed count to 1. Returns ErrRuleNotFound for unknown IDs.
	Correct(ctx context.Context, id, targetField string) (MappingRule, error)

	// Delete removes the rule. Returns ErrRuleNotFound for unknown IDs.
	Delete(ctx context.Context, id string) error
}

// SessionStore persists whole sessions. Save is called after every
// mutation (write-through) so any instance can resume any session.
type SessionStore interface {
	Save(ctx context.Context, sess *Session) error

	// Get returns the session or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	List(ctx context.Context, filter SessionFilter) ([]SessionSummary, error)

	// PurgeAbandoned deletes abandoned sessions last touched before the
	// cutoff and returns how many were removed.
	PurgeAbandoned(ctx context.Context, cutoff time.Time) (int64, error)

	// ArchiveGrids drops the heavyweight grid, candidate, and proposal
	// payloads from finalized sessions last touched before the cutoff.
	// Summaries and mappings survive for the listing APIs.
	ArchiveGrids(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventStore appends and queries the immutable session event trail.
type EventStore interface {
	Append(ctx context.Context, event SessionEvent) error
	List(ctx context.Context, filter EventFilter) ([]SessionEvent, error)
}

// Datastore bundles the stores with transaction control. InTx runs fn
// against store views bound to one transaction, committing when fn
// returns nil. Finalize uses it so rule upserts, the session state, and
// the finalize event land atomically.
type Datastore interface {
	Rules() RuleStore
	Sessions() SessionStore
	Events() EventStore
	InTx(ctx context.Context, fn func(Datastore) error) error
}
