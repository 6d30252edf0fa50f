// Package store implements the engine's persistence interfaces on
// PostgreSQL via pgx. Mapping rules and session events are relational;
// sessions persist as whole JSONB documents with denormalized listing
// columns so the heavyweight grid never loads for a list call.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/reconcile/internal/core"
)

// Store bundles the Postgres-backed rule, session, and event stores. A
// Store built by New runs each call on the pool; InTx rebinds the views
// to a single transaction.
type Store struct {
	db   core.DBTX
	pool *pgxpool.Pool
}

// New creates a Store on the connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool, pool: pool}
}

// Rules returns the mapping rule store.
func (s *Store) Rules() core.RuleStore { return &ruleStore{db: s.db} }

// Sessions returns the session store.
func (s *Store) Sessions() core.SessionStore { return &sessionStore{db: s.db} }

// Events returns the session event store.
func (s *Store) Events() core.EventStore { return &eventStore{db: s.db} }

// InTx runs fn against store views bound to one transaction and commits
// when fn returns nil. A Store already inside a transaction runs fn
// directly, so nested InTx calls share the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(core.Datastore) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
