package core

import "context"

// GetSession returns the session by ID, from cache for active sessions or
// from the store for everything else. Returns ErrSessionNotFound when no
// session exists.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	return s.loadSession(ctx, sessionID)
}

// ListSessions returns session summaries matching the filter, newest first.
func (s *Service) ListSessions(ctx context.Context, filter SessionFilter) ([]SessionSummary, error) {
	return s.store.Sessions().List(ctx, filter)
}

// ListEvents returns the audit trail matching the filter, oldest first, so
// a session's events read as a chronology.
func (s *Service) ListEvents(ctx context.Context, filter EventFilter) ([]SessionEvent, error) {
	return s.store.Events().List(ctx, filter)
}

// ListRules returns a schema's mapping rules ordered by normalized header.
// Returns ErrSchemaNotFound for unregistered schemas.
func (s *Service) ListRules(ctx context.Context, schemaKey string) ([]MappingRule, error) {
	if _, ok := Get(schemaKey); !ok {
		return nil, ErrSchemaNotFound
	}
	return s.store.Rules().List(ctx, schemaKey)
}
