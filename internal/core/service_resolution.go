package core

import (
	"context"
	"fmt"
	"log/slog"
)

// ConfirmColumn maps the column to the target field as a human decision
// and write-through saves the session.
func (s *Service) ConfirmColumn(ctx context.Context, sessionID string, columnIndex int, targetField string) (*Session, error) {
	return s.resolveColumn(ctx, sessionID, EventColumnConfirmed, columnIndex, func(sess *Session) error {
		return sess.Confirm(columnIndex, targetField)
	})
}

// RejectColumn clears the column's assignment. The column returns to
// unmatched and stays resolvable.
func (s *Service) RejectColumn(ctx context.Context, sessionID string, columnIndex int) (*Session, error) {
	return s.resolveColumn(ctx, sessionID, EventColumnRejected, columnIndex, func(sess *Session) error {
		return sess.Reject(columnIndex)
	})
}

// SkipColumn excludes the column from the output payload.
func (s *Service) SkipColumn(ctx context.Context, sessionID string, columnIndex int) (*Session, error) {
	return s.resolveColumn(ctx, sessionID, EventColumnSkipped, columnIndex, func(sess *Session) error {
		return sess.Skip(columnIndex)
	})
}

// resolveColumn applies one resolution action under the write lock: load,
// capture the old target, mutate, save, append the audit event. Holding
// the lock across the save serializes concurrent actions on one session;
// resolution is human-paced, never a hot path.
func (s *Service) resolveColumn(ctx context.Context, sessionID string, action EventAction, columnIndex int, apply func(*Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var oldTarget string
	if m, err := sess.mapping(columnIndex); err == nil {
		oldTarget = m.TargetField
	}

	if err := apply(sess); err != nil {
		return nil, err
	}

	if err := s.store.Sessions().Save(ctx, sess); err != nil {
		// Drop the mutated copy; the next access reloads the durable state.
		delete(s.sessions, sessionID)
		return nil, fmt.Errorf("save session: %w", err)
	}

	var newTarget string
	if m, err := sess.mapping(columnIndex); err == nil {
		newTarget = m.TargetField
	}
	s.appendEvent(ctx, NewSessionEvent(ctx, sessionID, action).
		WithColumn(columnIndex).
		WithTargets(oldTarget, newTarget))

	return sess, nil
}

// FinalizeResult reports what finalize persisted and delivered.
type FinalizeResult struct {
	Session     *Session `json:"session"`
	TargetTable string   `json:"targetTable"`
	RowsLoaded  int      `json:"rowsLoaded"`
	RulesSaved  int      `json:"rulesSaved"`
}

// FinalizeSession completes the session. Every matched mapping becomes a
// durable rule, and the rule upserts, the finalized session state, and
// the finalize event commit in one transaction. The coerced load payload
// goes to the loader only after that commit.
//
// A loader failure surfaces as an error but does not unwind the session:
// the mapping knowledge is the durable asset, and the data handoff can be
// retried by starting a new session from the same file.
func (s *Service) FinalizeSession(ctx context.Context, sessionID string) (*FinalizeResult, error) {
	s.mu.Lock()
	sess, err := s.sessionLocked(ctx, sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	err = sess.Finalize()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	payload, err := BuildLoadPayload(sess)
	if err != nil {
		s.dropSession(sessionID)
		return nil, err
	}

	rules := sess.ConfirmedRules()

	err = s.store.InTx(ctx, func(tx Datastore) error {
		for _, rule := range rules {
			if _, _, err := tx.Rules().Upsert(ctx, rule); err != nil {
				return &RuleStoreUnavailableError{Op: "finalize", Err: err}
			}
		}
		if err := tx.Sessions().Save(ctx, sess); err != nil {
			return fmt.Errorf("save finalized session: %w", err)
		}
		event := NewSessionEvent(ctx, sessionID, EventSessionFinalized).
			WithDetail(fmt.Sprintf("%d rules persisted, %d rows for table %s",
				len(rules), len(payload.Rows), payload.TargetTable))
		if err := tx.Events().Append(ctx, event); err != nil {
			return fmt.Errorf("append finalize event: %w", err)
		}
		return nil
	})
	if err != nil {
		// The durable session still awaits resolution; drop the finalized
		// in-memory copy so the next access resumes from the store.
		s.dropSession(sessionID)
		return nil, err
	}

	// Terminal now; the store keeps it for the listing APIs.
	s.dropSession(sessionID)

	if s.loader != nil {
		if err := s.loader.Load(ctx, payload); err != nil {
			slog.Error("deliver load payload",
				"session_id", sessionID,
				"target_table", payload.TargetTable,
				"error", err,
			)
			return nil, fmt.Errorf("deliver load payload: %w", err)
		}
	}

	slog.Info("session finalized",
		"session_id", sessionID,
		"schema", sess.SchemaKey,
		"rules", len(rules),
		"rows", len(payload.Rows),
		"target_table", payload.TargetTable,
	)

	return &FinalizeResult{
		Session:     sess,
		TargetTable: payload.TargetTable,
		RowsLoaded:  len(payload.Rows),
		RulesSaved:  len(rules),
	}, nil
}

// AbandonSession terminates the session from any non-terminal state.
func (s *Service) AbandonSession(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Abandon(); err != nil {
		return nil, err
	}
	if err := s.store.Sessions().Save(ctx, sess); err != nil {
		delete(s.sessions, sessionID)
		return nil, fmt.Errorf("save abandoned session: %w", err)
	}
	delete(s.sessions, sessionID)

	s.appendEvent(ctx, NewSessionEvent(ctx, sessionID, EventSessionAbandoned))

	slog.Info("session abandoned", "session_id", sessionID, "schema", sess.SchemaKey)
	return sess, nil
}
