package core

import (
	"context"
	"fmt"
	"log/slog"
)

// StartSession runs the detect-and-match pipeline for a new grid and
// returns the session awaiting human resolution.
//
// The session is persisted after every stage, so a crash mid-pipeline
// leaves an inspectable record instead of a vanished upload. Detection
// failure abandons the session and returns the detection error; the
// abandoned session and its failure event remain queryable.
//
// Returns ErrSchemaNotFound for unregistered schemas and
// ErrTooManyDetections when the concurrent detection limit is reached
// and no slot frees up within the wait window.
func (s *Service) StartSession(ctx context.Context, schemaKey, sourceName string, grid RawGrid) (*Session, error) {
	def, ok := Get(schemaKey)
	if !ok {
		return nil, ErrSchemaNotFound
	}

	// Acquire detection slot (blocks until available or timeout)
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, DetectionTimeout)
	defer cancel()

	sess := NewSession(schemaKey, sourceName, grid)

	if err := s.store.Sessions().Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save new session: %w", err)
	}
	s.appendEvent(ctx, NewSessionEvent(ctx, sess.ID, EventSessionCreated).
		WithDetail(fmt.Sprintf("source %q, %d grid rows", sourceName, len(grid))))

	if err := sess.BeginDetection(); err != nil {
		return nil, err
	}

	table, err := DetectTable(grid, s.detector)
	if err != nil {
		return nil, s.failDetection(ctx, sess, err)
	}

	candidates := ExtractCandidates(grid, table, s.detector.MaxSampleValues)
	if err := sess.CompleteDetection(table, candidates); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, NewSessionEvent(ctx, sess.ID, EventTableDetected).
		WithDetail(fmt.Sprintf("header row %d, %d data rows, %d columns",
			table.HeaderRow, table.DataRows(), len(candidates))))

	// Matching survives a dead rule store: the session degrades to
	// schema-only proposals and records that history was unavailable.
	snapshot, err := s.store.Rules().Snapshot(ctx, schemaKey)
	if err != nil {
		slog.Warn("rule snapshot unavailable, matching without history",
			"session_id", sess.ID,
			"schema", schemaKey,
			"error", err,
		)
		sess.RulesDegraded = true
		snapshot = nil
	}

	proposals := Match(candidates, &def, snapshot, s.matcher)
	if err := sess.CompleteMatching(proposals); err != nil {
		return nil, err
	}

	auto := 0
	for _, m := range sess.Mappings {
		if m.Status == StatusMatched {
			auto++
		}
	}
	detail := fmt.Sprintf("%d of %d columns auto-matched", auto, len(sess.Mappings))
	if sess.RulesDegraded {
		detail += ", rule history unavailable"
	}
	s.appendEvent(ctx, NewSessionEvent(ctx, sess.ID, EventMatchingCompleted).WithDetail(detail))

	if err := s.store.Sessions().Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save matched session: %w", err)
	}
	s.cacheSession(sess)

	slog.Info("session awaiting resolution",
		"session_id", sess.ID,
		"schema", schemaKey,
		"source", sourceName,
		"columns", len(sess.Mappings),
		"auto_matched", auto,
	)

	return sess, nil
}

// failDetection records the failure, abandons the session, and hands the
// original detection error back to the caller.
func (s *Service) failDetection(ctx context.Context, sess *Session, detectErr error) error {
	slog.Warn("table detection failed",
		"session_id", sess.ID,
		"schema", sess.SchemaKey,
		"source", sess.SourceName,
		"error", detectErr,
	)

	s.appendEvent(ctx, NewSessionEvent(ctx, sess.ID, EventDetectionFailed).
		WithDetail(detectErr.Error()))

	if err := sess.Abandon(); err == nil {
		if err := s.store.Sessions().Save(ctx, sess); err != nil {
			slog.Error("save abandoned session", "session_id", sess.ID, "error", err)
		}
	}

	return detectErr
}

// appendEvent writes one audit trail entry. Event appends are best-effort
// outside the finalize transaction: a failed append is logged and dropped
// rather than failing the operation that produced it.
func (s *Service) appendEvent(ctx context.Context, event SessionEvent) {
	if err := s.store.Events().Append(ctx, event); err != nil {
		slog.Error("append session event",
			"session_id", event.SessionID,
			"action", string(event.Action),
			"error", err,
		)
	}
}
