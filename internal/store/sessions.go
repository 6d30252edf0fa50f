package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/reconcile/internal/core"
)

// DefaultListLimit applies when a filter does not set its own limit.
const DefaultListLimit = 100

// MaxListLimit caps a single listing page.
const MaxListLimit = 1000

type sessionStore struct {
	db core.DBTX
}

// Save upserts the whole session as a JSONB document. The listing columns
// are denormalized copies so List never decodes (or even reads) the
// document and its embedded grid.
func (s *sessionStore) Save(ctx context.Context, sess *core.Session) error {
	document, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	sum := sess.Summary()
	query := `INSERT INTO sessions
			(id, schema_key, source_name, state, matched, needs_review,
			 skipped, rules_degraded, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			matched = EXCLUDED.matched,
			needs_review = EXCLUDED.needs_review,
			skipped = EXCLUDED.skipped,
			rules_degraded = EXCLUDED.rules_degraded,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at`

	_, err = s.db.Exec(ctx, query,
		sess.ID, sess.SchemaKey, sess.SourceName, string(sess.State),
		sum.Matched, sum.NeedsReview, sum.Skipped, sess.RulesDegraded,
		document, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *sessionStore) Get(ctx context.Context, id string) (*core.Session, error) {
	// Malformed IDs read as absent rather than surfacing a cast error.
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.ErrSessionNotFound
	}

	var document []byte
	err := s.db.QueryRow(ctx, `SELECT document FROM sessions WHERE id = $1`, id).Scan(&document)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess core.Session
	if err := json.Unmarshal(document, &sess); err != nil {
		return nil, fmt.Errorf("decode session document: %w", err)
	}
	return &sess, nil
}

func (s *sessionStore) List(ctx context.Context, filter core.SessionFilter) ([]core.SessionSummary, error) {
	wb := NewWhereBuilder()
	wb.Add("schema_key", filter.SchemaKey)
	wb.Add("state", string(filter.State))
	wb.AddTimeRange("created_at", filter.CreatedAfter, filter.CreatedBefore)
	clause, args := wb.Build()

	query := `SELECT id, schema_key, source_name, state, matched, needs_review,
			skipped, rules_degraded, created_at, updated_at
		FROM sessions` + clause + " ORDER BY created_at DESC"

	args = append(args, clampLimit(filter.Limit))
	query += fmt.Sprintf(" LIMIT $%d", wb.NextArgIndex())
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", wb.NextArgIndex()+1)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	summaries := make([]core.SessionSummary, 0)
	for rows.Next() {
		var (
			sum   core.SessionSummary
			state string
		)
		err := rows.Scan(
			&sum.ID, &sum.SchemaKey, &sum.SourceName, &state,
			&sum.Matched, &sum.NeedsReview, &sum.Skipped, &sum.RulesDegraded,
			&sum.CreatedAt, &sum.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		sum.State = core.SessionState(state)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session rows: %w", err)
	}
	return summaries, nil
}

func (s *sessionStore) PurgeAbandoned(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM sessions WHERE state = $1 AND updated_at < $2`,
		string(core.StateAbandoned), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("purge abandoned sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ArchiveGrids strips the grid, candidate, and proposal keys out of old
// finalized documents. The key-exists predicate keeps already-archived
// rows out of the affected count.
func (s *sessionStore) ArchiveGrids(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE sessions
		SET document = document - 'grid' - 'candidates' - 'proposals'
		WHERE state = $1 AND updated_at < $2
		  AND (document ? 'grid' OR document ? 'candidates' OR document ? 'proposals')`

	tag, err := s.db.Exec(ctx, query, string(core.StateFinalized), cutoff)
	if err != nil {
		return 0, fmt.Errorf("archive session grids: %w", err)
	}
	return tag.RowsAffected(), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
