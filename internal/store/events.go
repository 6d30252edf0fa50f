package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JonMunkholm/reconcile/internal/core"
)

type eventStore struct {
	db core.DBTX
}

func (s *eventStore) Append(ctx context.Context, event core.SessionEvent) error {
	query := `INSERT INTO session_events
			(id, session_id, action, column_index, old_target, new_target,
			 detail, actor, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.Exec(ctx, query,
		event.ID, event.SessionID, string(event.Action), event.ColumnIndex,
		event.OldTarget, event.NewTarget, event.Detail,
		event.Actor, event.IPAddress, event.UserAgent, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append session event: %w", err)
	}
	return nil
}

// List returns events oldest first so a session's trail reads as a
// chronology. A malformed session ID filter matches nothing.
func (s *eventStore) List(ctx context.Context, filter core.EventFilter) ([]core.SessionEvent, error) {
	if filter.SessionID != "" {
		if _, err := uuid.Parse(filter.SessionID); err != nil {
			return []core.SessionEvent{}, nil
		}
	}

	wb := NewWhereBuilder()
	wb.Add("session_id", filter.SessionID)
	wb.Add("action", string(filter.Action))
	clause, args := wb.Build()

	query := `SELECT id, session_id, action, column_index, old_target, new_target,
			detail, actor, ip_address, user_agent, created_at
		FROM session_events` + clause + " ORDER BY created_at, id"

	args = append(args, clampLimit(filter.Limit))
	query += fmt.Sprintf(" LIMIT $%d", wb.NextArgIndex())
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", wb.NextArgIndex()+1)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	events := make([]core.SessionEvent, 0)
	for rows.Next() {
		var (
			event  core.SessionEvent
			action string
		)
		err := rows.Scan(
			&event.ID, &event.SessionID, &action, &event.ColumnIndex,
			&event.OldTarget, &event.NewTarget, &event.Detail,
			&event.Actor, &event.IPAddress, &event.UserAgent, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		event.Action = core.EventAction(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session event rows: %w", err)
	}
	return events, nil
}
