package core

// events.go defines the session event log: an immutable, append-only trail
// of every lifecycle transition and resolution action, with enough request
// metadata to answer "who mapped this column and when" months later.

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventAction identifies what happened to a session.
type EventAction string

const (
	EventSessionCreated    EventAction = "session_created"
	EventTableDetected     EventAction = "table_detected"
	EventDetectionFailed   EventAction = "detection_failed"
	EventMatchingCompleted EventAction = "matching_completed"
	EventColumnConfirmed   EventAction = "column_confirmed"
	EventColumnRejected    EventAction = "column_rejected"
	EventColumnSkipped     EventAction = "column_skipped"
	EventSessionFinalized  EventAction = "session_finalized"
	EventSessionAbandoned  EventAction = "session_abandoned"
)

// SessionEvent is one row of the session audit trail. Column-level actions
// carry the column index and the mapping change; lifecycle actions carry
// a detail string (detected range, failure reason, payload row count).
type SessionEvent struct {
	ID          string      `json:"id"`
	SessionID   string      `json:"sessionId"`
	Action      EventAction `json:"action"`
	ColumnIndex *int        `json:"columnIndex,omitempty"`
	OldTarget   string      `json:"oldTarget,omitempty"`
	NewTarget   string      `json:"newTarget,omitempty"`
	Detail      string      `json:"detail,omitempty"`
	Actor       string      `json:"actor,omitempty"`
	IPAddress   string      `json:"ipAddress,omitempty"`
	UserAgent   string      `json:"userAgent,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// EventFilter narrows event listings.
type EventFilter struct {
	SessionID string
	Action    EventAction
	Limit     int
	Offset    int
}

// NewSessionEvent builds an event for the session with identity, timestamp,
// and whatever request metadata the context carries. Callers fill in the
// column and target fields before appending.
func NewSessionEvent(ctx context.Context, sessionID string, action EventAction) SessionEvent {
	return SessionEvent{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Action:    action,
		Actor:     GetActorFromContext(ctx),
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}
}

// WithColumn attaches a column index to the event.
func (e SessionEvent) WithColumn(columnIndex int) SessionEvent {
	e.ColumnIndex = &columnIndex
	return e
}

// WithTargets records a mapping change on the event.
func (e SessionEvent) WithTargets(oldTarget, newTarget string) SessionEvent {
	e.OldTarget = oldTarget
	e.NewTarget = newTarget
	return e
}

// WithDetail attaches free-form detail text to the event.
func (e SessionEvent) WithDetail(detail string) SessionEvent {
	e.Detail = detail
	return e
}
