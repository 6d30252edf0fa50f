package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by lookups and detection. Callers match them
// with errors.Is; the web layer maps them to user-facing messages.
var (
	// ErrNoTableFound means no row in the scanned range looked like a header.
	ErrNoTableFound = errors.New("no tabular region found in grid")

	// ErrInsufficientData means a header candidate was found but too few
	// data rows follow it to reconcile anything.
	ErrInsufficientData = errors.New("not enough data rows below the detected header")

	// ErrSchemaNotFound means the schema key is not registered.
	ErrSchemaNotFound = errors.New("schema not registered")

	// ErrSessionNotFound means the session ID is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRuleNotFound means the mapping rule ID is unknown.
	ErrRuleNotFound = errors.New("mapping rule not found")

	// ErrColumnNotFound means the column index has no candidate in the session.
	ErrColumnNotFound = errors.New("column index not present in session")

	// ErrFieldNotInSchema means the target field name is not part of the
	// session's schema.
	ErrFieldNotInSchema = errors.New("target field not in schema")
)

// InvalidTransitionError reports an illegal session state transition.
type InvalidTransitionError struct {
	From SessionState
	To   SessionState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid session transition %s -> %s", e.From, e.To)
}

// StateError reports a resolution operation attempted while the session
// is not in a state that allows it.
type StateError struct {
	Op    string
	State SessionState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s while session is %s", e.Op, e.State)
}

// MappingConflictError reports an attempt to map a column to a target
// field already claimed by another column. The engine never resolves
// this automatically; the caller must reject or skip one side first.
type MappingConflictError struct {
	TargetField    string
	ExistingColumn int
	ExistingHeader string
}

func (e *MappingConflictError) Error() string {
	return fmt.Sprintf("target field %q already mapped from column %d (%q)",
		e.TargetField, e.ExistingColumn, e.ExistingHeader)
}

// IncompleteMappingError reports a finalize attempt while one or more
// required fields lack a matched column.
type IncompleteMappingError struct {
	Missing []string
}

func (e *IncompleteMappingError) Error() string {
	return fmt.Sprintf("required fields without a matched column: %s",
		strings.Join(e.Missing, ", "))
}

// RuleStoreUnavailableError wraps a rule store failure. During matching
// it is logged and matching proceeds without historical rules; during
// finalize it fails the transition so confirmed rules are never lost.
type RuleStoreUnavailableError struct {
	Op  string
	Err error
}

func (e *RuleStoreUnavailableError) Error() string {
	return fmt.Sprintf("rule store unavailable during %s: %v", e.Op, e.Err)
}

func (e *RuleStoreUnavailableError) Unwrap() error {
	return e.Err
}
