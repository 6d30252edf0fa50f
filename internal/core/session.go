package core

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the lifecycle state of a reconciliation session.
type SessionState string

const (
	StateCreated            SessionState = "created"
	StateDetecting          SessionState = "detecting"
	StateMatching           SessionState = "matching"
	StateAwaitingResolution SessionState = "awaiting-resolution"
	StateFinalized          SessionState = "finalized"
	StateAbandoned          SessionState = "abandoned"
)

// sessionTransitions lists the legal forward edges. Abandoned is reachable
// from every non-terminal state; Finalized and Abandoned have no exits.
var sessionTransitions = map[SessionState][]SessionState{
	StateCreated:            {StateDetecting, StateAbandoned},
	StateDetecting:          {StateMatching, StateAbandoned},
	StateMatching:           {StateAwaitingResolution, StateAbandoned},
	StateAwaitingResolution: {StateFinalized, StateAbandoned},
}

// Terminal reports whether the state has no outgoing transitions.
func (s SessionState) Terminal() bool {
	return s == StateFinalized || s == StateAbandoned
}

// canReach reports whether a direct transition to the target state is legal.
func (s SessionState) canReach(to SessionState) bool {
	for _, next := range sessionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseSessionState converts user input (API filters, CLI flags) into a
// session state. Returns false for unknown values.
func ParseSessionState(s string) (SessionState, bool) {
	switch SessionState(s) {
	case StateCreated, StateDetecting, StateMatching,
		StateAwaitingResolution, StateFinalized, StateAbandoned:
		return SessionState(s), true
	default:
		return "", false
	}
}

// Session is one reconciliation run: a raw grid working its way through
// detection, matching, human resolution, and finalize. The struct is the
// persistence shape too; the session store serializes it whole after every
// mutation so a process restart mid-resolution loses nothing.
type Session struct {
	ID         string       `json:"id"`
	SchemaKey  string       `json:"schemaKey"`
	SourceName string       `json:"sourceName"`
	State      SessionState `json:"state"`

	Grid       RawGrid              `json:"grid,omitempty"`
	Table      *DetectedTable       `json:"table,omitempty"`
	Candidates []ColumnCandidate    `json:"candidates,omitempty"`
	Proposals  []CandidateProposals `json:"proposals,omitempty"`
	Mappings   []ColumnMapping      `json:"mappings,omitempty"`

	// RulesDegraded is set when the rule snapshot failed during matching.
	// Proposals may be missing historical-rule hits the store actually holds.
	RulesDegraded bool `json:"rulesDegraded,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession creates a session in the Created state.
func NewSession(schemaKey, sourceName string, grid RawGrid) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         uuid.NewString(),
		SchemaKey:  schemaKey,
		SourceName: sourceName,
		State:      StateCreated,
		Grid:       grid,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// transition moves the session to the target state or fails with
// InvalidTransitionError. All state changes go through here.
func (s *Session) transition(to SessionState) error {
	if !s.State.canReach(to) {
		return &InvalidTransitionError{From: s.State, To: to}
	}
	s.State = to
	s.touch()
	return nil
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// BeginDetection moves Created -> Detecting.
func (s *Session) BeginDetection() error {
	return s.transition(StateDetecting)
}

// CompleteDetection records the detected table and its column candidates
// and moves Detecting -> Matching.
func (s *Session) CompleteDetection(table DetectedTable, candidates []ColumnCandidate) error {
	if err := s.transition(StateMatching); err != nil {
		return err
	}
	s.Table = &table
	s.Candidates = candidates
	return nil
}

// CompleteMatching records the matcher output, auto-populates mappings,
// and moves Matching -> AwaitingResolution.
//
// Only confidence-1.0 proposals (historical rules and exact header matches)
// auto-populate. When two columns' top proposals claim the same field the
// earlier column wins and the later stays Unmatched; ambiguity routes to a
// human instead of being guessed at. Alias and fuzzy proposals always wait
// for confirmation regardless of score.
func (s *Session) CompleteMatching(proposals []CandidateProposals) error {
	if err := s.transition(StateAwaitingResolution); err != nil {
		return err
	}

	s.Proposals = proposals
	s.Mappings = make([]ColumnMapping, len(proposals))

	claimed := make(map[string]bool)
	for i, cp := range proposals {
		m := ColumnMapping{Candidate: cp.Candidate, Status: StatusUnmatched}

		if len(cp.Proposals) > 0 {
			top := cp.Proposals[0]
			if autoMatchable(top) && !claimed[top.TargetField] {
				m.TargetField = top.TargetField
				m.Status = StatusMatched
				m.Confidence = top.Confidence
				m.Source = top.Source
				claimed[top.TargetField] = true
			}
		}

		s.Mappings[i] = m
	}

	return nil
}

func autoMatchable(p MatchProposal) bool {
	if p.TargetField == "" || p.Confidence < 1.0 {
		return false
	}
	return p.Source == SourceHistoricalRule || p.Source == SourceExact
}

// Confirm maps the column to the given schema field. Re-confirming the
// column rebinds it; confirming a target already held by another column
// fails with MappingConflictError so the caller resolves the other side
// first. Human decisions carry SourceHuman and full confidence.
func (s *Session) Confirm(columnIndex int, targetField string) error {
	if s.State != StateAwaitingResolution {
		return &StateError{Op: "confirm", State: s.State}
	}

	def, ok := Get(s.SchemaKey)
	if !ok {
		return ErrSchemaNotFound
	}
	if _, ok := def.Field(targetField); !ok {
		return ErrFieldNotInSchema
	}

	m, err := s.mapping(columnIndex)
	if err != nil {
		return err
	}

	if holder := s.matchedTo(targetField); holder != nil && holder.Candidate.ColumnIndex != columnIndex {
		return &MappingConflictError{
			TargetField:    targetField,
			ExistingColumn: holder.Candidate.ColumnIndex,
			ExistingHeader: holder.Candidate.RawHeader,
		}
	}

	m.TargetField = targetField
	m.Status = StatusMatched
	m.Confidence = 1.0
	m.Source = SourceHuman
	s.touch()
	return nil
}

// Reject clears the column's assignment and returns it to Unmatched.
// The column stays resolvable by a later Confirm or Skip.
func (s *Session) Reject(columnIndex int) error {
	if s.State != StateAwaitingResolution {
		return &StateError{Op: "reject", State: s.State}
	}

	m, err := s.mapping(columnIndex)
	if err != nil {
		return err
	}

	m.TargetField = ""
	m.Status = StatusUnmatched
	m.Confidence = 0
	m.Source = ""
	s.touch()
	return nil
}

// Skip excludes the column from the output payload. Skipped columns never
// block finalize on their own; only uncovered required fields do.
func (s *Session) Skip(columnIndex int) error {
	if s.State != StateAwaitingResolution {
		return &StateError{Op: "skip", State: s.State}
	}

	m, err := s.mapping(columnIndex)
	if err != nil {
		return err
	}

	m.TargetField = ""
	m.Status = StatusSkipped
	m.Confidence = 0
	m.Source = ""
	s.touch()
	return nil
}

// Finalize moves AwaitingResolution -> Finalized after verifying every
// required field has a matched column. The caller persists the confirmed
// rules and emits the load payload; the session itself only owns the
// state change and the completeness check.
func (s *Session) Finalize() error {
	if !s.State.canReach(StateFinalized) {
		return &InvalidTransitionError{From: s.State, To: StateFinalized}
	}
	if _, ok := Get(s.SchemaKey); !ok {
		return ErrSchemaNotFound
	}
	if missing := s.MissingRequired(); len(missing) > 0 {
		return &IncompleteMappingError{Missing: missing}
	}
	return s.transition(StateFinalized)
}

// Abandon moves any non-terminal state to Abandoned.
func (s *Session) Abandon() error {
	return s.transition(StateAbandoned)
}

// mapping returns a pointer to the mapping for the given grid column.
func (s *Session) mapping(columnIndex int) (*ColumnMapping, error) {
	for i := range s.Mappings {
		if s.Mappings[i].Candidate.ColumnIndex == columnIndex {
			return &s.Mappings[i], nil
		}
	}
	return nil, ErrColumnNotFound
}

// matchedTo returns the mapping currently holding the target field, if any.
func (s *Session) matchedTo(targetField string) *ColumnMapping {
	for i := range s.Mappings {
		if s.Mappings[i].Status == StatusMatched && s.Mappings[i].TargetField == targetField {
			return &s.Mappings[i]
		}
	}
	return nil
}

// MissingRequired returns required schema fields with no matched column,
// in declaration order.
func (s *Session) MissingRequired() []string {
	def, ok := Get(s.SchemaKey)
	if !ok {
		return nil
	}

	matched := make(map[string]bool)
	for _, m := range s.Mappings {
		if m.Status == StatusMatched {
			matched[m.TargetField] = true
		}
	}

	var missing []string
	for _, f := range def.Fields {
		if f.Required && !matched[f.Name] {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// OpenTargets returns schema fields not yet claimed by a matched column,
// in declaration order. Resolution UIs offer these in the target picker.
func (s *Session) OpenTargets() []string {
	def, ok := Get(s.SchemaKey)
	if !ok {
		return nil
	}

	matched := make(map[string]bool)
	for _, m := range s.Mappings {
		if m.Status == StatusMatched {
			matched[m.TargetField] = true
		}
	}

	open := make([]string, 0, len(def.Fields))
	for _, f := range def.Fields {
		if !matched[f.Name] {
			open = append(open, f.Name)
		}
	}
	return open
}

// ConfirmedRules returns the rule upserts finalize persists: one per
// matched mapping, keyed by the normalized header. Upserting a
// historical-rule mapping with an unchanged target bumps its confirmed
// count; everything else inserts or overwrites.
func (s *Session) ConfirmedRules() []MappingRule {
	var rules []MappingRule
	for _, m := range s.Mappings {
		if m.Status != StatusMatched || m.TargetField == "" {
			continue
		}
		key := NormalizeHeader(m.Candidate.RawHeader)
		if key == "" {
			continue
		}
		rules = append(rules, MappingRule{
			SchemaKey:        s.SchemaKey,
			NormalizedHeader: key,
			TargetField:      m.TargetField,
		})
	}
	return rules
}

// Summary builds the listing row for the session.
func (s *Session) Summary() SessionSummary {
	sum := SessionSummary{
		ID:            s.ID,
		SchemaKey:     s.SchemaKey,
		SourceName:    s.SourceName,
		State:         s.State,
		RulesDegraded: s.RulesDegraded,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	for _, m := range s.Mappings {
		switch m.Status {
		case StatusMatched:
			sum.Matched++
		case StatusUnmatched:
			sum.NeedsReview++
		case StatusSkipped:
			sum.Skipped++
		}
	}
	return sum
}
