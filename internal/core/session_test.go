package core

import (
	"errors"
	"testing"
)

// registerBillingSchema installs the schema session tests resolve against
// and removes it when the test ends.
func registerBillingSchema(t *testing.T) {
	t.Helper()
	t.Cleanup(Clear)
	Register(SchemaDefinition{
		Info: SchemaInfo{Key: "billing", Group: "Finance", Label: "Billing"},
		Fields: []FieldSpec{
			{Name: "customer_name", Type: FieldText, Required: true},
			{Name: "amount", Type: FieldNumeric, Required: true},
			{Name: "transaction_date", Type: FieldDate, Required: true},
			{Name: "notes", Type: FieldText},
		},
		Aliases: map[string]string{"dt": "transaction_date"},
	})
}

// awaitingSession advances a fresh session to AwaitingResolution with the
// given matcher output.
func awaitingSession(t *testing.T, proposals []CandidateProposals) *Session {
	t.Helper()

	sess := NewSession("billing", "export.csv", cleanGrid())
	if err := sess.BeginDetection(); err != nil {
		t.Fatalf("BeginDetection: %v", err)
	}

	table := DetectedTable{HeaderRow: 0, DataStart: 1, DataEnd: 4, ColumnCount: 3}
	candidates := make([]ColumnCandidate, len(proposals))
	for i, cp := range proposals {
		candidates[i] = cp.Candidate
	}
	if err := sess.CompleteDetection(table, candidates); err != nil {
		t.Fatalf("CompleteDetection: %v", err)
	}
	if err := sess.CompleteMatching(proposals); err != nil {
		t.Fatalf("CompleteMatching: %v", err)
	}
	return sess
}

func proposalFor(header string, col int, proposals ...MatchProposal) CandidateProposals {
	return CandidateProposals{
		Candidate: ColumnCandidate{RawHeader: header, ColumnIndex: col},
		Proposals: append(proposals, MatchProposal{Confidence: 0, Source: SourceNone}),
	}
}

// ----------------------------------------------------------------------------
// State Machine Tests
// ----------------------------------------------------------------------------

func TestNewSession(t *testing.T) {
	sess := NewSession("billing", "export.csv", cleanGrid())

	if sess.ID == "" {
		t.Error("session has no ID")
	}
	if sess.State != StateCreated {
		t.Errorf("state = %s, want %s", sess.State, StateCreated)
	}
	if sess.CreatedAt.IsZero() || sess.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestSession_LifecycleTransitions(t *testing.T) {
	registerBillingSchema(t)

	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Customer Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Amount", 1, MatchProposal{TargetField: "amount", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Date", 2, MatchProposal{TargetField: "transaction_date", Confidence: 0.7, Source: SourceFuzzy}),
	})

	if sess.State != StateAwaitingResolution {
		t.Fatalf("state = %s, want %s", sess.State, StateAwaitingResolution)
	}

	if err := sess.Confirm(2, "transaction_date"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := sess.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if sess.State != StateFinalized {
		t.Errorf("state = %s, want %s", sess.State, StateFinalized)
	}
}

func TestSession_InvalidTransitions(t *testing.T) {
	registerBillingSchema(t)

	sess := NewSession("billing", "export.csv", cleanGrid())

	// Created cannot jump straight to Finalized.
	err := sess.Finalize()
	var transErr *InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("Finalize from Created = %v, want InvalidTransitionError", err)
	}
	if transErr.From != StateCreated || transErr.To != StateFinalized {
		t.Errorf("transition error = %+v", transErr)
	}

	// Detection cannot complete before it begins.
	if err := sess.CompleteDetection(DetectedTable{}, nil); !errors.As(err, &transErr) {
		t.Errorf("CompleteDetection from Created = %v, want InvalidTransitionError", err)
	}
}

func TestSession_AbandonFromAnyNonTerminalState(t *testing.T) {
	registerBillingSchema(t)

	fresh := NewSession("billing", "export.csv", cleanGrid())
	if err := fresh.Abandon(); err != nil {
		t.Errorf("Abandon from Created: %v", err)
	}

	mid := NewSession("billing", "export.csv", cleanGrid())
	if err := mid.BeginDetection(); err != nil {
		t.Fatal(err)
	}
	if err := mid.Abandon(); err != nil {
		t.Errorf("Abandon from Detecting: %v", err)
	}

	resolved := awaitingSession(t, []CandidateProposals{
		proposalFor("Customer Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 1.0, Source: SourceExact}),
	})
	if err := resolved.Abandon(); err != nil {
		t.Errorf("Abandon from AwaitingResolution: %v", err)
	}
}

func TestSession_AbandonIsTerminal(t *testing.T) {
	registerBillingSchema(t)

	sess := NewSession("billing", "export.csv", cleanGrid())
	if err := sess.Abandon(); err != nil {
		t.Fatal(err)
	}

	if err := sess.Abandon(); err == nil {
		t.Error("Abandon on an abandoned session succeeded")
	}
	if err := sess.BeginDetection(); err == nil {
		t.Error("BeginDetection on an abandoned session succeeded")
	}
}

func TestSession_FinalizedIsTerminal(t *testing.T) {
	registerBillingSchema(t)

	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Customer Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Amount", 1, MatchProposal{TargetField: "amount", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Transaction Date", 2, MatchProposal{TargetField: "transaction_date", Confidence: 1.0, Source: SourceExact}),
	})
	if err := sess.Finalize(); err != nil {
		t.Fatal(err)
	}

	if err := sess.Abandon(); err == nil {
		t.Error("Abandon on a finalized session succeeded")
	}
	if err := sess.Confirm(0, "notes"); err == nil {
		t.Error("Confirm on a finalized session succeeded")
	}
}

// ----------------------------------------------------------------------------
// Auto-Population Tests
// ----------------------------------------------------------------------------

func TestSession_CompleteMatchingAutoPopulates(t *testing.T) {
	registerBillingSchema(t)

	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Customer Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Amt", 1, MatchProposal{TargetField: "amount", Confidence: 1.0, Source: SourceHistoricalRule}),
		proposalFor("Dt", 2, MatchProposal{TargetField: "transaction_date", Confidence: 0.9, Source: SourceNormalized}),
		proposalFor("Cust Nm", 3, MatchProposal{TargetField: "customer_name", Confidence: 0.8, Source: SourceFuzzy}),
	})

	wantStatus := map[int]MappingStatus{
		0: StatusMatched,   // exact at 1.0
		1: StatusMatched,   // historical rule at 1.0
		2: StatusUnmatched, // alias never auto-populates
		3: StatusUnmatched, // fuzzy never auto-populates
	}
	for _, m := range sess.Mappings {
		if m.Status != wantStatus[m.Candidate.ColumnIndex] {
			t.Errorf("column %d status = %s, want %s", m.Candidate.ColumnIndex, m.Status, wantStatus[m.Candidate.ColumnIndex])
		}
	}
}

func TestSession_AutoPopulationFirstColumnWins(t *testing.T) {
	registerBillingSchema(t)

	// Duplicate headers both exact-match amount; the earlier column takes
	// it, the later one routes to a human.
	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Amount", 0, MatchProposal{TargetField: "amount", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Amount", 1, MatchProposal{TargetField: "amount", Confidence: 1.0, Source: SourceExact}),
	})

	if sess.Mappings[0].Status != StatusMatched {
		t.Errorf("column 0 = %s, want matched", sess.Mappings[0].Status)
	}
	if sess.Mappings[1].Status != StatusUnmatched {
		t.Errorf("column 1 = %s, want unmatched (target already claimed)", sess.Mappings[1].Status)
	}
}

// ----------------------------------------------------------------------------
// Resolution Action Tests
// ----------------------------------------------------------------------------

func TestSession_Confirm(t *testing.T) {
	registerBillingSchema(t)

	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Cust Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 0.8, Source: SourceFuzzy}),
	})

	if err := sess.Confirm(0, "customer_name"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	m := sess.Mappings[0]
	if m.Status != StatusMatched || m.TargetField != "customer_name" {
		t.Errorf("mapping = %+v", m)
	}
	if m.Source != SourceHuman || m.Confidence != 1.0 {
		t.Errorf("human decision recorded as %s at %g, want human at 1.0", m.Source, m.Confidence)
	}
	if sess.State != StateAwaitingResolution {
		t.Errorf("state = %s, resolution actions must not leave AwaitingResolution", sess.State)
	}
}

func TestSession_ConfirmErrors(t *testing.T) {
	registerBillingSchema(t)

	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Customer Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Mystery", 1),
	})

	if err := sess.Confirm(1, "no_such_field"); !errors.Is(err, ErrFieldNotInSchema) {
		t.Errorf("unknown field error = %v, want ErrFieldNotInSchema", err)
	}
	if err := sess.Confirm(99, "amount"); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("unknown column error = %v, want ErrColumnNotFound", err)
	}

	// Column 0 already holds customer_name.
	err := sess.Confirm(1, "customer_name")
	var conflict *MappingConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("conflicting confirm = %v, want MappingConflictError", err)
	}
	if conflict.ExistingColumn != 0 || conflict.ExistingHeader != "Customer Name" {
		t.Errorf("conflict names wrong holder: %+v", conflict)
	}

	// The losing mapping is untouched.
	if sess.Mappings[1].Status != StatusUnmatched {
		t.Errorf("column 1 = %s after rejected confirm, want unmatched", sess.Mappings[1].Status)
	}
}

func TestSession_ConfirmRebindsOwnColumn(t *testing.T) {
	registerBillingSchema(t)

	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Customer Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 1.0, Source: SourceExact}),
	})

	// Re-confirming the same column to a different field is a rebind, not
	// a conflict.
	if err := sess.Confirm(0, "notes"); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if sess.Mappings[0].TargetField != "notes" {
		t.Errorf("target = %s, want notes", sess.Mappings[0].TargetField)
	}
}

func TestSession_RejectAndSkip(t *testing.T) {
	registerBillingSchema(t)

	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Customer Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Internal Ref", 1),
	})

	if err := sess.Reject(0); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if m := sess.Mappings[0]; m.Status != StatusUnmatched || m.TargetField != "" {
		t.Errorf("rejected mapping = %+v, want cleared and unmatched", m)
	}

	if err := sess.Skip(1); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if sess.Mappings[1].Status != StatusSkipped {
		t.Errorf("skipped mapping status = %s", sess.Mappings[1].Status)
	}

	// A rejected column stays resolvable.
	if err := sess.Confirm(0, "customer_name"); err != nil {
		t.Errorf("Confirm after Reject: %v", err)
	}
}

// ----------------------------------------------------------------------------
// Finalize Tests
// ----------------------------------------------------------------------------

func TestSession_FinalizeIncompleteMapping(t *testing.T) {
	registerBillingSchema(t)

	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Customer Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Mystery A", 1),
		proposalFor("Mystery B", 2),
	})

	err := sess.Finalize()
	var incomplete *IncompleteMappingError
	if !errors.As(err, &incomplete) {
		t.Fatalf("Finalize = %v, want IncompleteMappingError", err)
	}

	want := []string{"amount", "transaction_date"}
	if len(incomplete.Missing) != len(want) {
		t.Fatalf("missing = %v, want %v", incomplete.Missing, want)
	}
	for i, f := range want {
		if incomplete.Missing[i] != f {
			t.Errorf("missing[%d] = %s, want %s (schema order)", i, incomplete.Missing[i], f)
		}
	}

	// The failed finalize leaves the session resolvable.
	if sess.State != StateAwaitingResolution {
		t.Errorf("state = %s after failed finalize", sess.State)
	}
}

func TestSession_FinalizeWithSkippedOptionalColumns(t *testing.T) {
	registerBillingSchema(t)

	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Customer Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Amount", 1, MatchProposal{TargetField: "amount", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Transaction Date", 2, MatchProposal{TargetField: "transaction_date", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Internal Ref", 3),
	})

	if err := sess.Skip(3); err != nil {
		t.Fatal(err)
	}
	if err := sess.Finalize(); err != nil {
		t.Errorf("Finalize with skipped optional column: %v", err)
	}
}

func TestSession_NoDuplicateTargetsAfterFinalize(t *testing.T) {
	registerBillingSchema(t)

	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Customer Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Amount", 1, MatchProposal{TargetField: "amount", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Transaction Date", 2, MatchProposal{TargetField: "transaction_date", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Amount 2", 3, MatchProposal{TargetField: "amount", Confidence: 1.0, Source: SourceExact}),
	})
	if err := sess.Skip(3); err != nil {
		t.Fatal(err)
	}
	if err := sess.Finalize(); err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]int)
	for _, m := range sess.Mappings {
		if m.Status == StatusMatched {
			seen[m.TargetField]++
		}
	}
	for field, n := range seen {
		if n > 1 {
			t.Errorf("field %s matched by %d columns", field, n)
		}
	}
}

// ----------------------------------------------------------------------------
// Derived View Tests
// ----------------------------------------------------------------------------

func TestSession_OpenTargets(t *testing.T) {
	registerBillingSchema(t)

	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Customer Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Mystery", 1),
	})

	want := []string{"amount", "transaction_date", "notes"}
	got := sess.OpenTargets()
	if len(got) != len(want) {
		t.Fatalf("OpenTargets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("OpenTargets[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSession_ConfirmedRules(t *testing.T) {
	registerBillingSchema(t)

	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Customer Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Amt", 1, MatchProposal{TargetField: "amount", Confidence: 1.0, Source: SourceHistoricalRule}),
		proposalFor("Dt", 2),
		proposalFor("Junk", 3),
	})
	if err := sess.Confirm(2, "transaction_date"); err != nil {
		t.Fatal(err)
	}
	if err := sess.Skip(3); err != nil {
		t.Fatal(err)
	}

	rules := sess.ConfirmedRules()
	if len(rules) != 3 {
		t.Fatalf("got %d rules, want 3 (skipped column excluded)", len(rules))
	}

	byHeader := make(map[string]MappingRule)
	for _, r := range rules {
		if r.SchemaKey != "billing" {
			t.Errorf("rule schema = %s, want billing", r.SchemaKey)
		}
		byHeader[r.NormalizedHeader] = r
	}
	if byHeader["customer name"].TargetField != "customer_name" {
		t.Errorf("rules = %+v, want normalized 'customer name' -> customer_name", byHeader)
	}
	if byHeader["amt"].TargetField != "amount" {
		t.Errorf("historical mapping missing from rules: %+v", byHeader)
	}
	if byHeader["dt"].TargetField != "transaction_date" {
		t.Errorf("human confirm missing from rules: %+v", byHeader)
	}
}

func TestSession_Summary(t *testing.T) {
	registerBillingSchema(t)

	sess := awaitingSession(t, []CandidateProposals{
		proposalFor("Customer Name", 0, MatchProposal{TargetField: "customer_name", Confidence: 1.0, Source: SourceExact}),
		proposalFor("Mystery", 1),
		proposalFor("Junk", 2),
	})
	if err := sess.Skip(2); err != nil {
		t.Fatal(err)
	}

	sum := sess.Summary()
	if sum.Matched != 1 || sum.NeedsReview != 1 || sum.Skipped != 1 {
		t.Errorf("summary = %+v, want 1 matched / 1 review / 1 skipped", sum)
	}
	if sum.ID != sess.ID || sum.State != StateAwaitingResolution {
		t.Errorf("summary identity fields wrong: %+v", sum)
	}
}
