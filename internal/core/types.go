package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// RawGrid is the rectangular cell grid produced by a spreadsheet parser.
// Rows may be ragged; cells past the end of a row read as empty.
type RawGrid [][]string

// Cell returns the cell at (row, col), or "" when the coordinate falls
// outside the grid or past a ragged row's end.
func (g RawGrid) Cell(row, col int) string {
	if row < 0 || row >= len(g) {
		return ""
	}
	if col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// Width returns the widest row length in the grid.
func (g RawGrid) Width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// CellKind classifies a cell value by the strictest type it parses as.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindText
	KindNumeric
	KindDate
	KindBool
)

// Typed reports whether the kind represents a parsed, non-text value.
func (k CellKind) Typed() bool {
	return k == KindNumeric || k == KindDate || k == KindBool
}

// FieldType represents the expected data type for a canonical field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldNumeric
	FieldBool
)

// String returns the lowercase name used in catalog files and API payloads.
func (t FieldType) String() string {
	switch t {
	case FieldEnum:
		return "enum"
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	case FieldBool:
		return "bool"
	default:
		return "text"
	}
}

// FieldSpec defines one field of a canonical schema.
type FieldSpec struct {
	Name       string              // Canonical field name: "customer_name"
	Type       FieldType           // Expected data type
	Required   bool                // Field must have exactly one matched column before finalize
	AllowEmpty bool                // If true, empty values are allowed even when Required
	EnumValues []string            // Valid values for FieldEnum type
	Normalizer func(string) string // Optional transformation applied before coercion
}

// SchemaInfo contains display information about a canonical schema.
type SchemaInfo struct {
	Key         string // Unique identifier: "revenue_report"
	Group       string // Business area: "Finance", "CRM"
	Label       string // Display name: "Revenue Report"
	Description string // Shown in schema listings
}

// SchemaDefinition contains everything needed to reconcile a vendor
// spreadsheet against one canonical schema.
type SchemaDefinition struct {
	Info   SchemaInfo
	Fields []FieldSpec

	// Aliases maps known vendor header spellings to canonical field names.
	// Keys are normalized at registration, so definitions may list them in
	// their natural spelling ("Cust #", "Acct Name").
	Aliases map[string]string

	// AliasConfidence overrides the configured confidence for alias matches.
	// Zero means use the matcher default. Clamped to [0.80, 0.99].
	AliasConfidence float64

	// TablePrefix is prepended when deriving target table names from source
	// file names. Defaults to "report_".
	TablePrefix string
}

// Field returns the field spec with the given canonical name.
func (d *SchemaDefinition) Field(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldNames returns the canonical field names in declaration order.
func (d *SchemaDefinition) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// RequiredFields returns the required field names in declaration order.
func (d *SchemaDefinition) RequiredFields() []string {
	var names []string
	for _, f := range d.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// DetectedTable locates the tabular region inside a raw grid.
// DataEnd is exclusive. The header row always precedes DataStart.
type DetectedTable struct {
	HeaderRow   int `json:"headerRow"`
	DataStart   int `json:"dataStart"`
	DataEnd     int `json:"dataEnd"`
	ColumnCount int `json:"columnCount"`
}

// DataRows returns the number of data rows in the detected range.
func (t DetectedTable) DataRows() int {
	return t.DataEnd - t.DataStart
}

// ColumnCandidate is one column extracted from a detected table.
type ColumnCandidate struct {
	RawHeader    string   `json:"rawHeader"`              // Header cell text as found, cleaned but not normalized
	ColumnIndex  int      `json:"columnIndex"`            // Zero-based grid column
	SampleValues []string `json:"sampleValues,omitempty"` // First few non-empty data cells
}

// ProposalSource identifies which matching tier produced a proposal.
type ProposalSource string

const (
	// SourceHistoricalRule is a persisted mapping rule hit. Always confidence 1.0.
	SourceHistoricalRule ProposalSource = "historical-rule"

	// SourceExact is an exact match between normalized header and normalized
	// field name. Confidence 1.0.
	SourceExact ProposalSource = "exact"

	// SourceNormalized is an alias-table match. Confidence in [0.80, 0.99].
	SourceNormalized ProposalSource = "normalized"

	// SourceFuzzy is a string-similarity match. Confidence in [0.50, 1.0).
	SourceFuzzy ProposalSource = "fuzzy"

	// SourceHuman marks a mapping confirmed or assigned by a person during
	// resolution. Never produced by the matcher.
	SourceHuman ProposalSource = "human"

	// SourceNone is the synthetic no-match proposal appended to every
	// candidate's proposal list.
	SourceNone ProposalSource = "none"
)

// MatchProposal is one scored suggestion for a column candidate.
// TargetField is empty for the synthetic no-match proposal.
type MatchProposal struct {
	TargetField string         `json:"targetField,omitempty"`
	Confidence  float64        `json:"confidence"`
	Source      ProposalSource `json:"source"`
}

// CandidateProposals pairs a candidate with its ranked proposals,
// highest confidence first.
type CandidateProposals struct {
	Candidate ColumnCandidate `json:"candidate"`
	Proposals []MatchProposal `json:"proposals"`
}

// MappingStatus is the resolution state of one column.
type MappingStatus string

const (
	StatusMatched   MappingStatus = "matched"
	StatusUnmatched MappingStatus = "unmatched"
	StatusSkipped   MappingStatus = "skipped"
)

// ColumnMapping is the per-column resolution record. Exactly one exists
// per column candidate for the life of a session.
type ColumnMapping struct {
	Candidate   ColumnCandidate `json:"candidate"`
	TargetField string          `json:"targetField,omitempty"`
	Status      MappingStatus   `json:"status"`
	Confidence  float64         `json:"confidence,omitempty"`
	Source      ProposalSource  `json:"source,omitempty"`
}

// MappingRule is a persisted association between a normalized vendor
// header and a canonical field, scoped to one schema. Rules are created
// and reinforced when sessions finalize, and they preempt all other
// matching tiers on later sessions.
type MappingRule struct {
	ID               string    `json:"id"`
	SchemaKey        string    `json:"schemaKey"`
	NormalizedHeader string    `json:"normalizedHeader"`
	TargetField      string    `json:"targetField"`
	ConfirmedCount   int       `json:"confirmedCount"`
	CreatedAt        time.Time `json:"createdAt"`
	LastConfirmedAt  time.Time `json:"lastConfirmedAt"`
}

// RuleSnapshot is a point-in-time read of one schema's rules, keyed by
// normalized header text. The matcher works from a snapshot so a rule
// store outage degrades matching instead of failing it.
type RuleSnapshot map[string]MappingRule

// SessionFilter narrows session listings. Zero time bounds are open.
type SessionFilter struct {
	SchemaKey     string
	State         SessionState
	CreatedAfter  time.Time
	CreatedBefore time.Time
	Limit         int
	Offset        int
}

// SessionSummary is the listing row for a session, with resolution
// counters so operators can spot sessions that need review.
type SessionSummary struct {
	ID            string       `json:"id"`
	SchemaKey     string       `json:"schemaKey"`
	SourceName    string       `json:"sourceName"`
	State         SessionState `json:"state"`
	Matched       int          `json:"matched"`
	NeedsReview   int          `json:"needsReview"`
	Skipped       int          `json:"skipped"`
	RulesDegraded bool         `json:"rulesDegraded,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Record is one output row keyed by canonical field name. Values are
// coerced per the field type: string, float64, bool, or time.Time.
// Empty and unparseable cells carry nil.
type Record map[string]any

// LoadPayload is what a finalized session hands to the data loader.
type LoadPayload struct {
	SchemaKey   string    `json:"schemaKey"`
	TargetTable string    `json:"targetTable"`
	Fields      []string  `json:"fields"`
	Rows        []Record  `json:"rows"`
	LoadedAt    time.Time `json:"loadedAt"`
}

// Loader receives finalized payloads. The reconciliation engine never
// writes data rows itself; implementations own table creation and inserts.
type Loader interface {
	Load(ctx context.Context, payload *LoadPayload) error
}
