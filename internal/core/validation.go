package core

// validation.go provides validation for schema definitions and for data
// rows at finalize time.
//
// Validation happens at two levels:
//  1. Definition validation: Ensures a schema is internally consistent
//     before it enters the registry (unique field names, resolvable aliases)
//  2. Row validation: Checks matched cells against their FieldSpec so the
//     payload can report coercion problems per row
//
// Row validation never blocks a finalize; unparseable cells become NULLs
// and surface as warnings on the payload.

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation problem for a field.
type ValidationError struct {
	Field   string // Canonical field name
	Value   string // The offending value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult contains the result of validating one data row.
type ValidationResult struct {
	Valid  bool              // True if all validations passed
	Errors []ValidationError // List of validation errors (empty if Valid)
}

// ValidateDefinition checks a schema definition for internal consistency.
// Called by Register before a definition enters the registry.
func ValidateDefinition(def *SchemaDefinition) error {
	if strings.TrimSpace(def.Info.Key) == "" {
		return fmt.Errorf("schema key is empty")
	}
	if len(def.Fields) == 0 {
		return fmt.Errorf("schema has no fields")
	}

	seen := make(map[string]string, len(def.Fields))
	for _, f := range def.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("field with empty name")
		}
		norm := NormalizeHeader(f.Name)
		if norm == "" {
			return fmt.Errorf("field %q normalizes to nothing", f.Name)
		}
		if prev, dup := seen[norm]; dup {
			return fmt.Errorf("fields %q and %q collide after normalization", prev, f.Name)
		}
		seen[norm] = f.Name

		if f.Type == FieldEnum && len(f.EnumValues) == 0 {
			return fmt.Errorf("enum field %q has no values", f.Name)
		}
	}

	for alias, target := range def.Aliases {
		if _, ok := def.Field(target); !ok {
			return fmt.Errorf("alias %q points at unknown field %q", alias, target)
		}
	}

	if def.AliasConfidence != 0 && (def.AliasConfidence < 0.80 || def.AliasConfidence > 0.99) {
		return fmt.Errorf("alias confidence %g outside [0.80, 0.99]", def.AliasConfidence)
	}

	return nil
}

// RowValidator validates data rows against a session's matched columns.
type RowValidator struct {
	checks []rowCheck
}

type rowCheck struct {
	column int
	spec   FieldSpec
}

// NewRowValidator creates a validator covering every matched mapping.
// Skipped and unmatched columns carry no checks.
func NewRowValidator(mappings []ColumnMapping, def *SchemaDefinition) *RowValidator {
	v := &RowValidator{}
	for _, m := range mappings {
		if m.Status != StatusMatched {
			continue
		}
		spec, ok := def.Field(m.TargetField)
		if !ok {
			continue
		}
		v.checks = append(v.checks, rowCheck{column: m.Candidate.ColumnIndex, spec: spec})
	}
	return v
}

// ValidateRow validates a single data row and returns all problems.
func (v *RowValidator) ValidateRow(row []string) ValidationResult {
	result := ValidationResult{Valid: true}

	for _, c := range v.checks {
		var raw string
		if c.column < len(row) {
			raw = CleanCell(row[c.column])
		}

		if raw == "" {
			if c.spec.Required && !c.spec.AllowEmpty {
				result.Valid = false
				result.Errors = append(result.Errors, ValidationError{
					Field:   c.spec.Name,
					Message: "required field is empty",
				})
			}
			continue
		}

		if c.spec.Normalizer != nil {
			raw = c.spec.Normalizer(raw)
		}

		if err := ValidateCell(raw, c.spec); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   c.spec.Name,
				Value:   raw,
				Message: err.Error(),
			})
		}
	}

	return result
}

// ValidateCell validates a single cell value against a field specification.
// Returns nil if valid, or an error describing the problem.
func ValidateCell(value string, spec FieldSpec) error {
	if value == "" {
		return nil // Empty values are allowed (will be NULL)
	}

	switch spec.Type {
	case FieldNumeric:
		if _, ok := ParseNumber(value); !ok {
			return fmt.Errorf("invalid number format")
		}
	case FieldDate:
		if _, ok := ParseDate(value); !ok {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD or similar)")
		}
	case FieldBool:
		if _, ok := ParseBool(value); !ok {
			return fmt.Errorf("must be yes/no, true/false, or 1/0")
		}
	case FieldEnum:
		if len(spec.EnumValues) > 0 {
			for _, ev := range spec.EnumValues {
				if strings.EqualFold(ev, value) {
					return nil
				}
			}
			return fmt.Errorf("value must be one of: %s", strings.Join(spec.EnumValues, ", "))
		}
	}
	return nil
}
