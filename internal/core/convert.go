package core

// convert.go provides cell parsing for vendor spreadsheet data.
//
// These functions handle the messy reality of vendor-exported grids:
//   - Multiple date formats (US, EU, ISO, etc.)
//   - Currency symbols and thousand separators in numbers
//   - Various boolean representations (yes/no, true/false, 1/0)
//   - Excel formula prefixes (="value")
//   - Common CSV artifacts (stray quotes, whitespace)
//
// The detector uses ClassifyCell to profile rows; finalize uses CoerceValue
// to turn matched cells into typed record values. Both treat empty and
// unparseable input as absent rather than failing.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	// Remove leading '='
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	// Remove any surrounding quotes
	s = strings.Trim(s, `"'`)

	return s
}

// ParseDate parses a cell as a date, trying unambiguous 4-digit-year
// layouts first, then 2-digit-year layouts with pivot adjustment.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, true
		}
	}

	currentYear := time.Now().Year()
	pivotYear := currentYear + TwoDigitYearPivot

	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// ParseNumber parses a cell as a number. Handles currency symbols,
// thousands separators, and accounting format (parentheses for negative).
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Remove common currency symbols and thousands separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseBool parses a cell as a boolean.
// Accepts various representations: true/false, yes/no, t/f, y/n, 1/0.
func ParseBool(s string) (bool, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return false, false
	}

	switch s {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	default:
		return false, false
	}
}

// ClassifyCell reports the strictest kind a cell value parses as.
// Numeric wins over date for digit-only values like "20240102"; either
// way the cell counts as typed for row profiling.
func ClassifyCell(s string) CellKind {
	s = CleanCell(s)
	if s == "" {
		return KindEmpty
	}
	if _, ok := ParseNumber(s); ok {
		return KindNumeric
	}
	if _, ok := ParseDate(s); ok {
		return KindDate
	}
	if _, ok := ParseBool(s); ok {
		return KindBool
	}
	return KindText
}

// CoerceValue converts a raw cell into the typed value for a field.
// The field's Normalizer runs first. Returns nil for empty cells and for
// values that do not parse as the field type, so the loader can store
// NULL instead of garbage.
func CoerceValue(raw string, spec FieldSpec) any {
	s := CleanCell(raw)
	if spec.Normalizer != nil {
		s = spec.Normalizer(s)
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}

	switch spec.Type {
	case FieldNumeric:
		if f, ok := ParseNumber(s); ok {
			return f
		}
		return nil

	case FieldDate:
		if t, ok := ParseDate(s); ok {
			return t
		}
		return nil

	case FieldBool:
		if b, ok := ParseBool(s); ok {
			return b
		}
		return nil

	case FieldEnum:
		for _, v := range spec.EnumValues {
			if strings.EqualFold(v, s) {
				return v
			}
		}
		return nil

	default:
		return s
	}
}

// isEmptyRow reports whether every cell in the row is blank after cleanup.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
