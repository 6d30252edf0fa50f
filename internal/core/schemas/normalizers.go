package schemas

import (
	"strconv"
	"strings"
	"time"
)

// monthLayouts are the report-month spellings seen across vendor exports,
// tried in order. Two-digit years resolve per time.Parse rules.
var monthLayouts = []string{
	"2006-01",
	"Jan-06",
	"Jan-2006",
	"Jan 06",
	"Jan 2006",
	"January 2006",
	"01/2006",
}

// NormalizeMonth converts report-month strings like "Jan-24", "Jan 24" or
// "January 2024" to the canonical "2006-01" form. Unrecognized values are
// returned as-is.
func NormalizeMonth(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01")
		}
	}
	return s
}

// NormalizeInteger strips thousands separators and drops any fractional
// part, so "1,234,567" and "1234567.0" both read as "1234567".
// Values that do not parse as a number are returned as-is.
func NormalizeInteger(s string) string {
	s = strings.TrimSpace(s)
	cleaned := strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}

// NormalizeSegmentID strips internal spaces and the vendor's "s" prefix
// from numeric segment identifiers: "s12345" and "S 12 345" both read as
// "12345". Non-numeric values keep their prefix.
func NormalizeSegmentID(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	if len(s) > 1 && (s[0] == 's' || s[0] == 'S') && allDigits(s[1:]) {
		return s[1:]
	}
	return s
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// UsStates maps US state full names to their abbreviations.
var UsStates = map[string]string{
	"alabama":        "AL",
	"alaska":         "AK",
	"arizona":        "AZ",
	"arkansas":       "AR",
	"california":     "CA",
	"colorado":       "CO",
	"connecticut":    "CT",
	"delaware":       "DE",
	"florida":        "FL",
	"georgia":        "GA",
	"hawaii":         "HI",
	"idaho":          "ID",
	"illinois":       "IL",
	"indiana":        "IN",
	"iowa":           "IA",
	"kansas":         "KS",
	"kentucky":       "KY",
	"louisiana":      "LA",
	"maine":          "ME",
	"maryland":       "MD",
	"massachusetts":  "MA",
	"michigan":       "MI",
	"minnesota":      "MN",
	"mississippi":    "MS",
	"missouri":       "MO",
	"montana":        "MT",
	"nebraska":       "NE",
	"nevada":         "NV",
	"new hampshire":  "NH",
	"new jersey":     "NJ",
	"new mexico":     "NM",
	"new york":       "NY",
	"north carolina": "NC",
	"north dakota":   "ND",
	"ohio":           "OH",
	"oklahoma":       "OK",
	"oregon":         "OR",
	"pennsylvania":   "PA",
	"rhode island":   "RI",
	"south carolina": "SC",
	"south dakota":   "SD",
	"tennessee":      "TN",
	"texas":          "TX",
	"utah":           "UT",
	"vermont":        "VT",
	"virginia":       "VA",
	"washington":     "WA",
	"west virginia":  "WV",
	"wisconsin":      "WI",
	"wyoming":        "WY",
}

// NormalizeUsState converts US state names to their 2-letter abbreviations.
// If the input is already an abbreviation or not recognized, returns as-is.
func NormalizeUsState(s string) string {
	s = strings.TrimSpace(s)
	sLower := strings.ToLower(s)

	// Check if it's a full name
	if code, ok := UsStates[sLower]; ok {
		return code
	}

	// Check if already a valid 2-letter code
	sUpper := strings.ToUpper(s)
	for _, code := range UsStates {
		if sUpper == code {
			return code
		}
	}

	// Fallback: return original
	return s
}
