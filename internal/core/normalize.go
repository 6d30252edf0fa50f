package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// headerFolder strips diacritics: decompose, drop combining marks, recompose.
var headerFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader canonicalizes header text for matching and rule lookups:
// spreadsheet artifacts removed, diacritics folded, lowercased, punctuation
// and underscores collapsed to single spaces.
//
// "Montant Facturé", "montant_facture" and ` ="MONTANT  FACTURE" ` all
// normalize to "montant facture". Two headers that normalize equally are
// the same header for every matching tier and for rule persistence.
func NormalizeHeader(raw string) string {
	s := CleanCell(raw)
	if s == "" {
		return ""
	}

	if folded, _, err := transform.String(headerFolder, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
