package core

import "testing"

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase passthrough", "amount", "amount"},
		{"mixed case", "Customer Name", "customer name"},
		{"underscores", "customer_name", "customer name"},
		{"hyphens and slashes", "bill-to/ship-to", "bill to ship to"},
		{"surrounding whitespace", "  Total Amount  ", "total amount"},
		{"internal whitespace collapsed", "Total \t  Amount", "total amount"},
		{"punctuation stripped", "Amount (USD)", "amount usd"},
		{"currency symbol stripped", "Amount $", "amount"},
		{"diacritics folded", "Montant Facturé", "montant facture"},
		{"german umlaut", "Betrag über Limit", "betrag uber limit"},
		{"excel formula artifact", `="Cust #"`, "cust"},
		{"digits kept", "Q1 2024 Rev", "q1 2024 rev"},
		{"empty", "", ""},
		{"only punctuation", "###---", ""},
		{"only whitespace", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeHeader(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// Headers that differ only in case, separators, or diacritics must
// collide, since rule lookups key on the normalized form.
func TestNormalizeHeader_EquivalentSpellings(t *testing.T) {
	groups := [][]string{
		{"Customer Name", "customer_name", "CUSTOMER-NAME", " customer  name "},
		{"Montant Facturé", "montant facture", "MONTANT_FACTURE"},
		{"Amt.", "amt", `="Amt"`},
	}

	for _, group := range groups {
		base := NormalizeHeader(group[0])
		for _, spelling := range group[1:] {
			if got := NormalizeHeader(spelling); got != base {
				t.Errorf("NormalizeHeader(%q) = %q, want %q (same as %q)",
					spelling, got, base, group[0])
			}
		}
	}
}

func TestNormalizeHeader_Idempotent(t *testing.T) {
	inputs := []string{"Customer Name", "Montant Facturé", "Amount (USD)", "q1 2024 rev"}

	for _, in := range inputs {
		once := NormalizeHeader(in)
		twice := NormalizeHeader(once)
		if once != twice {
			t.Errorf("NormalizeHeader not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
