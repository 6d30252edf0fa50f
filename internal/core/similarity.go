package core

import "strings"

// HeaderSimilarity scores two normalized headers in [0, 1].
//
// The score is the better of two signals: a Ratcliff/Obershelp sequence
// ratio, which catches near-identical spellings ("amount" vs "amnt"), and
// a token-overlap ratio, which catches reordered multi-word headers
// ("customer name" vs "name customer"). Inputs are ordered canonically
// first, so the function is symmetric by construction.
//
// Both inputs are expected to be NormalizeHeader output; raw headers with
// punctuation or case differences will score lower than they should.
func HeaderSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if a > b {
		a, b = b, a
	}

	score := sequenceRatio(a, b)
	if tok := tokenOverlap(a, b); tok > score {
		score = tok
	}
	return score
}

// sequenceRatio is the Ratcliff/Obershelp similarity: twice the total
// matched character count over the combined length, where matches are
// found by recursively taking the longest common substring.
func sequenceRatio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	return 2 * float64(matchedChars(a, b)) / float64(total)
}

func matchedChars(a, b string) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	n := size
	n += matchedChars(a[:ai], b[:bi])
	n += matchedChars(a[ai+size:], b[bi+size:])
	return n
}

// longestCommonSubstring finds the longest contiguous run shared by a and
// b, preferring the earliest position in a on ties. Normalized headers are
// ASCII, so byte indexing is safe here.
func longestCommonSubstring(a, b string) (ai, bi, size int) {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		copy(prev, cur)
	}
	return ai, bi, size
}

// tokenOverlap is the Dice coefficient over the unique token sets of the
// two headers.
func tokenOverlap(a, b string) float64 {
	as := tokenSet(a)
	bs := tokenSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}

	shared := 0
	for t := range as {
		if bs[t] {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(as)+len(bs))
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(s)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
