package core

// match.go scores detected column headers against a schema's fields.
//
// Matching runs four tiers per candidate, strongest first: a historical
// rule confirmed in an earlier session, exact normalized equality with a
// field name, a hit in the schema's alias table, and fuzzy similarity.
// A historical rule preempts everything else; the remaining tiers each
// contribute at most one proposal per field, ranked by confidence.
//
// The matcher is pure: the same candidates, schema, and rule snapshot
// always produce the same ranked proposals. Nothing here mutates the
// session or touches storage; callers fetch the rule snapshot first.

import "sort"

// DefaultFuzzyFloor is the minimum similarity for a fuzzy proposal.
const DefaultFuzzyFloor = 0.5

// DefaultAliasConfidence is the confidence of alias-table hits when the
// schema does not declare its own.
const DefaultAliasConfidence = 0.90

// MatcherOptions tunes proposal scoring. Zero fields fall back to the
// defaults.
type MatcherOptions struct {
	// FuzzyFloor drops fuzzy proposals scoring below it (default: 0.5)
	FuzzyFloor float64

	// AliasConfidence scores alias-table hits for schemas that do not set
	// AliasConfidence themselves, clamped to [0.80, 0.99] (default: 0.90)
	AliasConfidence float64
}

// DefaultMatcherOptions returns the scoring defaults.
func DefaultMatcherOptions() MatcherOptions {
	return MatcherOptions{
		FuzzyFloor:      DefaultFuzzyFloor,
		AliasConfidence: DefaultAliasConfidence,
	}
}

func (o MatcherOptions) withDefaults() MatcherOptions {
	if o.FuzzyFloor <= 0 {
		o.FuzzyFloor = DefaultFuzzyFloor
	}
	if o.AliasConfidence <= 0 {
		o.AliasConfidence = DefaultAliasConfidence
	}
	if o.AliasConfidence < 0.80 {
		o.AliasConfidence = 0.80
	}
	if o.AliasConfidence > 0.99 {
		o.AliasConfidence = 0.99
	}
	return o
}

// Match ranks every schema field against every candidate header.
//
// Output order follows the candidate order. Each candidate's proposals are
// sorted confidence-descending, ties broken by schema field order, and
// always end with the synthetic no-match proposal so a resolution surface
// can offer "leave unmatched" at the bottom of every list.
//
// rules is the snapshot taken before matching; a nil snapshot simply means
// no historical tier (the degraded mode the session records when the rule
// store is unreachable).
func Match(candidates []ColumnCandidate, def *SchemaDefinition, rules RuleSnapshot, opts MatcherOptions) []CandidateProposals {
	opts = opts.withDefaults()

	aliasConfidence := def.AliasConfidence
	if aliasConfidence == 0 {
		aliasConfidence = opts.AliasConfidence
	}

	// Field names normalize once, not per candidate.
	normalized := make([]string, len(def.Fields))
	for i, f := range def.Fields {
		normalized[i] = NormalizeHeader(f.Name)
	}

	out := make([]CandidateProposals, len(candidates))
	for i, cand := range candidates {
		out[i] = CandidateProposals{
			Candidate: cand,
			Proposals: matchOne(cand, def, normalized, rules, aliasConfidence, opts.FuzzyFloor),
		}
	}
	return out
}

// matchOne builds the ranked proposal list for a single candidate.
func matchOne(cand ColumnCandidate, def *SchemaDefinition, fieldNorms []string, rules RuleSnapshot, aliasConfidence, fuzzyFloor float64) []MatchProposal {
	header := NormalizeHeader(cand.RawHeader)

	// Tier 1: historical rule. Preempts scoring entirely; the list is the
	// remembered mapping plus the no-match escape hatch.
	if rule, ok := rules[header]; ok && header != "" {
		if _, known := def.Field(rule.TargetField); known {
			return []MatchProposal{
				{TargetField: rule.TargetField, Confidence: 1.0, Source: SourceHistoricalRule},
				noMatchProposal(),
			}
		}
	}

	// Tiers 2-4 contribute at most one proposal per field: exact equality
	// beats an alias hit beats fuzzy similarity, whatever the scores say.
	byField := make(map[string]MatchProposal, len(def.Fields))

	aliasTarget, hasAlias := def.Aliases[header]

	for i, f := range def.Fields {
		switch {
		case header != "" && header == fieldNorms[i]:
			byField[f.Name] = MatchProposal{TargetField: f.Name, Confidence: 1.0, Source: SourceExact}
		case hasAlias && aliasTarget == f.Name:
			byField[f.Name] = MatchProposal{TargetField: f.Name, Confidence: aliasConfidence, Source: SourceNormalized}
		default:
			if score := HeaderSimilarity(header, fieldNorms[i]); score >= fuzzyFloor {
				byField[f.Name] = MatchProposal{TargetField: f.Name, Confidence: score, Source: SourceFuzzy}
			}
		}
	}

	proposals := make([]MatchProposal, 0, len(byField)+1)
	order := make(map[string]int, len(def.Fields))
	for i, f := range def.Fields {
		order[f.Name] = i
		if p, ok := byField[f.Name]; ok {
			proposals = append(proposals, p)
		}
	}

	sort.SliceStable(proposals, func(a, b int) bool {
		if proposals[a].Confidence != proposals[b].Confidence {
			return proposals[a].Confidence > proposals[b].Confidence
		}
		return order[proposals[a].TargetField] < order[proposals[b].TargetField]
	})

	return append(proposals, noMatchProposal())
}

// noMatchProposal is the synthetic lowest-confidence entry closing every
// ranked list: the candidate stays unmatched and a human decides.
func noMatchProposal() MatchProposal {
	return MatchProposal{Confidence: 0, Source: SourceNone}
}
