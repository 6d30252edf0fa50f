package core

import (
	"context"
	"log/slog"
)

// LookupRule returns the rule for one normalized header under a schema.
// The header is normalized before lookup, so callers can pass it raw.
// Returns ErrRuleNotFound when no rule covers the header.
func (s *Service) LookupRule(ctx context.Context, schemaKey, header string) (MappingRule, error) {
	if _, ok := Get(schemaKey); !ok {
		return MappingRule{}, ErrSchemaNotFound
	}
	key := NormalizeHeader(header)
	if key == "" {
		return MappingRule{}, ErrRuleNotFound
	}
	return s.store.Rules().Lookup(ctx, schemaKey, key)
}

// CorrectRule rebinds an existing rule to a different target field and
// resets its confirmed count, for fixing a mapping that was confirmed
// wrong in past sessions. Validation runs inside the transaction: an
// unknown schema or a target outside it rolls the correction back.
func (s *Service) CorrectRule(ctx context.Context, ruleID, targetField string) (MappingRule, error) {
	var corrected MappingRule

	err := s.store.InTx(ctx, func(tx Datastore) error {
		rule, err := tx.Rules().Correct(ctx, ruleID, targetField)
		if err != nil {
			return err
		}
		def, ok := Get(rule.SchemaKey)
		if !ok {
			return ErrSchemaNotFound
		}
		if _, ok := def.Field(targetField); !ok {
			return ErrFieldNotInSchema
		}
		corrected = rule
		return nil
	})
	if err != nil {
		return MappingRule{}, err
	}

	slog.Info("mapping rule corrected",
		"rule_id", ruleID,
		"schema", corrected.SchemaKey,
		"header", corrected.NormalizedHeader,
		"target", targetField,
	)
	return corrected, nil
}

// DeleteRule removes a mapping rule so future sessions stop auto-matching
// its header. Returns ErrRuleNotFound for unknown IDs.
func (s *Service) DeleteRule(ctx context.Context, ruleID string) error {
	if err := s.store.Rules().Delete(ctx, ruleID); err != nil {
		return err
	}
	slog.Info("mapping rule deleted", "rule_id", ruleID)
	return nil
}
