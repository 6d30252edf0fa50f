package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/reconcile/internal/core"
)

type ruleStore struct {
	db core.DBTX
}

const ruleColumns = `id, schema_key, normalized_header, target_field, confirmed_count, created_at, last_confirmed_at`

func (s *ruleStore) Lookup(ctx context.Context, schemaKey, normalizedHeader string) (core.MappingRule, error) {
	query := `SELECT ` + ruleColumns + `
		FROM mapping_rules
		WHERE schema_key = $1 AND normalized_header = $2`

	rule, err := scanRule(s.db.QueryRow(ctx, query, schemaKey, normalizedHeader))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.MappingRule{}, core.ErrRuleNotFound
	}
	if err != nil {
		return core.MappingRule{}, fmt.Errorf("lookup rule: %w", err)
	}
	return rule, nil
}

func (s *ruleStore) Snapshot(ctx context.Context, schemaKey string) (core.RuleSnapshot, error) {
	query := `SELECT ` + ruleColumns + `
		FROM mapping_rules
		WHERE schema_key = $1`

	rows, err := s.db.Query(ctx, query, schemaKey)
	if err != nil {
		return nil, fmt.Errorf("query rule snapshot: %w", err)
	}
	defer rows.Close()

	snapshot := make(core.RuleSnapshot)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		snapshot[rule.NormalizedHeader] = rule
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rule snapshot rows: %w", err)
	}
	return snapshot, nil
}

// Upsert inserts the rule or updates the row holding its key. A re-confirm
// of the same target bumps confirmed_count; a different target overwrites
// and resets the count. The CASE reads the pre-update target, so assignment
// order in the SET list does not matter.
func (s *ruleStore) Upsert(ctx context.Context, rule core.MappingRule) (core.MappingRule, bool, error) {
	query := `INSERT INTO mapping_rules (schema_key, normalized_header, target_field)
		VALUES ($1, $2, $3)
		ON CONFLICT (schema_key, normalized_header) DO UPDATE SET
			confirmed_count = CASE
				WHEN mapping_rules.target_field = EXCLUDED.target_field
					THEN mapping_rules.confirmed_count + 1
				ELSE 1
			END,
			target_field = EXCLUDED.target_field,
			last_confirmed_at = now()
		RETURNING ` + ruleColumns + `, (xmax = 0) AS inserted`

	var (
		out      core.MappingRule
		inserted bool
	)
	err := s.db.QueryRow(ctx, query, rule.SchemaKey, rule.NormalizedHeader, rule.TargetField).Scan(
		&out.ID, &out.SchemaKey, &out.NormalizedHeader, &out.TargetField,
		&out.ConfirmedCount, &out.CreatedAt, &out.LastConfirmedAt, &inserted,
	)
	if err != nil {
		return core.MappingRule{}, false, fmt.Errorf("upsert rule: %w", err)
	}
	return out, inserted, nil
}

func (s *ruleStore) List(ctx context.Context, schemaKey string) ([]core.MappingRule, error) {
	query := `SELECT ` + ruleColumns + `
		FROM mapping_rules
		WHERE schema_key = $1
		ORDER BY normalized_header`

	rows, err := s.db.Query(ctx, query, schemaKey)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	rules := make([]core.MappingRule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rule rows: %w", err)
	}
	return rules, nil
}

func (s *ruleStore) Correct(ctx context.Context, id, targetField string) (core.MappingRule, error) {
	// Malformed IDs read as absent rather than surfacing a cast error.
	if _, err := uuid.Parse(id); err != nil {
		return core.MappingRule{}, core.ErrRuleNotFound
	}

	query := `UPDATE mapping_rules
		SET target_field = $2, confirmed_count = 1, last_confirmed_at = now()
		WHERE id = $1
		RETURNING ` + ruleColumns

	rule, err := scanRule(s.db.QueryRow(ctx, query, id, targetField))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.MappingRule{}, core.ErrRuleNotFound
	}
	if err != nil {
		return core.MappingRule{}, fmt.Errorf("correct rule: %w", err)
	}
	return rule, nil
}

func (s *ruleStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return core.ErrRuleNotFound
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM mapping_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrRuleNotFound
	}
	return nil
}

func scanRule(row pgx.Row) (core.MappingRule, error) {
	var rule core.MappingRule
	err := row.Scan(
		&rule.ID, &rule.SchemaKey, &rule.NormalizedHeader, &rule.TargetField,
		&rule.ConfirmedCount, &rule.CreatedAt, &rule.LastConfirmedAt,
	)
	return rule, err
}
