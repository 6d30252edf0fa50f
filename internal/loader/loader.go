// Package loader ships the reference core.Loader: finalized payloads land
// in Postgres tables named after the source file. The engine itself never
// writes data rows; this package owns target table creation and inserts.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/reconcile/internal/core"
)

// insertBatchSize bounds how many rows ride in one batch round trip.
const insertBatchSize = 500

// Postgres appends load payloads to their target tables, creating the
// table on first load. All rows of a payload land in one transaction.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (l *Postgres) Load(ctx context.Context, payload *core.LoadPayload) error {
	if len(payload.Fields) == 0 {
		return fmt.Errorf("load payload for %q has no fields", payload.TargetTable)
	}
	def, ok := core.Get(payload.SchemaKey)
	if !ok {
		return core.ErrSchemaNotFound
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin load transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op once committed.

	if _, err := tx.Exec(ctx, createTableSQL(payload.TargetTable, payload.Fields, &def)); err != nil {
		return fmt.Errorf("create target table %q: %w", payload.TargetTable, err)
	}

	insert := insertSQL(payload.TargetTable, payload.Fields)
	batch := &pgx.Batch{}
	for _, rec := range payload.Rows {
		batch.Queue(insert, rowArgs(rec, payload.Fields)...)
		if batch.Len() >= insertBatchSize {
			if err := sendBatch(ctx, tx, batch); err != nil {
				return err
			}
			batch = &pgx.Batch{}
		}
	}
	if err := sendBatch(ctx, tx, batch); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit load transaction: %w", err)
	}

	slog.Info("payload loaded",
		"schema", payload.SchemaKey,
		"table", payload.TargetTable,
		"rows", len(payload.Rows),
	)
	return nil
}

func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// createTableSQL emits the target DDL. Column order follows the payload
// fields, which finalize emits in schema declaration order.
func createTableSQL(table string, fields []string, def *core.SchemaDefinition) string {
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, quoteIdentifier(f)+" "+columnType(f, def))
	}
	return "CREATE TABLE IF NOT EXISTS " + quoteIdentifier(table) +
		" (" + strings.Join(cols, ", ") + ")"
}

func columnType(field string, def *core.SchemaDefinition) string {
	if field == core.LoadTimestampField {
		return "timestamptz"
	}
	spec, ok := def.Field(field)
	if !ok {
		return "text"
	}
	switch spec.Type {
	case core.FieldNumeric:
		return "numeric"
	case core.FieldDate:
		return "date"
	case core.FieldBool:
		return "boolean"
	default:
		return "text"
	}
}

func insertSQL(table string, fields []string) string {
	cols := make([]string, len(fields))
	placeholders := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = quoteIdentifier(f)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return "INSERT INTO " + quoteIdentifier(table) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
}

// rowArgs orders a record's values by the payload fields. Absent and nil
// values insert as NULL.
func rowArgs(rec core.Record, fields []string) []any {
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = rec[f]
	}
	return args
}

// quoteIdentifier makes a table or column name safe for direct SQL
// interpolation. Identifiers come from schema field names and sanitized
// file names, but load targets are dynamic so quoting stays mandatory.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
