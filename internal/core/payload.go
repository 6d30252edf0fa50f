package core

// payload.go builds the typed output handed to the data loader when a
// session finalizes: target table name derivation from the source file
// name, and conversion of the detected data rows through the confirmed
// mappings into field-keyed records.

import (
	"strings"
	"time"
)

// LoadTimestampField is the per-row load timestamp column stamped onto
// every record. Schemas must not declare a field with this name.
const LoadTimestampField = "load_ts"

// TargetTableName derives a database-safe table name from a source file
// name: extension stripped, every character outside [a-zA-Z0-9_] replaced
// with an underscore, prefixed when the result does not start with a
// letter, and lowercased. An empty prefix means DefaultTablePrefix.
func TargetTableName(sourceName, prefix string) string {
	if prefix == "" {
		prefix = DefaultTablePrefix
	}

	base := sourceName
	// Strip the last extension only; a leading dot is a hidden-file name,
	// not an extension.
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}

	var b strings.Builder
	b.Grow(len(base))
	for _, r := range base {
		if isTableNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()

	if name == "" || !isASCIILetter(rune(name[0])) {
		name = prefix + name
	}
	return strings.ToLower(name)
}

func isTableNameRune(r rune) bool {
	return isASCIILetter(r) || (r >= '0' && r <= '9') || r == '_'
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// BuildLoadPayload converts a finalized session's detected data rows into
// the typed records handed to the loader. Matched columns are coerced per
// their field spec; skipped and unmatched columns are dropped; rows that
// are entirely blank are dropped. Every record is stamped with the load
// timestamp under LoadTimestampField.
func BuildLoadPayload(sess *Session) (*LoadPayload, error) {
	if sess.State != StateFinalized {
		return nil, &StateError{Op: "build load payload", State: sess.State}
	}
	def, ok := Get(sess.SchemaKey)
	if !ok {
		return nil, ErrSchemaNotFound
	}
	if sess.Table == nil {
		return nil, ErrNoTableFound
	}

	// Column index -> field spec for the matched mappings only.
	type binding struct {
		column int
		spec   FieldSpec
	}
	var bindings []binding
	matched := make(map[string]bool, len(sess.Mappings))
	for _, m := range sess.Mappings {
		if m.Status != StatusMatched {
			continue
		}
		spec, ok := def.Field(m.TargetField)
		if !ok {
			return nil, ErrFieldNotInSchema
		}
		bindings = append(bindings, binding{column: m.Candidate.ColumnIndex, spec: spec})
		matched[m.TargetField] = true
	}

	// Output fields in schema declaration order, load timestamp last.
	fields := make([]string, 0, len(bindings)+1)
	for _, f := range def.Fields {
		if matched[f.Name] {
			fields = append(fields, f.Name)
		}
	}
	fields = append(fields, LoadTimestampField)

	loadedAt := time.Now().UTC()
	rows := make([]Record, 0, sess.Table.DataRows())
	for r := sess.Table.DataStart; r < sess.Table.DataEnd && r < len(sess.Grid); r++ {
		row := sess.Grid[r]
		if isEmptyRow(row) {
			continue
		}
		rec := make(Record, len(bindings)+1)
		for _, b := range bindings {
			var raw string
			if b.column < len(row) {
				raw = row[b.column]
			}
			rec[b.spec.Name] = CoerceValue(raw, b.spec)
		}
		rec[LoadTimestampField] = loadedAt
		rows = append(rows, rec)
	}

	return &LoadPayload{
		SchemaKey:   sess.SchemaKey,
		TargetTable: TargetTableName(sess.SourceName, def.TablePrefix),
		Fields:      fields,
		Rows:        rows,
		LoadedAt:    loadedAt,
	}, nil
}
