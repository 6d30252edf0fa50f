package store

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder assembles a parameterized WHERE clause from optional
// filter values. Placeholders are positional starting at $1; a caller
// that appends its own trailing placeholders (LIMIT, OFFSET) reads
// NextArgIndex for the next free slot.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends an equality condition. Empty values are skipped, so
// filter fields can be passed through without checking them first.
func (wb *WhereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", column, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddTimeRange bounds a timestamp column from either or both sides.
// Zero times are skipped.
func (wb *WhereBuilder) AddTimeRange(column string, start, end time.Time) {
	if !start.IsZero() {
		wb.conditions = append(wb.conditions, fmt.Sprintf("%s >= $%d", column, wb.argIndex))
		wb.args = append(wb.args, start)
		wb.argIndex++
	}
	if !end.IsZero() {
		wb.conditions = append(wb.conditions, fmt.Sprintf("%s <= $%d", column, wb.argIndex))
		wb.args = append(wb.args, end)
		wb.argIndex++
	}
}

// Build returns the assembled clause with a leading " WHERE ", or an
// empty string when nothing was added.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// NextArgIndex returns the positional index the next placeholder takes.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}
