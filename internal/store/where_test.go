package store

import (
	"reflect"
	"testing"
	"time"
)

func TestWhereBuilderEmpty(t *testing.T) {
	wb := NewWhereBuilder()

	clause, args := wb.Build()
	if clause != "" {
		t.Errorf("expected empty clause for no conditions, got %q", clause)
	}
	if args != nil {
		t.Errorf("expected nil args for no conditions, got %v", args)
	}
}

func TestWhereBuilderAdd(t *testing.T) {
	tests := []struct {
		name       string
		add        func(wb *WhereBuilder)
		wantClause string
		wantArgs   []any
	}{
		{
			name:       "single condition",
			add:        func(wb *WhereBuilder) { wb.Add("state", "awaiting_resolution") },
			wantClause: " WHERE state = $1",
			wantArgs:   []any{"awaiting_resolution"},
		},
		{
			name: "conditions join with AND",
			add: func(wb *WhereBuilder) {
				wb.Add("schema_key", "billing")
				wb.Add("state", "finalized")
			},
			wantClause: " WHERE schema_key = $1 AND state = $2",
			wantArgs:   []any{"billing", "finalized"},
		},
		{
			name: "empty values skipped",
			add: func(wb *WhereBuilder) {
				wb.Add("schema_key", "")
				wb.Add("state", "finalized")
			},
			wantClause: " WHERE state = $1",
			wantArgs:   []any{"finalized"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			tt.add(wb)

			clause, args := wb.Build()
			if clause != tt.wantClause {
				t.Errorf("clause = %q, want %q", clause, tt.wantClause)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestWhereBuilderTimeRange(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	wb := NewWhereBuilder()
	wb.AddTimeRange("created_at", start, end)

	clause, args := wb.Build()
	want := " WHERE created_at >= $1 AND created_at <= $2"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if len(args) != 2 || args[0] != start || args[1] != end {
		t.Errorf("args = %v, want [%v %v]", args, start, end)
	}
}

func TestWhereBuilderTimeRangeOneSided(t *testing.T) {
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	wb := NewWhereBuilder()
	wb.Add("schema_key", "billing")
	wb.AddTimeRange("created_at", time.Time{}, end)

	clause, args := wb.Build()
	want := " WHERE schema_key = $1 AND created_at <= $2"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
}

func TestWhereBuilderNextArgIndex(t *testing.T) {
	wb := NewWhereBuilder()
	if got := wb.NextArgIndex(); got != 1 {
		t.Errorf("fresh builder NextArgIndex = %d, want 1", got)
	}

	wb.Add("schema_key", "billing")
	if got := wb.NextArgIndex(); got != 2 {
		t.Errorf("after one condition NextArgIndex = %d, want 2", got)
	}

	wb.Add("state", "")
	if got := wb.NextArgIndex(); got != 2 {
		t.Errorf("skipped condition must not consume an index, got %d", got)
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	wb.AddTimeRange("created_at", start, end)
	if got := wb.NextArgIndex(); got != 4 {
		t.Errorf("time range consumes two indexes, NextArgIndex = %d, want 4", got)
	}
}
