package core

import (
	"errors"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "no table found maps to DET001",
			err:         ErrNoTableFound,
			wantCode:    "DET001",
			wantMessage: "No table was found in the uploaded sheet",
		},
		{
			name:        "insufficient data maps to DET002",
			err:         ErrInsufficientData,
			wantCode:    "DET002",
			wantMessage: "The detected table has too few data rows",
		},
		{
			name:        "limiter saturation maps to DET003",
			err:         ErrTooManyDetections,
			wantCode:    "DET003",
			wantMessage: "System is busy processing other uploads",
		},
		{
			name:        "rule store outage maps to MAT001",
			err:         &RuleStoreUnavailableError{Op: "snapshot", Err: errors.New("connection refused")},
			wantCode:    "MAT001",
			wantMessage: "Saved mapping rules could not be read",
		},
		{
			name:        "state error maps to RES001",
			err:         &StateError{Op: "confirm", State: StateFinalized},
			wantCode:    "RES001",
			wantMessage: "The session does not allow this action in its current state",
		},
		{
			name:        "mapping conflict maps to RES002",
			err:         &MappingConflictError{TargetField: "amount", ExistingColumn: 1, ExistingHeader: "Amt"},
			wantCode:    "RES002",
			wantMessage: "Another column already maps to this field",
		},
		{
			name:        "incomplete mapping maps to RES003",
			err:         &IncompleteMappingError{Missing: []string{"amount"}},
			wantCode:    "RES003",
			wantMessage: "Required fields are still unmapped",
		},
		{
			name:        "unknown column maps to RES004",
			err:         ErrColumnNotFound,
			wantCode:    "RES004",
			wantMessage: "That column is not part of this session",
		},
		{
			name:        "unknown field maps to RES005",
			err:         ErrFieldNotInSchema,
			wantCode:    "RES005",
			wantMessage: "That field is not part of the schema",
		},
		{
			name:        "rule not found maps to RUL001",
			err:         ErrRuleNotFound,
			wantCode:    "RUL001",
			wantMessage: "The mapping rule does not exist",
		},
		{
			name:        "session not found maps to SES001",
			err:         ErrSessionNotFound,
			wantCode:    "SES001",
			wantMessage: "The session was not found",
		},
		{
			name:        "invalid transition maps to SES002",
			err:         &InvalidTransitionError{From: StateCreated, To: StateFinalized},
			wantCode:    "SES002",
			wantMessage: "The session cannot move to that state",
		},
		{
			name:        "schema not registered maps to SES003",
			err:         ErrSchemaNotFound,
			wantCode:    "SES003",
			wantMessage: "Unknown schema key",
		},
		{
			name:        "duplicate key maps to DB001",
			err:         errors.New("pq: duplicate key value violates unique constraint"),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
		{
			name:        "connection refused maps to DB003",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB003",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "plain timeout maps to DB006",
			err:         errors.New("operation timeout after 30s"),
			wantCode:    "DB006",
			wantMessage: "Operation timed out",
		},
		{
			name:        "deadline exceeded wins over generic timeout",
			err:         errors.New("context deadline exceeded"),
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:        "file too large maps to FILE001",
			err:         errors.New("file too large: 200MB exceeds limit"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "unsupported file type maps to FILE006",
			err:         errors.New(`unsupported file type ".pdf"`),
			wantCode:    "FILE006",
			wantMessage: "The file type is not supported",
		},
		{
			name:        "rate limit maps to RATE001",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value violates"),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNoTableFound)

	expected := "No table was found in the uploaded sheet (Code: DET001). Check that the sheet contains a header row above the data"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "detection failure is user facing",
			err:  ErrNoTableFound,
			want: true,
		},
		{
			name: "resolution conflict is user facing",
			err:  &MappingConflictError{TargetField: "amount", ExistingColumn: 0, ExistingHeader: "Amt"},
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := errors.New("pq: duplicate key value")
		userErr := NewUserError(techErr)

		if userErr.Error() != "A record with this ID already exists" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
	})
}
