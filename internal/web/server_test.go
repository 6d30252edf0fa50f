package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/reconcile/internal/config"
	"github.com/JonMunkholm/reconcile/internal/core"
	"github.com/JonMunkholm/reconcile/internal/ingest"
)

// ----------------------------------------------------------------------------
// Error status mapping
// ----------------------------------------------------------------------------

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "session not found", err: core.ErrSessionNotFound, want: http.StatusNotFound},
		{name: "rule not found", err: core.ErrRuleNotFound, want: http.StatusNotFound},
		{name: "schema not found wrapped", err: fmt.Errorf("lookup: %w", core.ErrSchemaNotFound), want: http.StatusNotFound},
		{name: "state error", err: &core.StateError{Op: "confirm", State: core.StateFinalized}, want: http.StatusConflict},
		{name: "invalid transition", err: &core.InvalidTransitionError{From: core.StateFinalized, To: core.StateDetecting}, want: http.StatusConflict},
		{name: "mapping conflict", err: &core.MappingConflictError{TargetField: "amount"}, want: http.StatusConflict},
		{name: "incomplete mapping", err: &core.IncompleteMappingError{Missing: []string{"amount"}}, want: http.StatusConflict},
		{name: "column not found", err: core.ErrColumnNotFound, want: http.StatusBadRequest},
		{name: "field not in schema", err: core.ErrFieldNotInSchema, want: http.StatusBadRequest},
		{name: "no file", err: ingest.ErrNoFile, want: http.StatusBadRequest},
		{name: "unsupported type", err: fmt.Errorf("%w: %q", ingest.ErrUnsupportedType, ".pdf"), want: http.StatusBadRequest},
		{name: "no table found", err: core.ErrNoTableFound, want: http.StatusUnprocessableEntity},
		{name: "insufficient data", err: core.ErrInsufficientData, want: http.StatusUnprocessableEntity},
		{name: "file too large", err: ingest.ErrFileTooLarge, want: http.StatusRequestEntityTooLarge},
		{name: "too many detections", err: core.ErrTooManyDetections, want: http.StatusServiceUnavailable},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: http.StatusGatewayTimeout},
		{name: "unknown error", err: errors.New("disk on fire"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Rate limiter
// ----------------------------------------------------------------------------

func TestRateLimiterConsumesTokens(t *testing.T) {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     2,
		window:   time.Minute,
	}

	if !rl.allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if !rl.allow("10.0.0.1") {
		t.Fatal("second request should be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Error("third request should be rejected")
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     1,
		window:   time.Minute,
	}

	if !rl.allow("10.0.0.1") {
		t.Fatal("first IP should be allowed")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("a different IP must have its own bucket")
	}
	if rl.allow("10.0.0.1") {
		t.Error("exhausted IP should be rejected")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     1,
		window:   time.Minute,
	}

	if !rl.allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("second request should be rejected")
	}

	rl.visitors["10.0.0.1"].lastReset = time.Now().Add(-2 * time.Minute)
	if !rl.allow("10.0.0.1") {
		t.Error("request after window expiry should be allowed")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{name: "host and port", addr: "192.168.1.5:54321", want: "192.168.1.5"},
		{name: "bare ip", addr: "192.168.1.5", want: "192.168.1.5"},
		{name: "ipv6 with port", addr: "[::1]:8080", want: "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clientIP(tt.addr); got != tt.want {
				t.Errorf("clientIP(%q) = %q, want %q", tt.addr, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Security headers
// ----------------------------------------------------------------------------

func TestSecurityHeaders(t *testing.T) {
	handler := securityHeaders(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/schemas", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'none'") {
		t.Errorf("Content-Security-Policy = %q, want default-src 'none'", got)
	}
}

func TestSecurityHeadersCSPDisabled(t *testing.T) {
	handler := securityHeaders(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/schemas", nil))

	if got := rec.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("Content-Security-Policy = %q, want unset", got)
	}
}

// ----------------------------------------------------------------------------
// Request parsing helpers
// ----------------------------------------------------------------------------

func TestCheckGridLimits(t *testing.T) {
	srv := &Server{cfg: &config.Config{
		Ingest: config.IngestConfig{MaxRows: 3, MaxColumns: 2},
	}}

	tests := []struct {
		name    string
		grid    core.RawGrid
		wantErr bool
	}{
		{
			name:    "within limits",
			grid:    core.RawGrid{{"a", "b"}, {"1", "2"}},
			wantErr: false,
		},
		{
			name:    "too many rows",
			grid:    core.RawGrid{{"a"}, {"1"}, {"2"}, {"3"}},
			wantErr: true,
		},
		{
			name:    "too many columns",
			grid:    core.RawGrid{{"a", "b", "c"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := srv.checkGridLimits(tt.grid)
			if tt.wantErr {
				if !errors.Is(err, ingest.ErrFileTooLarge) {
					t.Errorf("checkGridLimits() = %v, want ErrFileTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Errorf("checkGridLimits() = %v, want nil", err)
			}
		})
	}
}

func TestReadGridJSON(t *testing.T) {
	srv := &Server{cfg: &config.Config{
		Ingest: config.IngestConfig{MaxFileSize: 1 << 20},
	}}

	tests := []struct {
		name       string
		body       string
		wantSource string
		wantRows   int
		wantErr    error
	}{
		{
			name:       "valid grid",
			body:       `{"sourceName":"march.csv","grid":[["Name","Amount"],["Acme","100"]]}`,
			wantSource: "march.csv",
			wantRows:   2,
		},
		{
			name:    "missing source name",
			body:    `{"grid":[["Name"],["Acme"]]}`,
			wantErr: ingest.ErrNoFile,
		},
		{
			name:    "empty grid",
			body:    `{"sourceName":"march.csv","grid":[]}`,
			wantErr: ingest.ErrEmptyFile,
		},
		{
			name:    "not json",
			body:    `name,amount`,
			wantErr: ingest.ErrNoFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/schemas/billing/sessions", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			grid, source, err := srv.readGrid(rec, r)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("readGrid() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("readGrid() error = %v", err)
			}
			if source != tt.wantSource {
				t.Errorf("source = %q, want %q", source, tt.wantSource)
			}
			if len(grid) != tt.wantRows {
				t.Errorf("grid rows = %d, want %d", len(grid), tt.wantRows)
			}
		})
	}
}

func TestParseTimeQuery(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		want   time.Time
		wantOK bool
	}{
		{name: "absent", query: "", want: time.Time{}, wantOK: true},
		{name: "valid", query: "?created_after=2026-03-01T00:00:00Z", want: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "malformed", query: "?created_after=yesterday", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/sessions"+tt.query, nil)
			got, ok := parseTimeQuery(r, "created_after")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("parseTimeQuery() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseIntQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/sessions?limit=25&offset=junk", nil)

	if got := parseIntQuery(r, "limit", 0); got != 25 {
		t.Errorf("limit = %d, want 25", got)
	}
	if got := parseIntQuery(r, "offset", 0); got != 0 {
		t.Errorf("malformed offset = %d, want default 0", got)
	}
	if got := parseIntQuery(r, "missing", 7); got != 7 {
		t.Errorf("missing param = %d, want default 7", got)
	}
}

func TestParseUUIDParam(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantOK bool
	}{
		{name: "valid", raw: "6f1f9a3e-95a4-4cf7-9c6e-8f4a46a2e2bd", wantOK: true},
		{name: "uppercase normalized", raw: "6F1F9A3E-95A4-4CF7-9C6E-8F4A46A2E2BD", wantOK: true},
		{name: "not a uuid", raw: "latest", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.raw)
			r := httptest.NewRequest("GET", "/api/sessions/x", nil)
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

			id, ok := parseUUIDParam(r, "id")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && id != strings.ToLower(tt.raw) {
				t.Errorf("id = %q, want canonical lowercase", id)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Schema DTOs
// ----------------------------------------------------------------------------

func TestToSchemaDetailResponse(t *testing.T) {
	def := core.SchemaDefinition{
		Info: core.SchemaInfo{
			Key:   "billing",
			Group: "Finance",
			Label: "Billing Export",
		},
		Fields: []core.FieldSpec{
			{Name: "customer_name", Type: core.FieldText, Required: true},
			{Name: "plan", Type: core.FieldEnum, EnumValues: []string{"basic", "pro"}},
		},
		Aliases:     map[string]string{"Cust": "customer_name"},
		TablePrefix: "billing_",
	}

	got := toSchemaDetailResponse(def)

	if got.Key != "billing" || got.Group != "Finance" {
		t.Errorf("info = %+v, want key billing group Finance", got.schemaResponse)
	}
	if len(got.Fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(got.Fields))
	}
	if got.Fields[0].Type != "text" || !got.Fields[0].Required {
		t.Errorf("first field = %+v, want required text", got.Fields[0])
	}
	if got.Fields[1].Type != "enum" || len(got.Fields[1].EnumValues) != 2 {
		t.Errorf("second field = %+v, want enum with two values", got.Fields[1])
	}
	if got.TablePrefix != "billing_" {
		t.Errorf("tablePrefix = %q, want billing_", got.TablePrefix)
	}
}
