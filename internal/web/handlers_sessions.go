package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/reconcile/internal/core"
	"github.com/JonMunkholm/reconcile/internal/ingest"
)

// sessionResponse is the API shape of one session. The raw grid is
// deliberately absent: it can run to thousands of rows and resolution
// clients only need the mapping state.
type sessionResponse struct {
	ID              string               `json:"id"`
	SchemaKey       string               `json:"schemaKey"`
	SourceName      string               `json:"sourceName"`
	State           core.SessionState    `json:"state"`
	Table           *core.DetectedTable  `json:"table,omitempty"`
	Mappings        []core.ColumnMapping `json:"mappings,omitempty"`
	OpenTargets     []string             `json:"openTargets,omitempty"`
	MissingRequired []string             `json:"missingRequired,omitempty"`
	RulesDegraded   bool                 `json:"rulesDegraded,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func toSessionResponse(session *core.Session) sessionResponse {
	return sessionResponse{
		ID:              session.ID,
		SchemaKey:       session.SchemaKey,
		SourceName:      session.SourceName,
		State:           session.State,
		Table:           session.Table,
		Mappings:        session.Mappings,
		OpenTargets:     session.OpenTargets(),
		MissingRequired: session.MissingRequired(),
		RulesDegraded:   session.RulesDegraded,
		CreatedAt:       session.CreatedAt,
		UpdatedAt:       session.UpdatedAt,
	}
}

// finalizeResponse mirrors core.FinalizeResult with the grid stripped from
// the embedded session.
type finalizeResponse struct {
	Session     sessionResponse `json:"session"`
	TargetTable string          `json:"targetTable"`
	RowsLoaded  int             `json:"rowsLoaded"`
	RulesSaved  int             `json:"rulesSaved"`
}

// startSessionRequest is the JSON alternative to a multipart upload.
type startSessionRequest struct {
	SourceName string       `json:"sourceName"`
	Grid       core.RawGrid `json:"grid"`
}

// resolveColumnRequest addresses one column of a session. ColumnIndex is a
// pointer so column zero is distinguishable from a missing field.
type resolveColumnRequest struct {
	ColumnIndex *int   `json:"columnIndex"`
	TargetField string `json:"targetField,omitempty"`
}

// handleStartSession creates a session from an uploaded file or a JSON grid
// and runs it through detection and matching.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	schemaKey := chi.URLParam(r, "schemaKey")

	grid, sourceName, err := s.readGrid(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.checkGridLimits(grid); err != nil {
		respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	session, err := s.service.StartSession(ctx, schemaKey, sourceName, grid)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// readGrid extracts the raw grid from the request: the "file" part of a
// multipart form, or a JSON body with sourceName and grid.
func (s *Server) readGrid(w http.ResponseWriter, r *http.Request) (core.RawGrid, string, error) {
	maxSize := s.cfg.Ingest.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxSize); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ingest.ErrFileTooLarge, err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", ingest.ErrNoFile
		}
		defer file.Close()

		grid, err := ingest.Parse(header.Filename, file, maxSize)
		if err != nil {
			return nil, "", err
		}
		return grid, header.Filename, nil
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", fmt.Errorf("%w: body is neither a multipart form nor a JSON grid", ingest.ErrNoFile)
	}
	req.SourceName = strings.TrimSpace(req.SourceName)
	if req.SourceName == "" {
		return nil, "", fmt.Errorf("%w: sourceName is required for JSON grids", ingest.ErrNoFile)
	}
	if len(req.Grid) == 0 {
		return nil, "", ingest.ErrEmptyFile
	}
	return req.Grid, req.SourceName, nil
}

// checkGridLimits enforces the configured row and column caps on grids from
// either input path. File parsing caps bytes; this caps dimensions.
func (s *Server) checkGridLimits(grid core.RawGrid) error {
	if max := s.cfg.Ingest.MaxRows; max > 0 && len(grid) > max {
		return fmt.Errorf("%w: %d rows exceeds the %d row limit", ingest.ErrFileTooLarge, len(grid), max)
	}
	if max := s.cfg.Ingest.MaxColumns; max > 0 && grid.Width() > max {
		return fmt.Errorf("%w: %d columns exceeds the %d column limit", ingest.ErrFileTooLarge, grid.Width(), max)
	}
	return nil
}

// handleListSessions returns session summaries matching the query filters:
// schema, state, created_after, created_before, limit, offset.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	filter := core.SessionFilter{
		SchemaKey: strings.TrimSpace(r.URL.Query().Get("schema")),
		Limit:     parseIntQuery(r, "limit", 0),
		Offset:    parseIntQuery(r, "offset", 0),
	}

	if raw := r.URL.Query().Get("state"); raw != "" {
		state, ok := core.ParseSessionState(raw)
		if !ok {
			badRequest(w, r, fmt.Sprintf("unknown session state %q", raw))
			return
		}
		filter.State = state
	}

	var ok bool
	if filter.CreatedAfter, ok = parseTimeQuery(r, "created_after"); !ok {
		badRequest(w, r, "created_after must be RFC 3339")
		return
	}
	if filter.CreatedBefore, ok = parseTimeQuery(r, "created_before"); !ok {
		badRequest(w, r, "created_before must be RFC 3339")
		return
	}

	sessions, err := s.service.ListSessions(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if sessions == nil {
		sessions = []core.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// handleGetSession returns one session's resolution state.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseUUIDParam(r, "id")
	if !ok {
		badRequest(w, r, "session ID must be a UUID")
		return
	}

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// handleSessionProposals returns the ranked match proposals per column.
func (s *Server) handleSessionProposals(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseUUIDParam(r, "id")
	if !ok {
		badRequest(w, r, "session ID must be a UUID")
		return
	}

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	proposals := session.Proposals
	if proposals == nil {
		proposals = []core.CandidateProposals{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": session.ID,
		"state":     session.State,
		"proposals": proposals,
	})
}

// handleSessionEvents returns the session's audit trail, oldest first.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseUUIDParam(r, "id")
	if !ok {
		badRequest(w, r, "session ID must be a UUID")
		return
	}

	filter := core.EventFilter{
		SessionID: sessionID,
		Action:    core.EventAction(strings.TrimSpace(r.URL.Query().Get("action"))),
		Limit:     parseIntQuery(r, "limit", 0),
		Offset:    parseIntQuery(r, "offset", 0),
	}

	events, err := s.service.ListEvents(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if events == nil {
		events = []core.SessionEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// handleConfirmColumn maps a column to a target field.
func (s *Server) handleConfirmColumn(w http.ResponseWriter, r *http.Request) {
	sessionID, req, ok := s.decodeResolveRequest(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.TargetField) == "" {
		badRequest(w, r, "targetField is required to confirm a column")
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	session, err := s.service.ConfirmColumn(ctx, sessionID, *req.ColumnIndex, req.TargetField)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// handleRejectColumn marks a column unmatched.
func (s *Server) handleRejectColumn(w http.ResponseWriter, r *http.Request) {
	sessionID, req, ok := s.decodeResolveRequest(w, r)
	if !ok {
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	session, err := s.service.RejectColumn(ctx, sessionID, *req.ColumnIndex)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// handleSkipColumn excludes a column from the output payload.
func (s *Server) handleSkipColumn(w http.ResponseWriter, r *http.Request) {
	sessionID, req, ok := s.decodeResolveRequest(w, r)
	if !ok {
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	session, err := s.service.SkipColumn(ctx, sessionID, *req.ColumnIndex)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// decodeResolveRequest parses the session ID and the column-action body
// shared by confirm, reject, and skip. A false return means the response
// has been written.
func (s *Server) decodeResolveRequest(w http.ResponseWriter, r *http.Request) (string, resolveColumnRequest, bool) {
	var req resolveColumnRequest

	sessionID, ok := parseUUIDParam(r, "id")
	if !ok {
		badRequest(w, r, "session ID must be a UUID")
		return "", req, false
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "request body must be JSON with a columnIndex")
		return "", req, false
	}
	if req.ColumnIndex == nil {
		badRequest(w, r, "columnIndex is required")
		return "", req, false
	}

	return sessionID, req, true
}

// handleFinalizeSession completes the session: persists rules, builds the
// payload, and hands it to the loader.
func (s *Server) handleFinalizeSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseUUIDParam(r, "id")
	if !ok {
		badRequest(w, r, "session ID must be a UUID")
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.FinalizeSession(ctx, sessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, finalizeResponse{
		Session:     toSessionResponse(result.Session),
		TargetTable: result.TargetTable,
		RowsLoaded:  result.RowsLoaded,
		RulesSaved:  result.RulesSaved,
	})
}

// handleAbandonSession abandons the session from any non-terminal state.
func (s *Server) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseUUIDParam(r, "id")
	if !ok {
		badRequest(w, r, "session ID must be a UUID")
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	session, err := s.service.AbandonSession(ctx, sessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// handleQueueStatus reports detection limiter occupancy.
func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.QueueStatus())
}

// parseIntQuery reads an integer query parameter, returning def when the
// parameter is absent or malformed.
func parseIntQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// parseTimeQuery reads an RFC 3339 query parameter. Absent values return
// the zero time with ok true; malformed values return ok false.
func parseTimeQuery(r *http.Request, name string) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
