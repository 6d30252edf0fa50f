package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// correctRuleRequest rebinds a rule to a different target field.
type correctRuleRequest struct {
	TargetField string `json:"targetField"`
}

// handleCorrectRule rebinds an existing mapping rule to a new target field.
func (s *Server) handleCorrectRule(w http.ResponseWriter, r *http.Request) {
	ruleID, ok := parseUUIDParam(r, "id")
	if !ok {
		badRequest(w, r, "rule ID must be a UUID")
		return
	}

	var req correctRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "request body must be JSON with a targetField")
		return
	}
	req.TargetField = strings.TrimSpace(req.TargetField)
	if req.TargetField == "" {
		badRequest(w, r, "targetField is required")
		return
	}

	rule, err := s.service.CorrectRule(r.Context(), ruleID, req.TargetField)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

// handleDeleteRule removes a mapping rule.
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID, ok := parseUUIDParam(r, "id")
	if !ok {
		badRequest(w, r, "rule ID must be a UUID")
		return
	}

	if err := s.service.DeleteRule(r.Context(), ruleID); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseUUIDParam reads a chi URL parameter and validates it as a UUID,
// returning the canonical lowercase form.
func parseUUIDParam(r *http.Request, name string) (string, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
