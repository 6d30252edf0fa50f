package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error from the core or ingest layer
//  2. Calls respondError(w, r, err)
//  3. errorStatus derives the HTTP status from the error's type
//  4. core.MapError supplies the user-facing message, action, and code
//  5. Technical error + context is logged with request ID for correlation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/reconcile/internal/core"
	"github.com/JonMunkholm/reconcile/internal/ingest"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action)
// fields. Error duplicates Message for clients that only read one field.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error server-side and writes the mapped
// user-facing message with a status derived from the error type.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	status := errorStatus(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	respondErrorJSON(w, userMsg, status)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// errorStatus maps core and ingest errors to HTTP status codes. Anything
// unrecognized is a 500.
func errorStatus(err error) int {
	var (
		invalidTransition *core.InvalidTransitionError
		stateErr          *core.StateError
		conflict          *core.MappingConflictError
		incomplete        *core.IncompleteMappingError
	)

	switch {
	case errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrRuleNotFound),
		errors.Is(err, core.ErrSchemaNotFound):
		return http.StatusNotFound

	case errors.As(err, &invalidTransition),
		errors.As(err, &stateErr),
		errors.As(err, &conflict),
		errors.As(err, &incomplete):
		return http.StatusConflict

	case errors.Is(err, core.ErrColumnNotFound),
		errors.Is(err, core.ErrFieldNotInSchema),
		errors.Is(err, ingest.ErrNoFile),
		errors.Is(err, ingest.ErrEmptyFile),
		errors.Is(err, ingest.ErrUnsupportedType):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrNoTableFound),
		errors.Is(err, core.ErrInsufficientData):
		return http.StatusUnprocessableEntity

	case errors.Is(err, ingest.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, core.ErrTooManyDetections):
		return http.StatusServiceUnavailable

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}

// badRequest reports a request-shape problem: unparseable body, malformed
// path or query parameter. These never reach the core layer, so they get a
// fixed code instead of a mapped one.
func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	slog.Warn("bad request",
		"path", r.URL.Path,
		"method", r.Method,
		"reason", message,
		"request_id", middleware.GetReqID(r.Context()),
	)
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Message: message,
		Action:  "Fix the request and try again.",
		Code:    "REQ400",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
