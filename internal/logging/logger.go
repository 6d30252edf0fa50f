// Package logging configures the process-wide slog logger and ties log
// entries to chi request IDs so every line produced while serving a
// request can be correlated.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs the global slog logger.
//
// Level is one of "debug", "info", "warn", "error" (default "info").
// Format is "text" or "json" (default "text"); production deployments
// run "json" so log shippers can parse entries without a grok pattern.
func Setup(level, format string) {
	slog.SetDefault(slog.New(newHandler(level, format)))
}

func newHandler(level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.NewTextHandler(os.Stdout, opts)
}

// parseLevel maps a config string to a slog level. Unknown values mean
// info rather than an error: a typo in LOG_LEVEL should not take the
// process down.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// FromContext returns the default logger, enriched with the chi request
// ID when the context carries one. Handlers and middleware log through
// this so a single request's entries share a request_id field.
func FromContext(ctx context.Context) *slog.Logger {
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		return slog.Default().With("request_id", reqID)
	}
	return slog.Default()
}
