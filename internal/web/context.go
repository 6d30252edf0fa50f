package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/JonMunkholm/reconcile/internal/core"
)

// WithRequestMetadata copies request identity into the context so session
// events record who acted. IP comes from RemoteAddr, which TrustedRealIP has
// already rewritten for proxied requests; the actor comes from the optional
// X-Actor header.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r.RemoteAddr))
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	if actor := strings.TrimSpace(r.Header.Get("X-Actor")); actor != "" {
		ctx = core.ContextWithActor(ctx, actor)
	}
	return ctx
}
