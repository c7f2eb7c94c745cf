package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/warpfn/gateway/internal/ratelimit"
	"github.com/warpfn/gateway/internal/server/respond"
)

// Admitter decides whether a request from the given identity may proceed.
type Admitter interface {
	CheckAndConsume(ctx context.Context, identity string) ratelimit.Decision
}

// RateLimit gates requests per client IP and surfaces the quota through
// X-RateLimit headers on every response, admitted or denied.
func RateLimit(admitter Admitter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := clientIP(r)
			decision := admitter.CheckAndConsume(r.Context(), identity)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				logger.Info("request rate limited", "identity", identity, "path", r.URL.Path)
				respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP derives the rate-limit identity from the request. RealIP
// middleware has already rewritten RemoteAddr when forwarding headers are
// present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
