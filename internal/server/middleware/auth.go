// Package middleware provides the gateway's request gates: API key
// authentication and per-client admission control.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/warpfn/gateway/internal/server/respond"
)

const apiKeyHeader = "x-api-key"

// APIKey rejects requests whose x-api-key header does not match the
// configured key.
func APIKey(key string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(apiKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				logger.Warn("rejected request with bad API key", "path", r.URL.Path, "remote", r.RemoteAddr)
				respond.Error(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
