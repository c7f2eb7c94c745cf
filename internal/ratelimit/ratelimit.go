// Package ratelimit implements admission control for run requests: a
// fixed-window counter per client identity, kept in Redis so every gateway
// instance enforces the same quota.
//
// Fixed windows admit up to 2x the limit across a window boundary (a burst at
// the tail of one window followed by a burst at the head of the next). That is
// a known property of the algorithm, kept as-is.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Defaults for the admission window.
const (
	DefaultLimit  = 100
	DefaultWindow = time.Minute
)

const keyPrefix = "ratelimit:"

// incrWindow increments the identity's counter and, only when this increment
// created the key, attaches the window TTL. Running it as a script makes
// increment-then-expire a single indivisible operation; done as two commands,
// a crash in between would leave a counter that never expires and permanently
// blocks the identity.
var incrWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Decision is the outcome of an admission check. Limit and Remaining are
// always populated so handlers can surface throttling headers.
type Decision struct {
	Allowed   bool
	Remaining int
	Limit     int
}

// Limiter is the admission controller. It issues counter updates on the
// shared broker connection and fails open when the broker is unreachable:
// availability of the gateway is prioritized over strict quota enforcement.
type Limiter struct {
	rdb    redis.UniversalClient
	limit  int
	window time.Duration
	logger *slog.Logger
}

// NewLimiter creates a Limiter on the given (shared) client. Non-positive
// limit or window fall back to the defaults.
func NewLimiter(rdb redis.UniversalClient, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// CheckAndConsume counts this request against the identity's current window
// and decides admission. The counter is consumed even for denied requests;
// the window expiry set on first increment resets it.
func (l *Limiter) CheckAndConsume(ctx context.Context, identity string) Decision {
	count, err := incrWindow.Run(ctx, l.rdb, []string{keyPrefix + identity}, l.window.Milliseconds()).Int64()
	if err != nil {
		// Fail open: rate limiting degrades, traffic keeps flowing.
		l.logger.Warn("rate limit check failed, admitting request",
			"identity", identity,
			"error", err,
		)
		return Decision{Allowed: true, Remaining: l.limit, Limit: l.limit}
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(l.limit),
		Remaining: remaining,
		Limit:     l.limit,
	}
}
