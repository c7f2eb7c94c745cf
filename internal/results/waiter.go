// Package results converts the asynchronous arrival of a worker's result into
// a single bounded synchronous outcome. Each run request gets its own private
// subscription connection; unsubscribing a shared connection from a channel
// would affect other waiters multiplexed on it and could lose messages meant
// for concurrent requests. The connection churn is the accepted cost.
package results

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warpfn/gateway/internal/broker"
	"github.com/warpfn/gateway/internal/core"
)

// ChannelPrefix names the pub/sub channels workers publish results on.
const ChannelPrefix = "result:"

// ChannelFor returns the result channel for a request id.
func ChannelFor(requestID string) string {
	return ChannelPrefix + requestID
}

// DefaultDeadline bounds how long a waiter blocks for a result.
const DefaultDeadline = 25 * time.Second

// Wait states. A wait starts in init, moves to subscribed once the
// subscription is confirmed, and ends in exactly one terminal state.
const (
	stateInit int32 = iota
	stateSubscribed
	stateResolved
	stateTimedOut
	stateFailed
)

// wait tracks a single request's progress toward a terminal state. The atomic
// state is the completion guard: only the first transition out of subscribed
// records a result, every later attempt is a no-op.
type wait struct {
	state  atomic.Int32
	result *core.ResultMessage
}

func (p *wait) complete(next int32, res *core.ResultMessage) {
	if p.state.CompareAndSwap(stateSubscribed, next) {
		p.result = res
	}
}

// Waiter opens request-private subscriptions and blocks until a correlated
// result arrives or the deadline passes.
type Waiter struct {
	cfg      broker.Config
	deadline time.Duration
	logger   *slog.Logger
}

// NewWaiter creates a Waiter that dials private connections with the given
// broker settings. A non-positive deadline falls back to DefaultDeadline.
func NewWaiter(cfg broker.Config, deadline time.Duration, logger *slog.Logger) *Waiter {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	return &Waiter{
		cfg:      cfg,
		deadline: deadline,
		logger:   logger,
	}
}

// Wait subscribes to the request's result channel and blocks until the first
// of: a message arrives, the deadline fires, or the caller's context is
// cancelled. It never returns an error; every terminal state is encoded in
// the returned message. The timer is always stopped and the private
// connection always torn down, whichever path completes the wait.
func (w *Waiter) Wait(ctx context.Context, requestID string) *core.ResultMessage {
	wt := &wait{}

	client := redis.NewClient(&redis.Options{
		Addr:     w.cfg.Addr,
		Password: w.cfg.Password,
		DB:       w.cfg.DB,
	})
	defer func() { _ = client.Close() }()

	sub := client.Subscribe(ctx, ChannelFor(requestID))
	defer func() { _ = sub.Close() }()

	// Receive confirms the SUBSCRIBE before we start the clock; without the
	// confirmation a fast worker could publish into the void.
	if _, err := sub.Receive(ctx); err != nil {
		wt.state.Store(stateFailed)
		w.logger.Error("result subscription failed", "request_id", requestID, "error", err)
		return &core.ResultMessage{Status: core.StatusError, Message: "subscribe failed"}
	}
	wt.state.Store(stateSubscribed)

	timer := time.NewTimer(w.deadline)
	defer timer.Stop()

	select {
	case msg, ok := <-sub.Channel():
		if !ok {
			// Private connection dropped mid-wait; no result can arrive anymore.
			wt.complete(stateFailed, &core.ResultMessage{
				Status:  core.StatusError,
				Message: "result channel closed",
			})
			break
		}
		wt.complete(stateResolved, decodeResult(msg.Payload))
		w.logger.Debug("result received", "request_id", requestID)
	case <-timer.C:
		wt.complete(stateTimedOut, &core.ResultMessage{
			Status:  core.StatusTimeout,
			Message: "Execution timed out",
		})
		w.logger.Warn("result wait timed out", "request_id", requestID, "deadline", w.deadline)
	case <-ctx.Done():
		// The owning request was aborted upstream; tear down as on timeout.
		wt.complete(stateTimedOut, &core.ResultMessage{
			Status:  core.StatusTimeout,
			Message: "Execution timed out",
		})
	}

	return wt.result
}

// decodeResult interprets a worker's published payload. Structured bodies
// pass through verbatim; anything that does not parse degrades to a raw
// string result rather than failing the request.
func decodeResult(payload string) *core.ResultMessage {
	raw := []byte(payload)
	if json.Valid(raw) {
		return &core.ResultMessage{Status: core.StatusSuccess, Payload: raw}
	}

	quoted, err := json.Marshal(payload)
	if err != nil {
		return &core.ResultMessage{Status: core.StatusSuccess, Message: payload}
	}
	return &core.ResultMessage{Status: core.StatusSuccess, Payload: quoted}
}
