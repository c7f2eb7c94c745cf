package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLimiter(client, limit, window, testLogger()), mr
}

func TestLimiter_AdmitsUpToLimitThenDenies(t *testing.T) {
	limiter, _ := newTestLimiter(t, 100, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 100; i++ {
		d := limiter.CheckAndConsume(ctx, "10.0.0.1")
		require.True(t, d.Allowed, "request %d should be admitted", i)
		assert.Equal(t, 100-i, d.Remaining)
		assert.Equal(t, 100, d.Limit)
	}

	d := limiter.CheckAndConsume(ctx, "10.0.0.1")
	assert.False(t, d.Allowed, "101st request in the window must be denied")
	assert.Equal(t, 0, d.Remaining)
}

func TestLimiter_IdentitiesAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)
	ctx := context.Background()

	limiter.CheckAndConsume(ctx, "a")
	limiter.CheckAndConsume(ctx, "a")
	assert.False(t, limiter.CheckAndConsume(ctx, "a").Allowed)

	assert.True(t, limiter.CheckAndConsume(ctx, "b").Allowed)
}

func TestLimiter_WindowExpiryResetsCounter(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.True(t, limiter.CheckAndConsume(ctx, "a").Allowed)
	require.False(t, limiter.CheckAndConsume(ctx, "a").Allowed)

	mr.FastForward(61 * time.Second)

	d := limiter.CheckAndConsume(ctx, "a")
	assert.True(t, d.Allowed, "a request just after window expiry must be admitted")
	assert.Equal(t, 0, d.Remaining)
}

func TestLimiter_FailsOpenWhenBrokerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewLimiter(client, 3, time.Minute, testLogger())

	mr.Close()

	d := limiter.CheckAndConsume(context.Background(), "a")
	assert.True(t, d.Allowed)
	assert.Equal(t, 3, d.Remaining)
	assert.Equal(t, 3, d.Limit)
}
