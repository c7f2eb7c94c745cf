package results

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpfn/gateway/internal/broker"
	"github.com/warpfn/gateway/internal/core"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWaiter(t *testing.T, deadline time.Duration) (*Waiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewWaiter(broker.Config{Addr: mr.Addr()}, deadline, testLogger()), mr
}

func TestWaiter_ResolvesOnPublishedMessage(t *testing.T) {
	waiter, mr := newTestWaiter(t, 5*time.Second)

	go func() {
		time.Sleep(100 * time.Millisecond)
		mr.Publish(ChannelFor("R1"), `{"ok":true}`)
	}()

	start := time.Now()
	res := waiter.Wait(context.Background(), "R1")

	require.NotNil(t, res)
	assert.Equal(t, core.StatusSuccess, res.Status)
	assert.JSONEq(t, `{"ok":true}`, string(res.Body()))
	assert.Less(t, time.Since(start), 2*time.Second, "resolution should not wait for the deadline")
}

func TestWaiter_TimesOutWithoutMessage(t *testing.T) {
	waiter, _ := newTestWaiter(t, 200*time.Millisecond)

	start := time.Now()
	res := waiter.Wait(context.Background(), "R2")

	require.NotNil(t, res)
	assert.Equal(t, core.StatusTimeout, res.Status)
	assert.Equal(t, "Execution timed out", res.Message)
	assert.JSONEq(t, `{"status":"TIMEOUT","message":"Execution timed out"}`, string(res.Body()))
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestWaiter_MalformedPayloadDegradesToRawString(t *testing.T) {
	waiter, mr := newTestWaiter(t, 5*time.Second)

	go func() {
		time.Sleep(100 * time.Millisecond)
		mr.Publish(ChannelFor("R3"), "worker exploded: not json")
	}()

	res := waiter.Wait(context.Background(), "R3")

	require.NotNil(t, res)
	assert.Equal(t, core.StatusSuccess, res.Status)
	assert.Equal(t, `"worker exploded: not json"`, string(res.Body()))
}

func TestWaiter_ConcurrentWaitsDoNotCrossDeliver(t *testing.T) {
	waiter, mr := newTestWaiter(t, 5*time.Second)

	type outcome struct {
		id  string
		res *core.ResultMessage
	}
	results := make(chan outcome, 2)

	for _, id := range []string{"A", "B"} {
		go func(id string) {
			results <- outcome{id: id, res: waiter.Wait(context.Background(), id)}
		}(id)
	}

	time.Sleep(150 * time.Millisecond)
	mr.Publish(ChannelFor("A"), `{"for":"A"}`)
	mr.Publish(ChannelFor("B"), `{"for":"B"}`)

	for i := 0; i < 2; i++ {
		select {
		case o := <-results:
			assert.JSONEq(t, `{"for":"`+o.id+`"}`, string(o.res.Body()))
		case <-time.After(3 * time.Second):
			t.Fatal("waiter did not resolve in time")
		}
	}
}

func TestWaiter_FirstMessageWins(t *testing.T) {
	waiter, mr := newTestWaiter(t, 5*time.Second)

	go func() {
		time.Sleep(100 * time.Millisecond)
		mr.Publish(ChannelFor("R5"), `{"n":1}`)
		mr.Publish(ChannelFor("R5"), `{"n":2}`)
	}()

	res := waiter.Wait(context.Background(), "R5")
	assert.JSONEq(t, `{"n":1}`, string(res.Body()))
}

func TestWaiter_SubscribeFailureProducesErrorResult(t *testing.T) {
	mr := miniredis.RunT(t)
	waiter := NewWaiter(broker.Config{Addr: mr.Addr()}, time.Second, testLogger())
	mr.Close()

	res := waiter.Wait(context.Background(), "R6")

	require.NotNil(t, res)
	assert.Equal(t, core.StatusError, res.Status)
	assert.Equal(t, "subscribe failed", res.Message)
}

func TestWaiter_CallerCancellationTearsDown(t *testing.T) {
	waiter, _ := newTestWaiter(t, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := waiter.Wait(ctx, "R7")

	require.NotNil(t, res)
	assert.Equal(t, core.StatusTimeout, res.Status)
	assert.Less(t, time.Since(start), 2*time.Second)
}
