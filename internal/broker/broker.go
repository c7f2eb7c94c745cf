// Package broker owns the long-lived Redis connection shared by the admission
// controller, and tracks its connectivity for the health endpoint. The
// connection's lifecycle (init, reconnect, shutdown) is managed here and
// nowhere else; other components receive the Manager by reference.
package broker

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the connection settings for the shared broker.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Manager wraps the shared Redis client and the process-wide health state.
// The state starts disconnected and flips on connect and error events
// observed on the client; it is read-only to every other component.
type Manager struct {
	client *redis.Client
	logger *slog.Logger
	start  time.Time

	mu             sync.RWMutex
	connected      bool
	lastTransition time.Time
}

// NewManager creates the shared client. The connection itself is established
// lazily on first use; callers that want an eager connection can Ping.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	m := &Manager{
		logger: logger,
		start:  time.Now(),
	}

	m.client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		OnConnect: func(_ context.Context, _ *redis.Conn) error {
			m.setConnected(true)
			return nil
		},
	})
	m.client.AddHook(&healthHook{m: m})

	return m
}

// Client exposes the shared connection. Only the admission controller issues
// commands on it; everyone else reads health state through the Manager.
func (m *Manager) Client() *redis.Client {
	return m.client
}

// Ping issues a health probe on the shared connection.
func (m *Manager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// State returns the current connectivity flag and the time of its last
// transition.
func (m *Manager) State() (connected bool, lastTransition time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected, m.lastTransition
}

// Connected reports whether the broker was reachable at the last observed event.
func (m *Manager) Connected() bool {
	connected, _ := m.State()
	return connected
}

// Uptime returns how long this Manager (and with it the process) has been up.
func (m *Manager) Uptime() time.Duration {
	return time.Since(m.start)
}

// Close shuts the shared connection down.
func (m *Manager) Close() error {
	return m.client.Close()
}

func (m *Manager) setConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected == connected {
		return
	}
	m.connected = connected
	m.lastTransition = time.Now()

	if connected {
		m.logger.Info("broker connected")
	} else {
		m.logger.Warn("broker connection lost")
	}
}

// healthHook flips the manager's connectivity flag when commands fail with
// connection-level errors. Application-level replies such as redis.Nil leave
// the state untouched.
type healthHook struct {
	m *Manager
}

func (h *healthHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.m.setConnected(false)
		}
		return conn, err
	}
}

func (h *healthHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if isConnError(err) {
			h.m.setConnected(false)
		}
		return err
	}
}

func (h *healthHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if isConnError(err) {
			h.m.setConnected(false)
		}
		return err
	}
}

func isConnError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	// Caller-driven cancellation says nothing about the broker.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
