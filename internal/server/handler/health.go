package handler

import (
	"net/http"
	"time"

	"github.com/warpfn/gateway/internal/server/respond"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Broker is the read-only view of broker connectivity the health endpoint
// needs.
type Broker interface {
	State() (connected bool, lastTransition time.Time)
	Uptime() time.Duration
}

// HealthHandler maps broker connectivity to HTTP status so a load balancer
// can stop routing to an instance that has lost its dependency.
type HealthHandler struct {
	broker Broker
}

// NewHealthHandler creates the health endpoint backed by the given broker
// state.
func NewHealthHandler(broker Broker) *HealthHandler {
	return &HealthHandler{broker: broker}
}

// Handle serves 200 while the broker is connected and 503 otherwise.
func (h *HealthHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	connected, _ := h.broker.State()

	body := map[string]any{
		"status":  "ok",
		"redis":   "connected",
		"version": Version,
		"uptime":  int64(h.broker.Uptime().Seconds()),
	}
	status := http.StatusOK
	if !connected {
		body["status"] = "degraded"
		body["redis"] = "disconnected"
		status = http.StatusServiceUnavailable
	}

	respond.JSON(w, status, body)
}
