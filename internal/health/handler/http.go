// Package handler serves liveness and readiness checks.
package handler

import (
	"context"
	"net/http"
	"time"

	"portfolio-admin/internal/platform/httpx"
)

const defaultCheckTimeout = 2 * time.Second

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Check is a named readiness dependency.
type Check struct {
	Name   string
	Pinger Pinger
}

// Handler serves GET /health and GET /ready.
type Handler struct {
	checks  []Check
	timeout time.Duration
}

// New returns a Handler that runs checks on every readiness request. Checks with a nil Pinger are skipped.
func New(checks ...Check) *Handler {
	h := &Handler{timeout: defaultCheckTimeout}
	for _, c := range checks {
		if c.Pinger != nil {
			h.checks = append(h.checks, c)
		}
	}
	return h
}

// Live always reports ok while the process is serving.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready pings every dependency and reports 503 if any fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	results := make(map[string]string, len(h.checks))
	status := http.StatusOK
	for _, c := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		err := c.Pinger.Ping(ctx)
		cancel()
		if err != nil {
			results[c.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[c.Name] = "ok"
	}
	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	httpx.WriteJSON(w, status, map[string]any{"status": overall, "checks": results})
}
