// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package api

import (
	"net/http"
	"time"

	"github.com/draycottdigital/pulse/internal/ga"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var startTime = time.Now()

// healthStatus is the GET /api/v1/health payload.
type healthStatus struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Store         string `json:"store"`
	Breaker       string `json:"breaker,omitempty"`
}

// SetBreaker lets the health endpoint report the provider circuit state.
// Optional; health omits the field when no breaker is wired.
func (h *Handler) SetBreaker(b *ga.BreakerRunner) {
	h.breaker = b
}

// Health serves GET /api/v1/health with component status. An open circuit
// degrades the overall status but the endpoint still returns 200: the
// process itself is healthy and cached reads keep working.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	status := healthStatus{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Store:         "ok",
	}

	if err := h.store.Ping(r.Context()); err != nil {
		status.Status = "degraded"
		status.Store = "unavailable"
	}

	if h.breaker != nil {
		status.Breaker = h.breaker.State().String()
		if status.Breaker == "open" {
			status.Status = "degraded"
		}
	}

	rw.Success(status)
}

// HealthLive serves GET /api/v1/health/live. Liveness only proves the
// process can serve HTTP; no dependency checks.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	newResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady serves GET /api/v1/health/ready. Readiness requires the
// document store; a failed check returns 503 so the orchestrator stops
// routing traffic here.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	if err := h.store.Ping(r.Context()); err != nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeInternal, "Store unavailable", nil)
		return
	}

	rw.Success(map[string]string{"status": "ready"})
}
