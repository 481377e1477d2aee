// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package api

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status         string            `json:"status"`
	UptimeSeconds  float64           `json:"uptime_seconds"`
	Checks         map[string]string `json:"checks,omitempty"`
	CircuitBreaker string            `json:"circuit_breaker,omitempty"`
}

// HealthLive returns 200 while the process is running.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &HealthStatus{
		Status:        "alive",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 once features are loaded and the post database
// answers a ping, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"features": "ok", "database": "ok"}
	ready := true

	if !h.snapshots.Ready() {
		checks["features"] = "not loaded"
		ready = false
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.ReadyTimeout)
	defer cancel()
	if err := h.posts.Ping(ctx); err != nil {
		checks["database"] = sanitizeLogValue(err.Error())
		ready = false
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not ready", http.StatusServiceUnavailable
	}

	respondJSON(w, code, &HealthStatus{
		Status:         status,
		UptimeSeconds:  time.Since(h.startTime).Seconds(),
		Checks:         checks,
		CircuitBreaker: h.posts.BreakerState(),
	})
}
