// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

// Package api provides the HTTP surface: routing, request parsing and the
// standardized response envelope shared by every endpoint.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/draycottdigital/pulse/internal/logging"
	"github.com/draycottdigital/pulse/internal/metrics"
	"github.com/draycottdigital/pulse/internal/models"
)

// Machine-readable error codes carried in APIError.Code.
const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeAuthentication = "AUTHENTICATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConfiguration  = "CONFIGURATION_ERROR"
	ErrCodeUpstream       = "UPSTREAM_ERROR"
	ErrCodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// responseWriter writes the APIResponse envelope and stamps per-response
// metadata. One instance is created at the top of each handler so the
// query-time field reflects full handler duration.
type responseWriter struct {
	w     http.ResponseWriter
	r     *http.Request
	start time.Time
}

func newResponseWriter(w http.ResponseWriter, r *http.Request) *responseWriter {
	return &responseWriter{w: w, r: r, start: time.Now()}
}

// Success writes a 200 envelope around data.
func (rw *responseWriter) Success(data interface{}) {
	rw.write(http.StatusOK, models.APIResponse{
		Status: "success",
		Data:   data,
	}, false)
}

// SuccessCached writes a 200 envelope flagged as served from cache.
func (rw *responseWriter) SuccessCached(data interface{}) {
	rw.write(http.StatusOK, models.APIResponse{
		Status: "success",
		Data:   data,
	}, true)
}

// Error writes an error envelope with the given status and code.
func (rw *responseWriter) Error(status int, code, message string, details map[string]interface{}) {
	rw.write(status, models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}, false)
}

func (rw *responseWriter) write(status int, resp models.APIResponse, cached bool) {
	resp.Metadata = models.Metadata{
		Timestamp:   time.Now().UTC(),
		QueryTimeMS: time.Since(rw.start).Milliseconds(),
		Cached:      cached,
	}

	rw.w.Header().Set("Content-Type", "application/json")
	rw.w.WriteHeader(status)

	if err := json.NewEncoder(rw.w).Encode(resp); err != nil {
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

// rateLimitHandler is wired into httprate so limited requests still get
// the standard envelope instead of the library's plain-text body.
func rateLimitHandler(w http.ResponseWriter, r *http.Request) {
	metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
	newResponseWriter(w, r).Error(
		http.StatusTooManyRequests,
		ErrCodeRateLimit,
		"Too many requests, slow down",
		nil,
	)
}
