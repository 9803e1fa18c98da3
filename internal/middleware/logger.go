// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package middleware

import (
	"net/http"
	"time"

	"github.com/draycottdigital/pulse/internal/logging"
)

// RequestLogger emits one structured log line per request after the
// handler returns. It must be mounted after RequestID so the line
// carries the request ID from context.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &metricsResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapper, r)

		event := logging.Ctx(r.Context()).Info()
		if wrapper.statusCode >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("http request")
	})
}
