// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/draycottdigital/pulse/internal/config"
	"github.com/draycottdigital/pulse/internal/middleware"
)

// NewRouter builds the chi router with the full middleware stack and all
// routes. Heartbeats get their own tight per-IP limit because beacons
// arrive unauthenticated from every visitor's browser.
func NewRouter(cfg *config.Config, h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(corsHandler(cfg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)

		r.Route("/health", func(r chi.Router) {
			r.Use(rateLimit(cfg, 1000))
			r.Get("/", h.Health)
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})

		r.Group(func(r chi.Router) {
			r.Use(rateLimit(cfg, cfg.Server.RateLimitReqs))
			r.Get("/reports", h.Reports)
			r.Post("/reports", h.Reports)
			r.Get("/reports/cached", h.CachedReport)
			r.Get("/live-stats", h.LiveStats)

			r.Route("/projects/{id}", func(r chi.Router) {
				r.Put("/", h.UpsertProject)
				r.Get("/", h.GetProject)
				r.Delete("/", h.DeleteProject)
			})
		})

		// Beacons from browsers; unauthenticated, so tightly limited.
		r.Group(func(r chi.Router) {
			r.Use(rateLimit(cfg, cfg.Server.RateLimitReqs*2))
			r.Post("/heartbeat", h.Heartbeat)
		})
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

func corsHandler(cfg *config.Config) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID", "x-api-key"},
		MaxAge:         86400,
	})
}

// rateLimit returns a per-IP limiter over the configured window, or a
// no-op when rate limiting is disabled (tests, local development).
func rateLimit(cfg *config.Config, requests int) func(http.Handler) http.Handler {
	if cfg.Server.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		requests,
		cfg.Server.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(rateLimitHandler),
	)
}
