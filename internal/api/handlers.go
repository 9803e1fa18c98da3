// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/draycottdigital/pulse/internal/auth"
	"github.com/draycottdigital/pulse/internal/cache"
	"github.com/draycottdigital/pulse/internal/config"
	"github.com/draycottdigital/pulse/internal/ga"
	"github.com/draycottdigital/pulse/internal/heartbeat"
	"github.com/draycottdigital/pulse/internal/logging"
	"github.com/draycottdigital/pulse/internal/models"
	"github.com/draycottdigital/pulse/internal/report"
	"github.com/draycottdigital/pulse/internal/store"
	"github.com/draycottdigital/pulse/internal/validation"
)

// Handler holds the dependencies of every endpoint. The response cache is
// optional; a nil cache disables response caching entirely.
type Handler struct {
	cfg        *config.Config
	aggregator *report.Aggregator
	guard      *auth.Guard
	store      *store.Store
	heartbeats *heartbeat.Store
	respCache  *cache.Cache
	breaker    *ga.BreakerRunner
}

// NewHandler wires the endpoint dependencies together.
func NewHandler(cfg *config.Config, agg *report.Aggregator, guard *auth.Guard, st *store.Store, hb *heartbeat.Store, respCache *cache.Cache) *Handler {
	return &Handler{
		cfg:        cfg,
		aggregator: agg,
		guard:      guard,
		store:      st,
		heartbeats: hb,
		respCache:  respCache,
	}
}

// Reports serves GET and POST /api/v1/reports. GET takes project_id and
// range query parameters; POST takes the same fields as a JSON body. The
// project is loaded before authorization so the guard can match a JWT
// subject against it, but an unknown project is still reported only after
// the caller has proven some credential.
func (h *Handler) Reports(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	req, ok := h.parseReportRequest(rw, r)
	if !ok {
		return
	}

	project, err := h.loadProject(r, req.ProjectID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		rw.Error(http.StatusInternalServerError, ErrCodeInternal, "Failed to load project", nil)
		return
	}

	if err := h.guard.Authorize(r, project); err != nil {
		rw.Error(http.StatusUnauthorized, ErrCodeAuthentication, "Authentication required", nil)
		return
	}
	if project == nil {
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "Project not found", nil)
		return
	}

	cacheKey := cache.GenerateKey("report", req)
	if h.respCache != nil {
		if cached, found := h.respCache.Get(cacheKey); found {
			rw.SuccessCached(cached)
			return
		}
	}

	doc, err := h.aggregator.Fetch(r.Context(), req)
	if err != nil {
		h.writeReportError(rw, r, err)
		return
	}

	payload := models.ReportResponse{AnalyticsDoc: doc}
	if h.respCache != nil {
		h.respCache.Set(cacheKey, payload)
	}
	rw.Success(payload)
}

// CachedReport serves GET /api/v1/reports/cached. It reads straight from
// the document store without touching the analytics provider, so the
// dashboard stays usable while the provider is degraded.
func (h *Handler) CachedReport(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		rw.Error(http.StatusBadRequest, ErrCodeValidation, "project_id is required", nil)
		return
	}

	project, err := h.loadProject(r, projectID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		rw.Error(http.StatusInternalServerError, ErrCodeInternal, "Failed to load project", nil)
		return
	}

	if err := h.guard.Authorize(r, project); err != nil {
		rw.Error(http.StatusUnauthorized, ErrCodeAuthentication, "Authentication required", nil)
		return
	}
	if project == nil {
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "Project not found", nil)
		return
	}

	doc, series, err := h.aggregator.Cached(r.Context(), projectID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "No cached report for this project", nil)
		return
	case err != nil:
		rw.Error(http.StatusInternalServerError, ErrCodeInternal, "Failed to read cached report", nil)
		return
	}

	rw.Success(models.CachedReportResponse{
		AnalyticsDoc: doc,
		DailySeries:  series,
	})
}

// heartbeatRequest is the POST /api/v1/heartbeat body.
type heartbeatRequest struct {
	Path string `json:"path" validate:"required,max=2048"`
}

// Heartbeat records one page-view beacon. The remote address comes from
// the connection (RealIP middleware strips proxy hops) and the user agent
// from the header, never from the body, so clients cannot spoof the
// distinct-visitor counting.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidation, "Invalid JSON body", nil)
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.Error(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	h.heartbeats.Record(models.HeartbeatEvent{
		Path:          req.Path,
		UserAgent:     r.UserAgent(),
		RemoteAddress: r.RemoteAddr,
		Timestamp:     time.Now().UnixMilli(),
	})

	rw.Success(map[string]bool{"ok": true})
}

// LiveStats serves GET /api/v1/live-stats, a snapshot of the heartbeat
// store. Management credentials only: the snapshot spans all client sites.
func (h *Handler) LiveStats(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	if err := h.guard.AuthorizeSharedSecret(r); err != nil {
		rw.Error(http.StatusUnauthorized, ErrCodeAuthentication, "Authentication required", nil)
		return
	}

	rw.Success(h.heartbeats.Stats(time.Now()))
}

// parseReportRequest extracts a ReportRequest from the query string (GET)
// or JSON body (POST) and validates it. On failure it writes the error
// response and returns ok=false.
func (h *Handler) parseReportRequest(rw *responseWriter, r *http.Request) (models.ReportRequest, bool) {
	var req models.ReportRequest

	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			rw.Error(http.StatusBadRequest, ErrCodeValidation, "Invalid JSON body", nil)
			return req, false
		}
	} else {
		req.ProjectID = r.URL.Query().Get("project_id")
		req.Range = r.URL.Query().Get("range")
	}

	if verr := validation.ValidateStruct(req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.Error(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return req, false
	}

	return req, true
}

// loadProject fetches the project for authorization. A missing project
// yields (nil, store.ErrNotFound) so callers can run the guard first and
// report the 404 only to authenticated callers.
func (h *Handler) loadProject(r *http.Request, projectID string) (*models.Project, error) {
	return h.store.GetProject(r.Context(), projectID)
}

func (h *Handler) writeReportError(rw *responseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, report.ErrProjectNotFound):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "Project not found", nil)
	case errors.Is(err, report.ErrPropertyNotConfigured):
		rw.Error(http.StatusBadRequest, ErrCodeConfiguration,
			"Project has no analytics property configured", nil)
	case errors.Is(err, report.ErrUpstream):
		rw.Error(http.StatusInternalServerError, ErrCodeUpstream,
			"Analytics provider query failed", nil)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("report fetch failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternal, "Internal error", nil)
	}
}
