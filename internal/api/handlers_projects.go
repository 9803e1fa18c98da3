// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/draycottdigital/pulse/internal/logging"
	"github.com/draycottdigital/pulse/internal/models"
	"github.com/draycottdigital/pulse/internal/store"
	"github.com/draycottdigital/pulse/internal/validation"
)

// Project management is shared-secret only. Client JWTs identify one site
// and must never be able to read or mutate the project registry.

// UpsertProject serves PUT /api/v1/projects/{id}. The path ID wins over
// any ID in the body. Create and update share one code path; CreatedAt is
// preserved by the store on update.
func (h *Handler) UpsertProject(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	if err := h.guard.AuthorizeSharedSecret(r); err != nil {
		rw.Error(http.StatusUnauthorized, ErrCodeAuthentication, "Authentication required", nil)
		return
	}

	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidation, "Invalid JSON body", nil)
		return
	}
	project.ID = chi.URLParam(r, "id")

	if verr := validation.ValidateStruct(project); verr != nil {
		apiErr := verr.ToAPIError()
		rw.Error(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	if err := h.store.PutProject(r.Context(), &project); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("project_id", project.ID).Msg("project upsert failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternal, "Failed to store project", nil)
		return
	}

	// Stale report responses for the old configuration must not be served.
	if h.respCache != nil {
		h.respCache.Clear()
	}

	logging.Ctx(r.Context()).Info().
		Str("project_id", project.ID).
		Str("ga_property_id", project.GAPropertyID).
		Msg("project upserted")

	rw.Success(project)
}

// GetProject serves GET /api/v1/projects/{id}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	if err := h.guard.AuthorizeSharedSecret(r); err != nil {
		rw.Error(http.StatusUnauthorized, ErrCodeAuthentication, "Authentication required", nil)
		return
	}

	project, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "Project not found", nil)
		return
	case err != nil:
		rw.Error(http.StatusInternalServerError, ErrCodeInternal, "Failed to load project", nil)
		return
	}

	rw.Success(project)
}

// DeleteProject serves DELETE /api/v1/projects/{id}. The store removes the
// project's cached report and daily series along with the registration.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	if err := h.guard.AuthorizeSharedSecret(r); err != nil {
		rw.Error(http.StatusUnauthorized, ErrCodeAuthentication, "Authentication required", nil)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.store.DeleteProject(r.Context(), id); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("project_id", id).Msg("project delete failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternal, "Failed to delete project", nil)
		return
	}

	if h.respCache != nil {
		h.respCache.Clear()
	}

	logging.Ctx(r.Context()).Info().Str("project_id", id).Msg("project deleted")

	rw.Success(map[string]bool{"deleted": true})
}
