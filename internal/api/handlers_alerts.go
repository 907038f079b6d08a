// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/streamforge/streamforge-server/internal/models"
	"github.com/streamforge/streamforge-server/internal/repository"
)

// ListAlerts handles GET /api/alerts. Without filters every alert is
// returned with its variations grouped underneath; ?type= and
// ?enabled=true narrow the list (filtered lists omit the grouping).
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	typeParam := r.URL.Query().Get("type")
	enabledOnly := r.URL.Query().Get("enabled") == "true"

	var eventType models.EventType
	if typeParam != "" {
		eventType = models.EventType(typeParam)
		if !eventType.Valid() {
			respondError(w, r, http.StatusBadRequest, codeValidation, "unknown event type "+typeParam, nil)
			return
		}
	}

	var (
		alerts []models.Alert
		err    error
	)
	switch {
	case eventType != "" && enabledOnly:
		alerts, err = h.repos.Alerts.ListEnabledByType(r.Context(), eventType)
	case eventType != "":
		alerts, err = h.repos.Alerts.ListByType(r.Context(), eventType)
	case enabledOnly:
		alerts, err = h.repos.Alerts.ListEnabled(r.Context())
	default:
		alerts, err = h.repos.Alerts.List(r.Context())
	}
	if err != nil {
		respondRepoError(w, r, err)
		return
	}

	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// CreateAlert handles POST /api/alerts.
func (h *Handlers) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAlertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadJSON, "malformed JSON body", nil)
		return
	}
	if !validateRequest(w, r, &req) {
		return
	}

	alert := req.Apply()
	if err := h.repos.Alerts.Create(r.Context(), &alert); err != nil {
		respondRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, alert)
}

// GetAlert handles GET /api/alerts/{id}.
func (h *Handlers) GetAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.repos.Alerts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

// UpdateAlert handles PUT /api/alerts/{id}. The body is a partial
// document; only known updatable columns are touched.
func (h *Handlers) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	var patch repository.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadJSON, "malformed JSON body", nil)
		return
	}

	alert, err := h.repos.Alerts.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

// DeleteAlert handles DELETE /api/alerts/{id}. Variations go with their
// parent.
func (h *Handlers) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := h.repos.Alerts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondRepoError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVariations handles GET /api/alerts/{id}/variations in evaluation
// order. A missing parent is a 404, not an empty list.
func (h *Handlers) ListVariations(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "id")
	if _, err := h.repos.Alerts.GetByID(r.Context(), alertID); err != nil {
		respondRepoError(w, r, err)
		return
	}

	variations, err := h.repos.Variations.ListByAlert(r.Context(), alertID)
	if err != nil {
		respondRepoError(w, r, err)
		return
	}

	if variations == nil {
		variations = []models.Variation{}
	}
	writeJSON(w, http.StatusOK, variations)
}

// CreateVariation handles POST /api/alerts/{id}/variations.
func (h *Handlers) CreateVariation(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVariationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadJSON, "malformed JSON body", nil)
		return
	}
	if !validateRequest(w, r, &req) {
		return
	}

	variation := req.Apply()
	variation.AlertID = chi.URLParam(r, "id")
	if err := h.repos.Variations.Create(r.Context(), &variation); err != nil {
		respondRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, variation)
}

// UpdateVariation handles PUT /api/variations/{id}.
func (h *Handlers) UpdateVariation(w http.ResponseWriter, r *http.Request) {
	var patch repository.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadJSON, "malformed JSON body", nil)
		return
	}

	variation, err := h.repos.Variations.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, variation)
}

// DeleteVariation handles DELETE /api/variations/{id}.
func (h *Handlers) DeleteVariation(w http.ResponseWriter, r *http.Request) {
	if err := h.repos.Variations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondRepoError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
