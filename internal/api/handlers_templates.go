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

// ListTemplates handles GET /api/templates.
func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.repos.Templates.List(r.Context())
	if err != nil {
		respondRepoError(w, r, err)
		return
	}

	if templates == nil {
		templates = []models.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

// CreateTemplate handles POST /api/templates. User templates only;
// built-ins are seeded by migration.
func (h *Handlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadJSON, "malformed JSON body", nil)
		return
	}
	if !validateRequest(w, r, &req) {
		return
	}

	template := models.Template{
		Name:        req.Name,
		Description: req.Description,
		Author:      req.Author,
		Spec:        req.Spec,
	}
	if err := h.repos.Templates.Create(r.Context(), &template); err != nil {
		respondRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, template)
}

// GetTemplate handles GET /api/templates/{id}.
func (h *Handlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := h.repos.Templates.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

// UpdateTemplate handles PUT /api/templates/{id}. Built-in templates
// reject the write with 403.
func (h *Handlers) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var patch repository.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadJSON, "malformed JSON body", nil)
		return
	}

	template, err := h.repos.Templates.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

// DeleteTemplate handles DELETE /api/templates/{id}. Built-in templates
// reject the delete with 403.
func (h *Handlers) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.repos.Templates.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondRepoError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
