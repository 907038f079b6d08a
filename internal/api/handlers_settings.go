// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// settingValue is the PUT /api/settings/{key} body. The value is stored
// verbatim; clients that need structure encode it themselves.
type settingValue struct {
	Value *string `json:"value"`
}

// absentSetting is the GET body for a key that was never written.
type absentSetting struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

// ListSettings handles GET /api/settings.
func (h *Handlers) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.repos.Settings.List(r.Context())
	if err != nil {
		respondRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// GetSetting handles GET /api/settings/{key}. An unwritten key answers
// 200 with a null value rather than 404, so the app can read settings
// it has not created yet without special-casing errors.
func (h *Handlers) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	setting, err := h.repos.Settings.Get(r.Context(), key)
	if err != nil {
		respondRepoError(w, r, err)
		return
	}
	if setting == nil {
		writeJSON(w, http.StatusOK, absentSetting{Key: key})
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

// PutSetting handles PUT /api/settings/{key} with upsert semantics.
func (h *Handlers) PutSetting(w http.ResponseWriter, r *http.Request) {
	var body settingValue
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadJSON, "malformed JSON body", nil)
		return
	}
	if body.Value == nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "value is required and must be a string", nil)
		return
	}

	setting, err := h.repos.Settings.Set(r.Context(), chi.URLParam(r, "key"), *body.Value)
	if err != nil {
		respondRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}
