// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package api

import (
	"net/http"

	"github.com/streamforge/streamforge-server/internal/models"
	"github.com/streamforge/streamforge-server/internal/repository"
)

// ListEvents handles GET /api/events. Query parameters: type, platform,
// alert_fired=true, search (substring over username/display_name/message),
// limit (default 100, capped at 1000).
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.EventLogFilter{
		EventType:      q.Get("type"),
		Platform:       q.Get("platform"),
		AlertFiredOnly: q.Get("alert_fired") == "true",
		Search:         q.Get("search"),
		Limit:          getIntParam(r, "limit", 0),
	}

	writeJSON(w, http.StatusOK, h.events.Query(r.Context(), filter))
}

// ListEventsRange handles GET /api/events/range. Both bounds are
// required and inclusive; results come back newest-first.
func (h *Handlers) ListEventsRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := models.ParseTimestamp(q.Get("start"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "start must be an RFC 3339 timestamp", nil)
		return
	}
	to, err := models.ParseTimestamp(q.Get("end"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "end must be an RFC 3339 timestamp", nil)
		return
	}

	limit := getIntParam(r, "limit", 0)
	writeJSON(w, http.StatusOK, h.events.QueryRange(r.Context(), from, to, limit))
}

// deleteEventsResponse is the DELETE /api/events body.
type deleteEventsResponse struct {
	Deleted int64 `json:"deleted"`
}

// DeleteEvents handles DELETE /api/events?before=<ts>, removing entries
// strictly older than the cutoff.
func (h *Handlers) DeleteEvents(w http.ResponseWriter, r *http.Request) {
	cutoff, err := models.ParseTimestamp(r.URL.Query().Get("before"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "before must be an RFC 3339 timestamp", nil)
		return
	}

	deleted := h.events.Prune(r.Context(), cutoff)
	writeJSON(w, http.StatusOK, deleteEventsResponse{Deleted: deleted})
}
