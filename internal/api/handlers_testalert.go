// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package api

import (
	"net/http"

	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/models"
)

// testPlatform labels synthetic events in the event log.
const testPlatform = "test"

// defaultTestUsername fills the username when the trigger body omits it.
const defaultTestUsername = "TestUser"

// testAlertRequest is the POST /api/test-alert body. Event fields use
// the wire casing of incoming stream events; display overrides use the
// alert column names they temporarily replace.
type testAlertRequest struct {
	Type        models.EventType `json:"type"`
	Username    string           `json:"username"`
	DisplayName string           `json:"displayName"`
	Amount      *float64         `json:"amount"`
	Tier        *string          `json:"tier"`
	Message     *string          `json:"message"`

	AnimationIn  *string `json:"animation_in"`
	AnimationOut *string `json:"animation_out"`
	DurationMs   *int    `json:"duration_ms"`
}

// testAlertResponse reports what happened to the synthetic event.
// AlertID is null when no rule matched and nothing was queued.
type testAlertResponse struct {
	Status      string  `json:"status"`
	AlertID     *string `json:"alertId"`
	QueueLength int     `json:"queueLength"`
}

// TriggerTestAlert handles POST /api/test-alert: log the synthetic
// event, run it through the resolver, fold explicit display overrides
// onto the winning config, and enqueue. No matching rule answers
// "skipped" — the event is still logged, with alert_fired false.
func (h *Handlers) TriggerTestAlert(w http.ResponseWriter, r *http.Request) {
	var req testAlertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadJSON, "malformed JSON body", nil)
		return
	}

	if !req.Type.Valid() {
		respondError(w, r, http.StatusBadRequest, codeValidation, "unknown event type "+string(req.Type), nil)
		return
	}
	if req.DurationMs != nil && (*req.DurationMs < 1000 || *req.DurationMs > 60000) {
		respondError(w, r, http.StatusBadRequest, codeValidation, "duration_ms must be between 1000 and 60000", nil)
		return
	}
	if req.Username == "" {
		req.Username = defaultTestUsername
	}

	facts := &models.EventFacts{
		Type:        req.Type,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Amount:      req.Amount,
		Tier:        req.Tier,
		Message:     req.Message,
	}

	spec, err := h.rules.Resolve(r.Context(), req.Type, facts)
	if err != nil {
		respondRepoError(w, r, err)
		return
	}

	h.events.Record(r.Context(), &models.EventLogEntry{
		Platform:    testPlatform,
		EventType:   string(req.Type),
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Amount:      req.Amount,
		Message:     req.Message,
		Metadata:    facts.Metadata(),
		AlertFired:  spec != nil,
	})

	if spec == nil {
		logging.Ctx(r.Context()).Info().
			Str("type", string(req.Type)).
			Msg("Test alert skipped, no enabled rule matched")
		writeJSON(w, http.StatusOK, testAlertResponse{
			Status:      "skipped",
			QueueLength: h.queue.Length(),
		})
		return
	}

	merged := *spec
	if req.AnimationIn != nil {
		merged.AnimationIn = *req.AnimationIn
	}
	if req.AnimationOut != nil {
		merged.AnimationOut = *req.AnimationOut
	}
	if req.DurationMs != nil {
		merged.DurationMs = *req.DurationMs
	}

	id, err := h.queue.Enqueue(&models.AlertInstance{
		AlertConfigID: merged.ID,
		Type:          req.Type,
		Username:      req.Username,
		DisplayName:   req.DisplayName,
		Amount:        req.Amount,
		Message:       req.Message,
		Config:        &merged,
	})
	if err != nil {
		respondRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, testAlertResponse{
		Status:      "queued",
		AlertID:     &id,
		QueueLength: h.queue.Length(),
	})
}

// clearResponse is the POST /api/test-alert/clear body.
type clearResponse struct {
	Cleared int `json:"cleared"`
}

// ClearTestAlerts handles POST /api/test-alert/clear. Pending instances
// are dropped; the one currently playing finishes normally.
func (h *Handlers) ClearTestAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, clearResponse{Cleared: h.queue.Clear()})
}

// queueStatusResponse is the GET /api/test-alert/status body.
type queueStatusResponse struct {
	CurrentAlert *models.AlertInstance `json:"currentAlert"`
	QueueLength  int                   `json:"queueLength"`
}

// TestAlertStatus handles GET /api/test-alert/status.
func (h *Handlers) TestAlertStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, queueStatusResponse{
		CurrentAlert: h.queue.Current(),
		QueueLength:  h.queue.Length(),
	})
}
