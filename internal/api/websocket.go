// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/streamforge/streamforge-server/internal/hub"
	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/middleware"
	"github.com/streamforge/streamforge-server/internal/queue"
)

// checkWSOrigin applies the same origin policy as the CORS layer.
// A missing Origin header means a non-browser client; the loopback
// bind already limits those to processes on this machine.
func checkWSOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if !middleware.AllowedOrigin(origin) {
		logging.Warn().
			Str("origin", origin).
			Str("remote_addr", r.RemoteAddr).
			Msg("WebSocket origin rejected")
		return false
	}
	return true
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin:      checkWSOrigin,
}

// ServeWS returns the upgrade handler for one hub namespace. The
// namespace set is fixed, so each route gets its own closure.
func (h *Handlers) ServeWS(namespace string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response.
			logging.Error().Err(err).Str("namespace", namespace).Msg("WebSocket upgrade error")
			return
		}

		socketID, err := h.hub.Join(namespace, conn)
		if err != nil {
			logging.Error().Err(err).Str("namespace", namespace).Msg("WebSocket join failed")
			_ = conn.Close()
			return
		}

		logging.Ctx(r.Context()).Debug().
			Str("namespace", namespace).
			Str("socket_id", socketID).
			Str("remote_addr", r.RemoteAddr).
			Msg("WebSocket session started")
	}
}

// alertAck is the inbound payload for alert:done. The overlay echoes
// back the instance id it finished playing.
type alertAck struct {
	AlertID string `json:"alertId"`
}

// RegisterAlertAcks wires the overlay acknowledgements into the
// playback queue: alert:done advances it, alert:skip is recorded but
// leaves the fallback timer in charge.
func RegisterAlertAcks(h *hub.Hub, q *queue.Queue) error {
	if err := h.On(hub.NamespaceAlerts, hub.EventAlertDone, func(socketID string, data json.RawMessage) {
		var ack alertAck
		if len(data) > 0 {
			if err := json.Unmarshal(data, &ack); err != nil {
				logging.Warn().
					Err(err).
					Str("socket_id", socketID).
					Msg("Malformed alert:done payload ignored")
				return
			}
		}
		q.Complete(ack.AlertID)
	}); err != nil {
		return err
	}

	return h.On(hub.NamespaceAlerts, hub.EventAlertSkip, func(socketID string, data json.RawMessage) {
		logging.Info().
			Str("socket_id", socketID).
			Msg("Overlay requested alert skip")
	})
}
