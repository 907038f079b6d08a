// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package api

import (
	"net/http"
	"time"

	"github.com/streamforge/streamforge-server/internal/eventlog"
	"github.com/streamforge/streamforge-server/internal/hub"
	"github.com/streamforge/streamforge-server/internal/queue"
	"github.com/streamforge/streamforge-server/internal/repository"
	"github.com/streamforge/streamforge-server/internal/resolver"
)

// Handlers owns every HTTP endpoint. One instance serves the whole API;
// all fields are safe for concurrent use.
type Handlers struct {
	repos   *repository.Repositories
	rules   *resolver.Resolver
	queue   *queue.Queue
	hub     *hub.Hub
	events  *eventlog.Service
	port    int
	started time.Time
}

// NewHandlers wires the handler set onto the sidecar's components. The
// port is the already-bound listener port reported by /api/health.
func NewHandlers(
	repos *repository.Repositories,
	rules *resolver.Resolver,
	q *queue.Queue,
	h *hub.Hub,
	events *eventlog.Service,
	port int,
) *Handlers {
	return &Handlers{
		repos:   repos,
		rules:   rules,
		queue:   q,
		hub:     h,
		events:  events,
		port:    port,
		started: time.Now(),
	}
}

// healthResponse is the GET /api/health body.
type healthResponse struct {
	Status        string `json:"status"`
	Port          int    `json:"port"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Health handles GET /api/health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Port:          h.port,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// wsStatusResponse is the GET /api/ws/status body.
type wsStatusResponse struct {
	Namespaces   []string       `json:"namespaces"`
	Clients      map[string]int `json:"clients"`
	TotalClients int            `json:"totalClients"`
}

// WSStatus handles GET /api/ws/status.
func (h *Handlers) WSStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, wsStatusResponse{
		Namespaces:   h.hub.Namespaces(),
		Clients:      h.hub.Counts(),
		TotalClients: h.hub.TotalClients(),
	})
}
