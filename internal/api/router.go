// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streamforge/streamforge-server/internal/config"
	"github.com/streamforge/streamforge-server/internal/hub"
	"github.com/streamforge/streamforge-server/internal/middleware"
)

// NewRouter assembles the HTTP surface. Request IDs come first so every
// later log line carries one; CORS is global so OPTIONS preflights are
// answered before routing.
func NewRouter(h *Handlers, cfg config.APIConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Unmatched routes still answer in the error envelope; this is a
	// JSON-only server.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, codeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed", nil)
	})

	// ========================
	// REST API
	// ========================
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Use(middleware.SecurityHeaders())
		r.Use(middleware.PrometheusMetrics())

		r.Get("/health", h.Health)
		r.Get("/ws/status", h.WSStatus)

		// Test alerts
		r.Post("/test-alert", h.TriggerTestAlert)
		r.Post("/test-alert/clear", h.ClearTestAlerts)
		r.Get("/test-alert/status", h.TestAlertStatus)

		// Event log
		r.Get("/events", h.ListEvents)
		r.Get("/events/range", h.ListEventsRange)
		r.Delete("/events", h.DeleteEvents)

		// Alert configurations and their variations
		r.Get("/alerts", h.ListAlerts)
		r.Post("/alerts", h.CreateAlert)
		r.Get("/alerts/{id}", h.GetAlert)
		r.Put("/alerts/{id}", h.UpdateAlert)
		r.Delete("/alerts/{id}", h.DeleteAlert)
		r.Get("/alerts/{id}/variations", h.ListVariations)
		r.Post("/alerts/{id}/variations", h.CreateVariation)
		r.Put("/variations/{id}", h.UpdateVariation)
		r.Delete("/variations/{id}", h.DeleteVariation)

		// Templates
		r.Get("/templates", h.ListTemplates)
		r.Post("/templates", h.CreateTemplate)
		r.Get("/templates/{id}", h.GetTemplate)
		r.Put("/templates/{id}", h.UpdateTemplate)
		r.Delete("/templates/{id}", h.DeleteTemplate)

		// Settings
		r.Get("/settings", h.ListSettings)
		r.Get("/settings/{key}", h.GetSetting)
		r.Put("/settings/{key}", h.PutSetting)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// WebSocket Namespaces
	// ========================
	// Mounted at the root paths the overlay clients connect to. The
	// /api limiter does not apply: upgrades are one long-lived request
	// each, gated by the origin check instead.
	r.Get(hub.NamespaceAlerts, h.ServeWS(hub.NamespaceAlerts))
	r.Get(hub.NamespaceChat, h.ServeWS(hub.NamespaceChat))
	r.Get(hub.NamespaceWidgets, h.ServeWS(hub.NamespaceWidgets))
	r.Get(hub.NamespaceDashboard, h.ServeWS(hub.NamespaceDashboard))

	return r
}
