// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

/*
Package api exposes the sidecar's HTTP surface: REST endpoints for alert
configuration, the event log, test-alert triggering, health and metrics,
plus the WebSocket upgrade points for the four hub namespaces.

Routing is chi v5. All JSON encoding goes through goccy/go-json. Every
failure is shaped as:

	{"error": {"code": "NOT_FOUND", "message": "alert not found"}}

Handlers translate repository sentinels to status codes with errors.Is:
ErrValidation → 400, ErrNotFound → 404, ErrForbidden → 403, anything
else → 500 (logged with the request ID).

Route map:

	GET    /api/health                      liveness, bound port, uptime
	GET    /api/ws/status                   namespace client counts
	POST   /api/test-alert                  resolve + enqueue a synthetic event
	POST   /api/test-alert/clear            drop pending queue entries
	GET    /api/test-alert/status           current instance + queue length
	GET    /api/events                      event log, filterable
	GET    /api/events/range                event log between two timestamps
	DELETE /api/events?before=<ts>          prune entries older than ts
	GET    /api/alerts                      list (?type=, ?enabled=true)
	POST   /api/alerts                      create
	GET    /api/alerts/{id}                 fetch
	PUT    /api/alerts/{id}                 partial update
	DELETE /api/alerts/{id}                 delete (cascades variations)
	GET    /api/alerts/{id}/variations      list for one alert
	POST   /api/alerts/{id}/variations      create under an alert
	PUT    /api/variations/{id}             partial update
	DELETE /api/variations/{id}             delete
	GET    /api/templates                   list
	POST   /api/templates                   create
	GET    /api/templates/{id}              fetch
	PUT    /api/templates/{id}              partial update (built-ins 403)
	DELETE /api/templates/{id}              delete (built-ins 403)
	GET    /api/settings                    list all
	GET    /api/settings/{key}              fetch ({"key":k,"value":null} when absent)
	PUT    /api/settings/{key}              upsert
	GET    /metrics                         Prometheus exposition
	GET    /alerts /chat /widgets /dashboard   WebSocket upgrade

The WebSocket origin check shares middleware.AllowedOrigin with the CORS
layer, so browser policy is identical across both surfaces.
*/
package api
