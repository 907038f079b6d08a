// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

/*
Package middleware provides the HTTP middleware stack for the sidecar API.

All middlewares are chi-compatible func(http.Handler) http.Handler factories
and are assembled by the api package's router. The stack is deliberately
small: the server binds to loopback only and serves a single desktop app, so
there is no auth layer and no compression (loopback bandwidth is free).

Key Components:

  - RequestID: X-Request-ID passthrough or generation, stored in the
    request context for log correlation and echoed in the response
  - RequestLogger: one structured log line per completed request
    (method, path, status, duration)
  - PrometheusMetrics: in-flight gauge, request counter and latency
    histogram, labeled by chi route pattern
  - SecurityHeaders: nosniff / frame-deny / no-referrer hardening
  - CORS: loopback and Tauri-webview origins only, via go-chi/cors

Middleware Stack:

The router applies middlewares in this order:

	r.Use(middleware.RequestID())      // first: everything downstream logs with the ID
	r.Use(middleware.RequestLogger())
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	r.Route("/api", func(r chi.Router) {
	    r.Use(httprate.LimitByIP(...))
	    r.Use(middleware.SecurityHeaders())
	    r.Use(middleware.PrometheusMetrics())
	    ...
	})

Origin Policy:

AllowedOrigin is the single source of truth for which browser origins may
reach the sidecar. The CORS layer and the WebSocket upgrade check both call
it, so HTTP and WS can never disagree about who is allowed in.

Thread Safety:

All middlewares are stateless or rely on context.Context immutability and
are safe for concurrent requests.

See Also:

  - internal/api: router and handlers wrapped by this stack
  - internal/metrics: Prometheus metric definitions
  - internal/logging: request-ID context helpers
*/
package middleware
