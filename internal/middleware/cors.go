// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package middleware

import (
	"net/http"
	"net/url"

	"github.com/go-chi/cors"
)

// AllowedOrigin reports whether a browser origin may talk to the sidecar.
// Permitted origins are http://localhost and http://127.0.0.1 on any port
// (browser-source overlays and dev servers), plus the Tauri webview origins
// used by the packaged desktop app. Everything else is rejected: the server
// only listens on loopback, and this closes the DNS-rebinding hole where a
// remote page resolves to 127.0.0.1.
//
// The same predicate backs both the CORS layer and the WebSocket upgrade
// origin check, so the two surfaces can never drift apart.
func AllowedOrigin(origin string) bool {
	switch origin {
	case "tauri://localhost", "https://tauri.localhost":
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "http" {
		return false
	}

	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}

// CORS returns the cross-origin policy for overlay and dashboard clients.
// Origins are matched by AllowedOrigin; credentials are allowed because the
// Tauri webview sends them on same-machine requests.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return AllowedOrigin(origin)
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	})
}
