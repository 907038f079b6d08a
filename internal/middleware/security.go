// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package middleware

import "net/http"

// SecurityHeaders adds browser hardening headers to API responses.
//
// Headers set:
//   - X-Content-Type-Options: nosniff (prevents MIME type sniffing)
//   - X-Frame-Options: DENY (prevents embedding in frames)
//   - Referrer-Policy: no-referrer (overlay URLs never leak upstream)
//
// Content-Security-Policy is omitted: the sidecar serves JSON and WebSocket
// upgrades, never HTML. HSTS is omitted because the server is loopback-only
// plain HTTP.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")

			next.ServeHTTP(w, r)
		})
	}
}
