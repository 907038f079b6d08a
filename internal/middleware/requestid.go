// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package middleware

import (
	"net/http"

	"github.com/streamforge/streamforge-server/internal/logging"
)

// RequestIDHeader is the HTTP header carrying the request identifier.
const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with a unique identifier for log correlation.
// An inbound X-Request-ID header is honored so the desktop app can stitch its
// own traces to the sidecar's; otherwise a UUID is generated. The identifier
// is stored in the request context and echoed back in the response header.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = logging.GenerateRequestID()
			}

			ctx := logging.ContextWithRequestID(r.Context(), id)
			w.Header().Set(RequestIDHeader, id)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the request identifier stored by RequestID,
// or empty string if the middleware did not run.
func GetRequestID(r *http.Request) string {
	return logging.RequestIDFromContext(r.Context())
}
