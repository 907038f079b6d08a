// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
)

// rateLimitedBody mirrors the api package's error envelope. Declared
// here because the api package imports this one.
type rateLimitedBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func rateLimited(w http.ResponseWriter, _ *http.Request) {
	var body rateLimitedBody
	body.Error.Code = "RATE_LIMITED"
	body.Error.Message = "too many requests"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	data, err := json.Marshal(body)
	if err != nil {
		return
	}
	_, _ = w.Write(data)
}

// RateLimit returns an IP-keyed limiter for the REST surface. Every
// local client shares 127.0.0.1, so this is a whole-machine ceiling
// against runaway polling loops rather than per-caller fairness.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimited),
	)
}
