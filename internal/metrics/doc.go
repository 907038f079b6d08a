// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

// Package metrics registers the server's Prometheus collectors on the
// default registry and exposes small record helpers so callers never
// touch label plumbing directly. The /metrics endpoint serves the
// default gatherer.
//
// Collectors cover four areas: the alert playback queue (pending depth,
// triggered and completed counts by reason), the WebSocket hub
// (connections, message flow, and forced drops per namespace), the
// event log (writes and retention pruning), and the HTTP API (request
// counts, latency, in-flight gauge). app_info and app_uptime_seconds
// identify the running build.
package metrics
