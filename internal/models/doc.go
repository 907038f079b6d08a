// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

/*
Package models defines the data structures shared across the StreamForge
sidecar server: alert configurations, variations, templates, settings,
event-log entries, and the transient alert instances that flow through
the playback queue.

Persistent entities (Alert, Variation, Template, Setting, EventLogEntry)
mirror their database rows and serialize with snake_case JSON keys. The
transient types (AlertInstance, EventFacts) follow the WebSocket wire
contract, which uses camelCase for instance fields.

All timestamps use the Timestamp type: UTC with fixed millisecond
precision. The fixed-width textual form keeps lexicographic order equal
to chronological order wherever timestamps are stored or compared as
strings.
*/
package models
