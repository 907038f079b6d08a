// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

/*
Package config provides centralized configuration management for the
StreamForge sidecar server.

Configuration is layered with koanf in ascending precedence:

  - Built-in defaults (always present)
  - An optional YAML file (STREAMFORGE_CONFIG, ./streamforge.yaml,
    ./streamforge.yml, or <user-config-dir>/streamforge/config.yaml)
  - STREAMFORGE_* environment variables

# Configuration Structure

The package organizes configuration into logical groups:

  - ServerConfig: port discovery range and shutdown drain timeout
  - DatabaseConfig: embedded store location override
  - LoggingConfig: level, format, caller annotation
  - EventsConfig: event-log retention and pruner cadence
  - HubConfig: WebSocket keepalive and per-client buffering
  - APIConfig: HTTP rate limiting

# Environment Variables

Only the variables listed in envMappings are honored; unrecognized
STREAMFORGE_* variables are ignored. Notable entries:

  - STREAMFORGE_PORT: preferred listen port (default: 39283)
  - STREAMFORGE_DB_PATH: database file path override
  - STREAMFORGE_LOG_LEVEL: trace|debug|info|warn|error (default: info)
  - STREAMFORGE_EVENT_RETENTION_DAYS: event-log retention (default: 7)

The bind address is not configurable. The server always listens on
127.0.0.1 so the alert surface is never exposed off-host.
*/
package config
