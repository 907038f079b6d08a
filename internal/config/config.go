// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the sidecar server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Events   EventsConfig   `koanf:"events"`
	Hub      HubConfig      `koanf:"hub"`
	API      APIConfig      `koanf:"api"`
}

// ServerConfig controls port discovery and shutdown behavior.
// The bind address is always 127.0.0.1.
type ServerConfig struct {
	// PreferredPort is tried first before scanning the range.
	PreferredPort int `koanf:"preferred_port"`

	// PortRangeMin..PortRangeMax is scanned (inclusive) when the
	// preferred port is taken. If the whole range is busy the OS
	// assigns an ephemeral port.
	PortRangeMin int `koanf:"port_range_min"`
	PortRangeMax int `koanf:"port_range_max"`

	// ShutdownTimeout bounds the in-flight request drain on shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig controls the embedded store location.
type DatabaseConfig struct {
	// Path overrides the per-user application-data location when set.
	// Empty means discover: <user-config-dir>/streamforge/streamforge.db.
	Path string `koanf:"path"`
}

// LoggingConfig mirrors logging.Config for the koanf layer.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// EventsConfig controls event-log retention.
type EventsConfig struct {
	// RetentionDays is how long event-log rows are kept.
	RetentionDays int `koanf:"retention_days"`

	// CleanupInterval is how often the retention pruner runs.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// HubConfig controls WebSocket keepalive and per-client buffering.
type HubConfig struct {
	// PingInterval is the server-side keepalive ping period.
	PingInterval time.Duration `koanf:"ping_interval"`

	// PongTimeout is the read deadline; a client that misses it is dropped.
	PongTimeout time.Duration `koanf:"pong_timeout"`

	// SendBufferSize is the per-client outbound message buffer.
	SendBufferSize int `koanf:"send_buffer_size"`
}

// APIConfig controls the HTTP surface.
type APIConfig struct {
	// RateLimitRequests per RateLimitWindow, keyed by client IP.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			PreferredPort:   39283,
			PortRangeMin:    39283,
			PortRangeMax:    39383,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Events: EventsConfig{
			RetentionDays:   7,
			CleanupInterval: time.Hour,
		},
		Hub: HubConfig{
			PingInterval:   25 * time.Second,
			PongTimeout:    60 * time.Second,
			SendBufferSize: 256,
		},
		API: APIConfig{
			RateLimitRequests: 600,
			RateLimitWindow:   time.Minute,
		},
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if err := validatePort("server.preferred_port", c.Server.PreferredPort); err != nil {
		return err
	}
	if err := validatePort("server.port_range_min", c.Server.PortRangeMin); err != nil {
		return err
	}
	if err := validatePort("server.port_range_max", c.Server.PortRangeMax); err != nil {
		return err
	}
	if c.Server.PortRangeMin > c.Server.PortRangeMax {
		return fmt.Errorf("server.port_range_min %d exceeds server.port_range_max %d",
			c.Server.PortRangeMin, c.Server.PortRangeMax)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", c.Logging.Format)
	}

	if c.Events.RetentionDays < 1 {
		return fmt.Errorf("events.retention_days must be at least 1, got %d", c.Events.RetentionDays)
	}
	if c.Events.CleanupInterval <= 0 {
		return fmt.Errorf("events.cleanup_interval must be positive, got %s", c.Events.CleanupInterval)
	}

	if c.Hub.PingInterval <= 0 || c.Hub.PongTimeout <= 0 {
		return fmt.Errorf("hub ping_interval and pong_timeout must be positive")
	}
	if c.Hub.PingInterval >= c.Hub.PongTimeout {
		return fmt.Errorf("hub.ping_interval %s must be shorter than hub.pong_timeout %s",
			c.Hub.PingInterval, c.Hub.PongTimeout)
	}
	if c.Hub.SendBufferSize < 1 {
		return fmt.Errorf("hub.send_buffer_size must be at least 1, got %d", c.Hub.SendBufferSize)
	}

	if c.API.RateLimitRequests < 1 {
		return fmt.Errorf("api.rate_limit_requests must be at least 1, got %d", c.API.RateLimitRequests)
	}
	if c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("api.rate_limit_window must be positive, got %s", c.API.RateLimitWindow)
	}

	return nil
}

func validatePort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s %d is outside 1..65535", key, port)
	}
	return nil
}
