// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/streamforge/streamforge-server/internal/logging"
)

// EnvConfigPath names an explicit config file; it takes precedence over
// the default search paths.
const EnvConfigPath = "STREAMFORGE_CONFIG"

// envMappings translates flat STREAMFORGE_* variables to koanf paths.
// Only listed variables are honored; everything else in the environment
// is ignored so unrelated vars cannot perturb the config tree.
var envMappings = map[string]string{
	"STREAMFORGE_PORT":                   "server.preferred_port",
	"STREAMFORGE_PORT_RANGE_MIN":         "server.port_range_min",
	"STREAMFORGE_PORT_RANGE_MAX":         "server.port_range_max",
	"STREAMFORGE_SHUTDOWN_TIMEOUT":       "server.shutdown_timeout",
	"STREAMFORGE_DB_PATH":                "database.path",
	"STREAMFORGE_LOG_LEVEL":              "logging.level",
	"STREAMFORGE_LOG_FORMAT":             "logging.format",
	"STREAMFORGE_LOG_CALLER":             "logging.caller",
	"STREAMFORGE_EVENT_RETENTION_DAYS":   "events.retention_days",
	"STREAMFORGE_EVENT_CLEANUP_INTERVAL": "events.cleanup_interval",
	"STREAMFORGE_WS_PING_INTERVAL":       "hub.ping_interval",
	"STREAMFORGE_WS_PONG_TIMEOUT":        "hub.pong_timeout",
	"STREAMFORGE_WS_SEND_BUFFER":         "hub.send_buffer_size",
	"STREAMFORGE_RATE_LIMIT_REQUESTS":    "api.rate_limit_requests",
	"STREAMFORGE_RATE_LIMIT_WINDOW":      "api.rate_limit_window",
}

// Load builds the configuration: defaults, then an optional YAML file,
// then STREAMFORGE_* environment variables. The result is validated
// before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		logging.Debug().Str("path", path).Msg("Loaded configuration file")
	}

	if err := k.Load(env.Provider("STREAMFORGE_", ".", func(s string) string {
		if mapped, ok := envMappings[s]; ok {
			return mapped
		}
		return ""
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
// STREAMFORGE_CONFIG wins; otherwise the working directory and the
// per-user config directory are searched.
func findConfigFile() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}
	for _, path := range defaultConfigPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func defaultConfigPaths() []string {
	paths := []string{"streamforge.yaml", "streamforge.yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "streamforge", "config.yaml"))
	}
	return paths
}
