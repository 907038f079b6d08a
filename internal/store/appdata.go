// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// appDirName is the StreamForge folder inside the per-user config
// directory (~/.config on Linux, Application Support on macOS,
// %AppData% on Windows).
const appDirName = "streamforge"

// DatabaseFileName is the default database file inside the data dir.
const DatabaseFileName = "streamforge.db"

// assetDirs are created next to the database so the overlay can resolve
// sound_path and image_path references relative to the data dir.
var assetDirs = []string{"sounds", "images"}

// DataDir returns the StreamForge application-data directory for the
// current user without creating it.
func DataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// ResolveDatabasePath returns the database file location, creating the
// surrounding directory layout. An explicit override skips the default
// data dir but still gets its parent directory created.
func ResolveDatabasePath(override string) (string, error) {
	if override != "" {
		if dir := filepath.Dir(override); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("failed to create database dir %q: %w", dir, err)
			}
		}
		return override, nil
	}

	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := ensureLayout(dir); err != nil {
		return "", err
	}
	return filepath.Join(dir, DatabaseFileName), nil
}

// ensureLayout creates the data dir and its asset subdirectories.
func ensureLayout(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir %q: %w", dir, err)
	}
	for _, sub := range assetDirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create asset dir %q: %w", sub, err)
		}
	}
	return nil
}
