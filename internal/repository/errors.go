// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package repository

import "errors"

// Sentinel errors shared by every repository. Callers classify failures
// with errors.Is and must not match on message text.
var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the row exists but rejects the write
	// (built-in templates).
	ErrForbidden = errors.New("forbidden")

	// ErrValidation means the input failed a domain constraint before
	// reaching the database.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is reserved for uniqueness collisions. No current
	// operation produces it.
	ErrConflict = errors.New("conflict")
)
