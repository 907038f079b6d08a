// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

// Package lifecycle handles the sidecar's interop with the desktop
// shell that launches it: finding a free loopback port to bind and
// announcing the bound port on standard output.
//
// Port discovery tries the preferred port first, then scans a
// configured range, and finally falls back to an OS-assigned ephemeral
// port. The successful listener is returned still open and is handed
// straight to the HTTP server, so the port cannot be stolen between
// discovery and serve.
//
// The announcement is the sole machine-readable contract with the host
// shell: exactly one line of the form
//
//	SERVER_PORT=39283
//
// written to stdout after binding and before traffic is served. All
// logging goes to stderr so nothing else ever appears on stdout.
package lifecycle
