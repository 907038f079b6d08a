// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

/*
Package services provides suture.Service wrappers for sidecar
components.

Each wrapper adapts a component's native lifecycle to suture's
context-aware Serve pattern:

  - HTTPServerService wraps *http.Server, serving on an already-bound
    listener and translating context cancellation into a graceful
    Shutdown with a drain timeout. The listener is bound before the
    service starts so the advertised port is valid the moment it is
    printed.
  - WebSocketHubService delegates to the hub's RunWithContext, which
    already blocks on the context and closes every client on exit.

The event-log retention pruner implements suture.Service directly and
needs no wrapper here.

Wrappers accept small interfaces rather than concrete types so tests
can substitute mocks without binding real sockets.
*/
package services
