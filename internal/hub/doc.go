// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

/*
Package hub provides namespaced real-time messaging over WebSocket.

The hub owns four fixed namespaces, one per surface of the streaming
overlay toolkit:

  - /alerts    — overlay windows playing alert animations
  - /chat      — chat render widgets
  - /widgets   — goal bars, counters and other passive widgets
  - /dashboard — the control panel

Each namespace keeps its own client set, event dispatch table and
mutex; there is no global registry. Clients are keyed by a server
generated socket id (UUID) handed to them in the welcome message.

Architecture:

	            ┌─────────────────────────────┐
	            │             Hub             │
	            └─┬───────┬────────┬────────┬─┘
	    /alerts ──┘  /chat┘ /widgets┘ /dashboard┘
	       │           │        │         │
	    clients     clients  clients   clients

Each client runs two goroutines: a read pump (inbound events, pong
handling, rate limiting) and a write pump (outbound frames, pings).
Outbound delivery is per-client FIFO through a buffered channel with a
single writer; a client that cannot drain its buffer is dropped.

Wire format (both directions):

	{"event": "<name>", "data": <object>}

Inbound events are looked up in the namespace dispatch table. A
matching handler runs outside the namespace lock with panic recovery,
so a faulty handler never tears down the connection. Unknown events
are dropped silently (debug log only) to keep old dashboards and new
servers compatible.

Relays:

Some inbound events exist only to be forwarded. These are declared in
a table rather than coded: for example a config:changed received on
/dashboard is rebroadcast on /widgets (and deliberately not echoed
back to /dashboard). Relays release the source namespace before
touching the target, so namespace locks never nest.

Keepalive: server ping every 25s, pong timeout 60s, write timeout 10s,
512 KiB inbound frame cap. Inbound messages are token-bucket limited
per client (20 msg/s, burst 40); excess frames are dropped, not the
client.

The hub runs under supervision via RunWithContext: cancellation closes
every client and returns, leaving HTTP shutdown to the server.
*/
package hub
