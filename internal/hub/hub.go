// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/streamforge/streamforge-server/internal/logging"
)

// Namespace paths. The set is fixed; there is no dynamic namespace
// creation.
const (
	NamespaceAlerts    = "/alerts"
	NamespaceChat      = "/chat"
	NamespaceWidgets   = "/widgets"
	NamespaceDashboard = "/dashboard"
)

// Event names used by the core. Custom producers may emit anything
// through Emit; these are the ones the server itself knows about.
const (
	EventWelcome       = "welcome"
	EventAlertTrigger  = "alert:trigger"
	EventAlertDone     = "alert:done"
	EventAlertSkip     = "alert:skip"
	EventAlertPause    = "alert:pause"
	EventAlertPaused   = "alert:paused"
	EventChatClear     = "chat:clear"
	EventChatDelete    = "chat:delete"
	EventConfigChanged = "config:changed"
)

// namespacePaths lists every namespace in registration order.
var namespacePaths = []string{
	NamespaceAlerts,
	NamespaceChat,
	NamespaceWidgets,
	NamespaceDashboard,
}

// relayRoute forwards an inbound event to a target namespace under a
// possibly different outbound name.
type relayRoute struct {
	target   string
	outbound string
}

// relayTable declares the pure forwarding rules: (source namespace,
// inbound event) → (target namespace, outbound event). Anything with
// server-side behavior beyond forwarding is a coded handler wired at
// startup instead.
var relayTable = map[string]map[string]relayRoute{
	NamespaceAlerts: {
		EventAlertPause: {NamespaceAlerts, EventAlertPaused},
	},
	NamespaceChat: {
		EventChatClear:  {NamespaceChat, EventChatClear},
		EventChatDelete: {NamespaceChat, EventChatDelete},
	},
	NamespaceWidgets: {
		EventConfigChanged: {NamespaceWidgets, EventConfigChanged},
	},
	NamespaceDashboard: {
		// The dashboard never hears its own config pushes back.
		EventConfigChanged: {NamespaceWidgets, EventConfigChanged},
		EventAlertTrigger:  {NamespaceAlerts, EventAlertTrigger},
	},
}

// Options tunes keepalive and per-client buffering. Zero values fall
// back to the defaults the overlay clients are built against.
type Options struct {
	// PingInterval is the server keepalive ping period. Must stay
	// shorter than PongTimeout.
	PingInterval time.Duration

	// PongTimeout is the read deadline; a client that misses it is
	// considered dead.
	PongTimeout time.Duration

	// SendBufferSize is the per-client outbound frame queue.
	SendBufferSize int
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = defaultPongTimeout
	}
	if o.SendBufferSize <= 0 {
		o.SendBufferSize = defaultSendBufferSize
	}
	return o
}

// Hub is the namespace registry. The namespace map is built once in
// New and read-only afterwards; all mutable state lives inside the
// namespaces.
type Hub struct {
	namespaces map[string]*Namespace
}

// New builds the hub with its four namespaces and installs the relay
// handlers. Coded handlers (alert acks etc.) are registered by the
// caller via On.
func New(opts Options) *Hub {
	opts = opts.withDefaults()
	h := &Hub{namespaces: make(map[string]*Namespace, len(namespacePaths))}
	for _, path := range namespacePaths {
		h.namespaces[path] = newNamespace(path, opts)
	}

	for source, routes := range relayTable {
		for event, route := range routes {
			route := route
			if err := h.On(source, event, func(socketID string, data json.RawMessage) {
				h.Emit(route.target, route.outbound, data)
			}); err != nil {
				// Relay table only names fixed namespaces.
				panic(err)
			}
		}
	}
	return h
}

// On registers a handler for an inbound event on a namespace,
// replacing any previous handler for that event.
func (h *Hub) On(namespace, event string, fn HandlerFunc) error {
	ns, ok := h.namespaces[namespace]
	if !ok {
		return fmt.Errorf("unknown namespace %q", namespace)
	}
	ns.setHandler(event, fn)
	return nil
}

// Emit broadcasts an event to every client of a namespace and returns
// how many clients it was delivered to. Emitting to an unknown
// namespace is a warned no-op.
func (h *Hub) Emit(namespace, event string, payload any) int {
	ns, ok := h.namespaces[namespace]
	if !ok {
		logging.Warn().
			Str("namespace", namespace).
			Str("event", event).
			Msg("Emit to unknown namespace dropped")
		return 0
	}
	return ns.emit(event, payload)
}

// Join registers an upgraded connection with a namespace, sends the
// welcome message and starts the client pumps. Returns the assigned
// socket id.
func (h *Hub) Join(namespace string, conn *websocket.Conn) (string, error) {
	ns, ok := h.namespaces[namespace]
	if !ok {
		return "", fmt.Errorf("unknown namespace %q", namespace)
	}

	c := newClient(ns, conn)
	ns.register(c)
	c.start()
	return c.socketID, nil
}

// Namespaces returns the fixed namespace paths in registration order.
func (h *Hub) Namespaces() []string {
	paths := make([]string, len(namespacePaths))
	copy(paths, namespacePaths)
	return paths
}

// Counts reports the connected-client count per namespace.
func (h *Hub) Counts() map[string]int {
	counts := make(map[string]int, len(h.namespaces))
	for path, ns := range h.namespaces {
		counts[path] = ns.count()
	}
	return counts
}

// TotalClients reports the connected-client count across namespaces.
func (h *Hub) TotalClients() int {
	total := 0
	for _, ns := range h.namespaces {
		total += ns.count()
	}
	return total
}

// RunWithContext blocks until ctx is canceled, then closes every
// connected client. Designed to run as a suture service.
func (h *Hub) RunWithContext(ctx context.Context) error {
	<-ctx.Done()

	closed := 0
	for _, path := range namespacePaths {
		closed += h.namespaces[path].closeAll()
	}
	logging.Info().
		Str("component", "hub").
		Int("clients_closed", closed).
		Msg("WebSocket hub stopped")
	return ctx.Err()
}
