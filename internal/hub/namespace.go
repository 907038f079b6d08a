// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package hub

import (
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/metrics"
	"github.com/streamforge/streamforge-server/internal/models"
)

// HandlerFunc processes one inbound event. Handlers run outside the
// namespace lock and may call Emit, including on their own namespace.
type HandlerFunc func(socketID string, data json.RawMessage)

// envelope is the wire frame for every message in both directions:
// {"event": "<name>", "data": <object>}.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// encodeEnvelope marshals the payload and wraps it in the wire frame.
func encodeEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	return json.Marshal(envelope{Event: event, Data: data})
}

// reconnectPolicy publishes the backoff the client should apply after
// losing the connection. Informational only; the server never enforces
// it.
type reconnectPolicy struct {
	InitialMs int     `json:"initial_ms"`
	MaxMs     int     `json:"max_ms"`
	Jitter    float64 `json:"jitter"`
}

var defaultReconnectPolicy = reconnectPolicy{
	InitialMs: 1000,
	MaxMs:     30000,
	Jitter:    0.5,
}

// welcomePayload greets exactly one newly connected socket.
type welcomePayload struct {
	Namespace  string           `json:"namespace"`
	SocketID   string           `json:"socketId"`
	Clients    int              `json:"clients"`
	ServerTime models.Timestamp `json:"serverTime"`
	Message    string           `json:"message"`
	Reconnect  reconnectPolicy  `json:"reconnect"`
}

// Namespace holds one surface's client set and dispatch table. The
// mutex guards both; the client count the hub reports always equals
// the set cardinality under this lock.
type Namespace struct {
	path string
	opts Options

	mu       sync.Mutex
	clients  map[string]*Client
	handlers map[string]HandlerFunc
}

func newNamespace(path string, opts Options) *Namespace {
	return &Namespace{
		path:     path,
		opts:     opts,
		clients:  make(map[string]*Client),
		handlers: make(map[string]HandlerFunc),
	}
}

func (n *Namespace) setHandler(event string, fn HandlerFunc) {
	n.mu.Lock()
	n.handlers[event] = fn
	n.mu.Unlock()
}

func (n *Namespace) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

// register adds the client and greets it. The welcome goes to the
// connecting socket only; its send buffer is empty at this point so
// the enqueue cannot fail.
func (n *Namespace) register(c *Client) {
	n.mu.Lock()
	n.clients[c.socketID] = c
	clients := len(n.clients)

	welcome, err := encodeEnvelope(EventWelcome, welcomePayload{
		Namespace:  n.path,
		SocketID:   c.socketID,
		Clients:    clients,
		ServerTime: models.Now(),
		Message:    "Connected to " + n.path,
		Reconnect:  defaultReconnectPolicy,
	})
	if err == nil {
		select {
		case c.send <- welcome:
		default:
		}
	}
	n.mu.Unlock()

	if err != nil {
		logging.Error().Err(err).Str("namespace", n.path).Msg("Failed to encode welcome message")
	}
	metrics.WSConnections.WithLabelValues(n.path).Inc()
	logging.Info().
		Str("namespace", n.path).
		Str("socket_id", c.socketID).
		Int("clients", clients).
		Msg("WebSocket client connected")
}

// unregister removes the client if it is still registered. Safe to
// call more than once; only the first call closes the send channel.
func (n *Namespace) unregister(c *Client, reason string) {
	n.mu.Lock()
	removed := n.removeLocked(c)
	clients := len(n.clients)
	n.mu.Unlock()

	if !removed {
		return
	}
	logging.Info().
		Str("namespace", n.path).
		Str("socket_id", c.socketID).
		Str("reason", reason).
		Int("clients", clients).
		Msg("WebSocket client disconnected")
}

// removeLocked deletes the client from the set and closes its send
// channel. Every send into that channel happens under the same lock,
// so close cannot race a send. Reports whether the client was present.
func (n *Namespace) removeLocked(c *Client) bool {
	existing, ok := n.clients[c.socketID]
	if !ok || existing != c {
		return false
	}
	delete(n.clients, c.socketID)
	close(c.send)
	metrics.WSConnections.WithLabelValues(n.path).Dec()
	return true
}

// emit broadcasts one event to every client and returns the delivered
// count. Clients whose send buffer is full are dropped and
// unregistered in the same critical section, so a later emit never
// sees them.
func (n *Namespace) emit(event string, payload any) int {
	frame, err := encodeEnvelope(event, payload)
	if err != nil {
		logging.Error().Err(err).
			Str("namespace", n.path).
			Str("event", event).
			Msg("Failed to encode outbound event")
		return 0
	}

	var slow []*Client
	n.mu.Lock()
	delivered := 0
	for _, c := range n.clients {
		select {
		case c.send <- frame:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		n.removeLocked(c)
	}
	n.mu.Unlock()

	for _, c := range slow {
		metrics.WSClientsDropped.WithLabelValues(n.path, "slow").Inc()
		logging.Warn().
			Str("namespace", n.path).
			Str("socket_id", c.socketID).
			Str("event", event).
			Msg("Dropped slow WebSocket client")
	}
	if delivered > 0 {
		metrics.WSMessagesSent.WithLabelValues(n.path).Add(float64(delivered))
	}
	return delivered
}

// dispatch routes one inbound event to its handler. The handler runs
// outside the lock with panic recovery: a faulty handler is logged and
// the connection survives. Events without a handler are dropped.
func (n *Namespace) dispatch(socketID, event string, data json.RawMessage) {
	n.mu.Lock()
	handler, ok := n.handlers[event]
	n.mu.Unlock()

	if !ok {
		logging.Debug().
			Str("namespace", n.path).
			Str("event", event).
			Str("socket_id", socketID).
			Msg("Dropping unhandled event")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Str("namespace", n.path).
				Str("event", event).
				Str("socket_id", socketID).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()
	handler(socketID, data)
}

// closeAll drops every client, returning how many were connected.
// Used on hub shutdown.
func (n *Namespace) closeAll() int {
	n.mu.Lock()
	clients := make([]*Client, 0, len(n.clients))
	for _, c := range n.clients {
		clients = append(clients, c)
	}
	closed := 0
	for _, c := range clients {
		if n.removeLocked(c) {
			closed++
		}
	}
	n.mu.Unlock()
	return closed
}
