// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package hub

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512 * 1024 // 512 KiB

	// Keepalive and buffering defaults; see Options.
	defaultPingInterval   = 25 * time.Second
	defaultPongTimeout    = 60 * time.Second
	defaultSendBufferSize = 256

	// Inbound token bucket. Excess frames are shed, the client stays.
	inboundRate  rate.Limit = 20
	inboundBurst            = 40
)

// Client is one WebSocket session bound to a namespace. Outbound
// frames are pre-marshaled and flow through the send channel to a
// single writer goroutine, which keeps per-client delivery FIFO.
type Client struct {
	socketID string
	ns       *Namespace
	conn     *websocket.Conn
	send     chan []byte
	limiter  *rate.Limiter
}

func newClient(ns *Namespace, conn *websocket.Conn) *Client {
	return &Client{
		socketID: uuid.New().String(),
		ns:       ns,
		conn:     conn,
		send:     make(chan []byte, ns.opts.SendBufferSize),
		limiter:  rate.NewLimiter(inboundRate, inboundBurst),
	}
}

// start launches the read and write pumps.
func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}

// readPump decodes inbound frames and dispatches them to the
// namespace. It owns the read side of the connection and, through its
// defer, the client's registration.
func (c *Client) readPump() {
	defer func() {
		c.ns.unregister(c, "connection closed")
		_ = c.conn.Close()
	}()

	pongTimeout := c.ns.opts.PongTimeout
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongTimeout)); err != nil {
		logging.Error().Err(err).Str("socket_id", c.socketID).Msg("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).
					Str("namespace", c.ns.path).
					Str("socket_id", c.socketID).
					Msg("Unexpected WebSocket close")
			}
			return
		}

		if !c.limiter.Allow() {
			metrics.WSMessagesDropped.WithLabelValues(c.ns.path).Inc()
			logging.Warn().
				Str("namespace", c.ns.path).
				Str("socket_id", c.socketID).
				Msg("Inbound message rate limit exceeded, frame dropped")
			continue
		}

		var env envelope
		if err := json.Unmarshal(frame, &env); err != nil || env.Event == "" {
			logging.Debug().
				Str("namespace", c.ns.path).
				Str("socket_id", c.socketID).
				Msg("Dropping malformed frame")
			continue
		}

		metrics.WSMessagesReceived.WithLabelValues(c.ns.path).Inc()
		c.ns.dispatch(c.socketID, env.Event, env.Data)
	}
}

// writePump is the single writer for the connection: it drains the
// send channel and keeps the connection alive with pings. A closed
// send channel (unregistration) turns into a close frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.ns.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Str("socket_id", c.socketID).Msg("Failed to set write deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logging.Debug().Err(err).
					Str("namespace", c.ns.path).
					Str("socket_id", c.socketID).
					Msg("Write failed, closing connection")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
