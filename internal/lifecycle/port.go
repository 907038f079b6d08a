// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package lifecycle

import (
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/streamforge/streamforge-server/internal/logging"
)

// loopback is the only interface the sidecar ever binds. There is no
// configuration knob for this.
const loopback = "127.0.0.1"

// DiscoverListener binds a loopback TCP listener using the three-stage
// strategy: the preferred port, then the inclusive rangeMin..rangeMax
// scan (skipping the already-tried preferred port), then port 0 for an
// OS-assigned ephemeral port. The listener is returned open together
// with the port it is bound to.
func DiscoverListener(preferred, rangeMin, rangeMax int) (net.Listener, int, error) {
	if ln, err := listenPort(preferred); err == nil {
		return ln, boundPort(ln), nil
	}
	logging.Debug().
		Int("port", preferred).
		Msg("Preferred port unavailable, scanning range")

	for port := rangeMin; port <= rangeMax; port++ {
		if port == preferred {
			continue
		}
		if ln, err := listenPort(port); err == nil {
			return ln, boundPort(ln), nil
		}
	}
	logging.Warn().
		Int("range_min", rangeMin).
		Int("range_max", rangeMax).
		Msg("Port range exhausted, requesting OS-assigned port")

	ln, err := listenPort(0)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to bind any loopback port: %w", err)
	}
	return ln, boundPort(ln), nil
}

// Announce writes the advertised-port line the host shell parses. It
// must run after binding and before serving so the shell never sees a
// port it cannot reach.
func Announce(w io.Writer, port int) error {
	if _, err := fmt.Fprintf(w, "SERVER_PORT=%d\n", port); err != nil {
		return fmt.Errorf("failed to announce server port: %w", err)
	}
	return nil
}

func listenPort(port int) (net.Listener, error) {
	return net.Listen("tcp", net.JoinHostPort(loopback, strconv.Itoa(port)))
}

func boundPort(ln net.Listener) int {
	return ln.Addr().(*net.TCPAddr).Port
}
