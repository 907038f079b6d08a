// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package eventlog

import (
	"context"
	"time"

	"github.com/streamforge/streamforge-server/internal/models"
)

// Pruner enforces event-log retention as a supervised service. It
// prunes once at startup and then on every tick; sidecar sessions are
// often shorter than the tick interval, so the startup pass is what
// keeps retention honest for short-lived processes.
type Pruner struct {
	svc       *Service
	retention time.Duration
	interval  time.Duration
}

// NewPruner creates a pruner that deletes entries older than
// retention, checking every interval.
func NewPruner(svc *Service, retention, interval time.Duration) *Pruner {
	return &Pruner{
		svc:       svc,
		retention: retention,
		interval:  interval,
	}
}

// Serve implements suture.Service.
func (p *Pruner) Serve(ctx context.Context) error {
	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := models.NewTimestamp(time.Now().Add(-p.retention))
	p.svc.Prune(ctx, cutoff)
}

// String implements fmt.Stringer for supervisor logs.
func (p *Pruner) String() string {
	return "eventlog-pruner"
}
