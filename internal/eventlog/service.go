// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

// Package eventlog keeps the audit trail of incoming stream events.
// It wraps the event-log repository with a never-fails contract: a
// broken audit trail must not stop alerts from playing, so every
// failure is logged and swallowed at this boundary.
package eventlog

import (
	"context"

	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/metrics"
	"github.com/streamforge/streamforge-server/internal/models"
	"github.com/streamforge/streamforge-server/internal/repository"
)

// Service records and queries stream events. All methods are safe to
// call from the hot alert path.
type Service struct {
	repo *repository.EventLogRepo
}

// NewService wraps the repository.
func NewService(repo *repository.EventLogRepo) *Service {
	return &Service{repo: repo}
}

// Record persists one stream event and returns the stored entry with
// its server-assigned fields. Returns nil when the write fails; the
// failure is logged, never raised.
func (s *Service) Record(ctx context.Context, entry *models.EventLogEntry) *models.EventLogEntry {
	if err := s.repo.Create(ctx, entry); err != nil {
		logging.Error().Err(err).
			Str("platform", entry.Platform).
			Str("event_type", entry.EventType).
			Msg("Failed to record stream event")
		return nil
	}

	metrics.RecordEventLogged(entry.EventType, entry.AlertFired)
	logging.Debug().
		Str("event_id", entry.ID).
		Str("event_type", entry.EventType).
		Bool("alert_fired", entry.AlertFired).
		Msg("Stream event recorded")
	return entry
}

// Query returns entries matching the filter, newest-first. Returns an
// empty slice on failure.
func (s *Service) Query(ctx context.Context, filter repository.EventLogFilter) []models.EventLogEntry {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to query event log")
		return []models.EventLogEntry{}
	}
	return entries
}

// QueryRange returns entries between from and to inclusive,
// newest-first. Returns an empty slice on failure.
func (s *Service) QueryRange(ctx context.Context, from, to models.Timestamp, limit int) []models.EventLogEntry {
	entries, err := s.repo.ListRange(ctx, from, to, limit)
	if err != nil {
		logging.Error().Err(err).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("Failed to query event log range")
		return []models.EventLogEntry{}
	}
	return entries
}

// Prune deletes entries strictly older than the cutoff and returns
// how many were removed. Returns 0 on failure.
func (s *Service) Prune(ctx context.Context, cutoff models.Timestamp) int64 {
	count, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).
			Str("cutoff", cutoff.String()).
			Msg("Failed to prune event log")
		return 0
	}
	metrics.RecordEventLogPruned(count)
	return count
}
