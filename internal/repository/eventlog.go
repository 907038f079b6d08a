// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/models"
)

const eventLogColumns = `id, platform, event_type, username, display_name,
	amount, message, metadata, alert_fired, timestamp`

// EventLogFilter narrows a List query. Zero values mean "no filter".
type EventLogFilter struct {
	EventType      string
	Platform       string
	AlertFiredOnly bool

	// Search is a case-sensitive substring match across username,
	// display_name, and message.
	Search string

	// Limit defaults to 100 and caps at 1000.
	Limit int
}

const (
	defaultEventLogLimit = 100
	maxEventLogLimit     = 1000
)

// EventLogRepo persists the stream-event audit trail.
type EventLogRepo struct {
	db *sql.DB
}

// Create inserts the entry, assigning an ID and timestamp when unset.
// An empty display name falls back to the username.
func (r *EventLogRepo) Create(ctx context.Context, entry *models.EventLogEntry) error {
	if entry.Platform == "" {
		return fmt.Errorf("platform is required: %w", ErrValidation)
	}
	if entry.EventType == "" {
		return fmt.Errorf("event_type is required: %w", ErrValidation)
	}
	if entry.Username == "" {
		return fmt.Errorf("username is required: %w", ErrValidation)
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.DisplayName == "" {
		entry.DisplayName = entry.Username
	}
	if len(entry.Metadata) == 0 {
		entry.Metadata = json.RawMessage(`{}`)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = models.Now()
	}

	query := `INSERT INTO event_log (
		id, platform, event_type, username, display_name,
		amount, message, metadata, alert_fired, timestamp
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Platform, entry.EventType, entry.Username, entry.DisplayName,
		nullFloat(entry.Amount), nullString(entry.Message), string(entry.Metadata),
		entry.AlertFired, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create event log entry: %w", err)
	}
	return nil
}

// List retrieves entries newest-first, narrowed by the filter.
func (r *EventLogRepo) List(ctx context.Context, filter EventLogFilter) ([]models.EventLogEntry, error) {
	var conditions []string
	var args []any

	if filter.EventType != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, filter.EventType)
	}
	if filter.Platform != "" {
		conditions = append(conditions, "platform = ?")
		args = append(args, filter.Platform)
	}
	if filter.AlertFiredOnly {
		conditions = append(conditions, "alert_fired = 1")
	}
	if filter.Search != "" {
		// instr() keeps the match case-sensitive; LIKE would fold ASCII case.
		conditions = append(conditions,
			"(instr(username, ?) > 0 OR instr(display_name, ?) > 0 OR (message IS NOT NULL AND instr(message, ?) > 0))")
		args = append(args, filter.Search, filter.Search, filter.Search)
	}

	query := `SELECT ` + eventLogColumns + ` FROM event_log`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY timestamp DESC, rowid DESC LIMIT %d", clampLimit(filter.Limit))

	return r.queryEntries(ctx, query, args...)
}

// ListRange retrieves entries between from and to inclusive, newest-first.
// The limit is clamped the same way as List.
func (r *EventLogRepo) ListRange(ctx context.Context, from, to models.Timestamp, limit int) ([]models.EventLogEntry, error) {
	query := `SELECT ` + eventLogColumns + ` FROM event_log
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC, rowid DESC` + fmt.Sprintf(" LIMIT %d", clampLimit(limit))
	return r.queryEntries(ctx, query, from, to)
}

// clampLimit applies the default and the hard cap to a row limit.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultEventLogLimit
	}
	if limit > maxEventLogLimit {
		return maxEventLogLimit
	}
	return limit
}

// DeleteBefore removes entries strictly older than the cutoff and
// returns how many went away.
func (r *EventLogRepo) DeleteBefore(ctx context.Context, cutoff models.Timestamp) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM event_log WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old event log entries: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}
	if count > 0 {
		logging.Info().Int64("deleted", count).Str("cutoff", cutoff.String()).Msg("Pruned event log")
	}
	return count, nil
}

// queryEntries runs a select over eventLogColumns and scans every row.
func (r *EventLogRepo) queryEntries(ctx context.Context, query string, args ...any) ([]models.EventLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list event log entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.EventLogEntry, 0)
	for rows.Next() {
		entry, err := scanEventLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event log entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event log entries: %w", err)
	}
	return entries, nil
}

// scanEventLogEntry scans one row in eventLogColumns order.
func scanEventLogEntry(scanner interface {
	Scan(dest ...any) error
}) (*models.EventLogEntry, error) {
	var entry models.EventLogEntry
	var amount sql.NullFloat64
	var message sql.NullString
	var metadata string

	err := scanner.Scan(
		&entry.ID, &entry.Platform, &entry.EventType, &entry.Username, &entry.DisplayName,
		&amount, &message, &metadata, &entry.AlertFired, &entry.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	entry.Amount = fromNullFloat(amount)
	entry.Message = fromNullString(message)
	entry.Metadata = json.RawMessage(metadata)
	return &entry, nil
}
