// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/streamforge/streamforge-server/internal/models"
)

// SettingRepo persists opaque key/value settings with upsert semantics.
// Values are stored verbatim and never interpreted.
type SettingRepo struct {
	db *sql.DB
}

// Get retrieves one setting. An absent key returns nil without an
// error; callers decide whether absence matters.
func (r *SettingRepo) Get(ctx context.Context, key string) (*models.Setting, error) {
	var s models.Setting
	query := `SELECT key, value, updated_at FROM settings WHERE key = ?`
	err := r.db.QueryRowContext(ctx, query, key).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return &s, nil
}

// Set inserts or replaces the setting and returns the stored row.
func (r *SettingRepo) Set(ctx context.Context, key, value string) (*models.Setting, error) {
	if key == "" {
		return nil, fmt.Errorf("setting key cannot be empty: %w", ErrValidation)
	}

	s := models.Setting{Key: key, Value: value, UpdatedAt: models.Now()}
	query := `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, s.Key, s.Value, s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to set setting: %w", err)
	}
	return &s, nil
}

// List retrieves every setting ordered by key.
func (r *SettingRepo) List(ctx context.Context) ([]models.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, updated_at FROM settings ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	settings := make([]models.Setting, 0)
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}
	return settings, nil
}
