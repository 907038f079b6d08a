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
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/streamforge/streamforge-server/internal/models"
)

// alertColumns is the canonical select list; scanAlert must match it.
const alertColumns = `id, type, name, enabled, message_template,
	duration_ms, animation_in, animation_out,
	sound_path, sound_volume, image_path,
	font_family, font_size, text_color, background_color, custom_css,
	min_amount, tts_enabled, tts_voice, tts_rate, tts_pitch, tts_volume,
	created_at, updated_at`

// AlertRepo persists parent alert configurations.
type AlertRepo struct {
	db *sql.DB
}

// Create inserts the alert, assigning an ID and timestamps when unset.
func (r *AlertRepo) Create(ctx context.Context, alert *models.Alert) error {
	if !alert.Type.Valid() {
		return fmt.Errorf("unknown event type %q: %w", alert.Type, ErrValidation)
	}
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = models.Now()
	}
	alert.UpdatedAt = alert.CreatedAt

	query := `INSERT INTO alerts (
		id, type, name, enabled, message_template,
		duration_ms, animation_in, animation_out,
		sound_path, sound_volume, image_path,
		font_family, font_size, text_color, background_color, custom_css,
		min_amount, tts_enabled, tts_voice, tts_rate, tts_pitch, tts_volume,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		alert.ID, alert.Type, alert.Name, alert.Enabled, nullString(alert.MessageTemplate),
		alert.DurationMs, alert.AnimationIn, alert.AnimationOut,
		nullString(alert.SoundPath), alert.SoundVolume, nullString(alert.ImagePath),
		alert.FontFamily, alert.FontSize, alert.TextColor, nullString(alert.BackgroundColor), nullString(alert.CustomCSS),
		nullFloat(alert.MinAmount), alert.TTSEnabled, nullString(alert.TTSVoice), alert.TTSRate, alert.TTSPitch, alert.TTSVolume,
		alert.CreatedAt, alert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetByID retrieves one alert without its variations.
func (r *AlertRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = ?`
	alert, err := scanAlert(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("alert %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

// List retrieves every alert in creation order with its variations
// grouped underneath, ordered priority descending then created-at
// ascending. Two queries, bucketed in memory.
func (r *AlertRepo) List(ctx context.Context) ([]models.Alert, error) {
	alerts, err := r.queryAlerts(ctx, `SELECT `+alertColumns+` FROM alerts ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, err
	}
	if len(alerts) == 0 {
		return alerts, nil
	}

	query := `SELECT ` + variationColumns + ` FROM variations
		ORDER BY priority DESC, created_at ASC, rowid ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list variations: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]models.Variation)
	for rows.Next() {
		v, err := scanVariation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variation: %w", err)
		}
		grouped[v.AlertID] = append(grouped[v.AlertID], *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variations: %w", err)
	}

	for i := range alerts {
		alerts[i].Variations = grouped[alerts[i].ID]
	}
	return alerts, nil
}

// ListByType retrieves alerts of one event type in creation order.
func (r *AlertRepo) ListByType(ctx context.Context, eventType models.EventType) ([]models.Alert, error) {
	return r.queryAlerts(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE type = ? ORDER BY created_at ASC, rowid ASC`,
		eventType)
}

// ListEnabled retrieves every enabled alert in creation order.
func (r *AlertRepo) ListEnabled(ctx context.Context) ([]models.Alert, error) {
	return r.queryAlerts(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE enabled = 1 ORDER BY created_at ASC, rowid ASC`)
}

// ListEnabledByType retrieves enabled alerts of one event type in
// creation order. This is the resolver's candidate feed; ties on the
// millisecond timestamp fall back to insertion order.
func (r *AlertRepo) ListEnabledByType(ctx context.Context, eventType models.EventType) ([]models.Alert, error) {
	return r.queryAlerts(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE type = ? AND enabled = 1 ORDER BY created_at ASC, rowid ASC`,
		eventType)
}

// alertPatchColumns maps updatable columns to their decoder. The alert's
// type is immutable after creation; id and timestamps are server-owned.
var alertPatchColumns = map[string]func(raw json.RawMessage) (any, error){
	"name": func(raw json.RawMessage) (any, error) {
		s, err := patchString("name", raw)
		if err != nil {
			return nil, err
		}
		if s == "" || len(s) > 200 {
			return nil, fmt.Errorf("name must be 1-200 characters: %w", ErrValidation)
		}
		return s, nil
	},
	"enabled": func(raw json.RawMessage) (any, error) { return patchBool("enabled", raw) },
	"message_template": func(raw json.RawMessage) (any, error) {
		return patchNullString("message_template", raw)
	},
	"duration_ms": func(raw json.RawMessage) (any, error) {
		n, err := patchInt("duration_ms", raw)
		if err != nil {
			return nil, err
		}
		if err := inRange("duration_ms", float64(n), 1000, 60000); err != nil {
			return nil, err
		}
		return n, nil
	},
	"animation_in":  func(raw json.RawMessage) (any, error) { return patchString("animation_in", raw) },
	"animation_out": func(raw json.RawMessage) (any, error) { return patchString("animation_out", raw) },
	"sound_path":    func(raw json.RawMessage) (any, error) { return patchNullString("sound_path", raw) },
	"sound_volume": func(raw json.RawMessage) (any, error) {
		f, err := patchFloat("sound_volume", raw)
		if err != nil {
			return nil, err
		}
		if err := inRange("sound_volume", f, 0, 1); err != nil {
			return nil, err
		}
		return f, nil
	},
	"image_path":  func(raw json.RawMessage) (any, error) { return patchNullString("image_path", raw) },
	"font_family": func(raw json.RawMessage) (any, error) { return patchString("font_family", raw) },
	"font_size": func(raw json.RawMessage) (any, error) {
		n, err := patchInt("font_size", raw)
		if err != nil {
			return nil, err
		}
		if err := inRange("font_size", float64(n), 12, 200); err != nil {
			return nil, err
		}
		return n, nil
	},
	"text_color":       func(raw json.RawMessage) (any, error) { return patchString("text_color", raw) },
	"background_color": func(raw json.RawMessage) (any, error) { return patchNullString("background_color", raw) },
	"custom_css":       func(raw json.RawMessage) (any, error) { return patchNullString("custom_css", raw) },
	"min_amount": func(raw json.RawMessage) (any, error) {
		v, err := patchNullFloat("min_amount", raw)
		if err != nil || v == nil {
			return v, err
		}
		if v.(float64) < 0 {
			return nil, fmt.Errorf("min_amount must not be negative: %w", ErrValidation)
		}
		return v, nil
	},
	"tts_enabled": func(raw json.RawMessage) (any, error) { return patchBool("tts_enabled", raw) },
	"tts_voice":   func(raw json.RawMessage) (any, error) { return patchNullString("tts_voice", raw) },
	"tts_rate": func(raw json.RawMessage) (any, error) {
		f, err := patchFloat("tts_rate", raw)
		if err != nil {
			return nil, err
		}
		if f < 0 {
			return nil, fmt.Errorf("tts_rate must not be negative: %w", ErrValidation)
		}
		return f, nil
	},
	"tts_pitch": func(raw json.RawMessage) (any, error) {
		f, err := patchFloat("tts_pitch", raw)
		if err != nil {
			return nil, err
		}
		if f < 0 {
			return nil, fmt.Errorf("tts_pitch must not be negative: %w", ErrValidation)
		}
		return f, nil
	},
	"tts_volume": func(raw json.RawMessage) (any, error) {
		f, err := patchFloat("tts_volume", raw)
		if err != nil {
			return nil, err
		}
		if err := inRange("tts_volume", f, 0, 1); err != nil {
			return nil, err
		}
		return f, nil
	},
}

// Update applies a partial patch and returns the fresh row. Only the
// provided columns are written; updated_at is always bumped, even when
// the patch is empty. Unknown or immutable columns are rejected.
func (r *AlertRepo) Update(ctx context.Context, id string, patch Patch) (*models.Alert, error) {
	setClauses := make([]string, 0, len(patch)+1)
	args := make([]any, 0, len(patch)+2)

	for column, raw := range patch {
		decode, ok := alertPatchColumns[column]
		if !ok {
			return nil, fmt.Errorf("field %q is not updatable: %w", column, ErrValidation)
		}
		value, err := decode(raw)
		if err != nil {
			return nil, err
		}
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, models.Now(), id)

	query := `UPDATE alerts SET ` + strings.Join(setClauses, ", ") + ` WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}

	return r.GetByID(ctx, id)
}

// Delete removes the alert; its variations cascade away with it.
func (r *AlertRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	return nil
}

// queryAlerts runs a select over alertColumns and scans every row.
func (r *AlertRepo) queryAlerts(ctx context.Context, query string, args ...any) ([]models.Alert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]models.Alert, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}
	return alerts, nil
}

// scanAlert scans one row in alertColumns order, mapping nullable
// columns back to pointer fields.
func scanAlert(scanner interface {
	Scan(dest ...any) error
}) (*models.Alert, error) {
	var alert models.Alert
	var messageTemplate, soundPath, imagePath sql.NullString
	var backgroundColor, customCSS, ttsVoice sql.NullString
	var minAmount sql.NullFloat64

	err := scanner.Scan(
		&alert.ID, &alert.Type, &alert.Name, &alert.Enabled, &messageTemplate,
		&alert.DurationMs, &alert.AnimationIn, &alert.AnimationOut,
		&soundPath, &alert.SoundVolume, &imagePath,
		&alert.FontFamily, &alert.FontSize, &alert.TextColor, &backgroundColor, &customCSS,
		&minAmount, &alert.TTSEnabled, &ttsVoice, &alert.TTSRate, &alert.TTSPitch, &alert.TTSVolume,
		&alert.CreatedAt, &alert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	alert.MessageTemplate = fromNullString(messageTemplate)
	alert.SoundPath = fromNullString(soundPath)
	alert.ImagePath = fromNullString(imagePath)
	alert.BackgroundColor = fromNullString(backgroundColor)
	alert.CustomCSS = fromNullString(customCSS)
	alert.MinAmount = fromNullFloat(minAmount)
	alert.TTSVoice = fromNullString(ttsVoice)
	return &alert, nil
}
