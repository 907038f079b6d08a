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

// variationColumns is the canonical select list; scanVariation must match it.
const variationColumns = `id, alert_id, name, condition_type, condition_value,
	priority, enabled,
	message_template, sound_path, sound_volume, image_path,
	animation_in, animation_out, custom_css,
	created_at, updated_at`

// VariationRepo persists conditional overrides owned by alerts.
type VariationRepo struct {
	db *sql.DB
}

// Create inserts the variation under its parent alert. The parent must
// exist; a missing parent reports NotFound rather than a constraint error.
func (r *VariationRepo) Create(ctx context.Context, v *models.Variation) error {
	if v.AlertID == "" {
		return fmt.Errorf("alert_id is required: %w", ErrValidation)
	}
	if !v.ConditionType.Valid() {
		return fmt.Errorf("unknown condition type %q: %w", v.ConditionType, ErrValidation)
	}

	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM alerts WHERE id = ?`, v.AlertID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("alert %s: %w", v.AlertID, ErrNotFound)
		}
		return fmt.Errorf("failed to check parent alert: %w", err)
	}

	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = models.Now()
	}
	v.UpdatedAt = v.CreatedAt

	query := `INSERT INTO variations (
		id, alert_id, name, condition_type, condition_value,
		priority, enabled,
		message_template, sound_path, sound_volume, image_path,
		animation_in, animation_out, custom_css,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		v.ID, v.AlertID, v.Name, v.ConditionType, v.ConditionValue,
		v.Priority, v.Enabled,
		nullString(v.MessageTemplate), nullString(v.SoundPath), nullFloat(v.SoundVolume), nullString(v.ImagePath),
		nullString(v.AnimationIn), nullString(v.AnimationOut), nullString(v.CustomCSS),
		v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create variation: %w", err)
	}
	return nil
}

// GetByID retrieves one variation.
func (r *VariationRepo) GetByID(ctx context.Context, id string) (*models.Variation, error) {
	query := `SELECT ` + variationColumns + ` FROM variations WHERE id = ?`
	v, err := scanVariation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("variation %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get variation: %w", err)
	}
	return v, nil
}

// ListByAlert retrieves every variation of one alert in evaluation
// order: priority descending, then created-at ascending.
func (r *VariationRepo) ListByAlert(ctx context.Context, alertID string) ([]models.Variation, error) {
	return r.queryVariations(ctx,
		`SELECT `+variationColumns+` FROM variations WHERE alert_id = ?
		ORDER BY priority DESC, created_at ASC, rowid ASC`,
		alertID)
}

// ListEnabledByAlert retrieves the enabled variations of one alert in
// evaluation order. This is the resolver's override feed.
func (r *VariationRepo) ListEnabledByAlert(ctx context.Context, alertID string) ([]models.Variation, error) {
	return r.queryVariations(ctx,
		`SELECT `+variationColumns+` FROM variations WHERE alert_id = ? AND enabled = 1
		ORDER BY priority DESC, created_at ASC, rowid ASC`,
		alertID)
}

// variationPatchColumns maps updatable columns to their decoder. The
// owning alert cannot change; id and timestamps are server-owned.
var variationPatchColumns = map[string]func(raw json.RawMessage) (any, error){
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
	"condition_type": func(raw json.RawMessage) (any, error) {
		s, err := patchString("condition_type", raw)
		if err != nil {
			return nil, err
		}
		if !models.ConditionType(s).Valid() {
			return nil, fmt.Errorf("unknown condition type %q: %w", s, ErrValidation)
		}
		return s, nil
	},
	"condition_value": func(raw json.RawMessage) (any, error) {
		s, err := patchString("condition_value", raw)
		if err != nil {
			return nil, err
		}
		if s == "" {
			return nil, fmt.Errorf("condition_value cannot be empty: %w", ErrValidation)
		}
		return s, nil
	},
	"priority": func(raw json.RawMessage) (any, error) { return patchInt("priority", raw) },
	"enabled":  func(raw json.RawMessage) (any, error) { return patchBool("enabled", raw) },
	"message_template": func(raw json.RawMessage) (any, error) {
		return patchNullString("message_template", raw)
	},
	"sound_path": func(raw json.RawMessage) (any, error) { return patchNullString("sound_path", raw) },
	"sound_volume": func(raw json.RawMessage) (any, error) {
		v, err := patchNullFloat("sound_volume", raw)
		if err != nil || v == nil {
			return v, err
		}
		if err := inRange("sound_volume", v.(float64), 0, 1); err != nil {
			return nil, err
		}
		return v, nil
	},
	"image_path":    func(raw json.RawMessage) (any, error) { return patchNullString("image_path", raw) },
	"animation_in":  func(raw json.RawMessage) (any, error) { return patchNullString("animation_in", raw) },
	"animation_out": func(raw json.RawMessage) (any, error) { return patchNullString("animation_out", raw) },
	"custom_css":    func(raw json.RawMessage) (any, error) { return patchNullString("custom_css", raw) },
}

// Update applies a partial patch and returns the fresh row. Only the
// provided columns are written; updated_at is always bumped.
func (r *VariationRepo) Update(ctx context.Context, id string, patch Patch) (*models.Variation, error) {
	setClauses := make([]string, 0, len(patch)+1)
	args := make([]any, 0, len(patch)+2)

	for column, raw := range patch {
		decode, ok := variationPatchColumns[column]
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

	query := `UPDATE variations SET ` + strings.Join(setClauses, ", ") + ` WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update variation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("variation %s: %w", id, ErrNotFound)
	}

	return r.GetByID(ctx, id)
}

// Delete removes the variation.
func (r *VariationRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM variations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete variation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("variation %s: %w", id, ErrNotFound)
	}
	return nil
}

// queryVariations runs a select over variationColumns and scans every row.
func (r *VariationRepo) queryVariations(ctx context.Context, query string, args ...any) ([]models.Variation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list variations: %w", err)
	}
	defer rows.Close()

	variations := make([]models.Variation, 0)
	for rows.Next() {
		v, err := scanVariation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variation: %w", err)
		}
		variations = append(variations, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variations: %w", err)
	}
	return variations, nil
}

// scanVariation scans one row in variationColumns order.
func scanVariation(scanner interface {
	Scan(dest ...any) error
}) (*models.Variation, error) {
	var v models.Variation
	var messageTemplate, soundPath, imagePath sql.NullString
	var animationIn, animationOut, customCSS sql.NullString
	var soundVolume sql.NullFloat64

	err := scanner.Scan(
		&v.ID, &v.AlertID, &v.Name, &v.ConditionType, &v.ConditionValue,
		&v.Priority, &v.Enabled,
		&messageTemplate, &soundPath, &soundVolume, &imagePath,
		&animationIn, &animationOut, &customCSS,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.MessageTemplate = fromNullString(messageTemplate)
	v.SoundPath = fromNullString(soundPath)
	v.SoundVolume = fromNullFloat(soundVolume)
	v.ImagePath = fromNullString(imagePath)
	v.AnimationIn = fromNullString(animationIn)
	v.AnimationOut = fromNullString(animationOut)
	v.CustomCSS = fromNullString(customCSS)
	return &v, nil
}
