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

const templateColumns = `id, name, description, author, spec, is_builtin, created_at, updated_at`

// TemplateRepo persists alert-configuration templates. Built-in rows
// (seeded by migration) reject update and delete without being touched.
type TemplateRepo struct {
	db *sql.DB
}

// Create inserts the template, assigning an ID and timestamps when unset.
func (r *TemplateRepo) Create(ctx context.Context, t *models.Template) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = models.Now()
	}
	t.UpdatedAt = t.CreatedAt
	if len(t.Spec) == 0 {
		t.Spec = json.RawMessage(`{}`)
	}

	query := `INSERT INTO templates (
		id, name, description, author, spec, is_builtin, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Description, t.Author, string(t.Spec), t.IsBuiltin,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// GetByID retrieves one template.
func (r *TemplateRepo) GetByID(ctx context.Context, id string) (*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = ?`
	t, err := scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

// List retrieves every template in creation order. Built-ins carry a
// fixed early timestamp, so they sort first.
func (r *TemplateRepo) List(ctx context.Context) ([]models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates ORDER BY created_at ASC, rowid ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := make([]models.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}
	return templates, nil
}

// templatePatchColumns maps updatable columns to their decoder.
var templatePatchColumns = map[string]func(raw json.RawMessage) (any, error){
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
	"description": func(raw json.RawMessage) (any, error) { return patchString("description", raw) },
	"author":      func(raw json.RawMessage) (any, error) { return patchString("author", raw) },
	"spec": func(raw json.RawMessage) (any, error) {
		if isJSONNull(raw) {
			return nil, fmt.Errorf("spec cannot be null: %w", ErrValidation)
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("spec must be valid JSON: %w", ErrValidation)
		}
		return string(raw), nil
	},
}

// Update applies a partial patch and returns the fresh row. Built-in
// templates are rejected with Forbidden and remain byte-identical.
func (r *TemplateRepo) Update(ctx context.Context, id string, patch Patch) (*models.Template, error) {
	setClauses := make([]string, 0, len(patch)+1)
	args := make([]any, 0, len(patch)+2)

	for column, raw := range patch {
		decode, ok := templatePatchColumns[column]
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

	// The builtin guard lives in the WHERE clause so a protected row is
	// never written, not even its updated_at.
	query := `UPDATE templates SET ` + strings.Join(setClauses, ", ") + ` WHERE id = ? AND is_builtin = 0`
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		existing, err := r.GetByID(ctx, id)
		if err == nil && existing.IsBuiltin {
			return nil, fmt.Errorf("template %s is built-in: %w", id, ErrForbidden)
		}
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}

	return r.GetByID(ctx, id)
}

// Delete removes a user template. Built-ins are rejected with Forbidden.
func (r *TemplateRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ? AND is_builtin = 0`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		existing, err := r.GetByID(ctx, id)
		if err == nil && existing.IsBuiltin {
			return fmt.Errorf("template %s is built-in: %w", id, ErrForbidden)
		}
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return nil
}

// scanTemplate scans one row in templateColumns order. The spec column
// is TEXT; it round-trips through a string into RawMessage.
func scanTemplate(scanner interface {
	Scan(dest ...any) error
}) (*models.Template, error) {
	var t models.Template
	var spec string

	err := scanner.Scan(
		&t.ID, &t.Name, &t.Description, &t.Author, &spec, &t.IsBuiltin,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Spec = json.RawMessage(spec)
	return &t, nil
}
