// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package repository

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/streamforge/streamforge-server/internal/store"
)

// Repositories bundles one repository per entity over a shared store.
type Repositories struct {
	Alerts     *AlertRepo
	Variations *VariationRepo
	Templates  *TemplateRepo
	Settings   *SettingRepo
	Events     *EventLogRepo
}

// New wires every repository onto the store's connection pool.
func New(s *store.Store) *Repositories {
	db := s.DB()
	return &Repositories{
		Alerts:     &AlertRepo{db: db},
		Variations: &VariationRepo{db: db},
		Templates:  &TemplateRepo{db: db},
		Settings:   &SettingRepo{db: db},
		Events:     &EventLogRepo{db: db},
	}
}

// nullString converts a pointer field to its nullable column value.
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// nullFloat converts a pointer field to its nullable column value.
func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// fromNullString converts a scanned nullable column back to a pointer.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// fromNullFloat converts a scanned nullable column back to a pointer.
func fromNullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

// Patch is a partial update: column name to raw JSON value. A JSON null
// clears a nullable column; omitted columns are left untouched.
type Patch map[string]json.RawMessage

// isJSONNull reports whether the raw value is the JSON literal null.
func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

// patchString decodes a required (non-nullable) string column value.
func patchString(column string, raw json.RawMessage) (string, error) {
	if isJSONNull(raw) {
		return "", fmt.Errorf("%s cannot be null: %w", column, ErrValidation)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s must be a string: %w", column, ErrValidation)
	}
	return s, nil
}

// patchNullString decodes a nullable string column value; null clears it.
func patchNullString(column string, raw json.RawMessage) (any, error) {
	if isJSONNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%s must be a string or null: %w", column, ErrValidation)
	}
	return s, nil
}

// patchInt decodes an integer column value.
func patchInt(column string, raw json.RawMessage) (int, error) {
	if isJSONNull(raw) {
		return 0, fmt.Errorf("%s cannot be null: %w", column, ErrValidation)
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", column, ErrValidation)
	}
	return n, nil
}

// patchFloat decodes a numeric column value.
func patchFloat(column string, raw json.RawMessage) (float64, error) {
	if isJSONNull(raw) {
		return 0, fmt.Errorf("%s cannot be null: %w", column, ErrValidation)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", column, ErrValidation)
	}
	return f, nil
}

// patchNullFloat decodes a nullable numeric column value; null clears it.
func patchNullFloat(column string, raw json.RawMessage) (any, error) {
	if isJSONNull(raw) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%s must be a number or null: %w", column, ErrValidation)
	}
	return f, nil
}

// patchBool decodes a boolean column value. Bools are stored as 0/1.
func patchBool(column string, raw json.RawMessage) (bool, error) {
	if isJSONNull(raw) {
		return false, fmt.Errorf("%s cannot be null: %w", column, ErrValidation)
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", column, ErrValidation)
	}
	return b, nil
}

// inRange validates a numeric bound and reports it as a validation error.
func inRange(column string, v, min, max float64) error {
	if v < min || v > max {
		return fmt.Errorf("%s must be between %s and %s: %w",
			column, strconv.FormatFloat(min, 'f', -1, 64), strconv.FormatFloat(max, 'f', -1, 64), ErrValidation)
	}
	return nil
}
