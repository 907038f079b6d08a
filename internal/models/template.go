// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package models

import (
	"github.com/goccy/go-json"
)

// Template is a saved alert-configuration snapshot that can be applied
// to new alerts. Built-in templates ship with the server and reject
// update and delete.
type Template struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Author      string          `json:"author"`
	Spec        json.RawMessage `json:"spec"`
	IsBuiltin   bool            `json:"is_builtin"`
	CreatedAt   Timestamp       `json:"created_at"`
	UpdatedAt   Timestamp       `json:"updated_at"`
}

// CreateTemplateRequest is the payload for saving a new template.
type CreateTemplateRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description,omitempty" validate:"max=2000"`
	Author      string          `json:"author,omitempty" validate:"max=200"`
	Spec        json.RawMessage `json:"spec" validate:"required"`
}

// Setting is an opaque key/value pair with upsert semantics. Values are
// stored verbatim; the server never interprets them.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt Timestamp `json:"updated_at"`
}
