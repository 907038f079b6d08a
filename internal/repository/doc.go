// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

/*
Package repository is the typed CRUD layer over the store: alerts,
variations, templates, settings, and the event log.

Every operation validates its inputs and maps storage outcomes onto the
package's sentinel errors (ErrValidation, ErrNotFound, ErrForbidden,
ErrConflict) so transport layers can translate them with errors.Is
without inspecting strings. Anything not wrapped in a sentinel is an
internal storage failure.

Partial updates accept a map of column name to raw JSON value. Only
provided fields are written, a JSON null clears a nullable column, and
updated_at is always bumped — including on an empty patch.
*/
package repository
