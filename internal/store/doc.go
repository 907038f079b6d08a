// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

/*
Package store owns the embedded SQLite database: file placement inside
the per-user application-data directory, connection setup, and schema
migrations.

# Concurrency

SQLite allows one writer at a time. The pool is capped at a single
connection so every statement serializes through it; combined with WAL
journal mode this gives crash-safe durability with no "database is
locked" errors under concurrent handler goroutines.

# Migrations

Schema scripts are embedded under migrations/ and applied in
lexicographic filename order. Applied filenames are recorded in the
_migrations table; a script runs exactly once per database. Each script
executes inside its own transaction with foreign-key enforcement
temporarily disabled so tables can be rebuilt; enforcement is restored
afterwards. A failing script rolls back and aborts startup — the server
never runs on a half-migrated schema.
*/
package store
