// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package store

import (
	"context"
	"embed"
	"fmt"
	"sort"

	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/models"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrationsTable tracks applied scripts by filename. Created outside
// the migration mechanism itself, before any script runs.
const migrationsTable = `
CREATE TABLE IF NOT EXISTS _migrations (
	id INTEGER PRIMARY KEY,
	filename TEXT NOT NULL UNIQUE,
	applied_at TEXT NOT NULL
);
`

// migrate applies every embedded script that has not run yet, in
// lexicographic filename order. Scripts are append-only: never modify or
// remove one once a user database has recorded it.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	names, err := migrationNames()
	if err != nil {
		return err
	}

	ran := 0
	for _, name := range names {
		if _, done := applied[name]; done {
			continue
		}
		if err := s.applyMigration(ctx, name); err != nil {
			return err
		}
		ran++
	}

	if ran > 0 {
		logging.Info().Int("count", ran).Msg("Applied database migrations")
	}
	return nil
}

// appliedMigrations returns the set of filenames already recorded.
func (s *Store) appliedMigrations(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename FROM _migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[name] = struct{}{}
	}
	return applied, rows.Err()
}

// migrationNames lists the embedded scripts in lexicographic order.
func migrationNames() ([]string, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// applyMigration runs one script in its own transaction with foreign
// keys disabled so scripts can drop and rebuild referenced tables. The
// pragma cannot change inside a transaction, so it brackets the
// transaction on the store's single connection.
func (s *Store) applyMigration(ctx context.Context, name string) (err error) {
	script, err := migrationFS.ReadFile("migrations/" + name)
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", name, err)
	}

	if _, err = s.db.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		return fmt.Errorf("failed to disable foreign keys for %s: %w", name, err)
	}
	defer func() {
		if _, fkErr := s.db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); fkErr != nil && err == nil {
			err = fmt.Errorf("failed to restore foreign keys after %s: %w", name, fkErr)
		}
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).Str("migration", name).Msg("Failed to roll back migration")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", name, err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO _migrations (filename, applied_at) VALUES (?, ?)`,
		name, models.Now().String(),
	); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", name, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", name, err)
	}

	logging.Debug().Str("migration", name).Msg("Migration applied")
	return nil
}

// SchemaVersion returns the filename of the newest applied migration,
// or "" for a fresh database that somehow has none.
func (s *Store) SchemaVersion(ctx context.Context) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(filename), '') FROM _migrations`).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("failed to get schema version: %w", err)
	}
	return name, nil
}
