// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver with database/sql

	"github.com/streamforge/streamforge-server/internal/logging"
)

// Store wraps the single SQLite connection pool and its lifecycle.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path, applies the connection
// pragmas, and runs any pending migrations. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", path, err)
	}

	// One writer at a time: a single pooled connection serializes all
	// statements and makes per-connection pragmas apply everywhere.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.applyPragmas(); err != nil {
		closeQuietly(db)
		return nil, err
	}
	if err := s.migrate(context.Background()); err != nil {
		closeQuietly(db)
		return nil, err
	}

	logging.Info().Str("path", path).Msg("Database ready")
	return s, nil
}

// applyPragmas configures the connection for WAL-mode operation.
func (s *Store) applyPragmas() error {
	pragmas := []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA synchronous = NORMAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA foreign_keys = ON`,
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}
	return nil
}

// DB exposes the underlying pool for the repository layer.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Ping checks that the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.PingContext(ctx)
}

// Close checkpoints the WAL and closes the pool. Best effort on the
// checkpoint: a failure is logged, not returned.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}

	return s.db.Close()
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil {
		logging.Debug().Err(err).Msg("Failed to close database")
	}
}
