// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

// Package main is the entry point for the StreamForge sidecar event
// server.
//
// The sidecar is a long-lived local process launched by the desktop
// shell. It accepts viewer events (follow, subscribe, cheer, raid,
// donation) over HTTP, resolves them against the configured alert
// ruleset, and fans the resulting alerts out to overlay clients over
// WebSocket, one at a time.
//
// # Startup Order
//
//  1. Configuration: defaults, optional YAML file, STREAMFORGE_* env
//     (koanf v2)
//  2. Logging: zerolog on stderr (stdout is reserved, see below)
//  3. Store: SQLite in the per-user app-data directory, forward-only
//     migrations applied on open
//  4. Components: repositories, rule resolver, WebSocket hub, alert
//     queue, event-log service
//  5. Port discovery: preferred port, then range scan, then
//     OS-assigned; the bound listener is kept
//  6. Announcement: exactly one "SERVER_PORT=<n>" line on stdout -- the
//     sole machine-readable contract with the host shell
//  7. Supervision tree: retention pruner, hub, and HTTP server under
//     suture v4
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server stops
// accepting connections and drains in-flight requests (5s default),
// the hub closes every WebSocket session, the pruner stops, and the
// store is closed last so in-flight transactions complete.
//
// # Example Usage
//
// Run with defaults (port 39283, database in the user config dir):
//
//	./streamforge-server
//
// Override the port range and log verbosity:
//
//	export STREAMFORGE_PORT=45000
//	export STREAMFORGE_PORT_RANGE_MIN=45000
//	export STREAMFORGE_PORT_RANGE_MAX=45100
//	export STREAMFORGE_LOG_LEVEL=debug
//	./streamforge-server
//
// The server binds 127.0.0.1 only; there is no option to expose it
// externally.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/streamforge/streamforge-server/internal/api"
	"github.com/streamforge/streamforge-server/internal/config"
	"github.com/streamforge/streamforge-server/internal/eventlog"
	"github.com/streamforge/streamforge-server/internal/hub"
	"github.com/streamforge/streamforge-server/internal/lifecycle"
	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/metrics"
	"github.com/streamforge/streamforge-server/internal/queue"
	"github.com/streamforge/streamforge-server/internal/repository"
	"github.com/streamforge/streamforge-server/internal/resolver"
	"github.com/streamforge/streamforge-server/internal/store"
	"github.com/streamforge/streamforge-server/internal/supervisor"
	"github.com/streamforge/streamforge-server/internal/supervisor/services"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Logging goes to stderr: stdout must carry nothing but the
	// SERVER_PORT line until after the announcement.
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().Str("version", version).Msg("StreamForge sidecar starting")
	metrics.SetAppInfo(version)

	dbPath, err := store.ResolveDatabasePath(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve database location: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	repos := repository.New(st)
	rules := resolver.New(repos.Alerts, repos.Variations)
	events := eventlog.NewService(repos.Events)
	pruner := eventlog.NewPruner(events,
		time.Duration(cfg.Events.RetentionDays)*24*time.Hour,
		cfg.Events.CleanupInterval)

	h := hub.New(hub.Options{
		PingInterval:   cfg.Hub.PingInterval,
		PongTimeout:    cfg.Hub.PongTimeout,
		SendBufferSize: cfg.Hub.SendBufferSize,
	})
	q := queue.New(h)
	if err := api.RegisterAlertAcks(h, q); err != nil {
		closeStore(st)
		return fmt.Errorf("failed to register alert handlers: %w", err)
	}

	ln, port, err := lifecycle.DiscoverListener(
		cfg.Server.PreferredPort,
		cfg.Server.PortRangeMin,
		cfg.Server.PortRangeMax)
	if err != nil {
		closeStore(st)
		return err
	}

	handlers := api.NewHandlers(repos, rules, q, h, events, port)
	server := &http.Server{
		Handler:           api.NewRouter(handlers, cfg.API),
		ReadHeaderTimeout: 10 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		closeStore(st)
		return fmt.Errorf("failed to build supervision tree: %w", err)
	}
	tree.AddDataService(pruner)
	tree.AddMessagingService(services.NewWebSocketHubService(h))
	tree.AddAPIService(services.NewHTTPServerService(server, ln, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The host shell blocks on this line; it must land before traffic
	// is served and nothing may precede it on stdout.
	if err := lifecycle.Announce(os.Stdout, port); err != nil {
		closeStore(st)
		return err
	}

	errCh := tree.ServeBackground(ctx)
	logging.Info().
		Int("port", port).
		Str("database", st.Path()).
		Msg("StreamForge sidecar ready")

	err = <-errCh
	if err != nil && !errors.Is(err, context.Canceled) {
		closeStore(st)
		return fmt.Errorf("supervision tree failed: %w", err)
	}

	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil {
		for _, svc := range unstopped {
			logging.Warn().
				Str("service", svc.Name).
				Msg("Service did not stop within the shutdown timeout")
		}
	}

	// Closed after the tree exits so in-flight transactions complete.
	closeStore(st)
	logging.Info().Msg("StreamForge sidecar stopped")
	return nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		logging.Error().Err(err).Msg("Failed to close store")
	}
}
