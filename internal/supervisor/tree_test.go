// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

// quietLogger drops supervisor chatter so expected restarts do not
// pollute test output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSupervisorTreeConstruction(t *testing.T) {
	t.Run("creates hierarchical supervisor tree", func(t *testing.T) {
		tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  10 * time.Second,
		})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		if tree.Root() == nil {
			t.Error("root supervisor should not be nil")
		}
	})

	t.Run("applies default values for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}

		if tree.config.FailureThreshold != 5.0 {
			t.Errorf("expected default FailureThreshold 5.0, got %f", tree.config.FailureThreshold)
		}
		if tree.config.FailureDecay != 30.0 {
			t.Errorf("expected default FailureDecay 30.0, got %f", tree.config.FailureDecay)
		}
		if tree.config.FailureBackoff != 15*time.Second {
			t.Errorf("expected default FailureBackoff 15s, got %v", tree.config.FailureBackoff)
		}
		if tree.config.ShutdownTimeout != 10*time.Second {
			t.Errorf("expected default ShutdownTimeout 10s, got %v", tree.config.ShutdownTimeout)
		}
	})
}

func TestSupervisorTreeLifecycle(t *testing.T) {
	t.Run("tree starts and stops gracefully", func(t *testing.T) {
		tree, err := NewSupervisorTree(quietLogger(), DefaultTreeConfig())
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}

		svc := NewMockService("lifecycle-probe")
		tree.AddAPIService(svc)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := tree.ServeBackground(ctx)

		waitFor(t, func() bool { return svc.StartCount() == 1 })

		cancel()
		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("expected nil or context.Canceled, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("supervisor did not stop after cancel")
		}

		if svc.StopCount() != 1 {
			t.Errorf("expected service stopped once, got %d", svc.StopCount())
		}
	})

	t.Run("failing service is restarted", func(t *testing.T) {
		tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
			// Generous threshold so restarts stay immediate within the test.
			FailureThreshold: 50,
			FailureDecay:     30,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  time.Second,
		})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}

		svc := NewMockService("flaky")
		svc.SetFailCount(2)
		tree.AddMessagingService(svc)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		tree.ServeBackground(ctx)

		// Two failures then a clean run: three starts in total.
		waitFor(t, func() bool { return svc.StartCount() >= 3 })
	})

	t.Run("services across layers run independently", func(t *testing.T) {
		tree, err := NewSupervisorTree(quietLogger(), DefaultTreeConfig())
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}

		data := NewMockService("data-svc")
		messaging := NewMockService("messaging-svc")
		api := NewMockService("api-svc")
		tree.AddDataService(data)
		tree.AddMessagingService(messaging)
		tree.AddAPIService(api)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := tree.ServeBackground(ctx)

		waitFor(t, func() bool {
			return data.StartCount() == 1 && messaging.StartCount() == 1 && api.StartCount() == 1
		})

		cancel()
		<-errCh
	})
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}
