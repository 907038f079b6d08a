// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package repository

import (
	"context"
	"testing"

	"github.com/streamforge/streamforge-server/internal/models"
)

func logTestEvent(t *testing.T, repos *Repositories, eventType, username, timestamp string, alertFired bool) *models.EventLogEntry {
	t.Helper()
	entry := &models.EventLogEntry{
		Platform:   "twitch",
		EventType:  eventType,
		Username:   username,
		AlertFired: alertFired,
		Timestamp:  ts(t, timestamp),
	}
	if err := repos.Events.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create(%s/%s) error = %v", eventType, username, err)
	}
	return entry
}

func TestEventLogCreateFillsDefaults(t *testing.T) {
	repos := newTestRepos(t)

	entry := &models.EventLogEntry{
		Platform:  "test",
		EventType: "follow",
		Username:  "viewer42",
	}
	if err := repos.Events.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if entry.ID == "" {
		t.Error("ID not assigned")
	}
	if entry.Timestamp.IsZero() {
		t.Error("Timestamp not stamped")
	}
	if entry.DisplayName != "viewer42" {
		t.Errorf("DisplayName = %q, want username fallback", entry.DisplayName)
	}
	if string(entry.Metadata) != `{}` {
		t.Errorf("Metadata = %s, want {}", entry.Metadata)
	}
}

func TestEventLogCreateValidation(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry models.EventLogEntry
	}{
		{"missing platform", models.EventLogEntry{EventType: "follow", Username: "u"}},
		{"missing event_type", models.EventLogEntry{Platform: "twitch", Username: "u"}},
		{"missing username", models.EventLogEntry{Platform: "twitch", EventType: "follow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := tt.entry
			if err := repos.Events.Create(ctx, &entry); !isValidation(err) {
				t.Errorf("Create() error = %v, want validation", err)
			}
		})
	}
}

func TestEventLogListNewestFirst(t *testing.T) {
	repos := newTestRepos(t)

	logTestEvent(t, repos, "follow", "first", "2026-03-01T10:00:00.000Z", false)
	logTestEvent(t, repos, "follow", "second", "2026-03-01T11:00:00.000Z", false)
	logTestEvent(t, repos, "follow", "third", "2026-03-01T12:00:00.000Z", false)

	got, err := repos.Events.List(context.Background(), EventLogFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d, want 3", len(got))
	}
	for i, want := range []string{"third", "second", "first"} {
		if got[i].Username != want {
			t.Errorf("List()[%d] = %q, want %q", i, got[i].Username, want)
		}
	}
}

func TestEventLogListFilters(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	logTestEvent(t, repos, "follow", "alice", "2026-03-01T10:00:00.000Z", true)
	logTestEvent(t, repos, "cheer", "bob", "2026-03-01T11:00:00.000Z", false)
	logTestEvent(t, repos, "cheer", "Carol", "2026-03-01T12:00:00.000Z", true)

	t.Run("by event type", func(t *testing.T) {
		got, err := repos.Events.List(ctx, EventLogFilter{EventType: "cheer"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d entries, want 2", len(got))
		}
	})

	t.Run("alert fired only", func(t *testing.T) {
		got, err := repos.Events.List(ctx, EventLogFilter{AlertFiredOnly: true})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d entries, want 2", len(got))
		}
		for _, e := range got {
			if !e.AlertFired {
				t.Errorf("entry %s has alert_fired=false", e.Username)
			}
		}
	})

	t.Run("combined filters", func(t *testing.T) {
		got, err := repos.Events.List(ctx, EventLogFilter{EventType: "cheer", AlertFiredOnly: true})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 1 || got[0].Username != "Carol" {
			t.Errorf("got %d entries, want only Carol", len(got))
		}
	})

	t.Run("unknown platform", func(t *testing.T) {
		got, err := repos.Events.List(ctx, EventLogFilter{Platform: "youtube"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %d entries, want 0", len(got))
		}
	})
}

func TestEventLogSearchIsCaseSensitive(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	logTestEvent(t, repos, "follow", "NightBot", "2026-03-01T10:00:00.000Z", false)
	logTestEvent(t, repos, "follow", "nightowl", "2026-03-01T11:00:00.000Z", false)

	got, err := repos.Events.List(ctx, EventLogFilter{Search: "Night"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].Username != "NightBot" {
		t.Fatalf("Search(Night) matched %d entries, want exactly NightBot", len(got))
	}

	got, err = repos.Events.List(ctx, EventLogFilter{Search: "night"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].Username != "nightowl" {
		t.Fatalf("Search(night) matched %d entries, want exactly nightowl", len(got))
	}
}

func TestEventLogSearchSpansMessage(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	message := "great stream today"
	entry := &models.EventLogEntry{
		Platform:  "twitch",
		EventType: "donation",
		Username:  "generous",
		Message:   &message,
		Timestamp: ts(t, "2026-03-01T10:00:00.000Z"),
	}
	if err := repos.Events.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	logTestEvent(t, repos, "donation", "quiet", "2026-03-01T11:00:00.000Z", false)

	got, err := repos.Events.List(ctx, EventLogFilter{Search: "great stream"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].Username != "generous" {
		t.Errorf("message search matched %d entries, want 1", len(got))
	}
}

func TestEventLogListLimit(t *testing.T) {
	repos := newTestRepos(t)

	for i, stamp := range []string{
		"2026-03-01T10:00:00.000Z",
		"2026-03-01T11:00:00.000Z",
		"2026-03-01T12:00:00.000Z",
	} {
		logTestEvent(t, repos, "follow", "user", stamp, i%2 == 0)
	}

	got, err := repos.Events.List(context.Background(), EventLogFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List(limit=2) returned %d", len(got))
	}
	// The newest two survive the cut.
	if got[0].Timestamp.String() != "2026-03-01T12:00:00.000Z" {
		t.Errorf("first entry = %s, want newest", got[0].Timestamp)
	}
}

func TestEventLogListRangeInclusive(t *testing.T) {
	repos := newTestRepos(t)

	logTestEvent(t, repos, "follow", "before", "2026-03-01T09:59:59.999Z", false)
	logTestEvent(t, repos, "follow", "at-start", "2026-03-01T10:00:00.000Z", false)
	logTestEvent(t, repos, "follow", "inside", "2026-03-01T11:00:00.000Z", false)
	logTestEvent(t, repos, "follow", "at-end", "2026-03-01T12:00:00.000Z", false)
	logTestEvent(t, repos, "follow", "after", "2026-03-01T12:00:00.001Z", false)

	got, err := repos.Events.ListRange(context.Background(),
		ts(t, "2026-03-01T10:00:00.000Z"), ts(t, "2026-03-01T12:00:00.000Z"), 0)
	if err != nil {
		t.Fatalf("ListRange() error = %v", err)
	}

	want := []string{"at-end", "inside", "at-start"}
	if len(got) != len(want) {
		t.Fatalf("ListRange() returned %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Username != want[i] {
			t.Errorf("ListRange()[%d] = %q, want %q", i, got[i].Username, want[i])
		}
	}

	limited, err := repos.Events.ListRange(context.Background(),
		ts(t, "2026-03-01T10:00:00.000Z"), ts(t, "2026-03-01T12:00:00.000Z"), 2)
	if err != nil {
		t.Fatalf("ListRange() with limit error = %v", err)
	}
	if len(limited) != 2 || limited[0].Username != "at-end" || limited[1].Username != "inside" {
		t.Errorf("ListRange() limit 2 kept the wrong rows: %+v", limited)
	}
}

func TestEventLogDeleteBeforeIsStrict(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	logTestEvent(t, repos, "follow", "old-1", "2026-03-01T08:00:00.000Z", false)
	logTestEvent(t, repos, "follow", "old-2", "2026-03-01T09:00:00.000Z", false)
	logTestEvent(t, repos, "follow", "at-cutoff", "2026-03-01T10:00:00.000Z", false)
	logTestEvent(t, repos, "follow", "newer", "2026-03-01T11:00:00.000Z", false)

	deleted, err := repos.Events.DeleteBefore(ctx, ts(t, "2026-03-01T10:00:00.000Z"))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d entries, want 2", deleted)
	}

	got, err := repos.Events.List(ctx, EventLogFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("%d entries survive, want 2", len(got))
	}
	// The entry exactly at the cutoff is spared.
	if got[1].Username != "at-cutoff" {
		t.Errorf("oldest survivor = %q, want at-cutoff", got[1].Username)
	}
}

func TestEventLogAmountAndMetadataRoundTrip(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	amount := 500.0
	entry := &models.EventLogEntry{
		Platform:  "twitch",
		EventType: "cheer",
		Username:  "whale",
		Amount:    &amount,
		Metadata:  []byte(`{"tier":"3000","campaign":"launch"}`),
	}
	if err := repos.Events.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repos.Events.List(ctx, EventLogFilter{EventType: "cheer"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List() returned %d entries", len(got))
	}
	if got[0].Amount == nil || *got[0].Amount != 500 {
		t.Errorf("Amount = %v, want 500", got[0].Amount)
	}
	if string(got[0].Metadata) != `{"tier":"3000","campaign":"launch"}` {
		t.Errorf("Metadata = %s", got[0].Metadata)
	}
}
