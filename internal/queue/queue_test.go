// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package queue

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/models"
	"github.com/streamforge/streamforge-server/internal/repository"
)

func init() {
	logging.Init(logging.Config{Level: "disabled"})
}

type emission struct {
	namespace string
	event     string
	instance  *models.AlertInstance
}

// fakeBroadcaster records emissions and answers with a fixed client count.
type fakeBroadcaster struct {
	mu      sync.Mutex
	clients int
	emits   []emission
}

func (f *fakeBroadcaster) Emit(namespace, event string, payload any) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, _ := payload.(*models.AlertInstance)
	f.emits = append(f.emits, emission{namespace: namespace, event: event, instance: inst})
	return f.clients
}

func (f *fakeBroadcaster) emissions() []emission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]emission, len(f.emits))
	copy(out, f.emits)
	return out
}

func newTestQueue(t *testing.T) (*Queue, *fakeBroadcaster) {
	t.Helper()
	b := &fakeBroadcaster{clients: 1}
	q := New(b)
	t.Cleanup(q.Stop)
	return q, b
}

func testInstance(eventType models.EventType, username string) *models.AlertInstance {
	return &models.AlertInstance{Type: eventType, Username: username}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestEnqueueValidation(t *testing.T) {
	tests := []struct {
		name string
		inst *models.AlertInstance
	}{
		{"unknown event type", testInstance("explosion", "viewer")},
		{"empty event type", testInstance("", "viewer")},
		{"missing username", testInstance(models.EventFollow, "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, b := newTestQueue(t)
			if _, err := q.Enqueue(tt.inst); !errors.Is(err, repository.ErrValidation) {
				t.Fatalf("Enqueue error = %v, want ErrValidation", err)
			}
			if got := len(b.emissions()); got != 0 {
				t.Errorf("emissions = %d, want 0", got)
			}
			if q.Current() != nil {
				t.Error("Current() should be nil after rejected enqueue")
			}
		})
	}
}

func TestEnqueueFillsServerFields(t *testing.T) {
	q, _ := newTestQueue(t)

	inst := testInstance(models.EventCheer, "viewer")
	id, err := q.Enqueue(inst)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if id == "" || id != inst.ID {
		t.Errorf("returned id %q does not match instance id %q", id, inst.ID)
	}
	if inst.DisplayName != "viewer" {
		t.Errorf("DisplayName = %q, want username fallback", inst.DisplayName)
	}
	if inst.Timestamp.IsZero() {
		t.Error("Timestamp should be stamped at enqueue")
	}
	if inst.Config == nil {
		t.Fatal("Config should be filled with type defaults")
	}
	if inst.Config.MessageTemplate == nil {
		t.Fatal("MessageTemplate should be filled")
	}
	if got, want := *inst.Config.MessageTemplate, "{username} cheered {amount} bits!"; got != want {
		t.Errorf("MessageTemplate = %q, want %q", got, want)
	}
}

func TestEnqueueKeepsProvidedFields(t *testing.T) {
	q, _ := newTestQueue(t)

	tmpl := "big spender {username}"
	inst := testInstance(models.EventCheer, "viewer")
	inst.ID = "preassigned"
	inst.DisplayName = "Viewer Prime"
	inst.Config = &models.AlertSpec{Alert: models.Alert{
		Type:            models.EventCheer,
		DurationMs:      8000,
		MessageTemplate: &tmpl,
	}}

	id, err := q.Enqueue(inst)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if id != "preassigned" {
		t.Errorf("id = %q, want preassigned id preserved", id)
	}
	if inst.DisplayName != "Viewer Prime" {
		t.Errorf("DisplayName = %q, want provided value kept", inst.DisplayName)
	}
	if *inst.Config.MessageTemplate != tmpl {
		t.Errorf("MessageTemplate = %q, want provided template kept", *inst.Config.MessageTemplate)
	}
}

func TestEnqueueDispatchesWhenIdle(t *testing.T) {
	q, b := newTestQueue(t)

	id, err := q.Enqueue(testInstance(models.EventFollow, "viewer"))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	emits := b.emissions()
	if len(emits) != 1 {
		t.Fatalf("emissions = %d, want 1", len(emits))
	}
	if emits[0].namespace != "/alerts" {
		t.Errorf("namespace = %q, want /alerts", emits[0].namespace)
	}
	if emits[0].event != "alert:trigger" {
		t.Errorf("event = %q, want alert:trigger", emits[0].event)
	}
	if emits[0].instance == nil || emits[0].instance.ID != id {
		t.Error("emitted payload should be the enqueued instance")
	}

	cur := q.Current()
	if cur == nil || cur.ID != id {
		t.Error("Current() should be the dispatched instance")
	}
	if got := q.Length(); got != 0 {
		t.Errorf("Length = %d, want 0 while instance is in flight", got)
	}
}

func TestQueueSerializesPlayback(t *testing.T) {
	q, b := newTestQueue(t)

	ids := make([]string, 3)
	for i := range ids {
		id, err := q.Enqueue(testInstance(models.EventFollow, fmt.Sprintf("viewer%d", i)))
		if err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		ids[i] = id
	}

	if got := len(b.emissions()); got != 1 {
		t.Fatalf("emissions = %d, want 1 (only the head plays)", got)
	}
	if got := q.Length(); got != 2 {
		t.Errorf("Length = %d, want 2", got)
	}

	q.Complete(ids[0])
	if got := len(b.emissions()); got != 2 {
		t.Fatalf("emissions after first ack = %d, want 2", got)
	}
	if cur := q.Current(); cur == nil || cur.ID != ids[1] {
		t.Error("second instance should be in flight after first ack")
	}

	// Empty id acks whatever is current.
	q.Complete("")
	if cur := q.Current(); cur == nil || cur.ID != ids[2] {
		t.Error("third instance should be in flight after generic ack")
	}

	q.Complete(ids[2])
	if q.Current() != nil {
		t.Error("queue should be idle after final ack")
	}

	emits := b.emissions()
	if len(emits) != 3 {
		t.Fatalf("emissions = %d, want 3", len(emits))
	}
	for i, e := range emits {
		if e.instance.ID != ids[i] {
			t.Errorf("emission %d = %s, want %s (FIFO order)", i, e.instance.ID, ids[i])
		}
	}
}

func TestStaleAckIgnored(t *testing.T) {
	q, b := newTestQueue(t)

	first, err := q.Enqueue(testInstance(models.EventFollow, "one"))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, err := q.Enqueue(testInstance(models.EventFollow, "two")); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	q.Complete("not-the-current-instance")

	if got := len(b.emissions()); got != 1 {
		t.Errorf("emissions = %d, want 1 (stale ack must not advance)", got)
	}
	if cur := q.Current(); cur == nil || cur.ID != first {
		t.Error("first instance should still be in flight")
	}
}

func TestCompleteWhenIdle(t *testing.T) {
	q, b := newTestQueue(t)

	q.Complete("anything")
	q.Complete("")

	if got := len(b.emissions()); got != 0 {
		t.Errorf("emissions = %d, want 0", got)
	}
	if q.Current() != nil {
		t.Error("Current() should stay nil")
	}
}

func TestClearKeepsCurrent(t *testing.T) {
	q, b := newTestQueue(t)

	first, err := q.Enqueue(testInstance(models.EventFollow, "one"))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	for _, name := range []string{"two", "three"} {
		if _, err := q.Enqueue(testInstance(models.EventFollow, name)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	if got := q.Clear(); got != 2 {
		t.Errorf("Clear = %d, want 2", got)
	}
	if got := q.Length(); got != 0 {
		t.Errorf("Length = %d, want 0", got)
	}
	if cur := q.Current(); cur == nil || cur.ID != first {
		t.Error("in-flight instance should survive Clear")
	}

	q.Complete(first)
	if got := len(b.emissions()); got != 1 {
		t.Errorf("emissions = %d, want 1 (cleared instances never play)", got)
	}
	if q.Current() != nil {
		t.Error("queue should be idle")
	}

	if got := q.Clear(); got != 0 {
		t.Errorf("Clear on empty queue = %d, want 0", got)
	}
}

func TestFallbackTimeoutAdvances(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the completion grace period")
	}
	q, b := newTestQueue(t)

	// Minimal display duration so the test mostly waits on the grace
	// second the timer adds.
	short := &models.AlertSpec{Alert: models.Alert{Type: models.EventFollow, DurationMs: 1}}

	first := testInstance(models.EventFollow, "one")
	first.Config = short
	firstID, err := q.Enqueue(first)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	secondID, err := q.Enqueue(testInstance(models.EventFollow, "two"))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	waitFor(t, 5*time.Second, func() bool {
		return len(b.emissions()) == 2
	}, "fallback timer never advanced the queue")

	cur := q.Current()
	if cur == nil || cur.ID != secondID {
		t.Fatal("second instance should be in flight after timeout")
	}

	// The overlay acking the timed-out instance afterwards is stale.
	q.Complete(firstID)
	if cur := q.Current(); cur == nil || cur.ID != secondID {
		t.Error("late ack for a timed-out instance must not advance")
	}

	q.Complete(secondID)
	if q.Current() != nil {
		t.Error("queue should be idle")
	}
}

func TestZeroClientsStillDispatches(t *testing.T) {
	q, b := newTestQueue(t)
	b.clients = 0

	id, err := q.Enqueue(testInstance(models.EventFollow, "viewer"))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if got := len(b.emissions()); got != 1 {
		t.Errorf("emissions = %d, want 1 even with no clients", got)
	}
	if cur := q.Current(); cur == nil || cur.ID != id {
		t.Error("instance should stay in flight for the fallback timer")
	}
}

func TestCurrentReturnsSnapshot(t *testing.T) {
	q, _ := newTestQueue(t)

	if _, err := q.Enqueue(testInstance(models.EventFollow, "viewer")); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	cur := q.Current()
	cur.Username = "tampered"

	if again := q.Current(); again.Username != "viewer" {
		t.Error("mutating the snapshot must not touch queue state")
	}
}

func TestConcurrentEnqueueAndAck(t *testing.T) {
	q, b := newTestQueue(t)

	const total = 20
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			if cur := q.Current(); cur != nil {
				q.Complete(cur.ID)
			}
			time.Sleep(time.Millisecond)
		}
	}()
	defer close(done)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < total/4; i++ {
				inst := testInstance(models.EventFollow, fmt.Sprintf("viewer-%d-%d", w, i))
				if _, err := q.Enqueue(inst); err != nil {
					t.Errorf("Enqueue failed: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	waitFor(t, 5*time.Second, func() bool {
		return len(b.emissions()) == total && q.Current() == nil
	}, "not all instances played to completion")

	seen := make(map[string]bool, total)
	for _, e := range b.emissions() {
		if seen[e.instance.ID] {
			t.Errorf("instance %s dispatched twice", e.instance.ID)
		}
		seen[e.instance.ID] = true
	}
	if got := q.Length(); got != 0 {
		t.Errorf("Length = %d, want 0", got)
	}
}
