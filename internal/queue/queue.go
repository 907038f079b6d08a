// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

// Package queue serializes alert playback. Overlays can only show one
// alert at a time, so resolved instances wait in a FIFO line: the head
// is dispatched to the /alerts namespace and the next one moves up only
// after the overlay acks completion or a fallback timer gives up on it.
// A dead or absent overlay therefore never wedges the queue.
package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/metrics"
	"github.com/streamforge/streamforge-server/internal/models"
	"github.com/streamforge/streamforge-server/internal/repository"
)

const (
	alertsNamespace   = "/alerts"
	eventAlertTrigger = "alert:trigger"

	// completionGrace extends the fallback timer past the configured
	// display duration so a healthy overlay always acks first.
	completionGrace = time.Second
)

// Broadcaster pushes queue events to connected clients and reports how
// many received them. The hub satisfies this.
type Broadcaster interface {
	Emit(namespace, event string, payload any) int
}

// Queue is the single-playback alert scheduler. All state lives behind
// one mutex; the lock is never held across a broadcast.
type Queue struct {
	broadcaster Broadcaster

	mu         sync.Mutex
	pending    []*models.AlertInstance
	current    *models.AlertInstance
	processing bool
	fallback   *time.Timer
}

// New creates an idle queue that dispatches through b.
func New(b Broadcaster) *Queue {
	return &Queue{broadcaster: b}
}

// Enqueue validates and schedules one alert instance, filling the
// server-owned fields (id, enqueue timestamp, display config defaults).
// When the queue is idle the instance is dispatched immediately.
// Returns the instance id.
func (q *Queue) Enqueue(inst *models.AlertInstance) (string, error) {
	if !inst.Type.Valid() {
		return "", fmt.Errorf("unknown event type %q: %w", inst.Type, repository.ErrValidation)
	}
	if inst.Username == "" {
		return "", fmt.Errorf("username is required: %w", repository.ErrValidation)
	}

	if inst.ID == "" {
		inst.ID = uuid.New().String()
	}
	if inst.DisplayName == "" {
		inst.DisplayName = inst.Username
	}
	if inst.Config == nil {
		spec := models.AlertSpec{Alert: models.DefaultAlert(inst.Type)}
		inst.Config = &spec
	}
	if inst.Config.MessageTemplate == nil {
		tmpl := models.DefaultMessageTemplate(inst.Type)
		inst.Config.MessageTemplate = &tmpl
	}
	inst.Timestamp = models.Now()

	q.mu.Lock()
	q.pending = append(q.pending, inst)
	metrics.UpdateQueuePending(len(q.pending))
	next := q.advanceLocked()
	q.mu.Unlock()

	logging.Debug().
		Str("instance_id", inst.ID).
		Str("type", string(inst.Type)).
		Msg("Alert enqueued")
	q.dispatch(next)
	return inst.ID, nil
}

// Complete acks the in-flight instance and advances the queue. An
// empty id acks whatever is current; a non-empty id that does not match
// the current instance is a stale ack and is ignored. The first of
// {ack, fallback timeout} wins, the loser is a no-op.
func (q *Queue) Complete(instanceID string) {
	q.mu.Lock()
	if q.current == nil {
		q.mu.Unlock()
		logging.Debug().Str("instance_id", instanceID).Msg("Completion ack with no alert in flight")
		return
	}
	if instanceID != "" && instanceID != q.current.ID {
		currentID := q.current.ID
		q.mu.Unlock()
		logging.Warn().
			Str("instance_id", instanceID).
			Str("current_id", currentID).
			Msg("Stale completion ack ignored")
		return
	}

	q.finishLocked(metrics.CompletionAck)
	next := q.advanceLocked()
	q.mu.Unlock()
	q.dispatch(next)
}

// Length reports how many instances wait behind the in-flight one.
func (q *Queue) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Clear discards every pending instance and returns how many were
// dropped. The in-flight instance, if any, keeps playing.
func (q *Queue) Clear() int {
	q.mu.Lock()
	cleared := len(q.pending)
	q.pending = nil
	metrics.UpdateQueuePending(0)
	q.mu.Unlock()

	if cleared > 0 {
		metrics.RecordQueueCleared(cleared)
		logging.Info().Int("cleared", cleared).Msg("Alert queue cleared")
	}
	return cleared
}

// Current returns a snapshot of the in-flight instance, or nil when
// the queue is idle.
func (q *Queue) Current() *models.AlertInstance {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return nil
	}
	snapshot := *q.current
	return &snapshot
}

// Stop cancels the armed fallback timer. Called once on shutdown.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fallback != nil {
		q.fallback.Stop()
		q.fallback = nil
	}
}

// advanceLocked promotes the next pending instance when nothing is
// playing and arms its fallback timer. Returns the promoted instance
// for the caller to dispatch after releasing the lock, or nil.
func (q *Queue) advanceLocked() *models.AlertInstance {
	if q.processing || len(q.pending) == 0 {
		return nil
	}

	inst := q.pending[0]
	q.pending = q.pending[1:]
	q.current = inst
	q.processing = true
	metrics.UpdateQueuePending(len(q.pending))

	instanceID := inst.ID
	q.fallback = time.AfterFunc(fallbackDuration(inst), func() {
		q.timeout(instanceID)
	})
	return inst
}

// finishLocked retires the current instance and disarms its timer.
func (q *Queue) finishLocked(reason string) {
	if q.fallback != nil {
		q.fallback.Stop()
		q.fallback = nil
	}
	q.current = nil
	q.processing = false
	metrics.RecordAlertCompleted(reason)
}

// timeout is the fallback timer body. The instance id pins it to the
// playback it was armed for: if an ack already advanced the queue the
// id no longer matches and the timer does nothing.
func (q *Queue) timeout(instanceID string) {
	q.mu.Lock()
	if q.current == nil || q.current.ID != instanceID {
		q.mu.Unlock()
		return
	}

	logging.Warn().
		Str("instance_id", instanceID).
		Msg("No completion ack before fallback timeout, advancing queue")
	q.finishLocked(metrics.CompletionTimeout)
	next := q.advanceLocked()
	q.mu.Unlock()
	q.dispatch(next)
}

// dispatch broadcasts a newly promoted instance. Zero connected
// overlay clients is survivable: the fallback timer is already armed
// and will retire the instance.
func (q *Queue) dispatch(inst *models.AlertInstance) {
	if inst == nil {
		return
	}

	delivered := q.broadcaster.Emit(alertsNamespace, eventAlertTrigger, inst)
	metrics.RecordAlertTriggered()
	if delivered == 0 {
		logging.Warn().
			Str("instance_id", inst.ID).
			Msg("Alert dispatched with no overlay clients connected")
		return
	}
	logging.Debug().
		Str("instance_id", inst.ID).
		Int("clients", delivered).
		Msg("Alert dispatched")
}

// fallbackDuration computes how long to wait for an ack: the display
// duration plus a grace second.
func fallbackDuration(inst *models.AlertInstance) time.Duration {
	ms := models.DefaultDurationMs
	if inst.Config != nil && inst.Config.DurationMs > 0 {
		ms = inst.Config.DurationMs
	}
	return time.Duration(ms)*time.Millisecond + completionGrace
}
