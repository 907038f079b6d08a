// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Completion reasons for alert instances.
const (
	CompletionAck     = "ack"
	CompletionTimeout = "timeout"
)

var processStart = time.Now()

var (
	// Alert queue metrics
	QueuePending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alert_queue_pending",
			Help: "Alert instances waiting behind the one currently playing",
		},
	)

	AlertsTriggered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_triggered_total",
			Help: "Alert instances dispatched to the overlay",
		},
	)

	AlertsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_completed_total",
			Help: "Alert instances retired, by completion reason",
		},
		[]string{"reason"}, // "ack" or "timeout"
	)

	QueueCleared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_queue_cleared_total",
			Help: "Pending alert instances discarded by queue clears",
		},
	)

	// WebSocket metrics
	WSConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of connected WebSocket clients",
		},
		[]string{"namespace"},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total WebSocket messages delivered to clients",
		},
		[]string{"namespace"},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total WebSocket messages received from clients",
		},
		[]string{"namespace"},
	)

	WSClientsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_clients_dropped_total",
			Help: "Clients disconnected by the server, by cause",
		},
		[]string{"namespace", "reason"},
	)

	WSMessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Inbound messages shed by the per-client rate limiter",
		},
		[]string{"namespace"},
	)

	// Event log metrics
	EventsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_logged_total",
			Help: "Stream events recorded in the event log",
		},
		[]string{"event_type", "alert_fired"},
	)

	EventLogPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_log_pruned_total",
			Help: "Event log entries removed by retention pruning",
		},
	)

	// HTTP metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// System metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Seconds since the process started",
		},
		func() float64 { return time.Since(processStart).Seconds() },
	)
)

// SetAppInfo publishes the running version. Call once at startup.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// RecordAPIRequest records one finished API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAlertTriggered records an instance dispatched to the overlay.
func RecordAlertTriggered() {
	AlertsTriggered.Inc()
}

// RecordAlertCompleted records an instance retired by ack or timeout.
func RecordAlertCompleted(reason string) {
	AlertsCompleted.WithLabelValues(reason).Inc()
}

// UpdateQueuePending updates the pending-alerts gauge.
func UpdateQueuePending(pending int) {
	QueuePending.Set(float64(pending))
}

// RecordQueueCleared records pending instances discarded by a clear.
func RecordQueueCleared(count int) {
	QueueCleared.Add(float64(count))
}

// RecordEventLogged records one event-log write.
func RecordEventLogged(eventType string, alertFired bool) {
	fired := "false"
	if alertFired {
		fired = "true"
	}
	EventsLogged.WithLabelValues(eventType, fired).Inc()
}

// RecordEventLogPruned records entries removed by retention pruning.
func RecordEventLogPruned(count int64) {
	if count > 0 {
		EventLogPruned.Add(float64(count))
	}
}
