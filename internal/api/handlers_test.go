// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/streamforge/streamforge-server/internal/config"
	"github.com/streamforge/streamforge-server/internal/eventlog"
	"github.com/streamforge/streamforge-server/internal/hub"
	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/queue"
	"github.com/streamforge/streamforge-server/internal/repository"
	"github.com/streamforge/streamforge-server/internal/resolver"
	"github.com/streamforge/streamforge-server/internal/store"
)

func init() {
	logging.Init(logging.Config{Level: "disabled"})
}

// testPort is the port the health endpoint reports in tests.
const testPort = 39283

type testServer struct {
	handlers *Handlers
	router   http.Handler
	repos    *repository.Repositories
	queue    *queue.Queue
	hub      *hub.Hub
	events   *eventlog.Service
}

// newTestServer assembles the whole API over a fresh store. The rate
// limit is set high enough that tests never trip it.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	repos := repository.New(s)
	h := hub.New(hub.Options{})
	q := queue.New(h)
	t.Cleanup(q.Stop)

	if err := RegisterAlertAcks(h, q); err != nil {
		t.Fatalf("RegisterAlertAcks() error = %v", err)
	}

	events := eventlog.NewService(repos.Events)
	handlers := NewHandlers(repos, resolver.New(repos.Alerts, repos.Variations), q, h, events, testPort)
	router := NewRouter(handlers, config.APIConfig{
		RateLimitRequests: 100000,
		RateLimitWindow:   time.Minute,
	})

	return &testServer{
		handlers: handlers,
		router:   router,
		repos:    repos,
		queue:    q,
		hub:      h,
		events:   events,
	}
}

// do runs one request through the router. A non-nil body is sent as JSON.
func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// doRaw sends a verbatim body, for malformed-JSON cases.
func (ts *testServer) doRaw(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// wantErrorCode asserts the envelope shape and returns the message.
func wantErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) string {
	t.Helper()
	wantStatus(t, rec, status)

	var body errorBody
	decodeInto(t, rec, &body)
	if body.Error.Code != code {
		t.Fatalf("error code = %q, want %q (body %s)", body.Error.Code, code, rec.Body.String())
	}
	if body.Error.Message == "" {
		t.Error("error message is empty")
	}
	return body.Error.Message
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/health", nil)
	wantStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body healthResponse
	decodeInto(t, rec, &body)
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Port != testPort {
		t.Errorf("port = %d, want %d", body.Port, testPort)
	}
	if body.UptimeSeconds < 0 {
		t.Errorf("uptime_seconds = %d, want >= 0", body.UptimeSeconds)
	}
}

func TestWSStatusEmpty(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/ws/status", nil)
	wantStatus(t, rec, http.StatusOK)

	var body wsStatusResponse
	decodeInto(t, rec, &body)
	want := []string{"/alerts", "/chat", "/widgets", "/dashboard"}
	if len(body.Namespaces) != len(want) {
		t.Fatalf("namespaces = %v, want %v", body.Namespaces, want)
	}
	for i := range want {
		if body.Namespaces[i] != want[i] {
			t.Errorf("namespaces[%d] = %q, want %q", i, body.Namespaces[i], want[i])
		}
	}
	if body.TotalClients != 0 {
		t.Errorf("totalClients = %d, want 0", body.TotalClients)
	}
	for ns, n := range body.Clients {
		if n != 0 {
			t.Errorf("clients[%s] = %d, want 0", ns, n)
		}
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/no/such/route", nil)
	wantErrorCode(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestMethodNotAllowedEnvelope(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPatch, "/api/alerts", nil)
	wantErrorCode(t, rec, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
}

func TestMetricsExposition(t *testing.T) {
	ts := newTestServer(t)

	// Generate at least one instrumented request first.
	ts.do(t, http.MethodGet, "/api/health", nil)

	rec := ts.do(t, http.MethodGet, "/metrics", nil)
	wantStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	for _, metric := range []string{"api_requests_total", "alert_queue_pending", "websocket_connections"} {
		if !strings.Contains(body, metric) {
			t.Errorf("exposition missing %s", metric)
		}
	}
}

func TestRateLimitEnvelope(t *testing.T) {
	ts := newTestServer(t)
	limited := NewRouter(ts.handlers, config.APIConfig{
		RateLimitRequests: 3,
		RateLimitWindow:   time.Minute,
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		last = httptest.NewRecorder()
		limited.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("4th request status = %d, want 429", last.Code)
	}
	var body errorBody
	decodeInto(t, last, &body)
	if body.Error.Code != "RATE_LIMITED" {
		t.Errorf("error code = %q, want RATE_LIMITED", body.Error.Code)
	}

	// The limiter is scoped to /api: the metrics endpoint stays open.
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics status = %d, want 200 while /api is limited", rec.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "trace-abc")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "trace-abc" {
		t.Errorf("X-Request-ID = %q, want trace-abc", got)
	}
}

func TestSecurityHeadersOnAPI(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/health", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestCORSPreflightThroughRouter(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/alerts", nil)
	req.Header.Set("Origin", "tauri://localhost")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "tauri://localhost" {
		t.Errorf("Access-Control-Allow-Origin = %q, want tauri://localhost", got)
	}
}
