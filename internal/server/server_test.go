package server

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/conneroisu/panesync/internal/config"
	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/session"
	"github.com/conneroisu/panesync/internal/testutils"
	"github.com/conneroisu/panesync/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	hub := websocket.NewHub(testutils.NewSession(t, 220, 9))
	t.Cleanup(func() { hub.Shutdown(context.Background()) })
	return New(config.ServerConfig{
		Host:           "127.0.0.1",
		AllowedOrigins: []string{"localhost:*"},
		MaxConnections: 4,
	}, hub, nil)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Zero(t, health.Clients)
	require.NotNil(t, health.Build)
}

func TestWriteJSONUnencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"distance": math.NaN()})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]float64{"distance": 1.5})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"distance":1.5}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	s := newServer(t)
	h := s.Handler()
	do(t, h, http.MethodPost, "/api/events", `{"type":"pan","pixels":10}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Metrics []struct {
			Name   string            `json:"name"`
			Value  float64           `json:"value"`
			Labels map[string]string `json:"labels"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	var found bool
	for _, m := range body.Metrics {
		if m.Name == "panesync_events_total" && m.Labels["type"] == "pan" {
			found = true
			assert.Equal(t, 1.0, m.Value)
			assert.Equal(t, "ok", m.Labels["outcome"])
		}
	}
	assert.True(t, found)
}

func TestSnapshot(t *testing.T) {
	s := newServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.Panes, 4)
	assert.Equal(t, "price", snap.Panes[0].ID)
}

func TestPostEvent(t *testing.T) {
	s := newServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/events", `{"type":"resize","width":640,"height":480}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var step session.Step
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &step))
	assert.Equal(t, session.EventResize, step.Event)
	assert.Equal(t, 640.0, step.Snapshot.Panes[0].Bounds.Width)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"type":`, http.StatusBadRequest, charterrors.ErrCodeDecodeFailed},
		{"invalid", `{"type":"zoom","factor":-1}`, http.StatusBadRequest, charterrors.ErrCodeInvalidEvent},
		{"unknown axis", `{"type":"pan","axis":"nope-x"}`, http.StatusUnprocessableEntity, charterrors.ErrCodeAxisNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/events", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestMethodRouting(t *testing.T) {
	s := newServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/events", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatusPage(t *testing.T) {
	s := newServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<h1>panesync")
	for _, id := range []string{"price", "macd", "rsi", "volume"} {
		assert.Contains(t, body, "<td>"+id+"</td>")
	}
	assert.Contains(t, body, "0 connected clients")
}

func TestCORS(t *testing.T) {
	s := newServer(t)
	h := s.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/events", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeStopsOnCancel(t *testing.T) {
	s := newServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
