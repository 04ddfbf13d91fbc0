package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/conneroisu/panesync/internal/session"
	"github.com/conneroisu/panesync/internal/testutils"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHub(t *testing.T, opts ...Option) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(testutils.NewSession(t, 250, 5), opts...)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(func() {
		hub.Shutdown(context.Background())
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func TestHello(t *testing.T) {
	hub, srv := newHub(t)
	conn := dial(t, srv)

	hello := read(t, conn)
	assert.Equal(t, MessageHello, hello.Type)
	assert.NotEmpty(t, hello.Client)
	require.NotNil(t, hello.Snapshot)
	assert.Len(t, hello.Snapshot.Panes, 4)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestEventsAreBroadcast(t *testing.T) {
	_, srv := newHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	helloA := read(t, a)
	read(t, b)

	send(t, a, session.Event{Type: session.EventPan, Pixels: 30})

	for _, conn := range []*websocket.Conn{a, b} {
		m := read(t, conn)
		assert.Equal(t, MessageStep, m.Type)
		assert.Equal(t, helloA.Client, m.Client)
		require.NotNil(t, m.Step)
		assert.Equal(t, session.EventPan, m.Step.Event)
		assert.Empty(t, m.Error)
	}
}

func TestInvalidEventRepliesToSenderOnly(t *testing.T) {
	_, srv := newHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	read(t, a)
	read(t, b)

	send(t, a, session.Event{Type: "zom"})
	m := read(t, a)
	assert.Equal(t, MessageError, m.Type)
	assert.Contains(t, m.Error, "zoom")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Write(ctx, websocket.MessageText, []byte("{not json")))
	m = read(t, a)
	assert.Equal(t, MessageError, m.Type)
	assert.Contains(t, m.Error, "decode")

	// b only sees the next valid event
	send(t, a, session.Event{Type: session.EventZoomExtents})
	assert.Equal(t, MessageStep, read(t, b).Type)
}

func TestApplyFailureIsBroadcastWithError(t *testing.T) {
	hub, srv := newHub(t)
	a := dial(t, srv)
	read(t, a)

	step, err := hub.Apply(context.Background(), "http", session.Event{Type: session.EventPan, Axis: "nope-x"})
	require.Error(t, err)
	require.NotNil(t, step)

	m := read(t, a)
	assert.Equal(t, MessageStep, m.Type)
	assert.Equal(t, "http", m.Client)
	assert.Contains(t, m.Error, "nope-x")

	_, err = hub.Apply(context.Background(), "http", session.Event{Type: session.EventResize, Width: 800, Height: 600})
	require.NoError(t, err)
	m = read(t, a)
	assert.Equal(t, session.EventResize, m.Step.Event)
	assert.Empty(t, m.Error)

	failed, _ := hub.Metrics().Value("events_total", map[string]string{"type": session.EventPan, "outcome": "failed"})
	assert.Equal(t, 1.0, failed)
	ok, _ := hub.Metrics().Value("events_total", map[string]string{"type": session.EventResize, "outcome": "ok"})
	assert.Equal(t, 1.0, ok)
	timed, _ := hub.Metrics().Value("event_apply_duration_seconds", map[string]string{"type": session.EventPan})
	assert.Equal(t, 1.0, timed)
	clients, _ := hub.Metrics().Value("clients", nil)
	assert.Equal(t, 1.0, clients)
}

func TestRateLimit(t *testing.T) {
	hub, srv := newHub(t, WithMessageRate(0, 1))
	a := dial(t, srv)
	read(t, a)

	send(t, a, session.Event{Type: session.EventPan, Pixels: 1})
	assert.Equal(t, MessageStep, read(t, a).Type)

	send(t, a, session.Event{Type: session.EventPan, Pixels: 1})
	m := read(t, a)
	assert.Equal(t, MessageError, m.Type)
	assert.Equal(t, "rate limit exceeded", m.Error)

	dropped, _ := hub.Metrics().Value("messages_dropped_total", map[string]string{"reason": "rate_limit"})
	assert.Equal(t, 1.0, dropped)
}

func TestOriginRejected(t *testing.T) {
	_, srv := newHub(t, WithAllowedOrigins("chart.example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"http://evil.example.com"}},
	})
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

func TestShutdown(t *testing.T) {
	hub, srv := newHub(t)
	a := dial(t, srv)
	read(t, a)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.True(t, hub.IsShutdown())
	assert.Zero(t, hub.ClientCount())

	rec := httptest.NewRecorder()
	hub.HandleWebSocket(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// second call is a no-op
	require.NoError(t, hub.Shutdown(context.Background()))
}
