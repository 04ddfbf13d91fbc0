// Package websocket shares one live chart session between browser clients.
// Every client may send events; the hub applies them one at a time and
// broadcasts each outcome to all clients.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/logging"
	"github.com/conneroisu/panesync/internal/monitoring"
	"github.com/conneroisu/panesync/internal/session"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Message types sent to clients.
const (
	MessageHello = "hello"
	MessageStep  = "step"
	MessageError = "error"
)

const (
	sendBuffer   = 64
	readLimit    = 64 << 10
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Message is the JSON frame sent to clients.
type Message struct {
	Type      string            `json:"type"`
	Client    string            `json:"client,omitempty"`
	Step      *session.Step     `json:"step,omitempty"`
	Snapshot  *session.Snapshot `json:"snapshot,omitempty"`
	Error     string            `json:"error,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Client is one connected browser.
type Client struct {
	ID      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

// Hub owns the session and the connected clients.
//
// Clients are removed by the hub goroutine only; the session is guarded by
// sessionMu since HTTP handlers may apply events too.
type Hub struct {
	session   *session.Session
	sessionMu sync.Mutex

	clients   map[string]*Client
	clientsMu sync.RWMutex

	broadcast  chan []byte
	unregister chan *Client

	origins     []string
	messageRate rate.Limit
	burst       int
	logger      logging.Logger
	metrics     *monitoring.MetricsCollector

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	isShutdown   atomic.Bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithAllowedOrigins sets the origin patterns accepted on upgrade. Without
// any, only same-host requests are accepted.
func WithAllowedOrigins(patterns ...string) Option {
	return func(h *Hub) { h.origins = patterns }
}

// WithMessageRate limits the events each client may send.
func WithMessageRate(limit rate.Limit, burst int) Option {
	return func(h *Hub) {
		h.messageRate = limit
		h.burst = burst
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetrics sets the collector for event and client metrics.
func WithMetrics(mc *monitoring.MetricsCollector) Option {
	return func(h *Hub) {
		if mc != nil {
			h.metrics = mc
		}
	}
}

// NewHub starts a hub over s.
func NewHub(s *session.Session, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		session:     s,
		clients:     make(map[string]*Client),
		broadcast:   make(chan []byte, 256),
		unregister:  make(chan *Client, 32),
		messageRate: 20,
		burst:       40,
		logger:      logging.NewNopLogger(),
		metrics:     monitoring.NewMetricsCollector("panesync"),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithComponent("websocket").With("session", s.ID)

	go h.run()
	return h
}

// HandleWebSocket upgrades the request and serves the client until it
// disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.isShutdown.Load() {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.origins,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "websocket upgrade failed", "remote", r.RemoteAddr)
		return
	}
	conn.SetReadLimit(readLimit)

	client := &Client{
		ID:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(h.messageRate, h.burst),
	}

	snap := h.Snapshot()
	if hello, err := encode(Message{Type: MessageHello, Client: client.ID, Snapshot: &snap}); err == nil {
		client.send <- hello
	}

	h.clientsMu.Lock()
	if h.isShutdown.Load() {
		h.clientsMu.Unlock()
		conn.Close(websocket.StatusServiceRestart, "server shutting down")
		return
	}
	h.clients[client.ID] = client
	h.metrics.Gauge("clients", float64(len(h.clients)), nil)
	h.clientsMu.Unlock()

	h.logger.Info(r.Context(), "client connected", "client", client.ID, "remote", r.RemoteAddr)
	h.serve(client)
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c.ID]
	if ok {
		delete(h.clients, c.ID)
		close(c.send)
		h.metrics.Gauge("clients", float64(len(h.clients)), nil)
	}
	h.clientsMu.Unlock()
	if ok {
		h.logger.Info(h.ctx, "client disconnected", "client", c.ID)
	}
}

func (h *Hub) fanOut(msg []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// slow consumer; its reader notices the closed conn and unregisters
			go c.conn.Close(websocket.StatusPolicyViolation, "send buffer full")
		}
	}
}

func (h *Hub) serve(c *Client) {
	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
	}()

	go h.writePump(ctx, c)
	h.readPump(ctx, c)
}

func (h *Hub) readPump(ctx context.Context, c *Client) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				h.logger.Debug(ctx, "read ended", "client", c.ID, "error", err.Error())
			}
			return
		}
		h.handleMessage(ctx, c, data)
	}
}

func (h *Hub) writePump(ctx context.Context, c *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleMessage(ctx context.Context, c *Client, data []byte) {
	if !c.limiter.Allow() {
		h.metrics.Counter("messages_dropped_total", map[string]string{"reason": "rate_limit"})
		h.reply(c, Message{Type: MessageError, Error: "rate limit exceeded"})
		return
	}

	var e session.Event
	if err := json.Unmarshal(data, &e); err != nil {
		h.metrics.Counter("messages_dropped_total", map[string]string{"reason": "decode"})
		h.reply(c, Message{Type: MessageError,
			Error: charterrors.WrapData(err, charterrors.ErrCodeDecodeFailed, "cannot decode event").Error()})
		return
	}
	if _, err := h.Apply(ctx, c.ID, e); err != nil {
		h.reply(c, Message{Type: MessageError, Error: charterrors.FormatErrorWithSuggestions(err)})
	}
}

// Apply applies one event and broadcasts the outcome to every client.
// Events that fail validation are not broadcast.
func (h *Hub) Apply(ctx context.Context, clientID string, e session.Event) (*session.Step, error) {
	stop := h.metrics.Timer("event_apply", map[string]string{"type": e.Type})
	h.sessionMu.Lock()
	step, err := h.session.Apply(ctx, e)
	h.sessionMu.Unlock()
	stop()

	outcome := "ok"
	switch {
	case step == nil:
		outcome = "invalid"
	case err != nil:
		outcome = "failed"
	}
	h.metrics.Counter("events_total", map[string]string{"type": e.Type, "outcome": outcome})

	if step == nil {
		return nil, err
	}

	msg := Message{Type: MessageStep, Client: clientID, Step: step}
	if err != nil {
		msg.Error = err.Error()
	}
	data, encErr := encode(msg)
	if encErr != nil {
		h.metrics.Counter("messages_dropped_total", map[string]string{"reason": "encode"})
		h.logger.Warn(ctx, encErr, "step not broadcast", "event", e.Type)
		return step, err
	}
	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	}
	return step, err
}

// Metrics returns the hub's collector.
func (h *Hub) Metrics() *monitoring.MetricsCollector { return h.metrics }

// Snapshot returns the current layout state.
func (h *Hub) Snapshot() session.Snapshot {
	h.sessionMu.Lock()
	defer h.sessionMu.Unlock()
	return h.session.Snapshot()
}

func (h *Hub) reply(c *Client, m Message) {
	data, err := encode(m)
	if err != nil {
		return
	}
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func encode(m Message) ([]byte, error) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return json.Marshal(m)
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// IsShutdown reports whether Shutdown ran.
func (h *Hub) IsShutdown() bool { return h.isShutdown.Load() }

// Shutdown closes every client and stops the hub.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(func() {
		h.isShutdown.Store(true)
		h.cancel()

		h.clientsMu.Lock()
		for id, c := range h.clients {
			close(c.send)
			c.conn.Close(websocket.StatusGoingAway, "server shutdown")
			delete(h.clients, id)
		}
		h.clientsMu.Unlock()
		h.logger.Info(ctx, "hub shut down")
	})
	return nil
}
