// Package server exposes a live chart session over HTTP: a status page, a
// JSON API for snapshots and events, and the websocket endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/conneroisu/panesync/internal/config"
	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/logging"
	"github.com/conneroisu/panesync/internal/session"
	"github.com/conneroisu/panesync/internal/validation"
	"github.com/conneroisu/panesync/internal/version"
	"github.com/conneroisu/panesync/internal/websocket"
	"golang.org/x/net/netutil"
)

const maxEventBody = 64 << 10

// Server serves one session hub.
type Server struct {
	config config.ServerConfig
	hub    *websocket.Hub
	logger logging.Logger
	start  time.Time

	httpServer  *http.Server
	serverMutex sync.Mutex
}

// New creates a server for hub.
func New(cfg config.ServerConfig, hub *websocket.Hub, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		config: cfg,
		hub:    hub,
		logger: logger.WithComponent("server"),
		start:  time.Now(),
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", templ.Handler(s.statusPage()))
	mux.HandleFunc("GET /ws", s.hub.HandleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.hub.Metrics().Handler())
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /api/events", s.handleEvent)
	return s.addMiddleware(mux)
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return charterrors.NewNetworkError(charterrors.ErrCodeInternalError, "cannot listen on "+s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done. Connections beyond
// server.max_connections wait for a free slot.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.config.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.config.MaxConnections)
	}

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(shutdownCtx, err, "shutdown incomplete")
		}
	}()

	s.logger.Info(ctx, "serving", "addr", ln.Addr().String(), "max_connections", s.config.MaxConnections)
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return charterrors.NewNetworkError(charterrors.ErrCodeInternalError, "server error", err)
	}
	return nil
}

// Shutdown closes the hub's clients and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.hub.Shutdown(ctx); err != nil {
		return err
	}
	s.serverMutex.Lock()
	server := s.httpServer
	s.serverMutex.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (s *Server) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request", "method", r.Method, "path", r.URL.Path,
			"duration_us", time.Since(start).Microseconds())
	})
}

// isAllowedOrigin matches the origin's host against the configured
// patterns, which use path.Match syntax like the websocket upgrade does.
func (s *Server) isAllowedOrigin(origin string) bool {
	return validation.ValidateOrigin(origin, s.config.AllowedOrigins) == nil
}

type healthResponse struct {
	Status    string             `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
	Uptime    string             `json:"uptime"`
	Clients   int                `json:"clients"`
	Build     *version.BuildInfo `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(s.start).Round(time.Second).String(),
		Clients:   s.hub.ClientCount(),
		Build:     version.Get(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Snapshot())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var e session.Event
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	if err := dec.Decode(&e); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "cannot decode event: " + err.Error(),
			Code: charterrors.ErrCodeDecodeFailed})
		return
	}

	step, err := s.hub.Apply(r.Context(), "http", e)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if step == nil {
			status = http.StatusBadRequest
		}
		var ce *charterrors.ChartError
		resp := errorResponse{Error: charterrors.FormatErrorWithSuggestions(err)}
		if errors.As(err, &ce) {
			resp.Code = ce.Code
		}
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// writeJSON encodes before writing the header, so an unencodable value
// becomes a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"response not encodable"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}
