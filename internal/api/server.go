// Package api exposes the shopping list over HTTP: a single /api endpoint
// with action-dispatched reads and writes, plus a health check. All state
// lives in the backing spreadsheet; the server is stateless between
// requests.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmelero/compra/internal/ops"
	"github.com/dmelero/compra/internal/sheet"
)

// MembersSheet is the roster sheet tab.
const MembersSheet = "Miembros"

// membersHeaderRow is the 1-based row where the roster header sits.
const membersHeaderRow = 10

// Config holds what the server needs beyond its collaborators.
type Config struct {
	ListenAddr      string
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// Server is the HTTP API server. Audit writes flow through the ops service,
// not the server itself.
type Server struct {
	config Config
	http   *http.Server
	store  *sheet.Store
	ops    *ops.Service
}

// NewServer wires the server from its collaborators.
func NewServer(cfg Config, store *sheet.Store, opsSvc *ops.Service) *Server {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	s := &Server{config: cfg, store: store, ops: opsSvc}
	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Start begins listening for HTTP requests (non-blocking).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "err", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Routes builds the HTTP handler with all routes and middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api", s.handleAPI)
	return chain(mux, recoveryMiddleware, requestIDMiddleware, loggerMiddleware, loggingMiddleware, maxBytesMiddleware(s.config.MaxBodyBytes), corsMiddleware, noCacheMiddleware)
}

// handleHealth reports liveness. The spreadsheet is not probed: a store
// outage surfaces per request, not as a dead process.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAPI dispatches by method; OPTIONS is short-circuited by the CORS
// middleware before it reaches here.
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodPost:
		s.handlePost(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed", "")
	}
}
