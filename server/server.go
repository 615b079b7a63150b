// Package server exposes the chat store over HTTP.
//
// Routes:
//
//	POST /who_chat/get     {name,password}          -> plaintext
//	POST /who_chat/post    {name,password,content}  -> "Posted!"
//	POST /who_chat/delete  {name,password}          -> "Deleted!"
//	GET  /healthz, GET /readyz, GET /metrics
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bitfsorg/whochat/chat"
)

// DefaultMaxBodyBytes bounds request bodies when Options leaves it unset.
const DefaultMaxBodyBytes = 64 << 10

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	MaxBodyBytes int64
	Logger       zerolog.Logger
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// Server serves the chat routes.
type Server struct {
	store   *chat.Store
	maxBody int64
	log     zerolog.Logger
	metrics http.Handler
	ready   atomic.Bool
}

// New creates a Server over store. It starts out not ready.
func New(store *chat.Store, opts Options) *Server {
	s := &Server{
		store:   store,
		maxBody: opts.MaxBodyBytes,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	return s
}

// SetReady marks the server ready or not ready for /readyz.
func (s *Server) SetReady(v bool) { s.ready.Store(v) }

// Ready reports the readiness state.
func (s *Server) Ready() bool { return s.ready.Load() }

// Handler returns the routed handler wrapped with request ids and access
// logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /who_chat/get", s.handleGet)
	mux.HandleFunc("POST /who_chat/post", s.handlePost)
	mux.HandleFunc("POST /who_chat/delete", s.handleDelete)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return RequestID(AccessLog(s.log)(mux))
}

// ListenAndServe listens on addr and serves until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. The server is marked ready
// while serving.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.SetReady(true)
	s.log.Info().Str("addr", ln.Addr().String()).Msg("server started")

	select {
	case err := <-errCh:
		s.SetReady(false)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.log.Info().Msg("shutdown complete")
	return nil
}
