// Package server hosts pair data for the drill and accepts the quit beacon.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/minipair/internal/pairs"
	"github.com/verte-zerg/minipair/internal/shutdown"
)

// ShutdownTimeout bounds graceful shutdown before connections are closed.
const ShutdownTimeout = 3 * time.Second

// Config describes what to serve.
type Config struct {
	Dir string
}

// Server serves a pair data directory.
type Server struct {
	cfg    Config
	logger *zap.Logger

	once     sync.Once
	shutdown chan struct{}
}

// New constructs a Server.
func New(cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		shutdown: make(chan struct{}),
	}
}

// ShutdownRequested is closed after a POST to the shutdown endpoint.
func (s *Server) ShutdownRequested() <-chan struct{} {
	return s.shutdown
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(noCache)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	r.Post(shutdown.Path, s.handleShutdown)
	r.Get("/"+pairs.DataDir+"/{id}", s.handleRecord)
	r.Handle("/*", http.FileServer(http.Dir(s.cfg.Dir)))
	return r
}

func (s *Server) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	s.once.Do(func() {
		s.logger.Info("shutdown requested by client")
		close(s.shutdown)
	})
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !pairs.ValidID(id) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.cfg.Dir, pairs.DataDir, id))
}

// Serve runs until ctx is done or a client requests shutdown, then drains
// connections for up to ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-s.shutdown:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("graceful shutdown timed out, closing connections", zap.Error(err))
			return httpServer.Close()
		}
		return nil
	})
	return g.Wait()
}
