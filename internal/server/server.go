// Package server exposes the analysis pipeline over HTTP for the dashboard.
// Merchant identity arrives in the X-Merchant-ID header; authentication
// itself lives upstream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/siteintel/internal/analyzer"
	"github.com/sells-group/siteintel/internal/store"
)

// Options configures the HTTP server.
type Options struct {
	Port           int
	AllowedOrigins []string
}

// Server holds the dependencies for the HTTP API.
type Server struct {
	store      store.Store
	analyzer   *analyzer.Analyzer
	opts       Options
	httpServer *http.Server
}

// New creates a Server.
func New(st store.Store, an *analyzer.Analyzer, opts Options) *Server {
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	s := &Server{store: st, analyzer: an, opts: opts}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	zap.L().Info("server: listening", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and drains in-flight analysis tasks.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return s.analyzer.Registry().Drain(ctx)
}
