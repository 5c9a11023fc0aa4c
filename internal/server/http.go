package server

import (
	"context"
	"log"
	"net/http"
	"time"
)

// Server wraps the HTTP server with sensible timeouts and graceful shutdown.
type Server struct {
	srv *http.Server
}

// New returns a Server listening on addr and serving the given handler.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start serves until Shutdown is called. It returns the ListenAndServe error,
// with the expected ErrServerClosed mapped to nil.
func (s *Server) Start() error {
	log.Printf("http: listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
