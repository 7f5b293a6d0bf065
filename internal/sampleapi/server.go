package sampleapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/samvad-hq/completion-bench/internal/logger"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Server runs the sample API until its context ends.
type Server struct {
	http *http.Server
	log  logger.Logger
}

// NewServer builds a server for addr serving count books per listing.
func NewServer(addr string, count int, log logger.Logger) *Server {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      NewHandler(count, log).Routes(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.InfoObj("sample api listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.log.InfoObj("sample api stopped", "reason", fmt.Sprint(ctx.Err()))
		return nil
	})

	return g.Wait()
}
