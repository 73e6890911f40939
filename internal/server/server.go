// Package server runs the settlement assistant HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/batch"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/excel"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/mapping"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/oracle"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/server/router"
	templatesFeature "github.com/lipeng19940807-debug/ai-settlement-assistant/internal/server/features/templates"
)

// Server is the main API server.
type Server struct {
	port   int
	logger *slog.Logger
	deps   router.Deps
}

// Config holds configuration for the API server.
type Config struct {
	Port      int
	Files     *excel.FileStore
	Oracle    oracle.Service
	Templates templatesFeature.Store
	Logger    *slog.Logger
}

// NewServer wires the workspace state and creates a new server instance.
// The registry and reconciler are per-process: one settlement workspace
// per running server.
func NewServer(cfg Config) *Server {
	registry := schema.NewRegistry()
	reconciler := mapping.NewReconciler(registry, cfg.Oracle, cfg.Logger)
	transformer := batch.NewTransformer(cfg.Files, cfg.Logger)

	return &Server{
		port:   cfg.Port,
		logger: cfg.Logger,
		deps: router.Deps{
			Files:       cfg.Files,
			Registry:    registry,
			Reconciler:  reconciler,
			Transformer: transformer,
			Oracle:      cfg.Oracle,
			Templates:   cfg.Templates,
			Logger:      cfg.Logger,
		},
	}
}

// Handler builds the routed HTTP handler.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.deps); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the API server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting API server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
