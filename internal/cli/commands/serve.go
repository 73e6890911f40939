package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/excel"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/oracle"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/server"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/store"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the settlement assistant API server",
		Long: `Start the HTTP API: file upload and preview, AI-assisted field
mapping, batch transformation and template persistence.

Without an API key the matching oracle degrades to deterministic
name-similarity matching; rule generation is unavailable.`,
		Example: `  # Serve with defaults (port 3001)
  settlement serve

  # Serve with an explicit Gemini key
  settlement serve --api-key $GEMINI_API_KEY --port 8080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig()
			logger := newLogger(cfg)

			files, err := excel.NewFileStore(cfg.UploadsDir)
			if err != nil {
				return err
			}

			stateDir := filepath.Dir(cfg.StatePath)
			if stateDir != "." && stateDir != "" {
				if err := os.MkdirAll(stateDir, 0o750); err != nil {
					return fmt.Errorf("failed to create state directory: %w", err)
				}
			}
			templates := store.NewSQLiteStore()
			if err := templates.Open(cfg.StatePath); err != nil {
				return fmt.Errorf("failed to open template database: %w", err)
			}
			defer templates.Close()

			var svc oracle.Service
			if cfg.GeminiAPIKey != "" {
				svc = oracle.NewGemini(cfg.GeminiAPIKey, logger, oracle.WithModel(cfg.GeminiModel))
			} else {
				logger.Warn("no Gemini API key configured, using fallback matching")
				svc = oracle.NewFallback()
			}

			srv := server.NewServer(server.Config{
				Port:      cfg.Port,
				Files:     files,
				Oracle:    svc,
				Templates: templates,
				Logger:    logger,
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigChan
				logger.Info("shutting down...")
				cancel()
			}()

			return srv.Serve(ctx)
		},
	}
}
