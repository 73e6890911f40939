package excelapi

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/batch"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/excel"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/mapping"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

// SetupRoutes registers the excel feature routes.
func SetupRoutes(
	router chi.Router,
	files *excel.FileStore,
	registry *schema.Registry,
	reconciler *mapping.Reconciler,
	transformer *batch.Transformer,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(files, registry, reconciler, transformer, logger)

	router.Route("/api/excel", func(r chi.Router) {
		r.Post("/upload", handlers.Upload)
		r.Get("/files", handlers.Files)
		r.Get("/preview/{fileID}", handlers.Preview)
		r.Delete("/{fileID}", handlers.Delete)
		r.Post("/process", handlers.Process)
		r.Post("/export", handlers.Export)
	})

	return nil
}
