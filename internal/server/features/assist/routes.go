package assist

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/oracle"
)

// SetupRoutes registers the assist feature routes.
func SetupRoutes(router chi.Router, svc oracle.Service, logger *slog.Logger) error {
	handlers := NewHandlers(svc, logger)

	router.Route("/api/ai", func(r chi.Router) {
		r.Post("/field-mapping", handlers.FieldMapping)
		r.Post("/generate-code", handlers.GenerateCode)
		r.Post("/file-summary", handlers.FileSummary)
		r.Post("/parse-template", handlers.ParseTemplate)
	})

	return nil
}
