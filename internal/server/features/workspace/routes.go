package workspace

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/mapping"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

// SetupRoutes registers the workspace feature routes.
func SetupRoutes(
	router chi.Router,
	registry *schema.Registry,
	reconciler *mapping.Reconciler,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(registry, reconciler, logger)

	router.Route("/api/workspace", func(r chi.Router) {
		r.Get("/target-fields", handlers.TargetFields)
		r.Post("/target-fields", handlers.AddTargetField)
		r.Put("/target-fields", handlers.ImportTargetFields)
		r.Patch("/target-fields/{id}", handlers.UpdateTargetField)
		r.Delete("/target-fields/{id}", handlers.RemoveTargetField)

		r.Get("/mappings", handlers.Mappings)
		r.Put("/mappings/{targetFieldID}/source", handlers.SelectSource)
		r.Put("/mappings/{targetFieldID}/rule", handlers.SetRule)

		r.Post("/apply-template", handlers.ApplyTemplate)
	})

	return nil
}
