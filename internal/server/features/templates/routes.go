package templates

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers the templates feature routes.
func SetupRoutes(router chi.Router, s Store, logger *slog.Logger) error {
	handlers := NewHandlers(s, logger)

	router.Route("/api/templates", func(r chi.Router) {
		r.Get("/", handlers.List)
		r.Post("/", handlers.Save)
		r.Get("/{id}", handlers.Get)
		r.Delete("/{id}", handlers.Delete)
	})

	return nil
}
