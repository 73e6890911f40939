// Package router sets up HTTP routes for the API server.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/batch"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/excel"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/mapping"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/oracle"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
	assistFeature "github.com/lipeng19940807-debug/ai-settlement-assistant/internal/server/features/assist"
	excelFeature "github.com/lipeng19940807-debug/ai-settlement-assistant/internal/server/features/excelapi"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/server/features/common"
	templatesFeature "github.com/lipeng19940807-debug/ai-settlement-assistant/internal/server/features/templates"
	workspaceFeature "github.com/lipeng19940807-debug/ai-settlement-assistant/internal/server/features/workspace"
)

// Deps collects everything the feature packages need.
type Deps struct {
	Files       *excel.FileStore
	Registry    *schema.Registry
	Reconciler  *mapping.Reconciler
	Transformer *batch.Transformer
	Oracle      oracle.Service
	Templates   templatesFeature.Store
	Logger      *slog.Logger
}

// SetupRoutes configures all routes for the API server.
func SetupRoutes(router chi.Router, deps Deps) error {
	router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		common.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if err := excelFeature.SetupRoutes(router, deps.Files, deps.Registry, deps.Reconciler, deps.Transformer, deps.Logger); err != nil {
		return err
	}

	if err := assistFeature.SetupRoutes(router, deps.Oracle, deps.Logger); err != nil {
		return err
	}

	if err := templatesFeature.SetupRoutes(router, deps.Templates, deps.Logger); err != nil {
		return err
	}

	if err := workspaceFeature.SetupRoutes(router, deps.Registry, deps.Reconciler, deps.Logger); err != nil {
		return err
	}

	return nil
}
