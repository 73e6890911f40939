package templates

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/server/features/common"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/store"
)

// Handlers provides HTTP handlers for the templates feature.
type Handlers struct {
	store  Store
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(s Store, logger *slog.Logger) *Handlers {
	return &Handlers{store: s, logger: logger}
}

// List returns all stored templates.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.List()
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "list templates: %v", err)
		return
	}
	if all == nil {
		all = []*store.Template{}
	}
	common.WriteJSON(w, http.StatusOK, all)
}

// Save persists a template bundle. Saving under an existing name replaces
// that template's content but keeps its identity.
func (h *Handlers) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := common.Decode(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if req.Name == "" {
		common.WriteError(w, http.StatusBadRequest, "template name must not be empty")
		return
	}

	tpl, err := h.store.Save(req.Name, req.TargetFields, req.FieldMappings)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "save template: %v", err)
		return
	}

	h.logger.Info("template saved", "id", tpl.ID, "name", tpl.Name)
	common.WriteJSON(w, http.StatusOK, tpl)
}

// Get returns one template by id.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tpl, err := h.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		common.WriteError(w, http.StatusNotFound, "template not found: %s", id)
		return
	}
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "get template: %v", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, tpl)
}

// Delete removes one template by id.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.store.Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		common.WriteError(w, http.StatusNotFound, "template not found: %s", id)
		return
	}
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "delete template: %v", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
