package workspace

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/mapping"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/server/features/common"
)

// Handlers provides HTTP handlers for the workspace feature.
type Handlers struct {
	registry   *schema.Registry
	reconciler *mapping.Reconciler
	logger     *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(registry *schema.Registry, reconciler *mapping.Reconciler, logger *slog.Logger) *Handlers {
	return &Handlers{registry: registry, reconciler: reconciler, logger: logger}
}

// TargetFields lists the current target schema.
func (h *Handlers) TargetFields(w http.ResponseWriter, r *http.Request) {
	common.WriteJSON(w, http.StatusOK, h.registry.TargetFields())
}

// AddTargetField appends a blank target field.
func (h *Handlers) AddTargetField(w http.ResponseWriter, r *http.Request) {
	tf := h.registry.AddTargetField()
	h.reconciler.Reconcile(r.Context())
	common.WriteJSON(w, http.StatusOK, tf)
}

// UpdateTargetField applies a partial update to one target field.
func (h *Handlers) UpdateTargetField(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch schema.Patch
	if err := common.Decode(r, &patch); err != nil {
		common.WriteError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if !h.registry.UpdateTargetField(id, patch) {
		common.WriteError(w, http.StatusNotFound, "target field not found: %s", id)
		return
	}

	h.reconciler.Reconcile(r.Context())
	tf, _ := h.registry.TargetField(id)
	common.WriteJSON(w, http.StatusOK, tf)
}

// RemoveTargetField deletes one target field. Its mapping entry goes with it.
func (h *Handlers) RemoveTargetField(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.registry.RemoveTargetField(id) {
		common.WriteError(w, http.StatusNotFound, "target field not found: %s", id)
		return
	}

	h.reconciler.Reconcile(r.Context())
	common.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ImportTargetFields replaces the whole target schema.
func (h *Handlers) ImportTargetFields(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := common.Decode(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "%v", err)
		return
	}

	h.registry.ImportTargetFields(req.Fields)
	h.reconciler.Reconcile(r.Context())

	h.logger.Info("target schema imported", "fields", len(req.Fields))
	common.WriteJSON(w, http.StatusOK, h.registry.TargetFields())
}

// Mappings lists the mapping collection in target field order.
func (h *Handlers) Mappings(w http.ResponseWriter, r *http.Request) {
	out := h.reconciler.Mappings()
	if out == nil {
		out = []mapping.FieldMapping{}
	}
	common.WriteJSON(w, http.StatusOK, out)
}

// SelectSource sets or clears the source association of one mapping entry.
func (h *Handlers) SelectSource(w http.ResponseWriter, r *http.Request) {
	targetFieldID := chi.URLParam(r, "targetFieldID")

	var req SelectSourceRequest
	if err := common.Decode(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "%v", err)
		return
	}

	var sf *schema.SourceField
	if req.SourceFieldID != "" {
		for _, cand := range h.registry.SourceFieldsView() {
			if cand.UniqueID == req.SourceFieldID {
				c := cand
				sf = &c
				break
			}
		}
		if sf == nil {
			common.WriteError(w, http.StatusNotFound, "source field not found: %s", req.SourceFieldID)
			return
		}
	}

	if !h.reconciler.SelectSource(targetFieldID, sf) {
		common.WriteError(w, http.StatusNotFound, "target field not found: %s", targetFieldID)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// SetRule attaches rule text and code to one mapping entry.
func (h *Handlers) SetRule(w http.ResponseWriter, r *http.Request) {
	targetFieldID := chi.URLParam(r, "targetFieldID")

	var req RuleRequest
	if err := common.Decode(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "%v", err)
		return
	}

	if !h.reconciler.SetRule(targetFieldID, req.ProcessingRule, req.GeneratedCode) {
		common.WriteError(w, http.StatusNotFound, "target field not found: %s", targetFieldID)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ApplyTemplate restores a saved template: the target schema and the
// mapping collection are replaced together, no re-matching happens.
func (h *Handlers) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var req ApplyTemplateRequest
	if err := common.Decode(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "%v", err)
		return
	}

	h.registry.ImportTargetFields(req.TargetFields)
	h.reconciler.Replace(req.FieldMappings)

	h.logger.Info("template applied", "fields", len(req.TargetFields), "mappings", len(req.FieldMappings))
	common.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
