package assist

import (
	"log/slog"
	"net/http"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/oracle"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/server/features/common"
)

// Handlers provides HTTP handlers for the assist feature.
type Handlers struct {
	oracle oracle.Service
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc oracle.Service, logger *slog.Logger) *Handlers {
	return &Handlers{oracle: svc, logger: logger}
}

// FieldMapping proposes one source field per target field.
func (h *Handlers) FieldMapping(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := common.Decode(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if len(req.TargetFields) == 0 {
		common.WriteError(w, http.StatusBadRequest, "targetFields must not be empty")
		return
	}

	results, err := h.oracle.MatchFields(r.Context(), req.SourceFields, req.TargetFields)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "matching failed: %v", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]any{"mappings": results})
}

// GenerateCode turns a rule description into executable rule code.
func (h *Handlers) GenerateCode(w http.ResponseWriter, r *http.Request) {
	var req GenerateCodeRequest
	if err := common.Decode(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if req.Description == "" {
		common.WriteError(w, http.StatusBadRequest, "description must not be empty")
		return
	}

	code, err := h.oracle.GenerateRule(r.Context(), req.Description, req.SourceFields)
	if err != nil {
		h.logger.Error("rule generation failed", "error", err)
		common.WriteError(w, http.StatusInternalServerError, "rule generation failed: %v", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"code": code})
}

// FileSummary produces a structured digest of one uploaded file.
func (h *Handlers) FileSummary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := common.Decode(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "%v", err)
		return
	}

	summary, err := h.oracle.SummarizeFile(r.Context(), req.FileInfo.Name, req.SampleData)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "summary failed: %v", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, summary)
}

// ParseTemplate extracts a target schema from a template file's headers.
func (h *Handlers) ParseTemplate(w http.ResponseWriter, r *http.Request) {
	var req ParseTemplateRequest
	if err := common.Decode(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if len(req.Headers) == 0 {
		common.WriteError(w, http.StatusBadRequest, "headers must not be empty")
		return
	}

	parsed, err := h.oracle.ParseTemplate(r.Context(), req.FileInfo.Name, req.Headers, req.SampleData)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "template parsing failed: %v", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, parsed)
}
