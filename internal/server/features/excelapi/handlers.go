package excelapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/batch"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/excel"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/mapping"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/server/features/common"
)

// Handlers provides HTTP handlers for the excel feature.
type Handlers struct {
	files       *excel.FileStore
	registry    *schema.Registry
	reconciler  *mapping.Reconciler
	transformer *batch.Transformer
	logger      *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	files *excel.FileStore,
	registry *schema.Registry,
	reconciler *mapping.Reconciler,
	transformer *batch.Transformer,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		files:       files,
		registry:    registry,
		reconciler:  reconciler,
		transformer: transformer,
		logger:      logger,
	}
}

// Upload accepts one workbook as multipart form data, parses it and
// registers its columns as source fields.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, excel.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		common.WriteError(w, http.StatusBadRequest, "parse upload: %v", err)
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer part.Close()

	info, err := h.files.Save(header.Filename, part)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "%v", err)
		return
	}

	h.registry.AddFile(info)
	h.reconciler.Reconcile(r.Context())

	h.logger.Info("file uploaded", "id", info.ID, "name", info.Name, "rows", info.RowCount)
	common.WriteJSON(w, http.StatusOK, info)
}

// Files lists all uploaded files.
func (h *Handlers) Files(w http.ResponseWriter, r *http.Request) {
	common.WriteJSON(w, http.StatusOK, h.files.List())
}

// Preview returns a bounded window of data rows from one sheet.
func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	f, err := h.files.Get(fileID)
	if err != nil {
		common.WriteError(w, http.StatusNotFound, "file not found: %s", fileID)
		return
	}

	limit := batch.DefaultPreviewLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			common.WriteError(w, http.StatusBadRequest, "invalid limit: %s", raw)
			return
		}
		limit = n
	}

	table, err := excel.Preview(f.Path, f.Name, r.URL.Query().Get("sheet"), limit)
	if err != nil {
		common.WriteError(w, http.StatusNotFound, "%v", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, table)
}

// Delete removes an uploaded file and its source fields.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	if err := h.files.Delete(fileID); err != nil {
		common.WriteError(w, http.StatusNotFound, "file not found: %s", fileID)
		return
	}

	h.registry.RemoveFile(fileID)
	h.reconciler.Reconcile(r.Context())

	common.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Process runs a batch transformation over the named files.
func (h *Handlers) Process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := common.Decode(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "%v", err)
		return
	}

	result, err := h.transformer.Process(r.Context(), req)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "process failed: %v", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, result)
}

// Export renders processed rows as a downloadable workbook.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := common.Decode(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if len(req.Data) == 0 {
		common.WriteError(w, http.StatusBadRequest, "no data to export")
		return
	}

	f, err := excel.Export(req.Data, nil)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "export failed: %v", err)
		return
	}

	name := req.TemplateName
	if name == "" {
		name = "结算数据"
	}
	fileName := fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("2006-01-02"))

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(fileName)))
	if err := f.Write(w); err != nil {
		h.logger.Error("write export", "error", err)
	}
}
