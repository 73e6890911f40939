// Package excelapi exposes file upload, preview, batch processing and
// export over HTTP.
package excelapi

import "github.com/lipeng19940807-debug/ai-settlement-assistant/internal/batch"

// ExportRequest carries already-processed rows to render as a workbook.
type ExportRequest struct {
	Data         []map[string]any `json:"data"`
	TemplateName string           `json:"templateName"`
}

// ProcessRequest mirrors batch.Request on the wire.
type ProcessRequest = batch.Request
