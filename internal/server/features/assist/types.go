// Package assist exposes the matching, rule-generation and file-analysis
// oracle over HTTP.
package assist

import "github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"

// FileInfo identifies the file under analysis.
type FileInfo struct {
	Name string `json:"name"`
}

// MatchRequest asks for a mapping proposal for every target field.
type MatchRequest struct {
	SourceFields []schema.SourceField `json:"sourceFields"`
	TargetFields []schema.TargetField `json:"targetFields"`
}

// GenerateCodeRequest asks for executable rule code from a description.
type GenerateCodeRequest struct {
	Description  string               `json:"description"`
	SourceFields []schema.SourceField `json:"sourceFields"`
}

// SummaryRequest asks for a structured digest of a file.
type SummaryRequest struct {
	FileInfo   FileInfo         `json:"fileInfo"`
	SampleData []map[string]any `json:"sampleData"`
}

// ParseTemplateRequest asks for target fields extracted from a template file.
type ParseTemplateRequest struct {
	FileInfo   FileInfo         `json:"fileInfo"`
	Headers    []string         `json:"headers"`
	SampleData []map[string]any `json:"sampleData"`
}
