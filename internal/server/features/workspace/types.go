// Package workspace exposes the server-side target schema and its mapping
// collection. Every mutation of the target field set runs a reconciliation
// pass so the mapping collection tracks the schema.
package workspace

import (
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/mapping"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

// ImportRequest replaces the target field set wholesale.
type ImportRequest struct {
	Fields []schema.TargetField `json:"fields"`
}

// SelectSourceRequest binds a target field to a source field by hand. An
// empty SourceFieldID clears the association.
type SelectSourceRequest struct {
	SourceFieldID string `json:"sourceFieldId"`
}

// RuleRequest attaches rule text and generated code to a mapping entry.
type RuleRequest struct {
	ProcessingRule string `json:"processingRule"`
	GeneratedCode  string `json:"generatedCode"`
}

// ApplyTemplateRequest restores a saved template into the workspace.
type ApplyTemplateRequest struct {
	TargetFields  []schema.TargetField   `json:"targetFields"`
	FieldMappings []mapping.FieldMapping `json:"fieldMappings"`
}
