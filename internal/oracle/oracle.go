// Package oracle talks to the external model that proposes field mappings,
// generates transformation rules, summarizes files and extracts template
// schemas. All calls are best-effort: matching degrades to a deterministic
// similarity fallback, rule generation surfaces its failure to the caller.
package oracle

import (
	"context"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

// MatchResult is one proposed target-to-source association. SourceFieldID is
// empty when the oracle found no plausible source for the target field.
type MatchResult struct {
	TargetFieldID   string `json:"targetFieldId"`
	SourceFieldID   string `json:"sourceFieldId"`
	MatchConfidence int    `json:"matchConfidence"`
}

// Summary is the structured digest of one uploaded file.
type Summary struct {
	Provider  string `json:"provider"`
	Period    string `json:"period"`
	Currency  string `json:"currency"`
	Anomalies string `json:"anomalies"`
}

// ParsedTemplate is a target schema extracted from a template file.
type ParsedTemplate struct {
	Fields       []schema.TargetField `json:"fields"`
	TemplateName string               `json:"templateName"`
}

// Service is the full oracle surface consumed by the reconciler and the
// HTTP layer.
type Service interface {
	// MatchFields proposes one result per target field, scored 0-100.
	MatchFields(ctx context.Context, source []schema.SourceField, target []schema.TargetField) ([]MatchResult, error)

	// GenerateRule turns a natural-language description into a rule body in
	// the restricted rule language (see internal/rule). The returned code is
	// not validated here; compilation happens when the rule is first used.
	GenerateRule(ctx context.Context, description string, source []schema.SourceField) (string, error)

	// SummarizeFile produces a structured digest of an uploaded file.
	SummarizeFile(ctx context.Context, fileName string, sample []map[string]any) (Summary, error)

	// ParseTemplate extracts target field definitions from a template file's
	// headers and sample rows.
	ParseTemplate(ctx context.Context, fileName string, headers []string, sample []map[string]any) (ParsedTemplate, error)
}
