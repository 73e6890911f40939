// Package mapping maintains the field mapping collection: one entry per live
// target field, kept in sync with schema changes, merged with oracle
// proposals without ever clobbering a user's edits.
package mapping

// FieldMapping associates one target field with zero or one source field,
// plus an optional transformation rule. An entry with an empty SourceFieldID
// and no GeneratedCode means "unmapped": the output cell stays blank.
type FieldMapping struct {
	TargetFieldID   string `json:"targetFieldId"`
	SourceFieldID   string `json:"sourceFieldId"`
	SourceFieldName string `json:"sourceFieldName,omitempty"`
	SourceFileName  string `json:"sourceFileName,omitempty"`
	MatchConfidence int    `json:"matchConfidence"`

	// ProcessingRule is the human-readable rule description; GeneratedCode is
	// the executable body produced from it. Rule authoring never touches the
	// source field association or the confidence.
	ProcessingRule string `json:"processingRule,omitempty"`
	GeneratedCode  string `json:"generatedCode,omitempty"`
}

// Mapped reports whether the entry resolves to a source field.
func (m FieldMapping) Mapped() bool { return m.SourceFieldID != "" }

// HasRule reports whether the entry carries executable rule code.
func (m FieldMapping) HasRule() bool { return m.GeneratedCode != "" }
