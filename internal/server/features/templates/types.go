// Package templates exposes mapping template persistence over HTTP.
package templates

import (
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/mapping"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/store"
)

// Store is the slice of the template store the handlers need.
type Store interface {
	Save(name string, targetFields []schema.TargetField, mappings []mapping.FieldMapping) (*store.Template, error)
	Get(id string) (*store.Template, error)
	List() ([]*store.Template, error)
	Delete(id string) error
}

// SaveRequest is one template bundle to persist.
type SaveRequest struct {
	Name          string                 `json:"name"`
	TargetFields  []schema.TargetField   `json:"targetFields"`
	FieldMappings []mapping.FieldMapping `json:"fieldMappings"`
}
