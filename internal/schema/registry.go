package schema

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Registry owns the target field list and the set of parsed source files.
// It is safe for concurrent use. The registry never touches field mappings;
// callers are expected to run a reconciliation pass after any change to the
// target field set.
type Registry struct {
	mu      sync.RWMutex
	targets []TargetField
	files   []*File

	idSeq atomic.Int64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddTargetField appends a blank target field with a synthetically unique id
// and returns it. The field starts with an empty name, type Text and the
// default icon.
func (r *Registry) AddTargetField() TargetField {
	r.mu.Lock()
	defer r.mu.Unlock()

	tf := TargetField{
		ID:   fmt.Sprintf("target-%d-%d", time.Now().UnixMilli(), r.idSeq.Add(1)),
		Type: TargetText,
		Icon: "text_fields",
	}
	r.targets = append(r.targets, tf)
	return tf
}

// RemoveTargetField removes the field with the given id. Returns false if
// the id is unknown.
func (r *Registry) RemoveTargetField(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, tf := range r.targets {
		if tf.ID == id {
			r.targets = append(r.targets[:i], r.targets[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateTargetField applies a partial update to the field with the given id.
// Unknown ids are a no-op.
func (r *Registry) UpdateTargetField(id string, p Patch) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.targets {
		if r.targets[i].ID != id {
			continue
		}
		if p.Name != nil {
			r.targets[i].Name = *p.Name
		}
		if p.Type != nil {
			r.targets[i].Type = *p.Type
		}
		if p.Description != nil {
			r.targets[i].Description = *p.Description
		}
		if p.Icon != nil {
			r.targets[i].Icon = *p.Icon
		}
		return true
	}
	return false
}

// ImportTargetFields bulk-replaces the target field list. Used when applying
// a saved template or an oracle-parsed template file.
func (r *Registry) ImportTargetFields(fields []TargetField) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.targets = make([]TargetField, len(fields))
	copy(r.targets, fields)
}

// TargetFields returns a copy of the current target field list in order.
func (r *Registry) TargetFields() []TargetField {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]TargetField, len(r.targets))
	copy(out, r.targets)
	return out
}

// TargetField returns the field with the given id.
func (r *Registry) TargetField(id string) (TargetField, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tf := range r.targets {
		if tf.ID == id {
			return tf, true
		}
	}
	return TargetField{}, false
}

// AddFile registers a parsed source file. Files keep their insertion order;
// batch processing walks them in that order.
func (r *Registry) AddFile(f *File) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.files = append(r.files, f)
}

// RemoveFile drops the file with the given id and, with it, every source
// field it contributed. Returns false if the id is unknown.
func (r *Registry) RemoveFile(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, f := range r.files {
		if f.ID == id {
			r.files = append(r.files[:i], r.files[i+1:]...)
			return true
		}
	}
	return false
}

// Files returns the registered files in insertion order.
func (r *Registry) Files() []*File {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*File, len(r.files))
	copy(out, r.files)
	return out
}

// SourceFieldsView flattens every column of every sheet of every registered
// file into a single read-only sequence, each entry tagged with its origin.
// The view is recomputed on every call so it always reflects the current
// file set.
func (r *Registry) SourceFieldsView() []SourceField {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []SourceField
	for _, f := range r.files {
		for _, sh := range f.Sheets {
			for _, col := range sh.Fields {
				out = append(out, SourceField{
					UniqueID:       col.ID,
					Name:           col.Name,
					Type:           col.Type,
					Sample:         col.Sample,
					OriginFileID:   f.ID,
					OriginFileName: f.Name,
					OriginSheet:    sh.Name,
				})
			}
		}
	}
	return out
}
