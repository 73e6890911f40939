// Package batch joins rows from the included source files, applies the
// finalized field mappings and rules, and produces the ordered output row
// set. Failures stay local: a missing file is skipped, a broken rule
// degrades to a copy, a throwing rule poisons one cell, never the batch.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/excel"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/mapping"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/rule"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

// SequenceColumn is the leading 1-based row number attached to every output
// record.
const SequenceColumn = "序号"

// DefaultPreviewLimit bounds how many rows Result.Data carries back to the
// caller; the full set stays in Result.All for export.
const DefaultPreviewLimit = 100

// RowSource loads all rows of one stored file. limit <= 0 means "up to the
// internal read ceiling".
type RowSource interface {
	LoadRows(fileID string, limit int) (*excel.Table, error)
}

// Request is one batch transformation run.
type Request struct {
	FileIDs      []string             `json:"fileIds"`
	Mappings     []mapping.FieldMapping `json:"mappings"`
	TargetFields []schema.TargetField `json:"targetFields"`
}

// Row is one output record, keyed by target field display name.
type Row map[string]any

// Result is the outcome of a run. Data is the bounded preview; All holds
// every produced row in order.
type Result struct {
	Success bool  `json:"success"`
	Count   int   `json:"count"`
	Data    []Row `json:"data"`
	All     []Row `json:"-"`
}

// Transformer executes batch runs against a row source.
type Transformer struct {
	source       RowSource
	logger       *slog.Logger
	previewLimit int
}

// NewTransformer creates a transformer with the default preview bound.
func NewTransformer(source RowSource, logger *slog.Logger) *Transformer {
	return &Transformer{
		source:       source,
		logger:       logger,
		previewLimit: DefaultPreviewLimit,
	}
}

// compiledMapping is a mapping plus its once-compiled rule unit (nil when
// the mapping has no rule or the rule failed to compile).
type compiledMapping struct {
	mapping.FieldMapping
	targetName string
	unit       *rule.Unit
}

// Process runs one batch transformation. An empty input set is a successful
// empty result, not an error.
func (t *Transformer) Process(ctx context.Context, req Request) (*Result, error) {
	rows, err := t.loadAll(ctx, req.FileIDs)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Result{Success: true, Data: []Row{}}, nil
	}

	compiled := t.compileMappings(req)

	out := make([]Row, len(rows))
	for i, named := range rows {
		record := Row{SequenceColumn: i + 1}
		for _, cm := range compiled {
			record[cm.targetName] = resolveValue(cm, named)
		}
		out[i] = record
	}

	preview := out
	if len(preview) > t.previewLimit {
		preview = preview[:t.previewLimit]
	}
	return &Result{
		Success: true,
		Count:   len(out),
		Data:    preview,
		All:     out,
	}, nil
}

// Columns returns the output column order for a request: the sequence
// column followed by the target fields in display order.
func Columns(targetFields []schema.TargetField) []string {
	cols := make([]string, 0, len(targetFields)+1)
	cols = append(cols, SequenceColumn)
	for _, tf := range targetFields {
		cols = append(cols, displayName(tf))
	}
	return cols
}

// loadAll reads every included file concurrently (reads are independent)
// and concatenates the name-keyed rows in the request's file order, so the
// sequence numbering is deterministic. Files that cannot be loaded are
// skipped with a warning.
func (t *Transformer) loadAll(ctx context.Context, fileIDs []string) ([]map[string]string, error) {
	perFile := make([][]map[string]string, len(fileIDs))

	g, _ := errgroup.WithContext(ctx)
	for i, id := range fileIDs {
		i, id := i, id
		g.Go(func() error {
			table, err := t.source.LoadRows(id, 0)
			if err != nil {
				t.logger.Warn("skipping unreadable file", "fileId", id, "error", err)
				return nil
			}
			named := make([]map[string]string, len(table.Rows))
			for ri, row := range table.Rows {
				named[ri] = table.NamedRow(row)
			}
			perFile[i] = named
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []map[string]string
	for _, rows := range perFile {
		all = append(all, rows...)
	}
	return all, nil
}

// compileMappings resolves target display names and compiles rule code once
// per mapping. A rule that fails to compile is logged and dropped, so the
// mapping degrades to a direct copy for the whole run.
func (t *Transformer) compileMappings(req Request) []compiledMapping {
	names := make(map[string]string, len(req.TargetFields))
	for _, tf := range req.TargetFields {
		names[tf.ID] = displayName(tf)
	}

	out := make([]compiledMapping, 0, len(req.Mappings))
	for _, m := range req.Mappings {
		cm := compiledMapping{FieldMapping: m, targetName: names[m.TargetFieldID]}
		if cm.targetName == "" {
			cm.targetName = m.TargetFieldID
		}
		if m.HasRule() {
			unit, err := rule.Compile(m.GeneratedCode)
			if err != nil {
				t.logger.Error("rule compilation failed, falling back to direct copy",
					"targetFieldId", m.TargetFieldID, "error", err)
			} else {
				cm.unit = unit
			}
		}
		out = append(out, cm)
	}
	return out
}

// resolveValue produces one output cell. Precedence: compiled rule, then
// mapped source copy (exact header match, then whitespace-trimmed), then
// blank. A rule's result is authoritative even when empty; a rule failure
// becomes a visible sentinel in this cell only.
func resolveValue(cm compiledMapping, named map[string]string) any {
	if cm.unit != nil {
		v, err := cm.unit.Invoke(named)
		if err != nil {
			return fmt.Sprintf("[错误: %s]", err)
		}
		return v
	}

	if cm.Mapped() && cm.SourceFieldName != "" {
		if v, ok := named[cm.SourceFieldName]; ok {
			return v
		}
		want := strings.TrimSpace(cm.SourceFieldName)
		for k, v := range named {
			if strings.TrimSpace(k) == want {
				return v
			}
		}
	}
	return ""
}

// displayName is the output key for a target field. Two fields sharing a
// display name collide in the output record; that is a naming policy the
// caller accepts, not something handled here.
func displayName(tf schema.TargetField) string {
	if tf.Name != "" {
		return tf.Name
	}
	return tf.ID
}
