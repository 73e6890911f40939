// Package features provides shared test utilities for API feature tests.
package features

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/batch"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/excel"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/mapping"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/oracle"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/store"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/testutil"
)

// FakeOracle is a canned oracle.Service for handler tests. Unset functions
// fall back to deterministic defaults.
type FakeOracle struct {
	MatchFunc     func(ctx context.Context, src []schema.SourceField, tgt []schema.TargetField) ([]oracle.MatchResult, error)
	GenerateFunc  func(ctx context.Context, description string, src []schema.SourceField) (string, error)
	SummarizeFunc func(ctx context.Context, fileName string, sample []map[string]any) (oracle.Summary, error)
	ParseFunc     func(ctx context.Context, fileName string, headers []string, sample []map[string]any) (oracle.ParsedTemplate, error)
}

func (f *FakeOracle) MatchFields(ctx context.Context, src []schema.SourceField, tgt []schema.TargetField) ([]oracle.MatchResult, error) {
	if f.MatchFunc != nil {
		return f.MatchFunc(ctx, src, tgt)
	}
	// Exact name match, full confidence.
	results := make([]oracle.MatchResult, 0, len(tgt))
	for _, t := range tgt {
		r := oracle.MatchResult{TargetFieldID: t.ID}
		for _, s := range src {
			if strings.TrimSpace(s.Name) == strings.TrimSpace(t.Name) {
				r.SourceFieldID = s.UniqueID
				r.MatchConfidence = 100
				break
			}
		}
		results = append(results, r)
	}
	return results, nil
}

func (f *FakeOracle) GenerateRule(ctx context.Context, description string, src []schema.SourceField) (string, error) {
	if f.GenerateFunc != nil {
		return f.GenerateFunc(ctx, description, src)
	}
	return "return row.get('金额', '')", nil
}

func (f *FakeOracle) SummarizeFile(ctx context.Context, fileName string, sample []map[string]any) (oracle.Summary, error) {
	if f.SummarizeFunc != nil {
		return f.SummarizeFunc(ctx, fileName, sample)
	}
	return oracle.Summary{Provider: "测试供应商", Period: "2026-01", Currency: "CNY", Anomalies: "无"}, nil
}

func (f *FakeOracle) ParseTemplate(ctx context.Context, fileName string, headers []string, sample []map[string]any) (oracle.ParsedTemplate, error) {
	if f.ParseFunc != nil {
		return f.ParseFunc(ctx, fileName, headers, sample)
	}
	fields := make([]schema.TargetField, 0, len(headers))
	for i, h := range headers {
		fields = append(fields, schema.TargetField{
			ID:   "target-test-" + string(rune('a'+i)),
			Name: h,
			Type: schema.TargetText,
		})
	}
	return oracle.ParsedTemplate{Fields: fields, TemplateName: strings.TrimSuffix(fileName, ".xlsx")}, nil
}

// TestFixture holds all dependencies needed for API handler tests.
type TestFixture struct {
	Files       *excel.FileStore
	Registry    *schema.Registry
	Reconciler  *mapping.Reconciler
	Transformer *batch.Transformer
	Oracle      *FakeOracle
	Store       *store.SQLiteStore
}

// SetupTestFixture creates a complete test fixture: an uploads directory
// under a temp dir, an empty registry, a reconciler driven by a fake
// oracle, and an in-memory template store.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)

	files, err := excel.NewFileStore(t.TempDir())
	require.NoError(t, err)

	st := store.NewSQLiteStore()
	require.NoError(t, st.Open(":memory:"))
	t.Cleanup(func() { _ = st.Close() })

	fake := &FakeOracle{}
	registry := schema.NewRegistry()

	return &TestFixture{
		Files:       files,
		Registry:    registry,
		Reconciler:  mapping.NewReconciler(registry, fake, logger),
		Transformer: batch.NewTransformer(files, logger),
		Oracle:      fake,
		Store:       st,
	}
}
