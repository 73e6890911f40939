package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

func TestFallbackMatchFields(t *testing.T) {
	source := []schema.SourceField{
		{UniqueID: "s1", Name: "发票号码"},
		{UniqueID: "s2", Name: "结算金额"},
		{UniqueID: "s3", Name: "quantity"},
	}
	target := []schema.TargetField{
		{ID: "t1", Name: "发票号"},
		{ID: "t2", Name: "金额"},
		{ID: "t3", Name: "zzz"},
	}

	results, err := NewFallback().MatchFields(context.Background(), source, target)
	require.NoError(t, err)
	require.Len(t, results, 3, "one result per target field, always")

	byTarget := map[string]MatchResult{}
	for _, r := range results {
		byTarget[r.TargetFieldID] = r
	}

	assert.Equal(t, "s1", byTarget["t1"].SourceFieldID)
	assert.Greater(t, byTarget["t1"].MatchConfidence, 30)
	assert.Equal(t, "s2", byTarget["t2"].SourceFieldID)
	assert.Empty(t, byTarget["t3"].SourceFieldID, "nothing clears the similarity floor")
}

func TestFallbackMatchFieldsNoSources(t *testing.T) {
	results, err := NewFallback().MatchFields(context.Background(), nil, []schema.TargetField{{ID: "t1", Name: "金额"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].SourceFieldID)
	assert.Zero(t, results[0].MatchConfidence)
}

func TestFallbackGenerateRuleFails(t *testing.T) {
	_, err := NewFallback().GenerateRule(context.Background(), "乘以1.13", nil)
	assert.Error(t, err)
}

func TestFallbackParseTemplate(t *testing.T) {
	parsed, err := NewFallback().ParseTemplate(context.Background(), "结算模板.xlsx", []string{"发票号", "金额"}, nil)
	require.NoError(t, err)
	require.Len(t, parsed.Fields, 2)
	assert.Equal(t, "结算模板", parsed.TemplateName)
	assert.Equal(t, "发票号", parsed.Fields[0].Name)
	assert.Equal(t, schema.TargetText, parsed.Fields[0].Type)
	assert.NotEqual(t, parsed.Fields[0].ID, parsed.Fields[1].ID)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("noise {\"a\":1} trailing"))
	assert.Equal(t, "no braces", extractJSON("no braces"))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "return 1", stripCodeFence("```python\nreturn 1\n```"))
	assert.Equal(t, "return 1", stripCodeFence("return 1"))
}
