package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// modelServer returns an httptest server answering every generateContent
// call with the given text part.
func modelServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestGeminiMatchFields(t *testing.T) {
	reply := `Here you go:
{"mappings":[{"targetFieldId":"t1","sourceFieldId":"s1","matchConfidence":95},{"targetFieldId":"t2","sourceFieldId":null,"matchConfidence":0}]}`
	srv := modelServer(t, reply)
	defer srv.Close()

	g := NewGemini("test-key", discardLogger(), WithEndpoint(srv.URL))
	results, err := g.MatchFields(context.Background(),
		[]schema.SourceField{{UniqueID: "s1", Name: "发票号"}},
		[]schema.TargetField{{ID: "t1", Name: "发票号码"}, {ID: "t2", Name: "备注"}})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "s1", results[0].SourceFieldID)
	assert.Equal(t, 95, results[0].MatchConfidence)
	assert.Empty(t, results[1].SourceFieldID, "JSON null decodes to an empty id")
}

func TestGeminiMatchFieldsFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"quota exceeded"}}`)
	}))
	defer srv.Close()

	g := NewGemini("test-key", discardLogger(), WithEndpoint(srv.URL))
	results, err := g.MatchFields(context.Background(),
		[]schema.SourceField{{UniqueID: "s1", Name: "金额"}},
		[]schema.TargetField{{ID: "t1", Name: "结算金额"}})
	require.NoError(t, err, "matching must degrade, not fail")
	require.Len(t, results, 1)
	assert.Equal(t, "s1", results[0].SourceFieldID, "similarity fallback kicks in")
}

func TestGeminiGenerateRule(t *testing.T) {
	srv := modelServer(t, "```python\nreturn num(row.get('金额', 0)) * 1.13\n```")
	defer srv.Close()

	g := NewGemini("test-key", discardLogger(), WithEndpoint(srv.URL))
	code, err := g.GenerateRule(context.Background(), "金额乘以1.13", nil)
	require.NoError(t, err)
	assert.Equal(t, "return num(row.get('金额', 0)) * 1.13", code)
}

func TestGeminiGenerateRuleErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGemini("test-key", discardLogger(), WithEndpoint(srv.URL))
	_, err := g.GenerateRule(context.Background(), "anything", nil)
	assert.Error(t, err, "rule generation has no fallback")
}

func TestGeminiNoAPIKeyDegrades(t *testing.T) {
	g := NewGemini("", discardLogger())
	results, err := g.MatchFields(context.Background(),
		[]schema.SourceField{{UniqueID: "s1", Name: "金额"}},
		[]schema.TargetField{{ID: "t1", Name: "金额"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s1", results[0].SourceFieldID)
}
