package templates

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/mapping"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/server/features"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/store"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/testutil"
)

func setupRouter(t *testing.T) chi.Router {
	t.Helper()

	fixture := features.SetupTestFixture(t)
	r := chi.NewRouter()
	require.NoError(t, SetupRoutes(r, fixture.Store, testutil.NewTestLogger(t)))
	return r
}

func do(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSaveAndGet(t *testing.T) {
	r := setupRouter(t)

	rec := do(t, r, http.MethodPost, "/api/templates", SaveRequest{
		Name:         "月度结算",
		TargetFields: []schema.TargetField{{ID: "t1", Name: "发票号码", Type: schema.TargetText}},
		FieldMappings: []mapping.FieldMapping{
			{TargetFieldID: "t1", SourceFieldID: "s1", MatchConfidence: 88},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var saved store.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "月度结算", saved.Name)

	rec = do(t, r, http.MethodGet, "/api/templates/"+saved.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got store.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.TargetFields, 1)
	assert.Equal(t, "发票号码", got.TargetFields[0].Name)
	require.Len(t, got.FieldMappings, 1)
	assert.Equal(t, 88, got.FieldMappings[0].MatchConfidence)
}

func TestSaveEmptyName(t *testing.T) {
	r := setupRouter(t)

	rec := do(t, r, http.MethodPost, "/api/templates", SaveRequest{Name: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveSameNameOverwrites(t *testing.T) {
	r := setupRouter(t)

	rec := do(t, r, http.MethodPost, "/api/templates", SaveRequest{
		Name:         "月度结算",
		TargetFields: []schema.TargetField{{ID: "t1", Name: "旧"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var first store.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	rec = do(t, r, http.MethodPost, "/api/templates", SaveRequest{
		Name:         "月度结算",
		TargetFields: []schema.TargetField{{ID: "t2", Name: "新"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var second store.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))

	assert.Equal(t, first.ID, second.ID)

	rec = do(t, r, http.MethodGet, "/api/templates", nil)
	var all []store.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "新", all[0].TargetFields[0].Name)
}

func TestListEmpty(t *testing.T) {
	r := setupRouter(t)

	rec := do(t, r, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetUnknown(t *testing.T) {
	r := setupRouter(t)

	rec := do(t, r, http.MethodGet, "/api/templates/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete(t *testing.T) {
	r := setupRouter(t)

	rec := do(t, r, http.MethodPost, "/api/templates", SaveRequest{Name: "临时"})
	require.Equal(t, http.StatusOK, rec.Code)
	var saved store.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))

	rec = do(t, r, http.MethodDelete, "/api/templates/"+saved.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodDelete, "/api/templates/"+saved.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
