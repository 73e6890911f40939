package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/mapping"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore()
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)

	fields := []schema.TargetField{{ID: "t1", Name: "发票号码", Type: schema.TargetText}}
	mappings := []mapping.FieldMapping{{TargetFieldID: "t1", SourceFieldID: "s1", SourceFieldName: "发票号", MatchConfidence: 100}}

	saved, err := s.Save("月度结算", fields, mappings)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := s.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "月度结算", got.Name)
	require.Len(t, got.TargetFields, 1)
	assert.Equal(t, "发票号码", got.TargetFields[0].Name)
	require.Len(t, got.FieldMappings, 1)
	assert.Equal(t, 100, got.FieldMappings[0].MatchConfidence)
}

func TestSaveByNameOverwrites(t *testing.T) {
	s := openTestStore(t)

	first, err := s.Save("月度结算", []schema.TargetField{{ID: "t1", Name: "旧字段"}}, nil)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	second, err := s.Save("月度结算", []schema.TargetField{{ID: "t2", Name: "新字段"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same name keeps the same id")
	assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt) || second.UpdatedAt.Equal(first.UpdatedAt))

	all, err := s.List()
	require.NoError(t, err)
	require.Len(t, all, 1, "at most one record per name")
	assert.Equal(t, "新字段", all[0].TargetFields[0].Name)
}

func TestSaveEmptyNameRejected(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Save("", nil, nil)
	assert.Error(t, err)
}

func TestListOrder(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Save("alpha", nil, nil)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = s.Save("beta", nil, nil)
	require.NoError(t, err)

	all, err := s.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "beta", all[1].Name)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	saved, err := s.Save("临时", nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.Delete(saved.ID))
	assert.ErrorIs(t, s.Delete(saved.ID), ErrNotFound)

	_, err = s.Get(saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.db")

	s := NewSQLiteStore()
	require.NoError(t, s.Open(path))
	_, err := s.Save("持久化", nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := NewSQLiteStore()
	require.NoError(t, reopened.Open(path))
	defer reopened.Close()

	all, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "持久化", all[0].Name)
}
