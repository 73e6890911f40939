package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTargetField(t *testing.T) {
	r := NewRegistry()

	a := r.AddTargetField()
	b := r.AddTargetField()

	assert.NotEqual(t, a.ID, b.ID, "ids must be unique")
	assert.Equal(t, TargetText, a.Type, "default type")
	assert.Empty(t, a.Name)
	assert.Len(t, r.TargetFields(), 2)
}

func TestUpdateTargetField(t *testing.T) {
	r := NewRegistry()
	tf := r.AddTargetField()

	name := "发票号码"
	typ := TargetNumber
	ok := r.UpdateTargetField(tf.ID, Patch{Name: &name, Type: &typ})
	require.True(t, ok)

	got, found := r.TargetField(tf.ID)
	require.True(t, found)
	assert.Equal(t, "发票号码", got.Name)
	assert.Equal(t, TargetNumber, got.Type)
	// Untouched attributes survive a partial update.
	assert.Equal(t, "text_fields", got.Icon)

	assert.False(t, r.UpdateTargetField("missing", Patch{Name: &name}), "unknown id is a no-op")
}

func TestRemoveTargetField(t *testing.T) {
	r := NewRegistry()
	a := r.AddTargetField()
	b := r.AddTargetField()

	require.True(t, r.RemoveTargetField(a.ID))
	assert.False(t, r.RemoveTargetField(a.ID), "second removal fails")

	fields := r.TargetFields()
	require.Len(t, fields, 1)
	assert.Equal(t, b.ID, fields[0].ID)
}

func TestImportTargetFields(t *testing.T) {
	r := NewRegistry()
	r.AddTargetField()

	r.ImportTargetFields([]TargetField{
		{ID: "t1", Name: "金额", Type: TargetCurrency},
		{ID: "t2", Name: "日期", Type: TargetDate},
	})

	fields := r.TargetFields()
	require.Len(t, fields, 2)
	assert.Equal(t, "t1", fields[0].ID)
	assert.Equal(t, "t2", fields[1].ID)
}

func TestSourceFieldsView(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.SourceFieldsView())

	r.AddFile(&File{
		ID:   "f1",
		Name: "suppliers.xlsx",
		Sheets: []Sheet{
			{Name: "Sheet1", Fields: []ColumnField{
				{ID: "field-1-1", Name: "发票号", Type: SourceText, Sample: "INV-001"},
				{ID: "field-1-2", Name: "金额", Type: SourceFloat, Sample: "100.5"},
			}},
			{Name: "Sheet2", Fields: []ColumnField{
				{ID: "field-2-1", Name: "备注", Type: SourceText},
			}},
		},
	})
	r.AddFile(&File{
		ID:   "f2",
		Name: "freight.csv",
		Sheets: []Sheet{
			{Name: "Sheet1", Fields: []ColumnField{
				{ID: "field-1-1-b", Name: "运费", Type: SourceFloat},
			}},
		},
	})

	view := r.SourceFieldsView()
	require.Len(t, view, 4)
	assert.Equal(t, "suppliers.xlsx", view[0].OriginFileName)
	assert.Equal(t, "Sheet2", view[2].OriginSheet)
	assert.Equal(t, "f2", view[3].OriginFileID)

	// The view must track file removal immediately.
	require.True(t, r.RemoveFile("f1"))
	view = r.SourceFieldsView()
	require.Len(t, view, 1)
	assert.Equal(t, "运费", view[0].Name)
}
