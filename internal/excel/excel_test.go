package excel

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

// writeTestWorkbook creates an xlsx with a header row and three data rows.
func writeTestWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	rows := [][]any{
		{"发票号", "金额", "数量", "开票日期"},
		{"INV-001", 100.5, 2, "2024-01-15"},
		{"INV-002", 88.0, 5, "2024-02-20"},
		{"INV-003", 12.25, 1, "2024-03-08"},
	}
	for ri, row := range rows {
		for ci, v := range row {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	path := filepath.Join(t.TempDir(), "invoices.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParse(t *testing.T) {
	path := writeTestWorkbook(t)

	sheets, total, err := Parse(path, "invoices.xlsx")
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, sheets[0].RowCount)

	fields := sheets[0].Fields
	require.Len(t, fields, 4)
	assert.Equal(t, "field-1-1", fields[0].ID)
	assert.Equal(t, "发票号", fields[0].Name)
	assert.Equal(t, "A", fields[0].Column)
	assert.Equal(t, "INV-001", fields[0].Sample)
	assert.Equal(t, schema.SourceText, fields[0].Type)
	assert.Equal(t, schema.SourceFloat, fields[1].Type)
	assert.Equal(t, schema.SourceInteger, fields[2].Type)
	assert.Equal(t, schema.SourceDate, fields[3].Type)
}

func TestPreview(t *testing.T) {
	path := writeTestWorkbook(t)

	table, err := Preview(path, "invoices.xlsx", "", 2)
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", table.SheetName)
	require.Len(t, table.Headers, 4)
	assert.Equal(t, Header{Key: "col_1", Label: "发票号"}, table.Headers[0])
	require.Len(t, table.Rows, 2, "limit respected")
	assert.Equal(t, 1, table.Rows[0].Index)
	assert.Equal(t, "INV-001", table.Rows[0].Cells["col_1"])

	named := table.NamedRow(table.Rows[1])
	assert.Equal(t, "INV-002", named["发票号"])

	_, err = Preview(path, "invoices.xlsx", "NoSuchSheet", 10)
	assert.Error(t, err)
}

func TestParseCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "freight.csv")
	content := "运单号,运费\nWB-1,30.5\nWB-2,12\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sheets, total, err := Parse(path, "freight.csv")
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "Sheet1", sheets[0].Name)
	assert.Equal(t, 2, total)
	require.Len(t, sheets[0].Fields, 2)
	assert.Equal(t, schema.SourceFloat, sheets[0].Fields[1].Type)
}

func TestExportRoundTrip(t *testing.T) {
	rows := []map[string]any{
		{"序号": 1, "发票号码": "INV-001", "总费用": 113.0},
		{"序号": 2, "发票号码": "INV-002", "总费用": 99.44},
	}

	f, err := Export(rows, []string{"序号", "发票号码", "总费用"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, f.SaveAs(path))

	back, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer back.Close()

	got, err := back.GetRows("处理结果")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"序号", "发票号码", "总费用"}, got[0])
	assert.Equal(t, "INV-001", got[1][1])
}

func TestExportDerivedColumnsPutSequenceFirst(t *testing.T) {
	rows := []map[string]any{{"甲": "a", "序号": 1, "乙": "b"}}
	cols := deriveColumns(rows)
	require.NotEmpty(t, cols)
	assert.Equal(t, "序号", cols[0])
	assert.Len(t, cols, 3)
}

func TestFileStore(t *testing.T) {
	src := writeTestWorkbook(t)
	raw, err := os.ReadFile(src)
	require.NoError(t, err)

	store, err := NewFileStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	info, err := store.Save("invoices.xlsx", strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, 3, info.RowCount)
	require.Len(t, store.List(), 1)

	stored, err := store.Get(info.ID)
	require.NoError(t, err)
	_, statErr := os.Stat(stored.Path)
	require.NoError(t, statErr)

	table, err := store.LoadRows(info.ID, 0)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 3)

	require.NoError(t, store.Delete(info.ID))
	_, err = store.Get(info.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
	_, statErr = os.Stat(stored.Path)
	assert.True(t, os.IsNotExist(statErr))

	_, err = store.Save("notes.txt", strings.NewReader("hello"))
	assert.Error(t, err, "extension whitelist enforced")
}
