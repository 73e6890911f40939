// Package excel parses uploaded workbooks into sheet/field metadata,
// serves windowed row previews keyed by stable column identifiers, and
// renders processed rows back into a downloadable workbook.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

// maxReadRows is the internal safety ceiling on how many data rows are ever
// read from one sheet, preview or batch alike.
const maxReadRows = 10000

// typeInferenceRows is how many data rows type inference looks at.
const typeInferenceRows = 10

// Header is one preview column: a stable key ("col_N") plus the display
// label from the header row.
type Header struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Row is one preview data row, keyed by column key.
type Row struct {
	Index int               `json:"index"`
	Cells map[string]string `json:"cells"`
}

// Table is a windowed view over one sheet.
type Table struct {
	Headers   []Header `json:"headers"`
	Rows      []Row    `json:"data"`
	SheetName string   `json:"sheetName"`
}

// NamedRow flattens a table row into a display-name keyed lookup. Columns
// with duplicate labels collapse to the last one.
func (t *Table) NamedRow(r Row) map[string]string {
	named := make(map[string]string, len(t.Headers))
	for _, h := range t.Headers {
		named[h.Label] = r.Cells[h.Key]
	}
	return named
}

// sheetData is the raw string grid of one worksheet.
type sheetData struct {
	name string
	rows [][]string
}

// Parse reads the workbook at path and derives per-sheet field metadata:
// column id, header name, inferred type, sample value and column letter.
func Parse(path, fileName string) ([]schema.Sheet, int, error) {
	grids, err := readWorkbook(path, fileName)
	if err != nil {
		return nil, 0, err
	}

	var sheets []schema.Sheet
	var totalRows int
	for si, grid := range grids {
		var fields []schema.ColumnField
		if len(grid.rows) > 0 {
			header := grid.rows[0]
			for ci, cell := range header {
				letter, _ := excelize.ColumnNumberToName(ci + 1)
				name := strings.TrimSpace(cell)
				if name == "" {
					name = "Column " + letter
				}
				fields = append(fields, schema.ColumnField{
					ID:     fmt.Sprintf("field-%d-%d", si+1, ci+1),
					Name:   name,
					Type:   inferType(grid.rows, ci),
					Sample: cellAt(grid.rows, 1, ci),
					Column: letter,
				})
			}
		}

		rowCount := len(grid.rows) - 1
		if rowCount < 0 {
			rowCount = 0
		}
		totalRows += rowCount
		sheets = append(sheets, schema.Sheet{
			Name:     grid.name,
			Fields:   fields,
			RowCount: rowCount,
		})
	}
	return sheets, totalRows, nil
}

// Preview returns up to limit data rows of the named sheet (first sheet when
// empty), keyed by stable col_N identifiers.
func Preview(path, fileName, sheetName string, limit int) (*Table, error) {
	grids, err := readWorkbook(path, fileName)
	if err != nil {
		return nil, err
	}
	if len(grids) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	grid := grids[0]
	if sheetName != "" {
		found := false
		for _, g := range grids {
			if g.name == sheetName {
				grid = g
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("sheet not found: %s", sheetName)
		}
	}

	if limit <= 0 || limit > maxReadRows {
		limit = maxReadRows
	}

	table := &Table{SheetName: grid.name}
	if len(grid.rows) == 0 {
		return table, nil
	}

	for ci, cell := range grid.rows[0] {
		label := strings.TrimSpace(cell)
		if label == "" {
			label = fmt.Sprintf("Column %d", ci+1)
		}
		table.Headers = append(table.Headers, Header{
			Key:   fmt.Sprintf("col_%d", ci+1),
			Label: label,
		})
	}

	for ri := 1; ri < len(grid.rows) && ri <= limit; ri++ {
		cells := make(map[string]string, len(table.Headers))
		for ci := range table.Headers {
			cells[table.Headers[ci].Key] = cellAt(grid.rows, ri, ci)
		}
		table.Rows = append(table.Rows, Row{Index: ri, Cells: cells})
	}
	return table, nil
}

// readWorkbook loads every sheet of an xlsx/xls workbook, or the single
// implicit sheet of a csv file, into string grids.
func readWorkbook(path, fileName string) ([]sheetData, error) {
	if strings.EqualFold(filepath.Ext(fileName), ".csv") {
		return readCSV(path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var grids []sheetData
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		if len(rows) > maxReadRows+1 {
			rows = rows[:maxReadRows+1]
		}
		grids = append(grids, sheetData{name: name, rows: rows})
	}
	return grids, nil
}

// readCSV reads a csv file as a single sheet named Sheet1. Ragged rows are
// tolerated; spreadsheet exports are rarely rectangular.
func readCSV(path string) ([]sheetData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > maxReadRows+1 {
		rows = rows[:maxReadRows+1]
	}
	return []sheetData{{name: "Sheet1", rows: rows}}, nil
}

func cellAt(rows [][]string, ri, ci int) string {
	if ri >= len(rows) || ci >= len(rows[ri]) {
		return ""
	}
	return rows[ri][ci]
}

// inferType looks at up to typeInferenceRows non-empty data cells of one
// column and classifies it as Integer, Float, Date or Text.
func inferType(rows [][]string, col int) schema.SourceType {
	var samples []string
	for ri := 1; ri < len(rows) && len(samples) < typeInferenceRows; ri++ {
		if v := cellAt(rows, ri, col); v != "" {
			samples = append(samples, v)
		}
	}
	if len(samples) == 0 {
		return schema.SourceText
	}

	allNumeric := true
	anyFloat := false
	allDates := true
	for _, s := range samples {
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			allNumeric = false
		} else if strings.Contains(s, ".") {
			anyFloat = true
		}
		if !looksLikeDate(s) {
			allDates = false
		}
	}

	switch {
	case allDates:
		return schema.SourceDate
	case allNumeric && anyFloat:
		return schema.SourceFloat
	case allNumeric:
		return schema.SourceInteger
	default:
		return schema.SourceText
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/06",
}

func looksLikeDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
