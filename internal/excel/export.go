package excel

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

// exportSheetName is the worksheet processed rows are written to.
const exportSheetName = "处理结果"

// Export renders processed rows into a new workbook with a styled header
// row. columns fixes the output column order; when nil it is derived from
// the rows themselves (sequence column first, the rest sorted by name).
func Export(rows []map[string]any, columns []string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return f, nil
	}
	if len(columns) == 0 {
		columns = deriveColumns(rows)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"197FE6"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for ci, col := range columns {
		cell, err := excelize.CoordinatesToCellName(ci+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheetName, cell, col); err != nil {
			return nil, err
		}
		letter, _ := excelize.ColumnNumberToName(ci + 1)
		if err := f.SetColWidth(exportSheetName, letter, letter, 20); err != nil {
			return nil, err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetCellStyle(exportSheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, err
	}

	for ri, row := range rows {
		for ci, col := range columns {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return nil, err
			}
			if v, ok := row[col]; ok {
				if err := f.SetCellValue(exportSheetName, cell, v); err != nil {
					return nil, err
				}
			}
		}
	}
	return f, nil
}

// deriveColumns unions the keys of all rows. The 序号 sequence column leads;
// the rest are sorted so the layout is stable across exports.
func deriveColumns(rows []map[string]any) []string {
	seen := map[string]bool{}
	var columns []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	for i, c := range columns {
		if c == "序号" {
			columns = append(columns[:i], columns[i+1:]...)
			columns = append([]string{"序号"}, columns...)
			break
		}
	}
	return columns
}
