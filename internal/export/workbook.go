package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/thywilljoshua/pdf-extract/internal/extract"
)

// WriteWorkbook saves one sheet per table. Lattice tables use their
// structured rows; vision tables are parsed back out of their markdown.
func WriteWorkbook(path string, tables []extract.TableRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if len(tables) == 0 {
		if err := f.SetCellValue("Sheet1", "A1", "No tables extracted"); err != nil {
			return err
		}
		return f.SaveAs(path)
	}

	for i, t := range tables {
		sheet := fmt.Sprintf("Table %d (p%d)", i+1, t.Page)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		for r, row := range tableRows(t) {
			for c, v := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
		}
	}
	f.SetActiveSheet(0)
	return f.SaveAs(path)
}

func tableRows(t extract.TableRecord) [][]string {
	if t.StructuredRows == nil {
		return extract.ParseTable(t.Markdown)
	}
	rows := make([][]string, 0, len(t.StructuredRows))
	for _, m := range t.StructuredRows {
		row := make([]string, len(m))
		for i := range row {
			row[i] = m[fmt.Sprint(i)]
		}
		rows = append(rows, row)
	}
	return rows
}
