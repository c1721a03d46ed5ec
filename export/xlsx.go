package export

import (
	"fmt"
	"io"
	"time"

	"github.com/parqedit/parqedit/editbuf"
	"github.com/parqedit/parqedit/table"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

// writeXLSX emits a single-sheet workbook with a header row. Numeric and
// boolean cells keep their native spreadsheet type; everything else goes in
// as text. Cells excelize rejects are skipped and reported as warnings.
func writeXLSX(snap editbuf.Snapshot, w io.Writer) ([]Warning, error) {
	f := excelize.NewFile()
	defer f.Close()

	names := snap.Catalog.Names()
	for c, name := range names {
		axis, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return nil, fmt.Errorf("error in CoordinatesToCellName: %w", err)
		}
		if err := f.SetCellValue(sheetName, axis, name); err != nil {
			return nil, fmt.Errorf("error writing header %q: %w", name, err)
		}
	}

	var warnings []Warning
	for r, row := range snap.Rows {
		for c, cell := range row {
			if cell.IsNull() {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return warnings, fmt.Errorf("error in CoordinatesToCellName: %w", err)
			}
			if err := f.SetCellValue(sheetName, axis, sheetValue(cell)); err != nil {
				warnings = append(warnings, Warning{Row: r, Column: names[c], Reason: err.Error()})
			}
		}
	}

	if err := f.Write(w); err != nil {
		return warnings, fmt.Errorf("error writing workbook: %w", err)
	}
	return warnings, nil
}

func sheetValue(cell table.Cell) any {
	if cell.Kind() == table.KindRaw {
		return cell.RawText()
	}
	switch v := cell.Value().(type) {
	case bool, int32, int64, float32, float64, string:
		return v
	case time.Time:
		return v
	default:
		return cell.DisplayText()
	}
}
