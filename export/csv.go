package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/parqedit/parqedit/editbuf"
)

// writeCSV emits a header row of column names, then every row as display
// text. encoding/csv handles delimiter and quote escaping.
func writeCSV(snap editbuf.Snapshot, w io.Writer) ([]Warning, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(snap.Catalog.Names()); err != nil {
		return nil, fmt.Errorf("error writing csv header: %w", err)
	}

	record := make([]string, snap.Catalog.Len())
	for _, row := range snap.Rows {
		for c, cell := range row {
			record[c] = cell.DisplayText()
		}
		if err := cw.Write(record); err != nil {
			return nil, fmt.Errorf("error writing csv record: %w", err)
		}
	}
	cw.Flush()
	return nil, cw.Error()
}
