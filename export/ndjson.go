package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/parqedit/parqedit/editbuf"
	"github.com/parqedit/parqedit/table"
)

// writeNDJSON emits one JSON object per row. Nulls become JSON null, raw
// pending edits export as their text, typed values as native JSON where the
// type allows and display text otherwise.
func writeNDJSON(snap editbuf.Snapshot, w io.Writer) ([]Warning, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	var warnings []Warning
	names := snap.Catalog.Names()
	for r, row := range snap.Rows {
		obj := make(map[string]any, len(names))
		for c, cell := range row {
			switch cell.Kind() {
			case table.KindNull:
				obj[names[c]] = nil
			case table.KindRaw:
				obj[names[c]] = cell.RawText()
			default:
				obj[names[c]] = jsonValue(cell)
			}
		}
		if err := enc.Encode(obj); err != nil {
			// encoding/json can always take these shapes; treat a failure
			// as a broken writer, not a bad cell
			return warnings, fmt.Errorf("error encoding row %d: %w", r, err)
		}
	}
	return warnings, nil
}

func jsonValue(cell table.Cell) any {
	switch v := cell.Value().(type) {
	case bool:
		return v
	case int32:
		return v
	case int64:
		return v
	case float32:
		return v
	case float64:
		return v
	case string:
		return v
	default:
		// time, decimal, binary: canonical text
		return cell.DisplayText()
	}
}
