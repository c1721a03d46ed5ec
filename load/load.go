// Package load turns a decoded columnar table into the editable row model.
package load

import (
	"errors"
	"fmt"
	"time"

	"github.com/parqedit/parqedit/codec"
	"github.com/parqedit/parqedit/schema"
	"github.com/parqedit/parqedit/table"
	"github.com/shopspring/decimal"
)

// ErrSchemaMismatch means the decoded handle disagreed with its own catalog.
// It indicates a defect, not a user-correctable condition.
var ErrSchemaMismatch = errors.New("schema mismatch")

// FromTable builds the row sequence for one generation. Every cell comes out
// typed against its column, never as opaque text, so commit can re-encode it
// exactly.
func FromTable(t *codec.Table) (*schema.Catalog, []table.Row, error) {
	cat := t.Catalog
	if len(t.Columns) != cat.Len() {
		return nil, nil, fmt.Errorf("%d vectors for %d columns: %w", len(t.Columns), cat.Len(), ErrSchemaMismatch)
	}
	numRows := t.NumRows()
	for i, vec := range t.Columns {
		if len(vec.Values) != numRows {
			return nil, nil, fmt.Errorf("column %q has %d values, expected %d: %w", cat.Column(i).Name, len(vec.Values), numRows, ErrSchemaMismatch)
		}
		if !vec.Type.Equal(cat.Column(i).Type) {
			return nil, nil, fmt.Errorf("column %q vector typed %s, catalog says %s: %w", cat.Column(i).Name, vec.Type, cat.Column(i).Type, ErrSchemaMismatch)
		}
	}

	rows := make([]table.Row, numRows)
	for r := 0; r < numRows; r++ {
		row := make(table.Row, cat.Len())
		for c := 0; c < cat.Len(); c++ {
			cell, err := cellFromValue(cat.Column(c), t.Columns[c].Values[r])
			if err != nil {
				return nil, nil, fmt.Errorf("row %d: %w", r, err)
			}
			row[c] = cell
		}
		rows[r] = row
	}
	return cat, rows, nil
}

func cellFromValue(col schema.Column, val any) (table.Cell, error) {
	if val == nil {
		return table.Null(), nil
	}
	switch col.Type.Kind {
	case schema.Boolean:
		if v, ok := val.(bool); ok {
			return table.Bool(v), nil
		}
	case schema.Int32:
		if v, ok := val.(int32); ok {
			return table.Int32(v), nil
		}
	case schema.Int64:
		if v, ok := val.(int64); ok {
			return table.Int64(v), nil
		}
	case schema.Float32:
		if v, ok := val.(float32); ok {
			return table.Float32(v), nil
		}
	case schema.Float64:
		if v, ok := val.(float64); ok {
			return table.Float64(v), nil
		}
	case schema.Utf8:
		if v, ok := val.(string); ok {
			return table.String(v), nil
		}
	case schema.Binary:
		if v, ok := val.([]byte); ok {
			return table.Bytes(v), nil
		}
	case schema.Date, schema.Timestamp:
		if v, ok := val.(time.Time); ok {
			return table.Time(v), nil
		}
	case schema.Decimal:
		if v, ok := val.(decimal.Decimal); ok {
			return table.Decimal(v), nil
		}
	}
	return table.Cell{}, fmt.Errorf("column %q holds %T, declared %s: %w", col.Name, val, col.Type, ErrSchemaMismatch)
}
