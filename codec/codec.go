package codec

import (
	"errors"

	"github.com/parqedit/parqedit/schema"
)

type (
	// Table is the decoded columnar handle exchanged with the parquet
	// layer: one typed vector per column, position-aligned with the
	// catalog. The declared vector type always comes from the catalog,
	// never from the values present.
	Table struct {
		Catalog *schema.Catalog
		Columns []Vector
	}

	// Vector is one column's values across all rows. A nil entry is null.
	// Non-nil entries hold the Go representation for the declared type:
	// bool, int32, int64, float32, float64, string, []byte, time.Time
	// (UTC), or decimal.Decimal.
	Vector struct {
		Type   schema.LogicalType
		Values []any
	}
)

var (
	ErrDecode = errors.New("parquet decode failed")
	ErrEncode = errors.New("parquet encode failed")
)

func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}
