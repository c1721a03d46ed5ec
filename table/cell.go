package table

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/parqedit/parqedit/schema"
	"github.com/shopspring/decimal"
)

type (
	// CellKind discriminates the three cell states.
	CellKind int

	// Cell is a tagged scalar: null, a value conforming to the owning
	// column's logical type, or an unvalidated text edit that has not been
	// coerced yet. Raw cells exist only between an edit and the next
	// commit; they must never survive into committed output.
	Cell struct {
		kind CellKind
		val  any
		raw  string
	}
)

const (
	KindNull CellKind = iota
	KindValue
	KindRaw
)

func Null() Cell {
	return Cell{kind: KindNull}
}

func Raw(text string) Cell {
	return Cell{kind: KindRaw, raw: text}
}

func Bool(v bool) Cell       { return Cell{kind: KindValue, val: v} }
func Int32(v int32) Cell     { return Cell{kind: KindValue, val: v} }
func Int64(v int64) Cell     { return Cell{kind: KindValue, val: v} }
func Float32(v float32) Cell { return Cell{kind: KindValue, val: v} }
func Float64(v float64) Cell { return Cell{kind: KindValue, val: v} }
func String(v string) Cell   { return Cell{kind: KindValue, val: v} }

func Bytes(v []byte) Cell {
	b := make([]byte, len(v))
	copy(b, v)
	return Cell{kind: KindValue, val: b}
}

// Time carries both Date and Timestamp cells, always in UTC.
func Time(v time.Time) Cell {
	return Cell{kind: KindValue, val: v.UTC()}
}

func Decimal(v decimal.Decimal) Cell {
	return Cell{kind: KindValue, val: v}
}

func (c Cell) Kind() CellKind {
	return c.kind
}

func (c Cell) IsNull() bool {
	return c.kind == KindNull
}

// Value returns the typed payload, nil for null and raw cells.
func (c Cell) Value() any {
	if c.kind != KindValue {
		return nil
	}
	return c.val
}

// RawText returns the pending edit text of a raw cell.
func (c Cell) RawText() string {
	return c.raw
}

// Matches reports whether a value cell's dynamic type conforms to t.
// Null and raw cells never match.
func (c Cell) Matches(t schema.LogicalType) bool {
	if c.kind != KindValue {
		return false
	}
	switch t.Kind {
	case schema.Boolean:
		_, ok := c.val.(bool)
		return ok
	case schema.Int32:
		_, ok := c.val.(int32)
		return ok
	case schema.Int64:
		_, ok := c.val.(int64)
		return ok
	case schema.Float32:
		_, ok := c.val.(float32)
		return ok
	case schema.Float64:
		_, ok := c.val.(float64)
		return ok
	case schema.Utf8:
		_, ok := c.val.(string)
		return ok
	case schema.Binary:
		_, ok := c.val.([]byte)
		return ok
	case schema.Date, schema.Timestamp:
		_, ok := c.val.(time.Time)
		return ok
	case schema.Decimal:
		_, ok := c.val.(decimal.Decimal)
		return ok
	}
	return false
}

// DisplayText renders the cell for grids and flat exports. Raw cells render
// as the pending edit text, nulls as the empty string.
func (c Cell) DisplayText() string {
	switch c.kind {
	case KindNull:
		return ""
	case KindRaw:
		return c.raw
	}
	switch v := c.val.(type) {
	case string:
		return v
	case []byte:
		return base64.StdEncoding.EncodeToString(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case decimal.Decimal:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
