// Package commit rebuilds a columnar table from an edit snapshot. Every
// column is coerced to the type the catalog declares; nothing is ever
// inferred from the values that happen to be present, so the committed
// schema always equals the loaded one.
package commit

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/parqedit/parqedit/codec"
	"github.com/parqedit/parqedit/editbuf"
	"github.com/parqedit/parqedit/gologger"
	"github.com/parqedit/parqedit/schema"
	"github.com/parqedit/parqedit/table"
	"github.com/shopspring/decimal"
)

var (
	logger = gologger.NewLogger()

	ErrCoercion             = errors.New("type coercion failed")
	ErrNullabilityViolation = errors.New("null in non-nullable column")
	ErrSchemaMismatch       = errors.New("cell type contradicts column type")
)

type (
	// CoercionError reports the first raw edit that could not be coerced.
	// The caller is expected to let the user fix that cell and retry; the
	// buffer is untouched.
	CoercionError struct {
		Column string
		Row    int
		Input  string
		Reason string
	}

	// NullabilityError reports a null cell in a non-nullable column.
	NullabilityError struct {
		Column string
		Row    int
	}
)

func (e *CoercionError) Error() string {
	return fmt.Sprintf("column %q row %d: cannot coerce %q: %s", e.Column, e.Row, e.Input, e.Reason)
}

func (e *CoercionError) Unwrap() error {
	return ErrCoercion
}

func (e *NullabilityError) Error() string {
	return fmt.Sprintf("column %q row %d: %s", e.Column, e.Row, ErrNullabilityViolation)
}

func (e *NullabilityError) Unwrap() error {
	return ErrNullabilityViolation
}

// Canonical textual forms accepted for raw edits:
//
//	Boolean    1, t, T, TRUE, true, True, 0, f, F, FALSE, false, False
//	Date       2006-01-02
//	Timestamp  RFC3339, fractional seconds allowed
//	Decimal    plain decimal string within the column's precision and scale
//	Binary     standard base64
const (
	dateLayout = "2006-01-02"
)

// Build assembles the output table. Columns are independent, so they are
// coerced concurrently; assembly order is catalog order regardless of which
// goroutine finishes first. The first failure aborts the whole commit.
func Build(snap editbuf.Snapshot) (*codec.Table, error) {
	cat := snap.Catalog
	out := &codec.Table{
		Catalog: cat,
		Columns: make([]codec.Vector, cat.Len()),
	}

	errs := make([]error, cat.Len())
	var wg sync.WaitGroup
	for c := 0; c < cat.Len(); c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			out.Columns[c], errs[c] = buildColumn(cat.Column(c), c, snap.Rows)
		}(c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	logger.Debug().Int("rows", len(snap.Rows)).Int("columns", cat.Len()).Msg("assembled columnar table")
	return out, nil
}

func buildColumn(col schema.Column, pos int, rows []table.Row) (codec.Vector, error) {
	vec := codec.Vector{
		Type:   col.Type,
		Values: make([]any, len(rows)),
	}
	for r, row := range rows {
		cell := row[pos]
		switch cell.Kind() {
		case table.KindNull:
			if !col.Nullable {
				return vec, &NullabilityError{Column: col.Name, Row: r}
			}
			// keep nil
		case table.KindValue:
			if !cell.Matches(col.Type) {
				return vec, fmt.Errorf("column %q row %d holds %T: %w", col.Name, r, cell.Value(), ErrSchemaMismatch)
			}
			vec.Values[r] = cell.Value()
		case table.KindRaw:
			val, reason := coerce(col.Type, cell.RawText())
			if reason != "" {
				return vec, &CoercionError{Column: col.Name, Row: r, Input: cell.RawText(), Reason: reason}
			}
			vec.Values[r] = val
		}
	}
	return vec, nil
}

// coerce converts raw edit text to the column's declared type. A non-empty
// reason means failure.
func coerce(t schema.LogicalType, text string) (any, string) {
	switch t.Kind {
	case schema.Utf8:
		return text, ""
	case schema.Boolean:
		v, err := strconv.ParseBool(text)
		if err != nil {
			return nil, "not a recognized boolean form"
		}
		return v, ""
	case schema.Int32:
		v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32)
		if err != nil {
			return nil, "not a 32-bit integer"
		}
		return int32(v), ""
	case schema.Int64:
		v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, "not a 64-bit integer"
		}
		return v, ""
	case schema.Float32:
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 32)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, "not a finite 32-bit float"
		}
		return float32(v), ""
	case schema.Float64:
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, "not a finite 64-bit float"
		}
		return v, ""
	case schema.Date:
		v, err := time.Parse(dateLayout, strings.TrimSpace(text))
		if err != nil {
			return nil, "not a date in form " + dateLayout
		}
		return v.UTC(), ""
	case schema.Timestamp:
		v, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(text))
		if err != nil {
			return nil, "not an RFC3339 timestamp"
		}
		if t.Unit == schema.UnitMicros {
			return v.UTC().Truncate(time.Microsecond), ""
		}
		return v.UTC().Truncate(time.Millisecond), ""
	case schema.Decimal:
		v, err := decimal.NewFromString(strings.TrimSpace(text))
		if err != nil {
			return nil, "not a decimal number"
		}
		if !v.Shift(t.Scale).IsInteger() {
			return nil, fmt.Sprintf("more than %d fractional digits", t.Scale)
		}
		if intDigits(v) > t.Precision-t.Scale {
			return nil, fmt.Sprintf("exceeds precision %d scale %d", t.Precision, t.Scale)
		}
		return v, ""
	case schema.Binary:
		b, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, "not valid base64"
		}
		return b, ""
	}
	return nil, "unsupported column type " + t.String()
}

// intDigits counts digits left of the decimal point.
func intDigits(d decimal.Decimal) int32 {
	abs := d.Abs().Truncate(0)
	if abs.IsZero() {
		return 0
	}
	return int32(len(abs.String()))
}
