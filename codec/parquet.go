package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/parqedit/parqedit/gologger"
	"github.com/parqedit/parqedit/schema"
	"github.com/shopspring/decimal"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

var logger = gologger.NewLogger()

const parallelism = 4

// Decode reads a parquet file into a Table handle. Only flat schemas made
// of the supported logical types are accepted; anything else fails rather
// than downcasting.
func Decode(b []byte) (*Table, error) {
	pf, err := buffer.NewBufferFile(b)
	if err != nil {
		return nil, fmt.Errorf("error in NewBufferFile: %s: %w", err.Error(), ErrDecode)
	}
	pr, err := reader.NewParquetReader(pf, nil, parallelism)
	if err != nil {
		return nil, fmt.Errorf("error in NewParquetReader: %s: %w", err.Error(), ErrDecode)
	}
	defer func() {
		pr.ReadStop()
		pf.Close()
	}()

	cat, err := catalogFromFooter(pr.Footer.Schema)
	if err != nil {
		return nil, err
	}

	numRows := int(pr.GetNumRows())
	t := &Table{
		Catalog: cat,
		Columns: make([]Vector, cat.Len()),
	}
	for i := range t.Columns {
		t.Columns[i] = Vector{
			Type:   cat.Column(i).Type,
			Values: make([]any, numRows),
		}
	}
	if numRows == 0 {
		return t, nil
	}

	rows, err := pr.ReadByNumber(numRows)
	if err != nil {
		return nil, fmt.Errorf("error in ReadByNumber: %s: %w", err.Error(), ErrDecode)
	}
	if len(rows) != numRows {
		return nil, fmt.Errorf("footer says %d rows, read %d: %w", numRows, len(rows), ErrDecode)
	}

	for r, row := range rows {
		// Rows come back as dynamically built structs whose fields are in
		// schema order, optional fields as pointers.
		v := reflect.ValueOf(row)
		if v.NumField() != cat.Len() {
			return nil, fmt.Errorf("row struct has %d fields, schema has %d columns: %w", v.NumField(), cat.Len(), ErrDecode)
		}
		for c := 0; c < cat.Len(); c++ {
			fv := v.Field(c)
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			val, err := physicalToValue(cat.Column(c).Type, fv.Interface())
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %s: %w", r, cat.Column(c).Name, err.Error(), ErrDecode)
			}
			t.Columns[c].Values[r] = val
		}
	}

	logger.Debug().Int("rows", numRows).Int("columns", cat.Len()).Msg("decoded parquet file")
	return t, nil
}

// Encode writes a Table back to parquet bytes. The writer schema is
// generated from the catalog, so the file's logical types always equal the
// loaded ones.
func Encode(t *Table) ([]byte, error) {
	schemaStr, err := WriterSchemaString(t.Catalog)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	pw, err := writer.NewJSONWriterFromWriter(schemaStr, &b, parallelism)
	if err != nil {
		return nil, fmt.Errorf("error in NewJSONWriterFromWriter: %s: %w", err.Error(), ErrEncode)
	}

	numRows := t.NumRows()
	for r := 0; r < numRows; r++ {
		rowMap := make(map[string]any, t.Catalog.Len())
		for c := 0; c < t.Catalog.Len(); c++ {
			col := t.Catalog.Column(c)
			val := t.Columns[c].Values[r]
			if val == nil {
				if !col.Nullable {
					return nil, fmt.Errorf("row %d column %q: null in non-nullable column: %w", r, col.Name, ErrEncode)
				}
				continue
			}
			wireVal, err := valueToPhysical(col.Type, val)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %s: %w", r, col.Name, err.Error(), ErrEncode)
			}
			rowMap[col.Name] = wireVal
		}
		rowBytes, err := json.Marshal(rowMap)
		if err != nil {
			return nil, fmt.Errorf("error in json.Marshal of row %d: %s: %w", r, err.Error(), ErrEncode)
		}
		if err := pw.Write(string(rowBytes)); err != nil {
			return nil, fmt.Errorf("error in pw.Write for row %d: %s: %w", r, err.Error(), ErrEncode)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("error in pw.WriteStop: %s: %w", err.Error(), ErrEncode)
	}

	logger.Debug().Int("rows", numRows).Int("bytes", b.Len()).Msg("encoded parquet file")
	return b.Bytes(), nil
}

// catalogFromFooter maps the file's thrift schema elements onto the
// supported logical type set.
func catalogFromFooter(elems []*parquet.SchemaElement) (*schema.Catalog, error) {
	if len(elems) == 0 {
		return nil, fmt.Errorf("empty footer schema: %w", ErrDecode)
	}
	root := elems[0]
	leaves := elems[1:]
	if int(root.GetNumChildren()) != len(leaves) {
		// Children of children means a nested schema
		return nil, fmt.Errorf("nested schemas are not supported: %w", schema.ErrUnsupportedType)
	}

	columns := make([]schema.Column, 0, len(leaves))
	for _, el := range leaves {
		if el.GetNumChildren() > 0 {
			return nil, fmt.Errorf("field %q is a group: %w", el.Name, schema.ErrUnsupportedType)
		}
		if el.GetRepetitionType() == parquet.FieldRepetitionType_REPEATED {
			return nil, fmt.Errorf("field %q is repeated: %w", el.Name, schema.ErrUnsupportedType)
		}
		lt, err := fieldType(el)
		if err != nil {
			return nil, err
		}
		columns = append(columns, schema.Column{
			Name:     el.Name,
			Type:     lt,
			Nullable: el.GetRepetitionType() == parquet.FieldRepetitionType_OPTIONAL,
		})
	}
	return schema.NewCatalog(columns)
}

func fieldType(el *parquet.SchemaElement) (schema.LogicalType, error) {
	ct := parquet.ConvertedType(-1)
	if el.IsSetConvertedType() {
		ct = el.GetConvertedType()
	}

	switch el.GetType() {
	case parquet.Type_BOOLEAN:
		return schema.TypeOf(schema.Boolean), nil
	case parquet.Type_INT32:
		switch ct {
		case -1, parquet.ConvertedType_INT_32:
			return schema.TypeOf(schema.Int32), nil
		case parquet.ConvertedType_DATE:
			return schema.TypeOf(schema.Date), nil
		case parquet.ConvertedType_DECIMAL:
			return schema.DecimalType(el.GetPrecision(), el.GetScale()), nil
		}
	case parquet.Type_INT64:
		switch ct {
		case -1, parquet.ConvertedType_INT_64:
			return schema.TypeOf(schema.Int64), nil
		case parquet.ConvertedType_TIMESTAMP_MILLIS:
			return schema.TimestampType(schema.UnitMillis), nil
		case parquet.ConvertedType_TIMESTAMP_MICROS:
			return schema.TimestampType(schema.UnitMicros), nil
		case parquet.ConvertedType_DECIMAL:
			return schema.DecimalType(el.GetPrecision(), el.GetScale()), nil
		}
	case parquet.Type_FLOAT:
		return schema.TypeOf(schema.Float32), nil
	case parquet.Type_DOUBLE:
		return schema.TypeOf(schema.Float64), nil
	case parquet.Type_BYTE_ARRAY:
		switch ct {
		case parquet.ConvertedType_UTF8:
			return schema.TypeOf(schema.Utf8), nil
		case -1:
			return schema.TypeOf(schema.Binary), nil
		}
	}
	return schema.LogicalType{}, fmt.Errorf("field %q: physical type %s converted type %v: %w", el.Name, el.GetType(), ct, schema.ErrUnsupportedType)
}

// physicalToValue converts what parquet-go hands back into the typed cell
// representation for the declared logical type.
func physicalToValue(t schema.LogicalType, raw any) (any, error) {
	switch t.Kind {
	case schema.Boolean:
		if v, ok := raw.(bool); ok {
			return v, nil
		}
	case schema.Int32:
		if v, ok := raw.(int32); ok {
			return v, nil
		}
	case schema.Int64:
		if v, ok := raw.(int64); ok {
			return v, nil
		}
	case schema.Float32:
		if v, ok := raw.(float32); ok {
			return v, nil
		}
	case schema.Float64:
		if v, ok := raw.(float64); ok {
			return v, nil
		}
	case schema.Utf8:
		if v, ok := raw.(string); ok {
			return v, nil
		}
	case schema.Binary:
		if v, ok := raw.(string); ok {
			return []byte(v), nil
		}
	case schema.Date:
		if v, ok := raw.(int32); ok {
			return time.Unix(int64(v)*86400, 0).UTC(), nil
		}
	case schema.Timestamp:
		if v, ok := raw.(int64); ok {
			if t.Unit == schema.UnitMicros {
				return time.UnixMicro(v).UTC(), nil
			}
			return time.UnixMilli(v).UTC(), nil
		}
	case schema.Decimal:
		switch v := raw.(type) {
		case int32:
			return decimal.New(int64(v), -t.Scale), nil
		case int64:
			return decimal.New(v, -t.Scale), nil
		}
	}
	return nil, fmt.Errorf("unexpected physical value %T for %s", raw, t)
}

// valueToPhysical converts a typed cell value into what the JSON writer
// expects for the column's tag.
func valueToPhysical(t schema.LogicalType, val any) (any, error) {
	switch t.Kind {
	case schema.Boolean, schema.Int32, schema.Int64, schema.Float32, schema.Float64, schema.Utf8:
		return val, nil
	case schema.Binary:
		b, ok := val.([]byte)
		if !ok {
			break
		}
		return string(b), nil
	case schema.Date:
		ts, ok := val.(time.Time)
		if !ok {
			break
		}
		return int32(ts.Unix() / 86400), nil
	case schema.Timestamp:
		ts, ok := val.(time.Time)
		if !ok {
			break
		}
		if t.Unit == schema.UnitMicros {
			return ts.UnixMicro(), nil
		}
		return ts.UnixMilli(), nil
	case schema.Decimal:
		d, ok := val.(decimal.Decimal)
		if !ok {
			break
		}
		unscaled := d.Shift(t.Scale)
		if !unscaled.IsInteger() {
			return nil, fmt.Errorf("value %s does not fit scale %d", d, t.Scale)
		}
		return unscaled.IntPart(), nil
	}
	return nil, fmt.Errorf("unexpected value %T for %s", val, t)
}
