package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parqedit/parqedit/schema"
	"github.com/xitongsys/parquet-go/common"
)

type (
	// parquetJSONSchema is the JSON schema document parquet-go's JSON
	// writer consumes: a tag string per node.
	parquetJSONSchema struct {
		Tag    string               `json:",omitempty"`
		Fields []*parquetJSONSchema `json:",omitempty"`
	}

	schemaTag struct {
		Name           string
		Type           string
		ConvertedType  string
		RepetitionType string
		Encoding       string
		Scale          int32
		Precision      int32
	}
)

// WriterSchemaString renders a catalog as the parquet-go JSON schema string.
// It is driven entirely by the declared catalog, so the written schema is
// identical across saves no matter which cells were edited.
func WriterSchemaString(cat *schema.Catalog) (string, error) {
	// parquet-go addresses columns internally by a capitalized variant of
	// the name; two names that only differ there would share one column.
	inNames := make(map[string]string, cat.Len())
	var fields []*parquetJSONSchema
	for _, col := range cat.Columns() {
		inName := common.StringToVariableName(col.Name)
		if prev, ok := inNames[inName]; ok {
			return "", fmt.Errorf("column names %q and %q are ambiguous in the writer: %w", prev, col.Name, ErrEncode)
		}
		inNames[inName] = col.Name
		tag, err := columnTag(col)
		if err != nil {
			return "", err
		}
		fields = append(fields, &parquetJSONSchema{Tag: tag.join()})
	}
	pjs := parquetJSONSchema{
		Tag:    "name=parquet_go_root, repetitiontype=REQUIRED",
		Fields: fields,
	}

	b, err := json.Marshal(pjs)
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal: %w", err)
	}
	return string(b), nil
}

func columnTag(col schema.Column) (schemaTag, error) {
	tag := schemaTag{
		Name:           col.Name,
		RepetitionType: "REQUIRED",
	}
	if col.Nullable {
		tag.RepetitionType = "OPTIONAL"
	}

	switch col.Type.Kind {
	case schema.Boolean:
		tag.Type = "BOOLEAN"
	case schema.Int32:
		tag.Type = "INT32"
	case schema.Int64:
		tag.Type = "INT64"
	case schema.Float32:
		tag.Type = "FLOAT"
	case schema.Float64:
		tag.Type = "DOUBLE"
	case schema.Utf8:
		tag.Type = "BYTE_ARRAY"
		tag.ConvertedType = "UTF8"
		tag.Encoding = "PLAIN"
	case schema.Binary:
		tag.Type = "BYTE_ARRAY"
		tag.Encoding = "PLAIN"
	case schema.Date:
		tag.Type = "INT32"
		tag.ConvertedType = "DATE"
	case schema.Timestamp:
		tag.Type = "INT64"
		if col.Type.Unit == schema.UnitMicros {
			tag.ConvertedType = "TIMESTAMP_MICROS"
		} else {
			tag.ConvertedType = "TIMESTAMP_MILLIS"
		}
	case schema.Decimal:
		// Decimals are carried over INT32/INT64 unscaled values, which
		// caps precision at 18.
		if col.Type.Precision > 18 {
			return tag, fmt.Errorf("column %q: decimal precision %d: %w", col.Name, col.Type.Precision, schema.ErrUnsupportedType)
		}
		if col.Type.Precision > 9 {
			tag.Type = "INT64"
		} else {
			tag.Type = "INT32"
		}
		tag.ConvertedType = "DECIMAL"
		tag.Scale = col.Type.Scale
		tag.Precision = col.Type.Precision
	default:
		return tag, fmt.Errorf("column %q: %s: %w", col.Name, col.Type, schema.ErrUnsupportedType)
	}
	return tag, nil
}

func (t schemaTag) join() string {
	var tagArr []string
	if t.Type != "" {
		tagArr = append(tagArr, "type="+t.Type)
	}
	if t.ConvertedType != "" {
		tagArr = append(tagArr, "convertedtype="+t.ConvertedType)
	}
	if t.ConvertedType == "DECIMAL" {
		tagArr = append(tagArr, fmt.Sprintf("scale=%d", t.Scale))
		tagArr = append(tagArr, fmt.Sprintf("precision=%d", t.Precision))
	}
	if t.Encoding != "" {
		tagArr = append(tagArr, "encoding="+t.Encoding)
	}
	if t.Name != "" {
		tagArr = append(tagArr, "name="+t.Name)
	}
	if t.RepetitionType != "" {
		tagArr = append(tagArr, "repetitiontype="+t.RepetitionType)
	}
	return strings.Join(tagArr, ", ")
}
