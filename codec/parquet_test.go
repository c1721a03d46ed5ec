package codec

import (
	"errors"
	"testing"
	"time"

	"github.com/parqedit/parqedit/schema"
	"github.com/shopspring/decimal"
)

func testCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	cat, err := schema.NewCatalog([]schema.Column{
		{Name: "id", Type: schema.TypeOf(schema.Int64)},
		{Name: "name", Type: schema.TypeOf(schema.Utf8), Nullable: true},
		{Name: "active", Type: schema.TypeOf(schema.Boolean), Nullable: true},
		{Name: "score", Type: schema.TypeOf(schema.Float64), Nullable: true},
		{Name: "born", Type: schema.TypeOf(schema.Date), Nullable: true},
		{Name: "seen", Type: schema.TimestampType(schema.UnitMillis), Nullable: true},
		{Name: "price", Type: schema.DecimalType(10, 2), Nullable: true},
		{Name: "group_id", Type: schema.TypeOf(schema.Int32), Nullable: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	return cat
}

func TestWriterSchemaString(t *testing.T) {
	cat, err := schema.NewCatalog([]schema.Column{
		{Name: "id", Type: schema.TypeOf(schema.Int64)},
		{Name: "name", Type: schema.TypeOf(schema.Utf8), Nullable: true},
		{Name: "price", Type: schema.DecimalType(10, 2), Nullable: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	schemaString, err := WriterSchemaString(cat)
	if err != nil {
		t.Fatal(err)
	}
	if schemaString != `{"Tag":"name=parquet_go_root, repetitiontype=REQUIRED","Fields":[{"Tag":"type=INT64, name=id, repetitiontype=REQUIRED"},{"Tag":"type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN, name=name, repetitiontype=OPTIONAL"},{"Tag":"type=INT64, convertedtype=DECIMAL, scale=2, precision=10, name=price, repetitiontype=OPTIONAL"}]}` {
		t.Log(schemaString)
		t.Fatal("got incorrect schema string")
	}
}

func TestWriterSchemaStringRejectsWidePrecision(t *testing.T) {
	cat, err := schema.NewCatalog([]schema.Column{
		{Name: "big", Type: schema.DecimalType(38, 10)},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = WriterSchemaString(cat)
	if !errors.Is(err, schema.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestEncodeDecodeCycle(t *testing.T) {
	cat := testCatalog(t)
	born := time.Date(1991, 4, 14, 0, 0, 0, 0, time.UTC)
	seen := time.Date(2023, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

	in := &Table{
		Catalog: cat,
		Columns: []Vector{
			{Type: cat.Column(0).Type, Values: []any{int64(1), int64(2)}},
			{Type: cat.Column(1).Type, Values: []any{"alice", nil}},
			{Type: cat.Column(2).Type, Values: []any{true, false}},
			{Type: cat.Column(3).Type, Values: []any{float64(99.5), nil}},
			{Type: cat.Column(4).Type, Values: []any{born, nil}},
			{Type: cat.Column(5).Type, Values: []any{seen, nil}},
			{Type: cat.Column(6).Type, Values: []any{decimal.New(1250, -2), nil}},
			{Type: cat.Column(7).Type, Values: []any{int32(9), nil}},
		},
	}

	b, err := Encode(in)
	if err != nil {
		t.Fatal(err)
	}

	out, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}

	if out.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.NumRows())
	}

	// Schema fidelity: names, order, types, nullability
	for i, want := range cat.Columns() {
		got := out.Catalog.Column(i)
		if got.Name != want.Name {
			t.Fatalf("column %d: name %q != %q", i, got.Name, want.Name)
		}
		if !got.Type.Equal(want.Type) {
			t.Fatalf("column %q: type %s != %s", want.Name, got.Type, want.Type)
		}
		if got.Nullable != want.Nullable {
			t.Fatalf("column %q: nullable %v != %v", want.Name, got.Nullable, want.Nullable)
		}
	}

	if got := out.Columns[0].Values[1].(int64); got != 2 {
		t.Fatalf("id[1] = %d", got)
	}
	if got := out.Columns[1].Values[0].(string); got != "alice" {
		t.Fatalf("name[0] = %q", got)
	}
	if out.Columns[1].Values[1] != nil {
		t.Fatal("name[1] should be null")
	}
	if got := out.Columns[2].Values[0].(bool); !got {
		t.Fatal("active[0] should be true")
	}
	if got := out.Columns[4].Values[0].(time.Time); !got.Equal(born) {
		t.Fatalf("born[0] = %s", got)
	}
	if got := out.Columns[5].Values[0].(time.Time); !got.Equal(seen) {
		t.Fatalf("seen[0] = %s", got)
	}
	if got := out.Columns[6].Values[0].(decimal.Decimal); !got.Equal(decimal.New(1250, -2)) {
		t.Fatalf("price[0] = %s", got)
	}
	if got := out.Columns[7].Values[0].(int32); got != 9 {
		t.Fatalf("group_id[0] = %d", got)
	}
}

// Lowercase and snake_case names must survive a save byte-for-byte even
// though the writer capitalizes its internal field names.
func TestEncodePreservesColumnNames(t *testing.T) {
	cat, err := schema.NewCatalog([]schema.Column{
		{Name: "user_id", Type: schema.TypeOf(schema.Int64)},
		{Name: "name", Type: schema.TypeOf(schema.Utf8), Nullable: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	in := &Table{
		Catalog: cat,
		Columns: []Vector{
			{Type: cat.Column(0).Type, Values: []any{int64(7)}},
			{Type: cat.Column(1).Type, Values: []any{"alice"}},
		},
	}

	b, err := Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}

	for i, want := range cat.Columns() {
		if got := out.Catalog.Column(i).Name; got != want.Name {
			t.Fatalf("column %d: name %q != %q", i, got, want.Name)
		}
	}
	if got := out.Columns[0].Values[0].(int64); got != 7 {
		t.Fatalf("user_id[0] = %d", got)
	}
}

func TestWriterSchemaStringRejectsAmbiguousNames(t *testing.T) {
	cat, err := schema.NewCatalog([]schema.Column{
		{Name: "user_id", Type: schema.TypeOf(schema.Int64)},
		{Name: "User_id", Type: schema.TypeOf(schema.Int64)},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = WriterSchemaString(cat)
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("expected ErrEncode, got %v", err)
	}
}

func TestEncodeRejectsNullInRequired(t *testing.T) {
	cat, err := schema.NewCatalog([]schema.Column{
		{Name: "id", Type: schema.TypeOf(schema.Int64)},
	})
	if err != nil {
		t.Fatal(err)
	}
	in := &Table{
		Catalog: cat,
		Columns: []Vector{{Type: cat.Column(0).Type, Values: []any{nil}}},
	}
	_, err = Encode(in)
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("expected ErrEncode, got %v", err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not parquet"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}
