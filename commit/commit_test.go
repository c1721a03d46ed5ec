package commit

import (
	"errors"
	"testing"
	"time"

	"github.com/parqedit/parqedit/editbuf"
	"github.com/parqedit/parqedit/schema"
	"github.com/parqedit/parqedit/table"
	"github.com/shopspring/decimal"
)

func testBuffer(t *testing.T) *editbuf.Buffer {
	t.Helper()
	cat, err := schema.NewCatalog([]schema.Column{
		{Name: "id", Type: schema.TypeOf(schema.Int32)},
		{Name: "name", Type: schema.TypeOf(schema.Utf8), Nullable: true},
		{Name: "price", Type: schema.DecimalType(10, 2), Nullable: true},
		{Name: "seen", Type: schema.TimestampType(schema.UnitMillis), Nullable: true},
		{Name: "born", Type: schema.TypeOf(schema.Date), Nullable: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	rows := []table.Row{
		{table.Int32(1), table.String("a"), table.Decimal(decimal.New(100, -2)), table.Null(), table.Null()},
		{table.Int32(2), table.Null(), table.Null(), table.Null(), table.Null()},
	}
	b, err := editbuf.New(cat, rows)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestBuildUnedited(t *testing.T) {
	b := testBuffer(t)
	out, err := Build(b.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if out.Catalog != b.Catalog() {
		t.Fatal("output catalog must be the loaded catalog")
	}
	if out.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.NumRows())
	}
	if out.Columns[0].Values[0].(int32) != 1 {
		t.Fatal("id[0] wrong")
	}
	if out.Columns[1].Values[1] != nil {
		t.Fatal("name[1] should stay null")
	}
}

func TestCoercionBoundary(t *testing.T) {
	b := testBuffer(t)

	// "12.5" into an Int32 column fails and names the cell
	if err := b.SetCell(0, "id", "12.5"); err != nil {
		t.Fatal(err)
	}
	_, err := Build(b.Snapshot())
	if !errors.Is(err, ErrCoercion) {
		t.Fatalf("expected ErrCoercion, got %v", err)
	}
	var ce *CoercionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CoercionError, got %T", err)
	}
	if ce.Column != "id" || ce.Row != 0 || ce.Input != "12.5" {
		t.Fatalf("wrong error detail: %+v", ce)
	}

	// "12" succeeds and stores the integer, not the string
	if err := b.SetCell(0, "id", "12"); err != nil {
		t.Fatal(err)
	}
	out, err := Build(b.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Columns[0].Values[0].(int32); got != 12 {
		t.Fatalf("id[0] = %v", got)
	}
}

func TestTypeInvarianceUnderEdit(t *testing.T) {
	b := testBuffer(t)
	if err := b.SetCell(0, "price", "99.99"); err != nil {
		t.Fatal(err)
	}
	out, err := Build(b.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	want := schema.DecimalType(10, 2)
	if !out.Columns[2].Type.Equal(want) {
		t.Fatalf("price column type drifted to %s", out.Columns[2].Type)
	}
	if got := out.Columns[2].Values[0].(decimal.Decimal); !got.Equal(decimal.New(9999, -2)) {
		t.Fatalf("price[0] = %s", got)
	}
}

func TestNullEnforcement(t *testing.T) {
	b := testBuffer(t)
	if err := b.SetCell(1, "id", ""); err != nil {
		t.Fatal(err)
	}
	_, err := Build(b.Snapshot())
	if !errors.Is(err, ErrNullabilityViolation) {
		t.Fatalf("expected ErrNullabilityViolation, got %v", err)
	}
	var ne *NullabilityError
	if !errors.As(err, &ne) {
		t.Fatalf("expected *NullabilityError, got %T", err)
	}
	if ne.Column != "id" || ne.Row != 1 {
		t.Fatalf("wrong error detail: %+v", ne)
	}

	// The buffer still holds the prior successful edits
	c, err := b.Cell(0, "id")
	if err != nil {
		t.Fatal(err)
	}
	if c.Value().(int32) != 1 {
		t.Fatal("failed commit must not roll back buffer state")
	}
}

func TestTimestampAndDateCoercion(t *testing.T) {
	b := testBuffer(t)
	if err := b.SetCell(0, "seen", "2023-01-02T03:04:05.0067Z"); err != nil {
		t.Fatal(err)
	}
	if err := b.SetCell(0, "born", "1991-04-14"); err != nil {
		t.Fatal(err)
	}
	out, err := Build(b.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	// Millisecond column truncates finer input
	wantSeen := time.Date(2023, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	if got := out.Columns[3].Values[0].(time.Time); !got.Equal(wantSeen) {
		t.Fatalf("seen[0] = %s", got)
	}
	wantBorn := time.Date(1991, 4, 14, 0, 0, 0, 0, time.UTC)
	if got := out.Columns[4].Values[0].(time.Time); !got.Equal(wantBorn) {
		t.Fatalf("born[0] = %s", got)
	}

	if err := b.SetCell(0, "born", "14/04/1991"); err != nil {
		t.Fatal(err)
	}
	if _, err := Build(b.Snapshot()); !errors.Is(err, ErrCoercion) {
		t.Fatalf("expected ErrCoercion for non-canonical date, got %v", err)
	}
}

func TestDecimalScaleRejected(t *testing.T) {
	b := testBuffer(t)
	if err := b.SetCell(0, "price", "1.005"); err != nil {
		t.Fatal(err)
	}
	if _, err := Build(b.Snapshot()); !errors.Is(err, ErrCoercion) {
		t.Fatalf("expected ErrCoercion for excess scale, got %v", err)
	}

	if err := b.SetCell(0, "price", "123456789.00"); err != nil {
		t.Fatal(err)
	}
	if _, err := Build(b.Snapshot()); !errors.Is(err, ErrCoercion) {
		t.Fatalf("expected ErrCoercion for excess precision, got %v", err)
	}
}

func TestBooleanForms(t *testing.T) {
	cat, err := schema.NewCatalog([]schema.Column{
		{Name: "flag", Type: schema.TypeOf(schema.Boolean), Nullable: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	b, err := editbuf.New(cat, []table.Row{{table.Null()}})
	if err != nil {
		t.Fatal(err)
	}

	// "yes" is outside the closed set: stays raw, fails at commit
	if err := b.SetCell(0, "flag", "yes"); err != nil {
		t.Fatal(err)
	}
	if _, err := Build(b.Snapshot()); !errors.Is(err, ErrCoercion) {
		t.Fatalf("expected ErrCoercion, got %v", err)
	}

	if err := b.SetCell(0, "flag", "TRUE"); err != nil {
		t.Fatal(err)
	}
	out, err := Build(b.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Columns[0].Values[0].(bool); !got {
		t.Fatal("TRUE should coerce to true")
	}
}
