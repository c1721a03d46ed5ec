package editbuf

import (
	"errors"
	"testing"

	"github.com/parqedit/parqedit/schema"
	"github.com/parqedit/parqedit/table"
)

func testBuffer(t *testing.T, names ...string) *Buffer {
	t.Helper()
	cat, err := schema.NewCatalog([]schema.Column{
		{Name: "id", Type: schema.TypeOf(schema.Int64)},
		{Name: "name", Type: schema.TypeOf(schema.Utf8), Nullable: true},
		{Name: "active", Type: schema.TypeOf(schema.Boolean), Nullable: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	rows := make([]table.Row, len(names))
	for i, n := range names {
		rows[i] = table.Row{table.Int64(int64(i)), table.String(n), table.Bool(true)}
	}
	b, err := New(cat, rows)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestSetCell(t *testing.T) {
	b := testBuffer(t, "A")

	if err := b.SetCell(0, "name", "B"); err != nil {
		t.Fatal(err)
	}
	c, err := b.Cell(0, "name")
	if err != nil {
		t.Fatal(err)
	}
	if c.Kind() != table.KindValue || c.Value().(string) != "B" {
		t.Fatalf("utf8 edit should be typed immediately, got %+v", c)
	}

	if err := b.SetCell(0, "active", "false"); err != nil {
		t.Fatal(err)
	}
	c, _ = b.Cell(0, "active")
	if c.Kind() != table.KindValue || c.Value().(bool) != false {
		t.Fatal("parseable boolean edit should be typed immediately")
	}

	if err := b.SetCell(0, "id", "12"); err != nil {
		t.Fatal(err)
	}
	c, _ = b.Cell(0, "id")
	if c.Kind() != table.KindRaw || c.RawText() != "12" {
		t.Fatal("numeric edit should stay raw until commit")
	}

	if err := b.SetCell(0, "name", ""); err != nil {
		t.Fatal(err)
	}
	c, _ = b.Cell(0, "name")
	if !c.IsNull() {
		t.Fatal("empty input should store null")
	}
}

func TestSetCellErrors(t *testing.T) {
	b := testBuffer(t, "A")
	if err := b.SetCell(5, "name", "x"); !errors.Is(err, ErrRowIndex) {
		t.Fatalf("expected ErrRowIndex, got %v", err)
	}
	if err := b.SetCell(0, "nope", "x"); !errors.Is(err, schema.ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestDeleteRowsOrderAndIdempotence(t *testing.T) {
	b := testBuffer(t, "A", "B", "C", "D")

	if n := b.DeleteRows([]int{1, 3}); n != 2 {
		t.Fatalf("expected 2 rows after delete, got %d", n)
	}
	c, _ := b.Cell(0, "name")
	if c.Value().(string) != "A" {
		t.Fatal("row 0 should be A")
	}
	c, _ = b.Cell(1, "name")
	if c.Value().(string) != "C" {
		t.Fatal("row 1 should be C")
	}

	// Indices resolved against current state: 3 is now absent, ignoring it
	// is not an error and removes nothing extra
	if n := b.DeleteRows([]int{3}); n != 2 {
		t.Fatalf("stale index changed row count to %d", n)
	}
}

func TestSelectionRenumbersOnDelete(t *testing.T) {
	b := testBuffer(t, "A", "B", "C", "D")
	b.Select([]int{2, 3})
	b.DeleteRows([]int{0})
	sel := b.Selected()
	if len(sel) != 2 || sel[0] != 1 || sel[1] != 2 {
		t.Fatalf("selection not renumbered: %v", sel)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	b := testBuffer(t, "A", "B")
	snap := b.Snapshot()

	if err := b.SetCell(0, "name", "edited"); err != nil {
		t.Fatal(err)
	}
	b.DeleteRows([]int{1})

	if len(snap.Rows) != 2 {
		t.Fatal("snapshot saw a later delete")
	}
	if snap.Rows[0][1].Value().(string) != "A" {
		t.Fatal("snapshot saw a later edit")
	}
}

func TestAppendRow(t *testing.T) {
	b := testBuffer(t, "A")
	i := b.AppendRow()
	if i != 1 || b.NumRows() != 2 {
		t.Fatalf("append returned %d, rows %d", i, b.NumRows())
	}
	c, _ := b.Cell(1, "id")
	if !c.IsNull() {
		t.Fatal("appended row should be all null")
	}
}

func TestNewRejectsRaggedRows(t *testing.T) {
	cat, err := schema.NewCatalog([]schema.Column{
		{Name: "a", Type: schema.TypeOf(schema.Int64)},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = New(cat, []table.Row{{table.Int64(1), table.Int64(2)}})
	if err == nil {
		t.Fatal("expected error for ragged row")
	}
}
