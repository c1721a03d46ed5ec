// Package editbuf holds the live row sequence between load and save. It is
// the only mutable state in the engine; everything downstream works off
// snapshots.
package editbuf

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/parqedit/parqedit/schema"
	"github.com/parqedit/parqedit/table"
)

var ErrRowIndex = errors.New("row index out of range")

type (
	// Buffer owns the rows of one generation. It never performs I/O and
	// never changes the catalog: edits can change values, not shape.
	// Single-writer: the owning session applies operations in call order.
	Buffer struct {
		catalog  *schema.Catalog
		rows     []table.Row
		selected map[int]struct{}
	}

	// Snapshot is a read-only copy of the buffer at one moment. Later
	// operations on the buffer do not show through.
	Snapshot struct {
		Catalog *schema.Catalog
		Rows    []table.Row
	}
)

func New(catalog *schema.Catalog, rows []table.Row) (*Buffer, error) {
	for i, row := range rows {
		if len(row) != catalog.Len() {
			return nil, fmt.Errorf("row %d has %d cells, schema has %d columns", i, len(row), catalog.Len())
		}
	}
	return &Buffer{
		catalog:  catalog,
		rows:     rows,
		selected: make(map[int]struct{}),
	}, nil
}

func (b *Buffer) Catalog() *schema.Catalog {
	return b.catalog
}

func (b *Buffer) NumRows() int {
	return len(b.rows)
}

// SetCell applies a text edit. Empty input means null. Utf8 and parseable
// Boolean input is typed immediately; everything else is stored as a raw
// edit and coerced at commit.
func (b *Buffer) SetCell(rowIndex int, columnName, text string) error {
	if rowIndex < 0 || rowIndex >= len(b.rows) {
		return fmt.Errorf("row %d of %d: %w", rowIndex, len(b.rows), ErrRowIndex)
	}
	ci, err := b.catalog.ColumnIndex(columnName)
	if err != nil {
		return err
	}
	b.rows[rowIndex][ci] = cellForInput(b.catalog.Column(ci), text)
	return nil
}

func cellForInput(col schema.Column, text string) table.Cell {
	if text == "" {
		return table.Null()
	}
	switch col.Type.Kind {
	case schema.Utf8:
		return table.String(text)
	case schema.Boolean:
		if v, err := strconv.ParseBool(text); err == nil {
			return table.Bool(v)
		}
	}
	return table.Raw(text)
}

// Cell reads one cell without copying the row.
func (b *Buffer) Cell(rowIndex int, columnName string) (table.Cell, error) {
	if rowIndex < 0 || rowIndex >= len(b.rows) {
		return table.Cell{}, fmt.Errorf("row %d of %d: %w", rowIndex, len(b.rows), ErrRowIndex)
	}
	ci, err := b.catalog.ColumnIndex(columnName)
	if err != nil {
		return table.Cell{}, err
	}
	return b.rows[rowIndex][ci], nil
}

// DeleteRows removes the given positions, keeping survivor order. Indices
// outside the current range are ignored, so repeating a delete is a no-op.
// Returns the new row count.
func (b *Buffer) DeleteRows(indices []int) int {
	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(b.rows) {
			drop[i] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return len(b.rows)
	}

	survivors := b.rows[:0]
	newSelected := make(map[int]struct{}, len(b.selected))
	kept := 0
	for i, row := range b.rows {
		if _, gone := drop[i]; gone {
			continue
		}
		if _, sel := b.selected[i]; sel {
			newSelected[kept] = struct{}{}
		}
		survivors = append(survivors, row)
		kept++
	}
	b.rows = survivors
	b.selected = newSelected
	return len(b.rows)
}

// AppendRow grows the buffer by one all-null row and returns its index.
func (b *Buffer) AppendRow() int {
	b.rows = append(b.rows, table.NullRow(b.catalog.Len()))
	return len(b.rows) - 1
}

// Select replaces the row selection. Out-of-range positions are dropped.
func (b *Buffer) Select(indices []int) {
	b.selected = make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(b.rows) {
			b.selected[i] = struct{}{}
		}
	}
}

// Selected returns the selection in ascending order, renumbered past any
// deletions since it was set.
func (b *Buffer) Selected() []int {
	out := make([]int, 0, len(b.selected))
	for i := range b.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Snapshot copies the current rows. The copy reflects every operation
// applied so far and none applied later.
func (b *Buffer) Snapshot() Snapshot {
	rows := make([]table.Row, len(b.rows))
	for i, row := range b.rows {
		rows[i] = row.Clone()
	}
	return Snapshot{Catalog: b.catalog, Rows: rows}
}
