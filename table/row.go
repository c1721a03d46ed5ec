package table

// Row is an ordered cell sequence, positionally aligned to a schema.Catalog.
// Rows have no identity beyond their current position in the buffer.
type Row []Cell

// NullRow returns a row of width cells, all null.
func NullRow(width int) Row {
	r := make(Row, width)
	for i := range r {
		r[i] = Null()
	}
	return r
}

// Clone copies the row. Cells are immutable values, so a shallow cell copy
// is a full copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}
