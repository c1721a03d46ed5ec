package schema

import (
	"errors"
	"fmt"
)

type (
	// Kind is the closed set of logical column types the engine models.
	// A column is bound to exactly one Kind for the life of a load.
	Kind int

	// TimeUnit is the resolution of a Timestamp column.
	TimeUnit int

	// LogicalType is a Kind plus its parameters. Unit is only meaningful
	// for Timestamp, Precision/Scale only for Decimal.
	LogicalType struct {
		Kind      Kind
		Unit      TimeUnit
		Precision int32
		Scale     int32
	}

	// Column describes one field of a table. Name is unique within a
	// Catalog, order within the Catalog is significant.
	Column struct {
		Name     string
		Type     LogicalType
		Nullable bool
	}

	// Catalog is the immutable, ordered column set for one load->edit->save
	// generation. It is never mutated after construction.
	Catalog struct {
		columns     []Column
		nameToIndex map[string]int
	}
)

const (
	Boolean Kind = iota
	Int32
	Int64
	Float32
	Float64
	Utf8
	Binary
	Date
	Timestamp
	Decimal
)

const (
	UnitMillis TimeUnit = iota
	UnitMicros
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrUnsupportedType = errors.New("unsupported logical type")
)

func (k Kind) String() string {
	switch k {
	case Boolean:
		return "Boolean"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case Utf8:
		return "Utf8"
	case Binary:
		return "Binary"
	case Date:
		return "Date"
	case Timestamp:
		return "Timestamp"
	case Decimal:
		return "Decimal"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (u TimeUnit) String() string {
	if u == UnitMicros {
		return "us"
	}
	return "ms"
}

func (t LogicalType) String() string {
	switch t.Kind {
	case Timestamp:
		return fmt.Sprintf("Timestamp(%s)", t.Unit)
	case Decimal:
		return fmt.Sprintf("Decimal(%d,%d)", t.Precision, t.Scale)
	}
	return t.Kind.String()
}

// Equal compares kinds and the parameters relevant to that kind.
func (t LogicalType) Equal(o LogicalType) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case Timestamp:
		return t.Unit == o.Unit
	case Decimal:
		return t.Precision == o.Precision && t.Scale == o.Scale
	}
	return true
}

func TypeOf(k Kind) LogicalType {
	return LogicalType{Kind: k}
}

func TimestampType(u TimeUnit) LogicalType {
	return LogicalType{Kind: Timestamp, Unit: u}
}

func DecimalType(precision, scale int32) LogicalType {
	return LogicalType{Kind: Decimal, Precision: precision, Scale: scale}
}

// NewCatalog builds a Catalog from columns in the given order.
func NewCatalog(columns []Column) (*Catalog, error) {
	c := &Catalog{
		columns:     make([]Column, len(columns)),
		nameToIndex: make(map[string]int, len(columns)),
	}
	copy(c.columns, columns)
	for i, col := range c.columns {
		if _, exists := c.nameToIndex[col.Name]; exists {
			return nil, fmt.Errorf("column %q: %w", col.Name, ErrDuplicateColumn)
		}
		c.nameToIndex[col.Name] = i
	}
	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.columns)
}

// Column returns the descriptor at position i.
func (c *Catalog) Column(i int) Column {
	return c.columns[i]
}

// Columns returns a copy so callers cannot reach the backing array.
func (c *Catalog) Columns() []Column {
	out := make([]Column, len(c.columns))
	copy(out, c.columns)
	return out
}

// ColumnIndex resolves a column name to its position.
func (c *Catalog) ColumnIndex(name string) (int, error) {
	i, ok := c.nameToIndex[name]
	if !ok {
		return -1, fmt.Errorf("column %q: %w", name, ErrUnknownColumn)
	}
	return i, nil
}

func (c *Catalog) Names() []string {
	names := make([]string, len(c.columns))
	for i, col := range c.columns {
		names[i] = col.Name
	}
	return names
}
