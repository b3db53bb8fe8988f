package cte

import (
	"github.com/ridoystarlord/cteshape/schema"
)

// Column is a named scalar slot of a CTE or temporary table.
type Column struct {
	Name    string
	Mapping schema.JdbcMapping
}

// ShapeProducer describes the query shape a table was derived from and can
// map its result columns back to logical attributes.
type ShapeProducer interface {
	DetermineColumns() ([]Column, error)
}

// Table describes the definition of a CTE or temporary table: its name and
// its columns. A Table is immutable once built.
type Table struct {
	name    string
	shape   ShapeProducer
	columns []Column
}

// NewTable builds a table from an explicit column list. The columns are copied.
func NewTable(name string, columns []Column) *Table {
	return newTable(name, nil, columns)
}

// NewShapedTable builds a table whose columns are determined by producer.
func NewShapedTable(name string, producer ShapeProducer) (*Table, error) {
	columns, err := producer.DetermineColumns()
	if err != nil {
		return nil, err
	}
	return newTable(name, producer, columns), nil
}

func newTable(name string, shape ShapeProducer, columns []Column) *Table {
	if name == "" {
		panic("cte: table name must not be empty")
	}
	owned := make([]Column, len(columns))
	copy(owned, columns)
	return &Table{
		name:    name,
		shape:   shape,
		columns: owned,
	}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Shape returns the producer the table was derived from, or nil.
func (t *Table) Shape() ShapeProducer {
	return t.shape
}

// Columns returns a copy of the table's columns in order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.columns)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// WithName returns a table with the same columns and shape under another name.
func (t *Table) WithName(name string) *Table {
	if name == "" {
		panic("cte: table name must not be empty")
	}
	return &Table{
		name:    name,
		shape:   t.shape,
		columns: t.columns,
	}
}
