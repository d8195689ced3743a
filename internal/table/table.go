// Package table assembles row-oriented point-agent tables from property-sets
// and encodes them as CSV.
package table

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ERKuipers/campo/internal/dataset"
)

var (
	// ErrUnsupportedForPointExport indicates a property-set whose space type
	// cannot be assembled into a point table.
	ErrUnsupportedForPointExport = errors.New("table: space type not supported for point export")

	// ErrTimestepOutOfRange indicates a 1-based timestep outside the stored range.
	ErrTimestepOutOfRange = errors.New("table: timestep out of range")

	// ErrLengthMismatch indicates a column whose length differs from the table's.
	ErrLengthMismatch = errors.New("table: column length mismatch")

	// ErrNoProperties indicates a property-set without properties.
	ErrNoProperties = errors.New("table: property set has no properties")
)

// Column is one named, typed column. Integer columns assembled from a
// dataset also carry Ints, the exact values Values may round.
type Column struct {
	Name   string
	DType  dataset.DType
	Values []float64
	Ints   []int64
}

// Hint is the type hint written to the CSVT side file.
func (c Column) Hint() string {
	switch {
	case c.DType.IsFloat():
		return "Real"
	case c.DType.IsInteger():
		return "Integer"
	default:
		return "String"
	}
}

// Table is an ordered set of equal-length columns.
type Table struct {
	columns []Column
}

func New() *Table {
	return &Table{}
}

// Set appends c, or replaces the column of the same name in place.
func (t *Table) Set(c Column) error {
	if len(t.columns) > 0 {
		i := t.index(c.Name)
		if (i < 0 || len(t.columns) > 1) && len(c.Values) != t.Len() {
			return fmt.Errorf("%w: %q has %d rows, table has %d", ErrLengthMismatch, c.Name, len(c.Values), t.Len())
		}
		if i >= 0 {
			t.columns[i] = c
			return nil
		}
	}
	t.columns = append(t.columns, c)
	return nil
}

func (t *Table) index(name string) int {
	return slices.IndexFunc(t.columns, func(c Column) bool { return c.Name == name })
}

func (t *Table) Column(name string) (Column, bool) {
	i := t.index(name)
	if i < 0 {
		return Column{}, false
	}
	return t.columns[i], true
}

func (t *Table) Columns() []Column {
	return slices.Clone(t.columns)
}

func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Hints returns one CSVT type hint per column.
func (t *Table) Hints() []string {
	hints := make([]string, len(t.columns))
	for i, c := range t.columns {
		hints[i] = c.Hint()
	}
	return hints
}

// Len is the row count.
func (t *Table) Len() int {
	if len(t.columns) == 0 {
		return 0
	}
	return len(t.columns[0].Values)
}

// Rename changes a column name in place.
func (t *Table) Rename(from, to string) bool {
	i := t.index(from)
	if i < 0 {
		return false
	}
	t.columns[i].Name = to
	return true
}

// Clone returns a copy whose columns can be replaced without touching t.
func (t *Table) Clone() *Table {
	out := &Table{columns: make([]Column, len(t.columns))}
	for i, c := range t.columns {
		c.Values = slices.Clone(c.Values)
		c.Ints = slices.Clone(c.Ints)
		out.columns[i] = c
	}
	return out
}
