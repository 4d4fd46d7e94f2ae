package columnar

import (
	"math"
	"slices"

	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/models"
)

// Table is the finished result of an ingest: five parallel columns of equal
// length, entry i of every column describing source row i.
type Table struct {
	schema models.Schema

	City       *StringColumn
	State      *StringColumn
	Population *Uint64Column
	Latitude   *Float64Column
	Longitude  *Float64Column
}

func newTable(schema models.Schema, capacity int) *Table {
	return &Table{
		schema:     schema,
		City:       NewStringColumn(capacity),
		State:      NewStringColumn(capacity),
		Population: NewUint64Column(capacity),
		Latitude:   NewFloat64Column(capacity),
		Longitude:  NewFloat64Column(capacity),
	}
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.City.Len() }

func (t *Table) Schema() models.Schema { return t.schema }

// Columns returns the columns in schema order.
func (t *Table) Columns() []Column {
	return []Column{t.City, t.State, t.Population, t.Latitude, t.Longitude}
}

// Column looks up a column by schema name.
func (t *Table) Column(name string) (Column, bool) {
	i := t.schema.Index(name)
	if i < 0 {
		return nil, false
	}
	return t.Columns()[i], true
}

// Row reassembles row i.
func (t *Table) Row(i int) (models.Row, error) {
	if i < 0 || i >= t.Len() {
		return models.Row{}, errors.Newf(errors.ErrorTypeInternal, "index %d out of range [0, %d)", i, t.Len())
	}
	pop, ok := t.Population.Value(i)
	return models.Row{
		City:          t.City.Value(i),
		State:         t.State.Value(i),
		Population:    pop,
		HasPopulation: ok,
		Latitude:      t.Latitude.Value(i),
		Longitude:     t.Longitude.Value(i),
	}, nil
}

// Latitudes returns the latitude column as a slice for numeric analysis.
// The slice aliases the table and must not be modified.
func (t *Table) Latitudes() []float64 { return t.Latitude.Values() }

// Longitudes is Latitudes for the longitude column.
func (t *Table) Longitudes() []float64 { return t.Longitude.Values() }

// Equal reports whether both tables hold the same rows in the same order.
// Floats are compared by bit pattern so NaN fallbacks match.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Len() != o.Len() {
		return false
	}
	if !slices.Equal(t.City.values, o.City.values) || !slices.Equal(t.State.values, o.State.values) {
		return false
	}
	for i := 0; i < t.Len(); i++ {
		a, aok := t.Population.Value(i)
		b, bok := o.Population.Value(i)
		if aok != bok || a != b {
			return false
		}
	}
	return floatsEqual(t.Latitude.values, o.Latitude.values) &&
		floatsEqual(t.Longitude.values, o.Longitude.values)
}

func floatsEqual(a, b []float64) bool {
	return slices.EqualFunc(a, b, func(x, y float64) bool {
		return math.Float64bits(x) == math.Float64bits(y)
	})
}

// MemoryUsage returns the approximate payload size in bytes.
func (t *Table) MemoryUsage() int64 {
	var total int64
	for _, col := range t.Columns() {
		total += col.MemoryUsage()
	}
	return total
}

// MemoryPerRecord returns average memory usage per row
func (t *Table) MemoryPerRecord() float64 {
	if t.Len() == 0 {
		return 0
	}
	return float64(t.MemoryUsage()) / float64(t.Len())
}

// Iterator provides sequential access to rows
type Iterator struct {
	table *Table
	index int
}

// NewIterator creates a new iterator over the table
func (t *Table) NewIterator() *Iterator {
	return &Iterator{table: t, index: -1}
}

// Next advances to the next row
func (it *Iterator) Next() bool {
	it.index++
	return it.index < it.table.Len()
}

// Index returns the position of the current row.
func (it *Iterator) Index() int { return it.index }

// Row returns the current row
func (it *Iterator) Row() models.Row {
	r, _ := it.table.Row(it.index)
	return r
}
