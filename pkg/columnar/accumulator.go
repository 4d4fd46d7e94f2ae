package columnar

import (
	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/models"
)

// DefaultCapacity is the initial per-column capacity when no hint is given.
const DefaultCapacity = 1024

// Accumulator builds a Table one row at a time. It has a single writer and
// does no locking.
type Accumulator struct {
	table    *Table
	finished bool
}

// NewAccumulator creates an accumulator for the city schema with every
// column pre-sized to capacityHint (DefaultCapacity when the hint is not
// positive).
func NewAccumulator(capacityHint int) *Accumulator {
	return NewAccumulatorWithSchema(models.CitySchema(), capacityHint)
}

// NewAccumulatorWithSchema is NewAccumulator for a table whose columns carry
// the names of schema. Columns stay positional, so schema must declare
// models.NumColumns fields; an empty schema means the city schema.
func NewAccumulatorWithSchema(schema models.Schema, capacityHint int) *Accumulator {
	if len(schema.Fields) == 0 {
		schema = models.CitySchema()
	}
	if capacityHint <= 0 {
		capacityHint = DefaultCapacity
	}
	return &Accumulator{table: newTable(schema, capacityHint)}
}

// Reserve makes room for n more rows in every column.
func (a *Accumulator) Reserve(n int) {
	if a.finished {
		return
	}
	for _, col := range a.table.Columns() {
		col.Reserve(n)
	}
}

// Append commits one row to all five columns. None of the typed appends can
// fail, so a row is either fully committed or, after Finish, not at all.
func (a *Accumulator) Append(r models.Row) error {
	if a.finished {
		return errors.New(errors.ErrorTypeInternal, "append after finish")
	}
	t := a.table
	t.City.Append(r.City)
	t.State.Append(r.State)
	t.Population.Append(r.Population, r.HasPopulation)
	t.Latitude.Append(r.Latitude)
	t.Longitude.Append(r.Longitude)
	return nil
}

// Len returns the number of committed rows.
func (a *Accumulator) Len() int {
	if a.table == nil {
		return 0
	}
	return a.table.Len()
}

// Finish hands over the completed table. The accumulator is unusable
// afterwards and further calls to Finish return nil.
func (a *Accumulator) Finish() *Table {
	if a.finished {
		return nil
	}
	a.finished = true
	t := a.table
	a.table = nil
	return t
}
