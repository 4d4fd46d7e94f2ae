// Package models defines the record shapes exchanged between the row parsers
// and the columnar accumulator.
package models

import "math"

// Row is one decoded city record. A Row is produced by a row parser from a
// single input line, consumed by the accumulator and then discarded.
type Row struct {
	City  string
	State string

	// Population is only meaningful when HasPopulation is true.
	Population    uint64
	HasPopulation bool

	Latitude  float64
	Longitude float64
}

// PopulationValue returns the population and whether it is present.
func (r Row) PopulationValue() (uint64, bool) {
	return r.Population, r.HasPopulation
}

// Equal compares two rows field for field. Floats are compared by bit
// pattern so NaN fallbacks compare equal to each other.
func (r Row) Equal(o Row) bool {
	if r.City != o.City || r.State != o.State {
		return false
	}
	if r.HasPopulation != o.HasPopulation {
		return false
	}
	if r.HasPopulation && r.Population != o.Population {
		return false
	}
	return math.Float64bits(r.Latitude) == math.Float64bits(o.Latitude) &&
		math.Float64bits(r.Longitude) == math.Float64bits(o.Longitude)
}
