package models

import "fmt"

// FieldType is the declared type of a schema column
type FieldType int

const (
	// FieldTypeString is free text
	FieldTypeString FieldType = iota
	// FieldTypeOptionalUint is an unsigned integer that may be absent
	FieldTypeOptionalUint
	// FieldTypeFloat is an IEEE-754 float64
	FieldTypeFloat
)

// String returns the type name used in error messages and exported schemas.
func (t FieldType) String() string {
	switch t {
	case FieldTypeString:
		return "string"
	case FieldTypeOptionalUint:
		return "optional<uint64>"
	case FieldTypeFloat:
		return "float64"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Field is a single positional column of a Schema.
type Field struct {
	Name string    `json:"name" yaml:"name"`
	Type FieldType `json:"type" yaml:"type"`
}

// Schema declares the expected column names and types, in positional order.
type Schema struct {
	Name   string  `json:"name" yaml:"name"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Column positions of the city schema.
const (
	ColCity = iota
	ColState
	ColPopulation
	ColLatitude
	ColLongitude

	// NumColumns is the number of positional fields in a city record
	NumColumns
)

// CitySchema returns the declared schema of a city record:
// city, state, population, latitude, longitude.
func CitySchema() Schema {
	return Schema{
		Name: "uspop",
		Fields: []Field{
			{Name: "city", Type: FieldTypeString},
			{Name: "state", Type: FieldTypeString},
			{Name: "population", Type: FieldTypeOptionalUint},
			{Name: "latitude", Type: FieldTypeFloat},
			{Name: "longitude", Type: FieldTypeFloat},
		},
	}
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Index returns the position of the named column or -1.
func (s Schema) Index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}
