package columnar

import (
	"fmt"
	"math"
)

// ColumnType represents the data type of a column
type ColumnType int

const (
	ColumnTypeString ColumnType = iota
	ColumnTypeUint
	ColumnTypeFloat
)

func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "string"
	case ColumnTypeUint:
		return "uint64"
	case ColumnTypeFloat:
		return "float64"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Column is the read side shared by all column types. Appends are typed and
// live on the concrete columns.
type Column interface {
	Type() ColumnType
	Len() int
	// Get returns the boxed value at i, or nil for a null entry.
	Get(i int) interface{}
	Reserve(n int)
	MemoryUsage() int64
}

// StringColumn stores text values
type StringColumn struct {
	values []string
}

// NewStringColumn creates a new string column
func NewStringColumn(capacity int) *StringColumn {
	return &StringColumn{values: make([]string, 0, capacity)}
}

func (c *StringColumn) Type() ColumnType      { return ColumnTypeString }
func (c *StringColumn) Len() int              { return len(c.values) }
func (c *StringColumn) Get(i int) interface{} { return c.values[i] }
func (c *StringColumn) Value(i int) string    { return c.values[i] }

// Values exposes the backing slice. Callers must not modify it.
func (c *StringColumn) Values() []string { return c.values }

func (c *StringColumn) Append(v string) {
	c.values = append(c.values, v)
}

func (c *StringColumn) Reserve(n int) {
	c.values = grow(c.values, n)
}

func (c *StringColumn) MemoryUsage() int64 {
	var total int64
	for _, v := range c.values {
		total += int64(len(v))
		total += 16 // string header overhead
	}
	return total
}

// Uint64Column stores optional unsigned integers. Validity is bit-packed,
// 64 entries per word; a cleared bit marks an absent value.
type Uint64Column struct {
	values []uint64
	valid  []uint64
	nulls  int
}

// NewUint64Column creates a new nullable uint64 column
func NewUint64Column(capacity int) *Uint64Column {
	return &Uint64Column{
		values: make([]uint64, 0, capacity),
		valid:  make([]uint64, 0, (capacity+63)/64),
	}
}

func (c *Uint64Column) Type() ColumnType { return ColumnTypeUint }
func (c *Uint64Column) Len() int         { return len(c.values) }

func (c *Uint64Column) Get(i int) interface{} {
	v, ok := c.Value(i)
	if !ok {
		return nil
	}
	return v
}

// Value returns the entry at i and whether it is present.
func (c *Uint64Column) Value(i int) (uint64, bool) {
	return c.values[i], c.IsValid(i)
}

func (c *Uint64Column) IsValid(i int) bool {
	return c.valid[i/64]&(1<<(i%64)) != 0
}

// Append adds v when ok is true and a null entry otherwise.
func (c *Uint64Column) Append(v uint64, ok bool) {
	i := len(c.values)
	if i/64 >= len(c.valid) {
		c.valid = append(c.valid, 0)
	}
	if ok {
		c.valid[i/64] |= 1 << (i % 64)
	} else {
		v = 0
		c.nulls++
	}
	c.values = append(c.values, v)
}

// NullCount returns the number of absent entries.
func (c *Uint64Column) NullCount() int { return c.nulls }

// Values exposes the backing slice. Null entries hold zero.
func (c *Uint64Column) Values() []uint64 { return c.values }

// ValidityBools expands the validity bitmap, one bool per entry.
func (c *Uint64Column) ValidityBools() []bool {
	out := make([]bool, len(c.values))
	for i := range out {
		out[i] = c.IsValid(i)
	}
	return out
}

func (c *Uint64Column) Reserve(n int) {
	c.values = grow(c.values, n)
	c.valid = grow(c.valid, (len(c.values)+n+63)/64-len(c.valid))
}

func (c *Uint64Column) MemoryUsage() int64 {
	return int64(len(c.values)*8 + len(c.valid)*8)
}

// Float64Column stores floating point values. NaN marks a fallback entry.
type Float64Column struct {
	values []float64
	nans   int
}

// NewFloat64Column creates a new float column
func NewFloat64Column(capacity int) *Float64Column {
	return &Float64Column{values: make([]float64, 0, capacity)}
}

func (c *Float64Column) Type() ColumnType      { return ColumnTypeFloat }
func (c *Float64Column) Len() int              { return len(c.values) }
func (c *Float64Column) Get(i int) interface{} { return c.values[i] }
func (c *Float64Column) Value(i int) float64   { return c.values[i] }

// Values exposes the backing slice. Callers must not modify it.
func (c *Float64Column) Values() []float64 { return c.values }

func (c *Float64Column) Append(v float64) {
	if math.IsNaN(v) {
		c.nans++
	}
	c.values = append(c.values, v)
}

// NaNCount returns the number of NaN entries.
func (c *Float64Column) NaNCount() int { return c.nans }

func (c *Float64Column) Reserve(n int) {
	c.values = grow(c.values, n)
}

func (c *Float64Column) MemoryUsage() int64 {
	return int64(len(c.values) * 8) // 8 bytes per float64
}

// grow ensures room for n more elements without changing the length.
func grow[T any](s []T, n int) []T {
	if n <= 0 || cap(s)-len(s) >= n {
		return s
	}
	out := make([]T, len(s), len(s)+n)
	copy(out, s)
	return out
}
