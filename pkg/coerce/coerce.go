// Package coerce is the field coercion policy shared by every row parser.
//
// Each function maps one raw field to a typed value and never fails:
//
//   - text: missing → MissingText, present but empty → ""
//   - population: missing or unparsable → absent
//   - latitude/longitude: missing or unparsable → NaN
//
// Callers strip the line terminator with TrimLineEnd before splitting. Any
// other trailing byte on the last field (a space, a tab) makes the float
// parse fall back to NaN, and that is the intended behaviour.
package coerce

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unsafe"
)

// MissingText is substituted for a text field that is not present at all.
const MissingText = "None"

// Text returns the text value of a field.
func Text(field string, present bool) string {
	if !present {
		return MissingText
	}
	return field
}

// Population parses an optional unsigned integer. The second result is false
// when the field is missing or not a valid unsigned decimal.
func Population(field string, present bool) (uint64, bool) {
	if !present || field == "" {
		return 0, false
	}
	if field[0] == '+' {
		field = field[1:]
		if field == "" || field[0] == '+' {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(field, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Float parses a float64, falling back to NaN.
func Float(field string, present bool) float64 {
	if !present || field == "" {
		return math.NaN()
	}
	v, ok := ParseFloat(field)
	if !ok {
		return math.NaN()
	}
	return v
}

// ParseFloat parses a decimal float. Literals beyond the float64 range
// saturate to ±Inf, or to ±0 when too small, instead of failing.
func ParseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return v, true
}

// TrimLineEnd removes trailing '\n' and '\r' characters.
func TrimLineEnd(line string) string {
	return strings.TrimRight(line, "\r\n")
}

// TrimLineEndBytes is TrimLineEnd for raw bytes. It re-slices b.
func TrimLineEndBytes(b []byte) []byte {
	n := len(b)
	for n > 0 && (b[n-1] == '\n' || b[n-1] == '\r') {
		n--
	}
	return b[:n]
}

// TextBytes copies a raw text field out of a reusable buffer.
func TextBytes(field []byte, present bool) string {
	if !present {
		return MissingText
	}
	return string(field)
}

// PopulationBytes applies Population to a raw field without copying it.
func PopulationBytes(field []byte, present bool) (uint64, bool) {
	return Population(view(field), present)
}

// FloatBytes applies Float to a raw field without copying it.
func FloatBytes(field []byte, present bool) float64 {
	return Float(view(field), present)
}

// view aliases b as a string for the duration of a parse call. The result
// must not outlive b.
func view(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
