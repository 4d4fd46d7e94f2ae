package coerce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Equal(t, "Springfield", Text("Springfield", true))
	assert.Equal(t, "", Text("", true))
	assert.Equal(t, MissingText, Text("", false))
	assert.Equal(t, MissingText, TextBytes(nil, false))
	assert.Equal(t, "IL", TextBytes([]byte("IL"), true))
}

func TestPopulation(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		present bool
		want    uint64
		ok      bool
	}{
		{"plain", "12000", true, 12000, true},
		{"leading plus", "+12000", true, 12000, true},
		{"zero", "0", true, 0, true},
		{"missing", "", false, 0, false},
		{"empty", "", true, 0, false},
		{"negative", "-5", true, 0, false},
		{"fraction", "12000.5", true, 0, false},
		{"text", "lots", true, 0, false},
		{"double plus", "++1", true, 0, false},
		{"bare plus", "+", true, 0, false},
		{"overflow", "18446744073709551616", true, 0, false},
		{"trailing space", "12000 ", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Population(tt.field, tt.present)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, v)

			bv, bok := PopulationBytes([]byte(tt.field), tt.present)
			assert.Equal(t, ok, bok)
			assert.Equal(t, v, bv)
		})
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		present bool
		want    float64
		nan     bool
	}{
		{"latitude", "39.78", true, 39.78, false},
		{"negative", "-89.65", true, -89.65, false},
		{"integer", "40", true, 40, false},
		{"exponent", "1e2", true, 100, false},
		{"overflow", "1e400", true, math.Inf(1), false},
		{"negative overflow", "-1e400", true, math.Inf(-1), false},
		{"underflow", "1e-400", true, 0, false},
		{"infinity", "inf", true, math.Inf(1), false},
		{"missing", "", false, 0, true},
		{"empty", "", true, 0, true},
		{"text", "north", true, 0, true},
		{"carriage return", "-89.65\r", true, 0, true},
		{"trailing space", "-89.65 ", true, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Float(tt.field, tt.present)
			gotBytes := FloatBytes([]byte(tt.field), tt.present)
			if tt.nan {
				assert.True(t, math.IsNaN(got), "got %v", got)
				assert.True(t, math.IsNaN(gotBytes), "got %v", gotBytes)
				return
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, gotBytes)
		})
	}
}

func TestTrimLineEnd(t *testing.T) {
	assert.Equal(t, "a,b", TrimLineEnd("a,b\r\n"))
	assert.Equal(t, "a,b", TrimLineEnd("a,b\n"))
	assert.Equal(t, "a,b ", TrimLineEnd("a,b \n"))
	assert.Equal(t, "", TrimLineEnd("\n"))

	assert.Equal(t, []byte("a,b"), TrimLineEndBytes([]byte("a,b\r\n")))
	assert.Equal(t, []byte{}, TrimLineEndBytes([]byte("\r\n")))
}
