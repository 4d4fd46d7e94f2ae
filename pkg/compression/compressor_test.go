package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colingest/pkg/errors"
)

func TestRoundTripAllAlgorithms(t *testing.T) {
	original := []byte(strings.Repeat("Springfield,IL,12000,39.78,-89.65\n", 200))

	for _, algo := range Algorithms() {
		for _, level := range []Level{Fastest, Default, Best} {
			t.Run(string(algo), func(t *testing.T) {
				var buf bytes.Buffer
				w, err := NewWriter(algo, &buf, level)
				require.NoError(t, err)
				_, err = w.Write(original)
				require.NoError(t, err)
				require.NoError(t, w.Close())

				if algo != None {
					assert.Less(t, buf.Len(), len(original), "expected %s to shrink repetitive input", algo)
				}

				r, err := NewReader(algo, &buf)
				require.NoError(t, err)
				got, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())
				assert.Equal(t, original, got)
			})
		}
	}
}

func TestDetect(t *testing.T) {
	tests := map[string]Algorithm{
		"uspop.csv":              None,
		"uspop.csv.gz":           Gzip,
		"s3://b/k/uspop.CSV.ZST": Zstd,
		"uspop.csv.lz4":          LZ4,
		"uspop.csv.sz":           Snappy,
		"uspop.csv.s2":           S2,
		"noext":                  None,
	}
	for name, want := range tests {
		assert.Equal(t, want, Detect(name), name)
	}
	for _, a := range Algorithms() {
		if a != None {
			assert.Equal(t, a, Detect("x"+Extension(a)))
		}
	}
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm(" ZSTD ")
	require.NoError(t, err)
	assert.Equal(t, Zstd, a)

	a, err = ParseAlgorithm("auto")
	require.NoError(t, err)
	assert.Equal(t, Algorithm(""), a)

	_, err = ParseAlgorithm("brotli")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestNewReaderRejectsCorruptGzip(t *testing.T) {
	_, err := NewReader(Gzip, strings.NewReader("not gzip"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSource))
}
