package parser

import (
	"bufio"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colingest/pkg/coerce"
	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/models"
)

const wellFormed = "Springfield,IL,12000,39.78,-89.65\n" +
	"Shelbyville,IL,,39.41,-88.79\n" +
	"Capital City,,+5000,40.1,-90\r\n" +
	"Ogdenville,OR,1200,44.0,-121.5"

// chunk is one step of a scriptedReader: its data is served first, then err.
type chunk struct {
	data string
	err  error
}

type scriptedReader struct {
	chunks []chunk
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	for len(r.chunks) > 0 {
		c := &r.chunks[0]
		if c.data != "" {
			n := copy(p, c.data)
			c.data = c.data[n:]
			return n, nil
		}
		err := c.err
		r.chunks = r.chunks[1:]
		if err != nil {
			return 0, err
		}
	}
	return 0, io.EOF
}

func collect(t *testing.T, p RowParser) ([]models.Row, []error) {
	t.Helper()
	var rows []models.Row
	var errs []error
	for i := 0; i < 1000; i++ {
		row, err := p.Next()
		if err == io.EOF {
			return rows, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rows = append(rows, row)
	}
	t.Fatal("parser did not reach EOF")
	return nil, nil
}

func mustNew(t *testing.T, s Strategy, input string) RowParser {
	t.Helper()
	p, err := New(s, strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Equal(t, s, p.Strategy())
	return p
}

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies() {
		got, err := ParseStrategy(" " + strings.ToUpper(s.String()))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStrategy("serde")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = New(Strategy("serde"), strings.NewReader(""), Options{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestNewRejectsForeignSchema(t *testing.T) {
	schema := models.Schema{Name: "short", Fields: []models.Field{{Name: "city"}}}
	_, err := New(StrategySchema, strings.NewReader(""), Options{Schema: schema})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestStrategiesAgreeOnWellFormedInput(t *testing.T) {
	want, errs := collect(t, mustNew(t, StrategySplit, wellFormed))
	require.Empty(t, errs)
	require.Len(t, want, 4)

	assert.Equal(t, "Springfield", want[0].City)
	assert.False(t, want[1].HasPopulation)
	assert.Equal(t, "", want[2].State)
	assert.Equal(t, uint64(5000), want[2].Population)
	assert.Equal(t, -90.0, want[2].Longitude)
	assert.Equal(t, -121.5, want[3].Longitude)

	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			got, errs := collect(t, mustNew(t, s, wellFormed))
			require.Empty(t, errs)
			require.Len(t, got, len(want))
			for i := range want {
				assert.True(t, want[i].Equal(got[i]), "row %d: want %+v, got %+v", i, want[i], got[i])
			}
		})
	}
}

func TestEmptyNumericFieldsFallBack(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			rows, errs := collect(t, mustNew(t, s, "Nowhere,ZZ,,,\n"))
			require.Empty(t, errs)
			require.Len(t, rows, 1)
			assert.Equal(t, "Nowhere", rows[0].City)
			assert.Equal(t, "ZZ", rows[0].State)
			assert.False(t, rows[0].HasPopulation)
			assert.True(t, math.IsNaN(rows[0].Latitude))
			assert.True(t, math.IsNaN(rows[0].Longitude))
		})
	}
}

func TestFallbackLaws(t *testing.T) {
	for _, s := range []Strategy{StrategySplit, StrategyBytes} {
		t.Run(s.String(), func(t *testing.T) {
			rows, errs := collect(t, mustNew(t, s,
				"Springfield,IL,12000,north,-89.65\nSpringfield,IL,many,39.78,-89.65\n"))
			require.Empty(t, errs)
			require.Len(t, rows, 2)

			assert.True(t, math.IsNaN(rows[0].Latitude))
			assert.Equal(t, -89.65, rows[0].Longitude)
			pop, ok := rows[0].PopulationValue()
			assert.True(t, ok)
			assert.Equal(t, uint64(12000), pop)

			assert.False(t, rows[1].HasPopulation)
			assert.Equal(t, 39.78, rows[1].Latitude)
			assert.Equal(t, -89.65, rows[1].Longitude)
		})
	}
}

func TestMissingTrailingFields(t *testing.T) {
	for _, s := range []Strategy{StrategySplit, StrategyBytes} {
		t.Run(s.String(), func(t *testing.T) {
			rows, errs := collect(t, mustNew(t, s, "Solo\nLonely,AK\nPartial,TX,300\n\n"))
			require.Empty(t, errs)
			require.Len(t, rows, 4)

			assert.Equal(t, "Solo", rows[0].City)
			assert.Equal(t, coerce.MissingText, rows[0].State)
			assert.False(t, rows[0].HasPopulation)
			assert.True(t, math.IsNaN(rows[0].Latitude))

			assert.Equal(t, "AK", rows[1].State)
			assert.True(t, math.IsNaN(rows[1].Longitude))

			assert.Equal(t, uint64(300), rows[2].Population)
			assert.True(t, math.IsNaN(rows[2].Latitude))

			assert.Equal(t, "", rows[3].City)
			assert.Equal(t, coerce.MissingText, rows[3].State)
		})
	}
}

func TestExtraFieldsIgnored(t *testing.T) {
	for _, s := range []Strategy{StrategySplit, StrategyBytes} {
		rows, errs := collect(t, mustNew(t, s, "A,B,1,2,3,extra,more\n"))
		require.Empty(t, errs)
		require.Len(t, rows, 1)
		assert.Equal(t, 3.0, rows[0].Longitude)
	}
}

func TestSchemaRejectsStructuralMismatch(t *testing.T) {
	input := "Springfield,IL,12000,39.78,-89.65\n" +
		"Short,IL,1\n" +
		"Springfield,IL,12000,north,-89.65\n" +
		"Springfield,IL,-3,39.78,-89.65\n" +
		"Bad\"Quote,IL,1,2,3\n" +
		"Ogdenville,OR,1200,44.0,-121.5\n"

	rows, errs := collect(t, mustNew(t, StrategySchema, input))
	require.Len(t, rows, 2)
	require.Len(t, errs, 4)
	for _, err := range errs {
		assert.True(t, errors.IsType(err, errors.ErrorTypeStructure), "%v", err)
		assert.False(t, errors.IsFatal(err))
	}
	assert.Equal(t, "Ogdenville", rows[1].City)

	var e *errors.Error
	require.True(t, errors.As(errs[1], &e))
	col, ok := e.Detail("column")
	require.True(t, ok)
	assert.Equal(t, models.ColLatitude, col)
}

func TestSplitSkipsUndecodableLine(t *testing.T) {
	input := "Caf\xe9,FR,1,2,3\nParis,FR,2,3,4\n"

	rows, errs := collect(t, mustNew(t, StrategySplit, input))
	require.Len(t, errs, 1)
	assert.True(t, errors.IsType(errs[0], errors.ErrorTypeRead))
	require.Len(t, rows, 1)
	assert.Equal(t, "Paris", rows[0].City)

	rows, errs = collect(t, mustNew(t, StrategyBytes, input))
	require.Empty(t, errs)
	require.Len(t, rows, 2)
	assert.Equal(t, "Caf\xe9", rows[0].City)
}

func TestReadErrorResyncsToNextLine(t *testing.T) {
	boom := io.ErrUnexpectedEOF
	inputs := map[string][]chunk{
		"short leftover": {
			{data: "A,B,1,2,3\nC,D", err: boom},
			{data: ",4,5,6\nE,F,7,8,9\n"},
		},
		"leftover looks like a record": {
			{data: "A,B,1,2,3\nC", err: boom},
			{data: "ity,ST,1,2,3\nE,F,7,8,9\n"},
		},
	}
	for _, s := range Strategies() {
		for name, chunks := range inputs {
			t.Run(s.String()+"/"+name, func(t *testing.T) {
				p, err := New(s, &scriptedReader{chunks: append([]chunk(nil), chunks...)}, Options{})
				require.NoError(t, err)

				rows, errs := collect(t, p)
				require.Len(t, errs, 1)
				assert.True(t, errors.IsType(errs[0], errors.ErrorTypeRead))
				assert.ErrorIs(t, errs[0], boom)
				require.Len(t, rows, 2)
				assert.Equal(t, "A", rows[0].City)
				assert.Equal(t, "E", rows[1].City)
			})
		}
	}
}

func TestOutOfRangeFloatsSaturate(t *testing.T) {
	for _, s := range Strategies() {
		rows, errs := collect(t, mustNew(t, s, "Far,YY,1,1e400,-1e400\nNear,YY,1,1e-400,inf\n"))
		require.Empty(t, errs, s)
		require.Len(t, rows, 2, s)
		assert.True(t, math.IsInf(rows[0].Latitude, 1), s)
		assert.True(t, math.IsInf(rows[0].Longitude, -1), s)
		assert.Zero(t, rows[1].Latitude, s)
		assert.True(t, math.IsInf(rows[1].Longitude, 1), s)
	}
}

func TestLongLinesExceedBuffer(t *testing.T) {
	city := strings.Repeat("x", 100)
	input := city + ",ST,1,2,3\nshort,ST,1,2,3\n"
	for _, s := range Strategies() {
		p, err := New(s, strings.NewReader(input), Options{BufferSize: 16})
		require.NoError(t, err)
		rows, errs := collect(t, p)
		require.Empty(t, errs)
		require.Len(t, rows, 2, s)
		assert.Equal(t, city, rows[0].City)
		assert.Equal(t, "short", rows[1].City)
	}
}

func TestBytesRowDoesNotAliasBuffer(t *testing.T) {
	p, err := New(StrategyBytes, strings.NewReader("First,AA,1,2,3\nOther,BB,1,2,3\n"), Options{BufferSize: 16})
	require.NoError(t, err)
	first, err := p.Next()
	require.NoError(t, err)
	_, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, "First", first.City)
	assert.Equal(t, "AA", first.State)
}

func TestSkipLine(t *testing.T) {
	br := bufio.NewReader(strings.NewReader("city,state,population,latitude,longitude\nA,B,1,2,3\n"))
	require.NoError(t, SkipLine(br))

	p, err := New(StrategySchema, br, Options{})
	require.NoError(t, err)
	rows, errs := collect(t, p)
	require.Empty(t, errs)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].City)

	assert.Equal(t, io.EOF, SkipLine(bufio.NewReader(strings.NewReader(""))))
}

func TestSplitLines(t *testing.T) {
	lines, err := SplitLines(strings.NewReader("city,state\r\nA,B,C\n\nlast"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"city", "state"},
		{"A", "B", "C"},
		{""},
		{"last"},
	}, lines)
}

func BenchmarkStrategies(b *testing.B) {
	input := strings.Repeat("Springfield,IL,12000,39.78,-89.65\n", 1000)
	for _, s := range Strategies() {
		b.Run(s.String(), func(b *testing.B) {
			b.SetBytes(int64(len(input)))
			for i := 0; i < b.N; i++ {
				p, err := New(s, strings.NewReader(input), Options{})
				if err != nil {
					b.Fatal(err)
				}
				for {
					if _, err := p.Next(); err != nil {
						break
					}
				}
			}
		})
	}
}
