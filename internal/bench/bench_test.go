package bench

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/ingest"
	"github.com/ajitpratap0/colingest/pkg/parser"
	"github.com/ajitpratap0/colingest/pkg/source"
)

const cities = `city,state,population,latitude,longitude
Springfield,IL,12000,39.78,-89.65
Nowhere,ZZ,,,
Portland,OR,650000,45.52,-122.68
`

func fixture(t *testing.T, body string) source.Opener {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uspop.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	o, err := source.New(path, source.Options{})
	require.NoError(t, err)
	return o
}

func TestRunComparesStrategies(t *testing.T) {
	report, err := Run(context.Background(), fixture(t, cities), Config{
		Iterations:      3,
		Options:         ingest.DefaultOptions(),
		IncludeRawLines: true,
		Logger:          zap.NewNop(),
	})
	require.NoError(t, err)

	require.Len(t, report.Entries, 4)
	assert.True(t, report.Equivalent)
	assert.Equal(t, 3, report.Iterations)
	assert.NotEmpty(t, report.Fastest)
	for i, s := range parser.Strategies() {
		e := report.Entries[i]
		assert.Equal(t, string(s), e.Name)
		assert.Equal(t, 3, e.Rows)
		assert.True(t, e.Matches)
		assert.LessOrEqual(t, e.MinNs, e.MeanNs)
		assert.LessOrEqual(t, e.MeanNs, e.MaxNs)
	}
	raw := report.Entries[3]
	assert.Equal(t, RawLines, raw.Name)
	assert.Equal(t, 4, raw.Lines, "header included")
}

func TestRunFlagsDisagreement(t *testing.T) {
	// invalid UTF-8 is skipped by split but kept by bytes
	body := "city,state,population,latitude,longitude\nSpringfield,IL,12000,39.78,-89.65\nS\xffo,ZZ,1,2,3\n"
	report, err := Run(context.Background(), fixture(t, body), Config{
		Iterations: 1,
		Strategies: []parser.Strategy{parser.StrategySplit, parser.StrategyBytes},
		Options:    ingest.DefaultOptions(),
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)

	assert.False(t, report.Equivalent)
	assert.True(t, report.Entries[0].Matches)
	assert.False(t, report.Entries[1].Matches)
	assert.Equal(t, 1, report.Entries[0].Skipped)
}

func TestRunErrors(t *testing.T) {
	_, err := Run(context.Background(), fixture(t, cities), Config{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	missing, err := source.New(filepath.Join(t.TempDir(), "absent.csv"), source.Options{})
	require.NoError(t, err)
	_, err = Run(context.Background(), missing, Config{Iterations: 1, Options: ingest.DefaultOptions(), Logger: zap.NewNop()})
	assert.True(t, errors.IsType(err, errors.ErrorTypeSource))
}

func TestReportJSON(t *testing.T) {
	report, err := Run(context.Background(), fixture(t, cities), Config{
		Iterations: 1,
		Strategies: []parser.Strategy{parser.StrategySchema},
		Options:    ingest.DefaultOptions(),
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)

	b, err := report.JSON()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `"name": "schema"`))

	var decoded Report
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, report.Entries[0].Rows, decoded.Entries[0].Rows)
}

func TestResourceMonitor(t *testing.T) {
	usage := NewResourceMonitor().Sample()
	assert.NotZero(t, usage.HeapAlloc)
}
