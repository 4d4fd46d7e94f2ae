package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	if pb.Counter != nil {
		return pb.Counter.GetValue()
	}
	return pb.Gauge.GetValue()
}

func TestObserveRun(t *testing.T) {
	before := value(t, RowsCommitted.WithLabelValues("metrics-test"))
	ObserveRun("metrics-test", 10, 2, 1, 50*time.Millisecond, nil)

	assert.Equal(t, before+10, value(t, RowsCommitted.WithLabelValues("metrics-test")))
	assert.Equal(t, 2.0, value(t, RowsDropped.WithLabelValues("metrics-test", ReasonSkipped)))
	assert.Equal(t, 1.0, value(t, RowsDropped.WithLabelValues("metrics-test", ReasonRejected)))
	assert.InDelta(t, 200.0, value(t, Throughput.WithLabelValues("metrics-test")), 0.001)

	ObserveRun("metrics-test", 0, 0, 0, time.Millisecond, errors.New("boom"))
	assert.Equal(t, 1.0, value(t, IngestRuns.WithLabelValues("metrics-test", "error")))
	assert.Equal(t, before+10, value(t, RowsCommitted.WithLabelValues("metrics-test")))
}

func TestWriteTextfile(t *testing.T) {
	ObserveRun("textfile-test", 1, 0, 0, time.Millisecond, nil)
	path := filepath.Join(t.TempDir(), "colingest.prom")
	require.NoError(t, WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `colingest_rows_committed_total{strategy="textfile-test"} 1`))
}

func TestLatencyTracker(t *testing.T) {
	l := NewLatencyTracker(3)
	assert.Zero(t, l.Percentile(50))
	assert.Zero(t, l.Mean())

	for _, ms := range []int{40, 10, 30, 20} {
		l.Record(time.Duration(ms) * time.Millisecond)
	}
	assert.Equal(t, 3, l.Count())
	assert.Equal(t, 10*time.Millisecond, l.Percentile(0))
	assert.Equal(t, 20*time.Millisecond, l.Percentile(50))
	assert.Equal(t, 30*time.Millisecond, l.Percentile(100))
	assert.Equal(t, 20*time.Millisecond, l.Mean())
}

func TestTimer(t *testing.T) {
	timer := NewTimer("ingest")
	time.Sleep(time.Millisecond)
	assert.Equal(t, "ingest", timer.Name())
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
}
