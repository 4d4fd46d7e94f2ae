// Package metrics exposes Prometheus collectors for ingest runs.
//
// # Basic Usage
//
//	timer := metrics.NewTimer("ingest")
//	res, err := driver.Run(ctx)
//	metrics.ObserveRun("split", res.Table.Len(), res.Skipped, res.Rejected, timer.Stop(), err)
//
//	// Dump everything for a node_exporter textfile collector
//	_ = metrics.WriteTextfile("/var/lib/node_exporter/colingest.prom")
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons used as the "reason" label of RowsDropped.
const (
	ReasonSkipped  = "skipped"
	ReasonRejected = "rejected"
)

var (
	// RowsCommitted counts rows appended to a table.
	// Labels: strategy (schema/split/bytes)
	RowsCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colingest_rows_committed_total",
			Help: "Total number of rows committed to a table",
		},
		[]string{"strategy"},
	)

	// RowsDropped counts input units that did not produce a row.
	// Labels: strategy, reason (skipped/rejected)
	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colingest_rows_dropped_total",
			Help: "Total number of input lines dropped",
		},
		[]string{"strategy", "reason"},
	)

	// IngestDuration tracks the wall time of a whole run in seconds.
	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "colingest_ingest_duration_seconds",
			Help:    "Duration of an ingest run",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10), // 0.5ms .. ~2min
		},
		[]string{"strategy"},
	)

	// IngestRuns counts finished runs by outcome.
	// Labels: strategy, status (success/error)
	IngestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colingest_ingest_runs_total",
			Help: "Total number of ingest runs",
		},
		[]string{"strategy", "status"},
	)

	// Throughput is the rows per second of the last run.
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "colingest_throughput_rows_per_second",
			Help: "Rows per second of the most recent run",
		},
		[]string{"strategy"},
	)

	// BenchLatency holds per-strategy benchmark percentiles in seconds.
	BenchLatency = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "colingest_bench_latency_seconds",
			Help: "Benchmark iteration latency percentiles",
		},
		[]string{"strategy", "quantile"},
	)
)

// ObserveRun records the outcome of one ingest run.
func ObserveRun(strategy string, committed, skipped, rejected int, d time.Duration, err error) {
	IngestRuns.WithLabelValues(strategy, getStatus(err)).Inc()
	IngestDuration.WithLabelValues(strategy).Observe(d.Seconds())
	if err != nil {
		return
	}
	RowsCommitted.WithLabelValues(strategy).Add(float64(committed))
	RowsDropped.WithLabelValues(strategy, ReasonSkipped).Add(float64(skipped))
	RowsDropped.WithLabelValues(strategy, ReasonRejected).Add(float64(rejected))
	if secs := d.Seconds(); secs > 0 {
		Throughput.WithLabelValues(strategy).Set(float64(committed) / secs)
	}
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func getStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the label the timer was created with.
func (t *Timer) Name() string { return t.name }

// Stop returns the elapsed duration since creation. It can be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// LatencyTracker keeps the most recent maxSize durations for percentile
// queries. Safe for concurrent use.
type LatencyTracker struct {
	mu      sync.Mutex
	values  []time.Duration
	maxSize int
}

// NewLatencyTracker creates a new latency tracker
func NewLatencyTracker(maxSize int) *LatencyTracker {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LatencyTracker{
		values:  make([]time.Duration, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record records a latency value
func (l *LatencyTracker) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.values) >= l.maxSize {
		// Remove oldest
		l.values = l.values[1:]
	}
	l.values = append(l.values, d)
}

// Count returns how many values are held.
func (l *LatencyTracker) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.values)
}

// Mean returns the average of the held values.
func (l *LatencyTracker) Mean() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.values) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range l.values {
		sum += v
	}
	return sum / time.Duration(len(l.values))
}

// Percentile returns the nearest-rank percentile p (0-100).
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.values) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(l.values))
	copy(sorted, l.values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * p / 100)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
