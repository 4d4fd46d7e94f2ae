// Package bench compares the parser strategies on the same source.
//
// Every strategy ingests the source Iterations times. The report carries
// the timing spread, the process memory around the runs and whether the
// tables agree with the first strategy.
package bench

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colingest/pkg/columnar"
	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/ingest"
	"github.com/ajitpratap0/colingest/pkg/logger"
	"github.com/ajitpratap0/colingest/pkg/metrics"
	"github.com/ajitpratap0/colingest/pkg/parser"
	"github.com/ajitpratap0/colingest/pkg/source"
)

// RawLines names the report entry of the uncoerced line split.
const RawLines = "lines"

// Config controls a comparison.
type Config struct {
	Iterations int
	Strategies []parser.Strategy
	// Options is the ingest template; Strategy is overwritten per entry.
	Options ingest.Options
	// IncludeRawLines also times ingest.Lines over the source.
	IncludeRawLines bool
	Logger          *zap.Logger
}

// Report is the outcome of Run.
type Report struct {
	Source     string        `json:"source"`
	Iterations int           `json:"iterations"`
	Entries    []Entry       `json:"entries"`
	Equivalent bool          `json:"equivalent"`
	Fastest    string        `json:"fastest"`
	Resources  ResourceUsage `json:"resources"`
}

// Entry is the result of one strategy.
type Entry struct {
	Name          string  `json:"name"`
	Rows          int     `json:"rows"`
	Lines         int     `json:"lines"`
	Skipped       int     `json:"skipped"`
	Rejected      int     `json:"rejected"`
	MinNs         int64   `json:"min_ns"`
	MeanNs        int64   `json:"mean_ns"`
	P50Ns         int64   `json:"p50_ns"`
	P95Ns         int64   `json:"p95_ns"`
	MaxNs         int64   `json:"max_ns"`
	RowsPerSecond float64 `json:"rows_per_second"`
	// RSSDelta is the resident set growth across the iterations.
	RSSDelta        int64   `json:"rss_delta_bytes"`
	MemoryPerRecord float64 `json:"memory_per_record_bytes"`
	// Matches is false when the table differs from the first strategy's.
	Matches bool `json:"matches"`
}

// Min returns the fastest iteration.
func (e Entry) Min() time.Duration { return time.Duration(e.MinNs) }

// Mean returns the average iteration.
func (e Entry) Mean() time.Duration { return time.Duration(e.MeanNs) }

// JSON encodes the report for the CLI.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Run benchmarks every configured strategy over opener. The opener must be
// reopenable, which rules out stdin.
func Run(ctx context.Context, opener source.Opener, cfg Config) (*Report, error) {
	if cfg.Iterations <= 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "iterations must be positive")
	}
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = parser.Strategies()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}
	log = log.With(zap.String("component", "bench"), zap.String("source", opener.String()))

	monitor := NewResourceMonitor()
	report := &Report{Source: opener.String(), Iterations: cfg.Iterations, Equivalent: true}
	var (
		reference *columnar.Table
		fastest   time.Duration
	)
	for _, strategy := range cfg.Strategies {
		opts := cfg.Options
		opts.Strategy = strategy
		driver := ingest.New(opener, opts, ingest.WithLogger(log), ingest.WithMetrics(false))

		tracker := metrics.NewLatencyTracker(cfg.Iterations)
		before := monitor.Sample()
		var last *ingest.Result
		for i := 0; i < cfg.Iterations; i++ {
			res, err := driver.Run(ctx)
			if err != nil {
				return nil, err
			}
			tracker.Record(res.Duration)
			last = res
		}
		after := monitor.Sample()

		entry := newEntry(string(strategy), tracker, before, after)
		entry.Rows = last.Table.Len()
		entry.Lines = last.Lines
		entry.Skipped = last.Skipped
		entry.Rejected = last.Rejected
		entry.MemoryPerRecord = last.Table.MemoryPerRecord()
		if mean := entry.Mean(); mean > 0 {
			entry.RowsPerSecond = float64(entry.Rows) / mean.Seconds()
		}
		if reference == nil {
			reference = last.Table
			entry.Matches = true
		} else {
			entry.Matches = reference.Equal(last.Table)
			if !entry.Matches {
				report.Equivalent = false
				log.Warn("strategy disagrees with reference",
					zap.String("strategy", string(strategy)),
					zap.String("reference", string(cfg.Strategies[0])))
			}
		}
		if fastest == 0 || entry.Min() < fastest {
			fastest = entry.Min()
			report.Fastest = entry.Name
		}
		publish(entry.Name, tracker)
		log.Info("strategy benchmarked",
			zap.String("strategy", entry.Name),
			zap.Duration("min", entry.Min()),
			zap.Duration("mean", entry.Mean()),
			zap.Int("rows", entry.Rows))
		report.Entries = append(report.Entries, entry)
	}

	if cfg.IncludeRawLines {
		entry, err := benchLines(ctx, opener, cfg.Iterations, monitor)
		if err != nil {
			return nil, err
		}
		report.Entries = append(report.Entries, entry)
	}
	report.Resources = monitor.Sample()
	return report, nil
}

func benchLines(ctx context.Context, opener source.Opener, iterations int, monitor *ResourceMonitor) (Entry, error) {
	tracker := metrics.NewLatencyTracker(iterations)
	before := monitor.Sample()
	var lines [][]string
	for i := 0; i < iterations; i++ {
		timer := metrics.NewTimer(RawLines)
		var err error
		lines, err = ingest.Lines(ctx, opener)
		if err != nil {
			return Entry{}, err
		}
		tracker.Record(timer.Stop())
	}
	entry := newEntry(RawLines, tracker, before, monitor.Sample())
	entry.Lines = len(lines)
	entry.Matches = true
	publish(RawLines, tracker)
	return entry, nil
}

func newEntry(name string, tracker *metrics.LatencyTracker, before, after ResourceUsage) Entry {
	return Entry{
		Name:     name,
		MinNs:    int64(tracker.Percentile(0)),
		P50Ns:    int64(tracker.Percentile(50)),
		P95Ns:    int64(tracker.Percentile(95)),
		MaxNs:    int64(tracker.Percentile(100)),
		MeanNs:   int64(tracker.Mean()),
		RSSDelta: int64(after.RSS) - int64(before.RSS),
	}
}

func publish(name string, tracker *metrics.LatencyTracker) {
	for _, q := range []struct {
		label string
		p     float64
	}{{"min", 0}, {"p50", 50}, {"p95", 95}, {"max", 100}} {
		metrics.BenchLatency.WithLabelValues(name, q.label).Set(tracker.Percentile(q.p).Seconds())
	}
}
