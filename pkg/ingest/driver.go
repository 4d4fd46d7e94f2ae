// Package ingest drives a row parser over a source and collects the rows
// into a columnar table.
//
// A run moves through four states:
//
//	Unopened -> HeaderConsumed -> Streaming -> Done
//
// Failing to open the source is the only fatal error besides a source that
// keeps failing every read. Unreadable lines are skipped and structurally
// invalid records are rejected; both are counted in the Result.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/colingest/pkg/columnar"
	"github.com/ajitpratap0/colingest/pkg/compression"
	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/logger"
	"github.com/ajitpratap0/colingest/pkg/metrics"
	"github.com/ajitpratap0/colingest/pkg/models"
	"github.com/ajitpratap0/colingest/pkg/observability"
	"github.com/ajitpratap0/colingest/pkg/parser"
	"github.com/ajitpratap0/colingest/pkg/source"
)

// State is the position of a Driver in its run.
type State int

const (
	StateUnopened State = iota
	StateHeaderConsumed
	StateStreaming
	StateDone
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateHeaderConsumed:
		return "header_consumed"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DefaultMaxConsecutiveReadErrors bounds how many reads in a row may fail
// before the source is treated as unreadable.
const DefaultMaxConsecutiveReadErrors = 100

// Options controls a run.
type Options struct {
	Strategy  parser.Strategy
	HasHeader bool
	// CapacityHint pre-sizes the columns. Zero uses columnar.DefaultCapacity.
	CapacityHint int
	BufferSize   int
	// MaxConsecutiveReadErrors of zero or less disables the guard.
	MaxConsecutiveReadErrors int
	Schema                   models.Schema
}

// DefaultOptions returns the split strategy over input with a header line.
func DefaultOptions() Options {
	return Options{
		Strategy:                 parser.StrategySplit,
		HasHeader:                true,
		BufferSize:               parser.DefaultBufferSize,
		MaxConsecutiveReadErrors: DefaultMaxConsecutiveReadErrors,
		Schema:                   models.CitySchema(),
	}
}

// Option customises a Driver.
type Option func(*Driver)

// WithLogger sets the logger used for run events. Defaults to logger.Get().
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithMetrics toggles Prometheus recording of run outcomes. On by default.
func WithMetrics(enabled bool) Option {
	return func(d *Driver) { d.recordMetrics = enabled }
}

// Driver runs one ingest at a time over an Opener. It is not safe for
// concurrent use; independent sources need independent drivers.
type Driver struct {
	opener        source.Opener
	opts          Options
	logger        *zap.Logger
	recordMetrics bool
	state         State
}

// New creates a driver. Zero fields in opts are not defaulted except
// BufferSize and Schema; start from DefaultOptions.
func New(opener source.Opener, opts Options, options ...Option) *Driver {
	if opts.BufferSize <= 0 {
		opts.BufferSize = parser.DefaultBufferSize
	}
	if len(opts.Schema.Fields) == 0 {
		opts.Schema = models.CitySchema()
	}
	d := &Driver{
		opener:        opener,
		opts:          opts,
		recordMetrics: true,
	}
	for _, o := range options {
		o(d)
	}
	if d.logger == nil {
		d.logger = logger.Get()
	}
	return d
}

// State reports where the last run stopped.
func (d *Driver) State() State { return d.state }

// Run performs a complete ingest. Every call starts a fresh run from
// StateUnopened. ctx carries tracing and log fields only; the run does not
// stop on cancellation.
//
// The returned error is always fatal and is returned without a Result.
func (d *Driver) Run(ctx context.Context) (res *Result, err error) {
	strategy := d.opts.Strategy
	ctx = logger.ContextWith(ctx, logger.StrategyKey, strategy.String())
	ctx = logger.ContextWith(ctx, logger.SourceKey, d.opener.String())
	log := logger.FromContext(ctx, d.logger)

	ctx, span := observability.NewSpan(ctx, "ingest.Run")
	span.SetAttribute("strategy", strategy.String())
	span.SetAttribute("source", d.opener.String())
	timer := metrics.NewTimer("ingest")

	defer func() {
		elapsed := timer.Stop()
		span.SetError(err)
		if res != nil {
			span.SetAttribute("lines", res.Lines)
			span.SetAttribute("skipped", res.Skipped)
			span.SetAttribute("rejected", res.Rejected)
		}
		span.End()
		if d.recordMetrics {
			var committed, skipped, rejected int
			if res != nil {
				committed, skipped, rejected = res.Table.Len(), res.Skipped, res.Rejected
			}
			metrics.ObserveRun(strategy.String(), committed, skipped, rejected, elapsed, err)
		}
	}()

	d.state = StateUnopened
	rc, err := d.opener.Open(ctx)
	if err != nil {
		log.Error("failed to open source", zap.Error(err))
		return nil, asSourceError(err, "open source")
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			log.Warn("failed to close source", zap.Error(cerr))
		}
	}()

	br := bufio.NewReaderSize(rc, d.opts.BufferSize)
	headerLines := 0
	if d.opts.HasHeader {
		switch herr := parser.SkipLine(br); {
		case herr == io.EOF:
		case herr != nil:
			log.Error("failed to read header line", zap.Error(herr))
			return nil, asSourceError(herr, "read header")
		default:
			headerLines = 1
		}
	}
	d.state = StateHeaderConsumed

	p, err := parser.New(strategy, br, parser.Options{Schema: d.opts.Schema, BufferSize: d.opts.BufferSize})
	if err != nil {
		return nil, err
	}
	acc := columnar.NewAccumulatorWithSchema(d.opts.Schema, d.opts.CapacityHint)

	log.Info("ingest started",
		zap.Bool("has_header", d.opts.HasHeader),
		zap.Int("buffer_size", d.opts.BufferSize))

	result := &Result{Strategy: strategy, Source: d.opener.String()}
	d.state = StateStreaming
	consecutive := 0
	for {
		row, perr := p.Next()
		if perr == io.EOF {
			break
		}
		result.Lines++
		if perr != nil {
			line := result.Lines + headerLines
			if errors.IsType(perr, errors.ErrorTypeStructure) {
				result.Rejected++
				consecutive = 0
				log.Warn("rejected record", zap.Int("line", line), zap.Error(perr))
				continue
			}
			result.Skipped++
			consecutive++
			log.Warn("skipped unreadable line", zap.Int("line", line), zap.Error(perr))
			if limit := d.opts.MaxConsecutiveReadErrors; limit > 0 && consecutive >= limit {
				log.Error("source keeps failing, aborting", zap.Int("consecutive_failures", consecutive))
				return nil, errors.Wrap(perr, errors.ErrorTypeSource, "source unreadable").
					WithDetail("consecutive_failures", consecutive).
					WithDetail("line", line)
			}
			continue
		}
		consecutive = 0
		if err := acc.Append(row); err != nil {
			return nil, err
		}
	}

	result.Table = acc.Finish()
	result.Duration = timer.Stop()
	d.state = StateDone

	log.Info("ingest finished",
		zap.Int("rows", result.Table.Len()),
		zap.Int("lines", result.Lines),
		zap.Int("skipped", result.Skipped),
		zap.Int("rejected", result.Rejected),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func asSourceError(err error, message string) error {
	if errors.IsType(err, errors.ErrorTypeSource) {
		return err
	}
	return errors.Wrap(err, errors.ErrorTypeSource, message)
}

// Result is the outcome of a successful run.
type Result struct {
	Table    *columnar.Table
	Strategy parser.Strategy
	Source   string

	// Lines counts the data units read after the header. The schema
	// strategy reads records, and encoding/csv passes over blank lines
	// without yielding one, so they are not units there. The line-based
	// strategies count a blank line and commit it as a row.
	Lines int
	// Skipped counts units that could not be read.
	Skipped int
	// Rejected counts units that failed structural validation.
	Rejected int

	Duration time.Duration
}

// Dropped returns the number of units that did not produce a row. The table
// length always equals Lines - Dropped().
func (r *Result) Dropped() int { return r.Skipped + r.Rejected }

// RowsPerSecond returns the committed row throughput of the run.
func (r *Result) RowsPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Table.Len()) / r.Duration.Seconds()
}

// File ingests a local file with opts, unwrapping compression detected from
// its extension.
func File(ctx context.Context, path string, opts Options, options ...Option) (*Result, error) {
	opener := &source.FileOpener{Path: path, Compression: compression.Detect(path)}
	return New(opener, opts, options...).Run(ctx)
}

// Lines reads every line of the source, header included, split on ','
// without any coercion.
func Lines(ctx context.Context, opener source.Opener) ([][]string, error) {
	rc, err := opener.Open(ctx)
	if err != nil {
		return nil, asSourceError(err, "open source")
	}
	defer rc.Close()

	lines, err := parser.SplitLines(rc)
	if err != nil {
		return nil, asSourceError(err, "read source")
	}
	return lines, nil
}
