// Package config provides the configuration of colingest.
//
// The configuration is organized into sections:
//   - Source: where the records come from and how they are compressed
//   - Parser: strategy and buffering of the row parser
//   - Logging: zap logger settings
//   - Observability: tracing and the metrics textfile
//   - Export: Arrow, Avro or Parquet output of the ingested table
//   - Postgres: COPY target for the ingested table
//   - Bench: strategy comparison runs
//
// Example usage:
//
//	cfg, err := config.Load("colingest.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	opts, err := cfg.IngestOptions()
package config

import (
	"github.com/ajitpratap0/colingest/pkg/compression"
	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/formats"
	"github.com/ajitpratap0/colingest/pkg/ingest"
	"github.com/ajitpratap0/colingest/pkg/logger"
	"github.com/ajitpratap0/colingest/pkg/models"
	"github.com/ajitpratap0/colingest/pkg/observability"
	"github.com/ajitpratap0/colingest/pkg/parser"
	"github.com/ajitpratap0/colingest/pkg/sink/postgres"
	"github.com/ajitpratap0/colingest/pkg/source"
)

// DefaultSourcePath is read when no source is configured.
const DefaultSourcePath = "default.csv"

// Config is the complete configuration of a colingest process.
type Config struct {
	Source        SourceConfig        `mapstructure:"source" yaml:"source" json:"source"`
	Parser        ParserConfig        `mapstructure:"parser" yaml:"parser" json:"parser"`
	Logging       logger.Config       `mapstructure:"logging" yaml:"logging" json:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability" json:"observability"`
	Export        ExportConfig        `mapstructure:"export" yaml:"export" json:"export"`
	Postgres      postgres.Config     `mapstructure:"postgres" yaml:"postgres" json:"postgres"`
	Bench         BenchConfig         `mapstructure:"bench" yaml:"bench" json:"bench"`
}

// SourceConfig locates the input.
type SourceConfig struct {
	// Path is a local path, s3://bucket/key, gs://bucket/object or "-"
	Path string `mapstructure:"path" yaml:"path" json:"path"`
	// Compression overrides detection from the extension (gzip, zstd, lz4, snappy, s2, none)
	Compression string            `mapstructure:"compression" yaml:"compression" json:"compression"`
	S3          source.S3Options  `mapstructure:"s3" yaml:"s3" json:"s3"`
	GCS         source.GCSOptions `mapstructure:"gcs" yaml:"gcs" json:"gcs"`
}

// ParserConfig controls how lines become rows.
type ParserConfig struct {
	// Strategy is one of schema, split or bytes
	Strategy  string `mapstructure:"strategy" yaml:"strategy" json:"strategy"`
	HasHeader bool   `mapstructure:"has_header" yaml:"has_header" json:"has_header"`
	// BufferSize is the read buffer in bytes
	BufferSize   int `mapstructure:"buffer_size" yaml:"buffer_size" json:"buffer_size"`
	CapacityHint int `mapstructure:"capacity_hint" yaml:"capacity_hint" json:"capacity_hint"`
	// MaxConsecutiveReadErrors aborts a run whose source keeps failing (0 disables)
	MaxConsecutiveReadErrors int `mapstructure:"max_consecutive_read_errors" yaml:"max_consecutive_read_errors" json:"max_consecutive_read_errors"`
}

// ObservabilityConfig contains monitoring settings.
type ObservabilityConfig struct {
	Tracing observability.TracingConfig `mapstructure:"tracing" yaml:"tracing" json:"tracing"`
	// MetricsFile receives a Prometheus textfile dump when set
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
}

// ExportConfig selects the output of the export command.
type ExportConfig struct {
	// Format is arrow, avro or parquet; empty detects it from Path
	Format             string `mapstructure:"format" yaml:"format" json:"format"`
	Path               string `mapstructure:"path" yaml:"path" json:"path"`
	BatchSize          int    `mapstructure:"batch_size" yaml:"batch_size" json:"batch_size"`
	AvroCompression    string `mapstructure:"avro_compression" yaml:"avro_compression" json:"avro_compression"`
	ParquetCompression string `mapstructure:"parquet_compression" yaml:"parquet_compression" json:"parquet_compression"`
	// Compression wraps the whole output file; empty detects it from Path
	Compression string `mapstructure:"compression" yaml:"compression" json:"compression"`
	// CompressionLevel is 1 (fastest) to 9 (best)
	CompressionLevel int `mapstructure:"compression_level" yaml:"compression_level" json:"compression_level"`
}

// BenchConfig controls strategy comparison.
type BenchConfig struct {
	Iterations int      `mapstructure:"iterations" yaml:"iterations" json:"iterations"`
	Strategies []string `mapstructure:"strategies" yaml:"strategies" json:"strategies"`
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Path: DefaultSourcePath,
		},
		Parser: ParserConfig{
			Strategy:                 string(parser.StrategySplit),
			HasHeader:                true,
			BufferSize:               parser.DefaultBufferSize,
			MaxConsecutiveReadErrors: ingest.DefaultMaxConsecutiveReadErrors,
		},
		Logging: logger.Config{
			Level:       "info",
			Encoding:    "json",
			OutputPaths: []string{"stderr"},
		},
		Observability: ObservabilityConfig{
			Tracing: observability.DefaultTracingConfig(),
		},
		Export: ExportConfig{
			BatchSize:          formats.DefaultBatchSize,
			AvroCompression:    "snappy",
			ParquetCompression: "snappy",
			CompressionLevel:   int(compression.Default),
		},
		Postgres: postgres.Config{
			Table:       postgres.DefaultTable,
			CreateTable: true,
		},
		Bench: BenchConfig{
			Iterations: 10,
			Strategies: []string{
				string(parser.StrategySchema),
				string(parser.StrategySplit),
				string(parser.StrategyBytes),
			},
		},
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Source.Path == "" {
		return errors.New(errors.ErrorTypeConfig, "source.path is required")
	}
	if _, err := source.ParseLocation(c.Source.Path); err != nil {
		return err
	}
	if _, err := compression.ParseAlgorithm(c.Source.Compression); err != nil {
		return err
	}
	if _, err := parser.ParseStrategy(c.Parser.Strategy); err != nil {
		return err
	}
	if c.Parser.BufferSize < 0 {
		return errors.New(errors.ErrorTypeConfig, "parser.buffer_size cannot be negative")
	}
	if c.Parser.CapacityHint < 0 {
		return errors.New(errors.ErrorTypeConfig, "parser.capacity_hint cannot be negative")
	}
	if c.Export.Format != "" {
		if _, err := formats.ParseFormat(c.Export.Format); err != nil {
			return err
		}
	}
	if c.Export.BatchSize < 0 {
		return errors.New(errors.ErrorTypeConfig, "export.batch_size cannot be negative")
	}
	if _, err := compression.ParseAlgorithm(c.Export.Compression); err != nil {
		return err
	}
	if r := c.Observability.Tracing.SamplingRate; r < 0 || r > 1 {
		return errors.Newf(errors.ErrorTypeConfig, "observability.tracing.sampling_rate %v is outside [0, 1]", r)
	}
	if c.Bench.Iterations <= 0 {
		return errors.New(errors.ErrorTypeConfig, "bench.iterations must be positive")
	}
	for _, s := range c.Bench.Strategies {
		if _, err := parser.ParseStrategy(s); err != nil {
			return err
		}
	}
	return nil
}

// IngestOptions converts the parser section.
func (c *Config) IngestOptions() (ingest.Options, error) {
	strategy, err := parser.ParseStrategy(c.Parser.Strategy)
	if err != nil {
		return ingest.Options{}, err
	}
	return ingest.Options{
		Strategy:                 strategy,
		HasHeader:                c.Parser.HasHeader,
		CapacityHint:             c.Parser.CapacityHint,
		BufferSize:               c.Parser.BufferSize,
		MaxConsecutiveReadErrors: c.Parser.MaxConsecutiveReadErrors,
		Schema:                   models.CitySchema(),
	}, nil
}

// SourceOptions converts the source section.
func (c *Config) SourceOptions() (source.Options, error) {
	algo, err := compression.ParseAlgorithm(c.Source.Compression)
	if err != nil {
		return source.Options{}, err
	}
	return source.Options{Compression: algo, S3: c.Source.S3, GCS: c.Source.GCS}, nil
}

// Opener builds the opener for the configured source.
func (c *Config) Opener() (source.Opener, error) {
	opts, err := c.SourceOptions()
	if err != nil {
		return nil, err
	}
	return source.New(c.Source.Path, opts)
}

// Strategies returns the configured benchmark strategies, all of them when
// none are listed.
func (c *Config) Strategies() ([]parser.Strategy, error) {
	if len(c.Bench.Strategies) == 0 {
		return parser.Strategies(), nil
	}
	out := make([]parser.Strategy, 0, len(c.Bench.Strategies))
	for _, s := range c.Bench.Strategies {
		st, err := parser.ParseStrategy(s)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// WriterConfig converts the export section. The format is taken from
// Export.Format, or detected from Export.Path.
func (c *Config) WriterConfig() (formats.WriterConfig, error) {
	cfg := formats.WriterConfig{
		BatchSize:          c.Export.BatchSize,
		AvroCompression:    c.Export.AvroCompression,
		ParquetCompression: c.Export.ParquetCompression,
	}
	if c.Export.Format != "" {
		f, err := formats.ParseFormat(c.Export.Format)
		if err != nil {
			return cfg, err
		}
		cfg.Format = f
		return cfg, nil
	}
	f, ok := formats.DetectFormat(c.Export.Path)
	if !ok {
		return cfg, errors.Newf(errors.ErrorTypeConfig, "cannot detect export format of %q, set export.format", c.Export.Path)
	}
	cfg.Format = f
	return cfg, nil
}
