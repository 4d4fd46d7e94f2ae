// Package formats exports a columnar.Table to on-disk formats and reads it
// back. Arrow IPC and Parquet keep the column layout; Avro OCF stores one
// record per row with a nullable population.
package formats

import (
	"io"
	"path"
	"strings"

	"github.com/ajitpratap0/colingest/pkg/columnar"
	"github.com/ajitpratap0/colingest/pkg/compression"
	"github.com/ajitpratap0/colingest/pkg/errors"
)

// Format represents an export format
type Format string

const (
	// Arrow is the Apache Arrow IPC file format
	Arrow Format = "arrow"
	// Avro is the Apache Avro object container format
	Avro Format = "avro"
	// Parquet is the Apache Parquet file format
	Parquet Format = "parquet"
)

// DefaultBatchSize is the number of rows per Arrow record batch, Parquet
// row group or Avro append call.
const DefaultBatchSize = 64 * 1024

// WriterConfig configures Write.
type WriterConfig struct {
	Format    Format
	BatchSize int
	// AvroCompression is the OCF block codec: null, deflate or snappy.
	AvroCompression string
	// ParquetCompression is the page codec: none, snappy, gzip or zstd.
	ParquetCompression string
}

// DefaultWriterConfig returns default writer configuration
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		Format:             Arrow,
		BatchSize:          DefaultBatchSize,
		AvroCompression:    "snappy",
		ParquetCompression: "snappy",
	}
}

// WriteStats reports what Write produced.
type WriteStats struct {
	Rows    int   `json:"rows"`
	Batches int   `json:"batches"`
	Bytes   int64 `json:"bytes"`
}

// ParseFormat converts a configuration value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Arrow, Avro, Parquet:
		return f, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unsupported export format %q", s)
	}
}

// DetectFormat infers the format from a file name, ignoring a trailing
// compression extension.
func DetectFormat(name string) (Format, bool) {
	if compression.Detect(name) != compression.None {
		name = strings.TrimSuffix(name, path.Ext(name))
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".arrow", ".ipc", ".feather":
		return Arrow, true
	case ".avro":
		return Avro, true
	case ".parquet", ".pq":
		return Parquet, true
	default:
		return "", false
	}
}

// Write encodes t to w.
func Write(w io.Writer, t *columnar.Table, cfg WriterConfig) (WriteStats, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	cw := &countingWriter{w: w}
	var (
		stats WriteStats
		err   error
	)
	switch cfg.Format {
	case Arrow:
		stats, err = writeArrow(cw, t, cfg)
	case Avro:
		stats, err = writeAvro(cw, t, cfg)
	case Parquet:
		stats, err = writeParquet(cw, t, cfg)
	default:
		return WriteStats{}, errors.Newf(errors.ErrorTypeConfig, "unsupported export format %q", cfg.Format)
	}
	stats.Bytes = cw.n
	return stats, err
}

// Read decodes a table previously written with Write.
func Read(r io.Reader, f Format) (*columnar.Table, error) {
	switch f {
	case Arrow:
		return readArrow(r)
	case Avro:
		return readAvro(r)
	case Parquet:
		return readParquet(r)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported export format %q", f)
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func batches(n, size int, fn func(start, end int) error) (int, error) {
	count := 0
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		if err := fn(start, end); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
