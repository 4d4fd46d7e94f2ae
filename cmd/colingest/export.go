package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colingest/pkg/compression"
	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/formats"
	"github.com/ajitpratap0/colingest/pkg/ingest"
	"github.com/ajitpratap0/colingest/pkg/sink/object"
	"github.com/ajitpratap0/colingest/pkg/sink/postgres"
)

var exportBindings = map[string]string{
	"strategy":            "parser.strategy",
	"source":              "source.path",
	"output":              "export.path",
	"format":              "export.format",
	"avro-compression":    "export.avro_compression",
	"parquet-compression": "export.parquet_compression",
	"compression":         "export.compression",
	"dsn":                 "postgres.dsn",
	"table":               "postgres.table",
}

func newExportCommand(a *app) *cobra.Command {
	var toPostgres bool
	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Ingest a source and write the table as Arrow, Avro, Parquet or into PostgreSQL",
		Long: `Export ingests the source and writes the resulting table.

Example:
  colingest export uspop.csv -o cities.arrow
  colingest export uspop.csv -o s3://bucket/cities.avro.zst
  colingest export uspop.csv -o gs://bucket/cities.parquet
  colingest export uspop.csv --postgres --dsn postgres://localhost/geo`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringP("strategy", "s", "split", "Parser strategy (schema, split, bytes)")
	cmd.Flags().StringP("source", "f", "default.csv", "Source path or URI")
	cmd.Flags().StringP("output", "o", "", "Output path or URI, - for stdout")
	cmd.Flags().String("format", "", "Output format (arrow, avro, parquet); detected from --output when empty")
	cmd.Flags().String("avro-compression", "snappy", "Avro block codec (null, deflate, snappy)")
	cmd.Flags().String("parquet-compression", "snappy", "Parquet page codec (none, snappy, gzip, zstd)")
	cmd.Flags().String("compression", "", "Compress the whole output (gzip, zstd, lz4, snappy, s2)")
	cmd.Flags().BoolVar(&toPostgres, "postgres", false, "COPY the table into PostgreSQL instead of writing a file")
	cmd.Flags().String("dsn", "", "PostgreSQL connection string")
	cmd.Flags().String("table", postgres.DefaultTable, "PostgreSQL target table")

	cmd.RunE = a.run(exportBindings, func(ctx context.Context, cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			a.cfg.Source.Path = args[0]
		}
		opener, err := a.cfg.Opener()
		if err != nil {
			return err
		}
		opts, err := a.cfg.IngestOptions()
		if err != nil {
			return err
		}
		res, err := ingest.New(opener, opts, ingest.WithLogger(a.log)).Run(ctx)
		if err != nil {
			return err
		}

		if toPostgres {
			sink, err := postgres.New(ctx, a.cfg.Postgres)
			if err != nil {
				return err
			}
			defer sink.Close()
			n, err := sink.Load(ctx, res.Table)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"table": a.cfg.Postgres.Table,
				"rows":  n,
			})
		}

		return a.exportFile(ctx, cmd, res)
	})
	return cmd
}

func (a *app) exportFile(ctx context.Context, cmd *cobra.Command, res *ingest.Result) error {
	path := a.cfg.Export.Path
	if path == "" {
		return errors.New(errors.ErrorTypeConfig, "export needs --output or export.path")
	}
	wc, err := a.cfg.WriterConfig()
	if err != nil {
		return err
	}
	algo, err := compression.ParseAlgorithm(a.cfg.Export.Compression)
	if err != nil {
		return err
	}
	if algo == "" {
		algo = compression.Detect(path)
	}

	stdout := cmd.OutOrStdout()
	if path == "-" {
		// the summary would corrupt the payload
		stdout = cmd.ErrOrStderr()
	}
	dst, err := object.Create(ctx, path, object.Options{
		S3:     a.cfg.Source.S3,
		GCS:    a.cfg.Source.GCS,
		Stdout: cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	closed := false
	defer func() {
		if !closed {
			_ = dst.Close()
		}
	}()
	w, err := compression.NewWriter(algo, dst, compression.Level(a.cfg.Export.CompressionLevel))
	if err != nil {
		return err
	}

	stats, err := formats.Write(w, res.Table, wc)
	if err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "flush compressed output")
	}
	closed = true
	if err := dst.Close(); err != nil {
		return err
	}

	a.log.Info("table exported",
		zap.String("path", path),
		zap.String("format", string(wc.Format)),
		zap.String("compression", string(algo)),
		zap.Int("rows", stats.Rows),
		zap.Int64("bytes", stats.Bytes))
	return writeJSON(stdout, map[string]interface{}{
		"path":        path,
		"format":      wc.Format,
		"compression": algo,
		"rows":        stats.Rows,
		"batches":     stats.Batches,
		"bytes":       stats.Bytes,
	})
}
