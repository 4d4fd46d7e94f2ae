package main

import (
	"context"
	"math"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colingest/pkg/columnar"
	"github.com/ajitpratap0/colingest/pkg/ingest"
)

type ingestSummary struct {
	Source          string                 `json:"source"`
	Strategy        string                 `json:"strategy"`
	Rows            int                    `json:"rows"`
	Lines           int                    `json:"lines"`
	Skipped         int                    `json:"skipped"`
	Rejected        int                    `json:"rejected"`
	DurationMs      float64                `json:"duration_ms"`
	RowsPerSecond   float64                `json:"rows_per_second"`
	MemoryPerRecord float64                `json:"memory_per_record_bytes"`
	Columns         []columnar.ColumnStats `json:"columns"`
	Latitudes       []*float64             `json:"latitudes,omitempty"`
	Longitudes      []*float64             `json:"longitudes,omitempty"`
}

type linesSummary struct {
	Source string     `json:"source"`
	Lines  int        `json:"lines"`
	Head   [][]string `json:"head"`
}

var ingestBindings = map[string]string{
	"strategy":    "parser.strategy",
	"buffer-size": "parser.buffer_size",
	"source":      "source.path",
}

func newIngestCommand(a *app) *cobra.Command {
	var (
		noHeader    bool
		rawLines    bool
		printCoords bool
		head        int
	)
	cmd := &cobra.Command{
		Use:   "ingest [path]",
		Short: "Ingest a source and print a JSON summary",
		Long: `Ingest reads the source into a columnar table and prints row counts,
dropped line counts and per-column statistics as JSON.

Example:
  colingest ingest uspop.csv --strategy bytes
  colingest ingest s3://data/uspop.csv.gz --coords`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringP("strategy", "s", "split", "Parser strategy (schema, split, bytes)")
	cmd.Flags().Int("buffer-size", 64*1024, "Read buffer size in bytes")
	cmd.Flags().StringP("source", "f", "default.csv", "Source path or URI")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Treat the first line as data")
	cmd.Flags().BoolVar(&rawLines, "lines", false, "Split every line on ',' without coercion")
	cmd.Flags().IntVar(&head, "head", 5, "Lines to print in --lines mode")
	cmd.Flags().BoolVar(&printCoords, "coords", false, "Include the latitude and longitude columns")

	cmd.RunE = a.run(ingestBindings, func(ctx context.Context, cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			a.cfg.Source.Path = args[0]
		}
		if noHeader {
			a.cfg.Parser.HasHeader = false
		}
		opener, err := a.cfg.Opener()
		if err != nil {
			return err
		}

		if rawLines {
			lines, err := ingest.Lines(ctx, opener)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), linesSummary{
				Source: opener.String(),
				Lines:  len(lines),
				Head:   lines[:min(max(head, 0), len(lines))],
			})
		}

		opts, err := a.cfg.IngestOptions()
		if err != nil {
			return err
		}
		res, err := ingest.New(opener, opts, ingest.WithLogger(a.log)).Run(ctx)
		if err != nil {
			return err
		}
		if res.Dropped() > 0 {
			a.log.Warn("some lines were dropped",
				zap.Int("skipped", res.Skipped),
				zap.Int("rejected", res.Rejected))
		}
		summary := summarize(res)
		if printCoords {
			summary.Latitudes = nullable(res.Table.Latitudes())
			summary.Longitudes = nullable(res.Table.Longitudes())
		}
		return writeJSON(cmd.OutOrStdout(), summary)
	})
	return cmd
}

func summarize(res *ingest.Result) ingestSummary {
	return ingestSummary{
		Source:          res.Source,
		Strategy:        res.Strategy.String(),
		Rows:            res.Table.Len(),
		Lines:           res.Lines,
		Skipped:         res.Skipped,
		Rejected:        res.Rejected,
		DurationMs:      float64(res.Duration.Microseconds()) / 1000,
		RowsPerSecond:   res.RowsPerSecond(),
		MemoryPerRecord: res.Table.MemoryPerRecord(),
		Columns:         columnar.Describe(res.Table),
	}
}

// nullable maps NaN and ±Inf to null, which JSON cannot represent otherwise.
func nullable(vals []float64) []*float64 {
	out := make([]*float64, len(vals))
	for i := range vals {
		if !math.IsNaN(vals[i]) && !math.IsInf(vals[i], 0) {
			out[i] = &vals[i]
		}
	}
	return out
}
