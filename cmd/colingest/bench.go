package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/colingest/internal/bench"
)

var benchBindings = map[string]string{
	"iterations":  "bench.iterations",
	"strategies":  "bench.strategies",
	"buffer-size": "parser.buffer_size",
	"source":      "source.path",
}

func newBenchCommand(a *app) *cobra.Command {
	var (
		noHeader bool
		rawLines bool
	)
	cmd := &cobra.Command{
		Use:   "bench [path]",
		Short: "Compare the parser strategies on one source",
		Long: `Bench ingests the source repeatedly with every strategy and reports
min/mean timings, memory growth and whether all strategies built the same
table. It exits non-zero when they disagree.`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().IntP("iterations", "n", 10, "Runs per strategy")
	cmd.Flags().StringSlice("strategies", []string{"schema", "split", "bytes"}, "Strategies to compare")
	cmd.Flags().Int("buffer-size", 64*1024, "Read buffer size in bytes")
	cmd.Flags().StringP("source", "f", "default.csv", "Source path or URI")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Treat the first line as data")
	cmd.Flags().BoolVar(&rawLines, "lines", false, "Also time the uncoerced line split")

	cmd.RunE = a.run(benchBindings, func(ctx context.Context, cmd *cobra.Command, args []string) error {
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
		opts, err := a.cfg.IngestOptions()
		if err != nil {
			return err
		}
		strategies, err := a.cfg.Strategies()
		if err != nil {
			return err
		}

		report, err := bench.Run(ctx, opener, bench.Config{
			Iterations:      a.cfg.Bench.Iterations,
			Strategies:      strategies,
			Options:         opts,
			IncludeRawLines: rawLines,
			Logger:          a.log,
		})
		if err != nil {
			return err
		}
		b, err := report.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", b)
		if !report.Equivalent {
			return fmt.Errorf("strategies produced different tables")
		}
		return nil
	})
	return cmd
}
