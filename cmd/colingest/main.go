// Command colingest ingests city records into columnar tables, compares
// the parser strategies and exports the result.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colingest/pkg/config"
	"github.com/ajitpratap0/colingest/pkg/logger"
	"github.com/ajitpratap0/colingest/pkg/metrics"
	"github.com/ajitpratap0/colingest/pkg/observability"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries state shared by the subcommands of one invocation.
type app struct {
	configFile string
	cfg        *config.Config
	log        *zap.Logger
	shutdown   observability.ShutdownFunc
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "colingest",
		Short: "colingest - columnar ingestion of delimited city records",
		Long: `colingest reads city,state,population,latitude,longitude records into
typed columns using one of three parser strategies (schema, split, bytes).
Malformed fields fall back to "None", a missing population or NaN instead of
aborting the ingest.`,
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "Path to a YAML configuration file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file on exit")
	flags.Bool("trace", false, "Export trace spans to stderr")

	root.AddCommand(
		newVersionCommand(),
		newIngestCommand(a),
		newBenchCommand(a),
		newExportCommand(a),
	)
	return root
}

var persistentBindings = map[string]string{
	"log-level":    "logging.level",
	"metrics-file": "observability.metrics_file",
	"trace":        "observability.tracing.enabled",
}

// setup loads the configuration with cmd's flags bound on top of it and
// initialises logging and tracing.
func (a *app) setup(cmd *cobra.Command, bindings map[string]string) error {
	v, err := config.NewViper()
	if err != nil {
		return err
	}
	for _, b := range []map[string]string{persistentBindings, bindings} {
		for name, key := range b {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return err
				}
			}
		}
	}
	cfg, err := config.LoadWithViper(v, a.configFile)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	shutdown, err := observability.InitTracing(cfg.Observability.Tracing)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.shutdown = shutdown
	a.log = logger.With(zap.String("component", "colingest-cli"), zap.String("command", cmd.Name()))
	return nil
}

// teardown flushes metrics, spans and logs. It runs even when the command
// failed so the failure shows up in the metrics file.
func (a *app) teardown(ctx context.Context) {
	if a.cfg == nil {
		return
	}
	if path := a.cfg.Observability.MetricsFile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			a.log.Warn("failed to write metrics file", zap.String("path", path), zap.Error(err))
		}
	}
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			a.log.Warn("failed to flush traces", zap.Error(err))
		}
	}
	_ = logger.Sync()
}

// run wraps a command body with setup and teardown.
func (a *app) run(bindings map[string]string, body func(ctx context.Context, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.setup(cmd, bindings); err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		defer a.teardown(ctx)
		return body(ctx, cmd, args)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "colingest v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}
