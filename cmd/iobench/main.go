// Package main provides the CLI entry point for iobench, which measures
// simpleio throughput across native and SGX storage backends.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/weiihann/iobench/bench"
	"github.com/weiihann/iobench/config"
	"github.com/weiihann/iobench/harness"
	"github.com/weiihann/iobench/plot"
	"github.com/weiihann/iobench/report"
	"github.com/weiihann/iobench/results"
	"github.com/weiihann/iobench/storage"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	root := newRootCmd(logger, level)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("iobench failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "iobench",
		Short: "simpleio throughput benchmarks across storage backends",
		Long: `iobench runs the simpleio workload against native storage, SCONE,
SGX-LKL and the SGX-IO userspace NVMe path, and keeps the results in a
table that later sessions resume from.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(
		newRunCmd(logger),
		newPlotCmd(),
		newBackendsCmd(),
	)

	return root
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		configPath string
		cfg        = config.Defaults()
		read       bool
		outputJSON bool
		envFlags   []string
	)

	cmd := &cobra.Command{
		Use:   "run [backend...]",
		Short: "Run simpleio benchmarks",
		Long: `Run the named backends in order, even if they already have results.
Without arguments every backend that has no recorded result yet is run.

Known backends: ` + strings.Join(bench.BackendNames(), ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}

			applyFlags(cmd, &loaded, cfg)

			if cmd.Flags().Changed("read") {
				loaded.Write = !read
			}

			overrides, err := parseEnvFlags(envFlags)
			if err != nil {
				return err
			}

			return runBenchmarks(cmd.Context(), logger, runOptions{
				cfg:        loaded,
				backends:   args,
				overrides:  overrides,
				outputJSON: outputJSON,
				stdout:     cmd.OutOrStdout(),
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "",
		"Path to a YAML config file")
	flags.StringVar(&cfg.Results, "results", cfg.Results,
		"Persisted results table used to resume")
	flags.StringVar(&cfg.ReportDir, "report-dir", cfg.ReportDir,
		"Directory for exported TSV reports")
	flags.StringVar(&cfg.ReportPrefix, "report-prefix", cfg.ReportPrefix,
		"File name prefix for exported TSV reports")
	flags.Int64Var(&cfg.Size, "size", cfg.Size,
		"Bytes transferred per run")
	flags.StringVar(&cfg.BinDir, "bin-dir", cfg.BinDir,
		"Resolve workload binaries from this directory instead of nix-build")
	flags.StringVar(&cfg.NixFile, "nix-file", cfg.NixFile,
		"Nix expression providing the simpleio targets")
	flags.StringVar(&cfg.NativeRoot, "native-root", cfg.NativeRoot,
		"Parent directory for native scratch mounts (default: temp dir)")
	flags.BoolVar(&read, "read", false,
		"Run the read pass instead of the write pass")
	flags.StringArrayVar(&envFlags, "env", nil,
		"Extra variable for one backend, as backend:KEY=VALUE")
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of table")

	return cmd
}

// applyFlags copies explicitly set flags over the file config.
func applyFlags(cmd *cobra.Command, dst *config.Config, src config.Config) {
	set := cmd.Flags().Changed

	if set("results") {
		dst.Results = src.Results
	}
	if set("report-dir") {
		dst.ReportDir = src.ReportDir
	}
	if set("report-prefix") {
		dst.ReportPrefix = src.ReportPrefix
	}
	if set("size") {
		dst.Size = src.Size
	}
	if set("bin-dir") {
		dst.BinDir = src.BinDir
	}
	if set("nix-file") {
		dst.NixFile = src.NixFile
	}
	if set("native-root") {
		dst.NativeRoot = src.NativeRoot
	}
}

// parseEnvFlags turns backend:KEY=VALUE flags into per-backend overrides.
func parseEnvFlags(flags []string) (map[string]harness.Env, error) {
	out := make(map[string]harness.Env)

	for _, f := range flags {
		backend, kv, ok := strings.Cut(f, ":")
		if !ok || backend == "" {
			return nil, fmt.Errorf("invalid --env %q, want backend:KEY=VALUE", f)
		}

		if _, err := bench.Lookup(backend); err != nil {
			return nil, fmt.Errorf("invalid --env %q: %w", f, err)
		}

		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --env %q, want backend:KEY=VALUE", f)
		}

		if out[backend] == nil {
			out[backend] = harness.Env{}
		}
		out[backend][k] = v
	}

	return out, nil
}

type runOptions struct {
	cfg        config.Config
	backends   []string
	overrides  map[string]harness.Env
	outputJSON bool
	stdout     io.Writer
}

func runBenchmarks(ctx context.Context, logger *slog.Logger, o runOptions) error {
	cfg := o.cfg
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	overrides := make(map[string]harness.Env, len(cfg.Env)+len(o.overrides))
	for backend, env := range cfg.Env {
		overrides[backend] = harness.BuildEnv(nil, env, o.overrides[backend])
	}
	for backend, env := range o.overrides {
		if _, ok := overrides[backend]; !ok {
			overrides[backend] = env
		}
	}

	mounts := make(map[storage.Kind]string, len(cfg.Mounts))
	for kind, path := range cfg.Mounts {
		mounts[storage.Kind(kind)] = path
	}

	var resolver harness.Resolver = &harness.NixResolver{
		File:   cfg.NixFile,
		Logger: logger,
	}
	if cfg.BinDir != "" {
		resolver = &harness.DirResolver{Dir: cfg.BinDir}
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.Any("backends", o.backends),
		slog.String("results", cfg.Results),
		slog.Int64("size", cfg.Size),
		slog.Bool("write", cfg.Write),
	)

	driver := &bench.Driver{
		Runner: &bench.Runner{
			Resolver: resolver,
			Storage: &storage.Local{
				NativeRoot: cfg.NativeRoot,
				Mounts:     mounts,
				Logger:     logger,
			},
			Process:   harness.NewRunner(logger),
			Overrides: overrides,
			Size:      cfg.Size,
			Write:     cfg.Write,
			Logger:    logger,
		},
		ResultsPath:  cfg.Results,
		ReportDir:    cfg.ReportDir,
		ReportPrefix: cfg.ReportPrefix,
		Logger:       logger,
	}

	out, runErr := driver.Run(ctx, o.backends)
	if out == nil || out.Table.Len() == 0 {
		return runErr
	}

	var err error
	if o.outputJSON {
		err = report.GenerateJSON(o.stdout, out.Table.Records())
	} else {
		err = report.Generate(o.stdout, out.Table.Records())
	}

	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	return runErr
}

func newPlotCmd() *cobra.Command {
	style := plot.DefaultStyle()

	var (
		input  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render a throughput chart from a results table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := results.Load(input)
			if err != nil {
				return err
			}

			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".html"
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			defer f.Close()

			if err := plot.Render(f, table.Records(), style); err != nil {
				return fmt.Errorf("render %s: %w", output, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), output)

			return f.Close()
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&input, "input", "simpleio-latest.tsv",
		"Results table to plot")
	flags.StringVarP(&output, "output", "o", "",
		"Output HTML file (default: input with .html extension)")
	flags.StringVar(&style.Title, "title", style.Title, "Chart title")
	flags.StringVar(&style.Theme, "theme", style.Theme, "Chart theme")
	flags.StringVar(&style.Width, "width", style.Width, "Chart width")
	flags.StringVar(&style.Height, "height", style.Height, "Chart height")

	return cmd
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List known benchmark backends",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			for _, b := range bench.Backends() {
				fmt.Fprintf(w, "%-8s storage=%-6s target=%s threads=%d\n",
					b.Name, b.Storage, b.Target, b.Threads)
			}

			return nil
		},
	}
}
