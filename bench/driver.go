package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/weiihann/iobench/harness"
	"github.com/weiihann/iobench/report"
	"github.com/weiihann/iobench/results"
)

// BackendRunner runs one variant and appends its record to table.
type BackendRunner interface {
	Run(ctx context.Context, spec BackendSpec, table *results.Table) error
}

// Driver runs the selected variants one at a time, persisting the results
// table after every successful run.
type Driver struct {
	Runner      BackendRunner
	ResultsPath string
	// ReportDir and ReportPrefix locate the exported TSV files.
	ReportDir    string
	ReportPrefix string
	// Now stamps the exported report. Nil means time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Outcome is the state left by a completed Driver.Run.
type Outcome struct {
	Table   *results.Table
	Report  report.Paths
	Ran     []string
	Skipped []string
	Failed  []string
}

// Run executes the named backends in the given order, unconditionally. With
// no names it runs every known backend not yet present in the results file.
//
// Backend failures are logged and the loop continues; they are returned
// joined once the report is exported. Failures to persist results or to
// resolve a workload binary abort immediately.
func (d *Driver) Run(ctx context.Context, names []string) (*Outcome, error) {
	specs, err := selectBackends(names)
	if err != nil {
		return nil, err
	}

	resume := len(names) == 0

	table, err := results.Load(d.ResultsPath)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	out := &Outcome{Table: table}

	var failures []error

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		logger := d.Logger.With(slog.String("backend", spec.Name))

		if resume && table.ContainsBackend(spec.Name) {
			logger.InfoContext(ctx, "skip benchmark, results already recorded")
			out.Skipped = append(out.Skipped, spec.Name)

			continue
		}

		err := d.Runner.Run(ctx, spec, table)

		var rerr *harness.ResolveError
		switch {
		case err == nil:
		case errors.As(err, &rerr):
			return out, err
		case errors.Is(err, harness.ErrNotCaptured):
			logger.WarnContext(ctx, "output capture disabled, nothing recorded")

			continue
		default:
			logger.ErrorContext(ctx, "benchmark failed",
				slog.String("error", err.Error()),
			)
			out.Failed = append(out.Failed, spec.Name)
			failures = append(failures, fmt.Errorf("%s: %w", spec.Name, err))

			continue
		}

		out.Ran = append(out.Ran, spec.Name)

		if err := results.Save(d.ResultsPath, table); err != nil {
			return out, err
		}
	}

	now := time.Now
	if d.Now != nil {
		now = d.Now
	}

	paths, err := report.Export(d.ReportDir, d.ReportPrefix, table, now())
	if err != nil {
		return out, err
	}

	out.Report = paths

	d.Logger.InfoContext(ctx, "results exported",
		slog.String("report", paths.Timestamped),
		slog.String("latest", paths.Latest),
		slog.Int("rows", table.Len()),
	)

	return out, errors.Join(failures...)
}

func selectBackends(names []string) ([]BackendSpec, error) {
	if len(names) == 0 {
		return Backends(), nil
	}

	specs := make([]BackendSpec, 0, len(names))

	for _, name := range names {
		spec, err := Lookup(name)
		if err != nil {
			return nil, err
		}

		specs = append(specs, spec)
	}

	return specs, nil
}
