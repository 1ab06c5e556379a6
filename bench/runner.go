package bench

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strconv"

	"github.com/weiihann/iobench/harness"
	"github.com/weiihann/iobench/results"
	"github.com/weiihann/iobench/storage"
)

// Workload environment variables understood by the simpleio launchers.
const (
	EnvCwd         = "SGXLKL_CWD"
	EnvEnableSGXIO = "SGXLKL_ENABLE_SGXIO"
	EnvThreads     = "SGXLKL_ETHREADS"
	EnvEnableGDB   = "SGXLKL_ENABLE_GDB"
)

// ProcessRunner executes a composed workload command.
type ProcessRunner interface {
	Run(ctx context.Context, c harness.Command) (harness.Measurement, error)
}

// Runner executes a single backend variant end to end.
type Runner struct {
	Resolver harness.Resolver
	Storage  storage.Provisioner
	Process  ProcessRunner
	// BaseEnv is the inherited environment. Nil means the OS environment.
	BaseEnv harness.Env
	// Overrides holds caller-supplied variables per backend name. They take
	// precedence over everything else.
	Overrides map[string]harness.Env
	// Size is the payload in bytes. Zero means PayloadSize.
	Size int64
	// Write selects the write pass; otherwise the read pass runs.
	Write  bool
	Logger *slog.Logger
}

// Operation returns the pass this runner performs.
func (r *Runner) Operation() harness.Operation {
	if r.Write {
		return harness.OpWrite
	}

	return harness.OpRead
}

// Run acquires storage for spec, runs the workload and appends the
// resulting record to table.
func (r *Runner) Run(
	ctx context.Context,
	spec BackendSpec,
	table *results.Table,
) error {
	logger := r.Logger.With(slog.String("backend", spec.Name))

	bin, err := r.Resolver.Resolve(ctx, spec.Target)
	if err != nil {
		var rerr *harness.ResolveError
		if errors.As(err, &rerr) {
			return err
		}

		return &harness.ResolveError{Target: spec.Target, Err: err}
	}

	m, err := r.measure(ctx, logger, spec, bin)
	if err != nil {
		return err
	}

	rec := harness.NewRunRecord(spec.Name, r.Operation(), m)
	table.Append(rec)

	logger.InfoContext(ctx, "benchmark finished",
		slog.String("operation", string(rec.Operation)),
		slog.Int64("bytes", rec.BytesTransferred),
		slog.Float64("seconds", rec.ElapsedTime),
	)

	return nil
}

// measure holds the storage context only for the duration of the workload.
func (r *Runner) measure(
	ctx context.Context,
	logger *slog.Logger,
	spec BackendSpec,
	bin string,
) (m harness.Measurement, err error) {
	sc, err := r.Storage.Acquire(ctx, spec.Storage)
	if err != nil {
		return m, asStorageError(spec.Storage, "acquire", err)
	}

	defer func() {
		if rerr := sc.Release(); rerr != nil && err == nil {
			err = asStorageError(spec.Storage, "release", rerr)
		}
	}()

	dir := spec.Dir
	if dir == "" {
		dir = sc.Path()
	}

	base := r.BaseEnv
	if base == nil {
		base = harness.OSEnv()
	}

	env := harness.BuildEnv(
		base,
		r.workloadEnv(spec, dir),
		harness.BuildEnv(nil, spec.Env, r.Overrides[spec.Name]),
	)

	logger.InfoContext(ctx, "running benchmark",
		slog.String("storage", string(spec.Storage)),
		slog.String("dir", dir),
		slog.String("binary", bin),
	)

	return r.Process.Run(ctx, harness.Command{
		Path:    bin,
		Args:    r.args(dir),
		Env:     env,
		Capture: base[EnvEnableGDB] != "1",
	})
}

func (r *Runner) workloadEnv(spec BackendSpec, dir string) harness.Env {
	sgxio := "0"
	if spec.SGXIO {
		sgxio = "1"
	}

	return harness.Env{
		EnvCwd:         dir,
		EnvEnableSGXIO: sgxio,
		EnvThreads:     strconv.Itoa(spec.Threads),
	}
}

// args builds: bin/simpleio <dir>/file <size> <offset> <0=write|1=read>.
func (r *Runner) args(dir string) []string {
	size := r.Size
	if size == 0 {
		size = PayloadSize
	}

	mode := "1"
	if r.Write {
		mode = "0"
	}

	return []string{
		"bin/simpleio",
		path.Join(dir, "file"),
		strconv.FormatInt(size, 10),
		"0",
		mode,
	}
}

func asStorageError(kind storage.Kind, op string, err error) error {
	var serr *storage.Error
	if errors.As(err, &serr) {
		return err
	}

	return &storage.Error{Kind: kind, Op: op, Err: err}
}
