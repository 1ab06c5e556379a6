package bench

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiihann/iobench/harness"
	"github.com/weiihann/iobench/results"
	"github.com/weiihann/iobench/storage"
)

func newTestRunner(p *fakeProvisioner, proc *fakeProcess) *Runner {
	return &Runner{
		Resolver: &fakeResolver{},
		Storage:  p,
		Process:  proc,
		BaseEnv:  harness.Env{"HOME": "/root", EnvThreads: "64"},
		Write:    true,
		Logger:   discardLogger(),
	}
}

func mustLookup(t *testing.T, name string) BackendSpec {
	t.Helper()

	spec, err := Lookup(name)
	require.NoError(t, err)

	return spec
}

func TestBackendsDeclarationOrder(t *testing.T) {
	assert.Equal(t, []string{"native", "sgx-io", "scone", "sgx-lkl"}, BackendNames())

	_, err := Lookup("docker")
	assert.Error(t, err)
}

func TestRunnerNative(t *testing.T) {
	p := &fakeProvisioner{}
	proc := &fakeProcess{result: harness.Measurement{Bytes: 100, Time: 0.5}}
	table := results.NewTable()

	err := newTestRunner(p, proc).Run(context.Background(), mustLookup(t, "native"), table)
	require.NoError(t, err)

	assert.Equal(t, []storage.Kind{storage.Native}, p.acquired)
	assert.Equal(t, 1, p.released)

	c := proc.last()
	assert.Equal(t, "/nix/store/simpleio-native", c.Path)
	assert.True(t, c.Capture)
	assert.Equal(t, []string{
		"bin/simpleio",
		"/scratch/native/file",
		strconv.FormatInt(PayloadSize, 10),
		"0",
		"0",
	}, c.Args)

	assert.Equal(t, "/root", c.Env["HOME"])
	assert.Equal(t, "/scratch/native", c.Env[EnvCwd])
	assert.Equal(t, "0", c.Env[EnvEnableSGXIO])
	assert.Equal(t, "8", c.Env[EnvThreads], "workload vars win over inherited env")

	require.Equal(t, 1, table.Len())
	assert.Equal(t, harness.RunRecord{
		Backend: "native", BytesTransferred: 100,
		ElapsedTime: 0.5, Operation: harness.OpWrite,
	}, table.Row(0))
}

func TestRunnerSGXIO(t *testing.T) {
	p := &fakeProvisioner{}
	proc := &fakeProcess{}

	r := newTestRunner(p, proc)
	r.Write = false
	r.Size = 4096
	r.Overrides = map[string]harness.Env{
		"sgx-io": {"SCONE_MODE": "hw", EnvThreads: "4"},
	}

	table := results.NewTable()
	require.NoError(t, r.Run(context.Background(), mustLookup(t, "sgx-io"), table))

	assert.Equal(t, []storage.Kind{storage.SPDK}, p.acquired)

	c := proc.last()
	assert.Equal(t, "/mnt/spdk0", c.Env[EnvCwd])
	assert.Equal(t, "1", c.Env[EnvEnableSGXIO])
	assert.Equal(t, "4", c.Env[EnvThreads], "overrides win over workload vars")
	assert.Equal(t, "hw", c.Env["SCONE_MODE"])
	assert.Equal(t, []string{"bin/simpleio", "/mnt/spdk0/file", "4096", "0", "1"}, c.Args)

	assert.Equal(t, harness.OpRead, table.Row(0).Operation)
}

func TestRunnerSGXLKL(t *testing.T) {
	proc := &fakeProcess{}

	err := newTestRunner(&fakeProvisioner{}, proc).
		Run(context.Background(), mustLookup(t, "sgx-lkl"), results.NewTable())
	require.NoError(t, err)

	c := proc.last()
	assert.Equal(t, "/dev/nvme0n1:/mnt/nvme", c.Env["SGXLKL_HDS"])
	assert.Equal(t, "/mnt/nvme", c.Env[EnvCwd])
	assert.Equal(t, "8", c.Env[EnvThreads])
}

func TestRunnerReleasesStorageOnFailure(t *testing.T) {
	p := &fakeProvisioner{}
	proc := &fakeProcess{err: &harness.ProcessError{Path: "x", Err: errBoom}}
	table := results.NewTable()

	err := newTestRunner(p, proc).Run(context.Background(), mustLookup(t, "scone"), table)

	var perr *harness.ProcessError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, p.released)
	assert.Equal(t, 0, table.Len())
}

func TestRunnerStorageErrors(t *testing.T) {
	t.Run("acquire", func(t *testing.T) {
		proc := &fakeProcess{}
		err := newTestRunner(&fakeProvisioner{acquireErr: errBoom}, proc).
			Run(context.Background(), mustLookup(t, "native"), results.NewTable())

		var serr *storage.Error
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "acquire", serr.Op)
		assert.Empty(t, proc.commands)
	})

	t.Run("release", func(t *testing.T) {
		table := results.NewTable()
		err := newTestRunner(&fakeProvisioner{releaseErr: errBoom}, &fakeProcess{}).
			Run(context.Background(), mustLookup(t, "native"), table)

		var serr *storage.Error
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "release", serr.Op)
		assert.Equal(t, 0, table.Len())
	})
}

func TestRunnerResolveError(t *testing.T) {
	p := &fakeProvisioner{}
	r := newTestRunner(p, &fakeProcess{})
	r.Resolver = &fakeResolver{err: errBoom}

	err := r.Run(context.Background(), mustLookup(t, "native"), results.NewTable())

	var rerr *harness.ResolveError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "simpleio-native", rerr.Target)
	assert.Empty(t, p.acquired)
}

func TestRunnerDebugDisablesCapture(t *testing.T) {
	proc := &fakeProcess{err: harness.ErrNotCaptured}
	r := newTestRunner(&fakeProvisioner{}, proc)
	r.BaseEnv[EnvEnableGDB] = "1"

	table := results.NewTable()
	err := r.Run(context.Background(), mustLookup(t, "native"), table)

	assert.ErrorIs(t, err, harness.ErrNotCaptured)
	assert.False(t, proc.last().Capture)
	assert.Equal(t, 0, table.Len())
}

func TestRunnerEndToEnd(t *testing.T) {
	binDir := t.TempDir()
	script := "#!/bin/sh\n" +
		"echo \"writing $2\"\n" +
		"printf '<result>\\n{\"bytes\": %s, \"time\": 0.25}\\n</result>\\n' \"$3\"\n" +
		"echo trailing\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(binDir, "simpleio-native"), []byte(script), 0o755,
	))

	proc := harness.NewRunner(discardLogger())
	proc.Echo = nil

	r := &Runner{
		Resolver: &harness.DirResolver{Dir: binDir},
		Storage: &storage.Local{
			NativeRoot: t.TempDir(),
			Logger:     discardLogger(),
		},
		Process: proc,
		BaseEnv: harness.Env{"PATH": "/usr/bin:/bin"},
		Size:    1 << 20,
		Write:   true,
		Logger:  discardLogger(),
	}

	table := results.NewTable()
	require.NoError(t, r.Run(context.Background(), mustLookup(t, "native"), table))

	require.Equal(t, 1, table.Len())
	assert.Equal(t, harness.RunRecord{
		Backend: "native", BytesTransferred: 1 << 20,
		ElapsedTime: 0.25, Operation: harness.OpWrite,
	}, table.Row(0))
}
