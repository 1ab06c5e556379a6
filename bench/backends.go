// Package bench runs the simpleio workload against each storage backend
// and accumulates the results.
package bench

import (
	"fmt"

	"github.com/weiihann/iobench/harness"
	"github.com/weiihann/iobench/storage"
)

// PayloadSize is the number of bytes each run writes or reads.
const PayloadSize int64 = 40 * 1024 * 1024 * 1024

const (
	sgxioThreads   = 2
	defaultThreads = 8
)

// BackendSpec describes one benchmark variant.
type BackendSpec struct {
	Name    string
	Storage storage.Kind
	// Target is the build target producing the workload launcher.
	Target string
	// Dir is the workload's working directory. Empty means the path of
	// the acquired storage context.
	Dir string
	// Env holds variant-specific variables applied over the workload
	// variables.
	Env     harness.Env
	Threads int
	SGXIO   bool
}

func threadsFor(sgxio bool) int {
	if sgxio {
		return sgxioThreads
	}

	return defaultThreads
}

func newSpec(name string, kind storage.Kind, dir string, env harness.Env) BackendSpec {
	sgxio := name == "sgx-io"

	return BackendSpec{
		Name:    name,
		Storage: kind,
		Target:  "simpleio-" + name,
		Dir:     dir,
		Env:     env,
		Threads: threadsFor(sgxio),
		SGXIO:   sgxio,
	}
}

var backends = []BackendSpec{
	newSpec("native", storage.Native, "", nil),
	newSpec("sgx-io", storage.SPDK, "/mnt/spdk0", nil),
	newSpec("scone", storage.Native, "", nil),
	newSpec("sgx-lkl", storage.LKL, "/mnt/nvme", harness.Env{
		"SGXLKL_HDS": "/dev/nvme0n1:/mnt/nvme",
	}),
}

// Backends returns every known variant in declaration order.
func Backends() []BackendSpec {
	out := make([]BackendSpec, len(backends))
	copy(out, backends)

	return out
}

// BackendNames returns the names of Backends.
func BackendNames() []string {
	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Name)
	}

	return names
}

// Lookup returns the named variant.
func Lookup(name string) (BackendSpec, error) {
	for _, b := range backends {
		if b.Name == name {
			return b, nil
		}
	}

	return BackendSpec{}, fmt.Errorf("unknown backend %q", name)
}
