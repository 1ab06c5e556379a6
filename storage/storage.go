// Package storage hands out scoped mount points for the storage kinds the
// simpleio backends need.
package storage

import (
	"context"
	"fmt"
)

// Kind identifies how a backend's storage must be prepared.
type Kind string

const (
	// Native is a regular host filesystem mount.
	Native Kind = "native"
	// SPDK is an NVMe device handed to the SGX-IO userspace driver.
	SPDK Kind = "spdk"
	// LKL is a raw block device mounted inside the LKL kernel.
	LKL Kind = "lkl"
)

// Context is an acquired mount. Release must be called exactly once.
type Context interface {
	// Path is the mount or working directory backing the context.
	Path() string
	Release() error
}

// Provisioner acquires storage contexts. Failures are reported as *Error.
type Provisioner interface {
	Acquire(ctx context.Context, kind Kind) (Context, error)
}

// Error reports a storage kind that could not be set up or torn down.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
