package storage

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
)

// DefaultMounts are the mount points prepared out of band for the
// device-backed kinds.
var DefaultMounts = map[Kind]string{
	SPDK: "/mnt/spdk0",
	LKL:  "/mnt/nvme",
}

// Local provisions native storage as a scratch directory and returns the
// pre-provisioned mount points for device-backed kinds.
type Local struct {
	// NativeRoot is the parent directory for native scratch mounts.
	// Empty means the OS temp directory.
	NativeRoot string
	// Mounts overrides DefaultMounts per kind.
	Mounts map[Kind]string
	Logger *slog.Logger
}

// Acquire prepares storage of the given kind.
func (l *Local) Acquire(ctx context.Context, kind Kind) (Context, error) {
	switch kind {
	case Native:
		return l.acquireNative(ctx)
	case SPDK, LKL:
		path := l.mountFor(kind)
		l.Logger.InfoContext(ctx, "using device mount",
			slog.String("kind", string(kind)),
			slog.String("path", path),
		)

		return &mount{path: path}, nil
	default:
		return nil, &Error{
			Kind: kind,
			Op:   "acquire",
			Err:  errors.Errorf("unsupported storage kind"),
		}
	}
}

func (l *Local) mountFor(kind Kind) string {
	if p, ok := l.Mounts[kind]; ok && p != "" {
		return p
	}

	return DefaultMounts[kind]
}

func (l *Local) acquireNative(ctx context.Context) (Context, error) {
	root := l.NativeRoot
	if p, ok := l.Mounts[Native]; ok && p != "" {
		root = p
	}

	if root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, &Error{
				Kind: Native,
				Op:   "acquire",
				Err:  errors.Wrapf(err, "create root %s", root),
			}
		}
	}

	dir, err := os.MkdirTemp(root, "simpleio-")
	if err != nil {
		return nil, &Error{
			Kind: Native,
			Op:   "acquire",
			Err:  errors.Wrap(err, "create scratch dir"),
		}
	}

	l.Logger.InfoContext(ctx, "native scratch mount ready",
		slog.String("path", dir),
	)

	return &mount{
		path: dir,
		release: func() error {
			if err := os.RemoveAll(dir); err != nil {
				return &Error{
					Kind: Native,
					Op:   "release",
					Err:  errors.Wrapf(err, "remove %s", dir),
				}
			}

			return nil
		},
	}, nil
}

type mount struct {
	path     string
	release  func() error
	released bool
}

func (m *mount) Path() string { return m.path }

func (m *mount) Release() error {
	if m.released {
		return nil
	}

	m.released = true

	if m.release == nil {
		return nil
	}

	return m.release()
}
