package harness

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Resolver turns a build target name into an executable path.
type Resolver interface {
	Resolve(ctx context.Context, target string) (string, error)
}

// NixResolver builds targets as attributes of a nix expression.
type NixResolver struct {
	// File is the nix expression passed to nix-build, "." by default.
	File   string
	Logger *slog.Logger
}

// Resolve runs nix-build for the attribute and returns the store path it
// prints on stdout.
func (n *NixResolver) Resolve(ctx context.Context, target string) (string, error) {
	file := n.File
	if file == "" {
		file = "."
	}

	n.Logger.InfoContext(ctx, "building target",
		slog.String("target", target),
		slog.String("nix_file", file),
	)

	cmd := exec.CommandContext(
		ctx, "nix-build", file, "-A", target, "--no-out-link",
	)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", &ResolveError{Target: target, Err: err}
	}

	lines := strings.Fields(stdout.String())
	if len(lines) == 0 {
		return "", &ResolveError{
			Target: target,
			Err:    fmt.Errorf("nix-build printed no output path"),
		}
	}

	path := lines[len(lines)-1]

	n.Logger.InfoContext(ctx, "target built",
		slog.String("target", target),
		slog.String("path", path),
	)

	return path, nil
}

// DirResolver looks targets up as prebuilt executables in a directory.
type DirResolver struct {
	Dir string
}

// Resolve returns Dir/target if it exists.
func (d *DirResolver) Resolve(_ context.Context, target string) (string, error) {
	path, err := filepath.Abs(filepath.Join(d.Dir, target))
	if err != nil {
		return "", &ResolveError{Target: target, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", &ResolveError{Target: target, Err: err}
	}

	if info.IsDir() {
		return "", &ResolveError{
			Target: target,
			Err:    fmt.Errorf("%s is a directory", path),
		}
	}

	return path, nil
}
