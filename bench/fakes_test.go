package bench

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/weiihann/iobench/harness"
	"github.com/weiihann/iobench/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeResolver struct {
	err error
}

func (f *fakeResolver) Resolve(_ context.Context, target string) (string, error) {
	if f.err != nil {
		return "", f.err
	}

	return "/nix/store/" + target, nil
}

type fakeContext struct {
	path       string
	releaseErr error
	released   *int
}

func (c *fakeContext) Path() string { return c.path }

func (c *fakeContext) Release() error {
	*c.released++
	return c.releaseErr
}

type fakeProvisioner struct {
	acquireErr error
	releaseErr error
	acquired   []storage.Kind
	released   int
}

func (p *fakeProvisioner) Acquire(_ context.Context, kind storage.Kind) (storage.Context, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}

	p.acquired = append(p.acquired, kind)

	return &fakeContext{
		path:       "/scratch/" + string(kind),
		releaseErr: p.releaseErr,
		released:   &p.released,
	}, nil
}

type fakeProcess struct {
	commands []harness.Command
	result   harness.Measurement
	err      error
}

func (p *fakeProcess) Run(_ context.Context, c harness.Command) (harness.Measurement, error) {
	p.commands = append(p.commands, c)
	return p.result, p.err
}

func (p *fakeProcess) last() harness.Command {
	return p.commands[len(p.commands)-1]
}

var errBoom = errors.New("boom")
