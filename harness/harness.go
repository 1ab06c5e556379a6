package harness

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Command is a fully composed workload invocation.
type Command struct {
	Path string
	Args []string
	Env  Env
	// Capture scans stdout for a result block. When false the workload
	// inherits the console and no measurement is produced.
	Capture bool
}

// String renders the command line as a reproducible shell invocation.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Env)+len(c.Args)+1)
	parts = append(parts, c.Env.Environ()...)
	parts = append(parts, c.Path)
	parts = append(parts, c.Args...)

	return "$ " + strings.Join(parts, " ")
}

// Runner launches workload binaries and extracts their result block.
type Runner struct {
	// Echo receives every stdout line read from the workload. Nil discards.
	Echo   io.Writer
	Logger *slog.Logger
}

// NewRunner creates a Runner that echoes workload output to stderr.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{
		Echo:   os.Stderr,
		Logger: logger,
	}
}

// Run executes the workload and returns the decoded measurement. The child
// is killed before Run returns, whether or not it has exited.
func (r *Runner) Run(ctx context.Context, c Command) (Measurement, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Env = c.Env.Environ()
	cmd.Stderr = os.Stderr

	r.Logger.InfoContext(ctx, "starting workload",
		slog.String("cmd", c.String()),
		slog.Bool("capture", c.Capture),
	)

	if !c.Capture {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout

		if err := cmd.Run(); err != nil {
			return Measurement{}, &ProcessError{Path: c.Path, Err: err}
		}

		return Measurement{}, ErrNotCaptured
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Measurement{}, &ProcessError{Path: c.Path, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return Measurement{}, &ProcessError{Path: c.Path, Err: err}
	}

	waited := false

	defer func() {
		_ = cmd.Process.Kill()
		if !waited {
			_ = cmd.Wait()
		}
	}()

	var fence fenceScanner

	readErr := r.scan(stdout, &fence)

	if fence.Closed() {
		return parseResult(fence.Payload())
	}

	waitErr := cmd.Wait()
	waited = true

	switch {
	case waitErr != nil:
		return Measurement{}, &ProcessError{Path: c.Path, Err: waitErr}
	case readErr != nil:
		return Measurement{}, &ProcessError{
			Path: c.Path,
			Err:  fmt.Errorf("read stdout: %w", readErr),
		}
	case fence.Opened():
		return Measurement{}, &ParseError{
			Payload: fence.Payload(),
			Err:     fmt.Errorf("unterminated result block"),
		}
	default:
		return Measurement{}, &ParseError{
			Err: fmt.Errorf("no result block in output"),
		}
	}
}

// scan feeds stdout to the fence scanner line by line and stops as soon
// as the result block is closed.
func (r *Runner) scan(rd io.Reader, fence *fenceScanner) error {
	br := bufio.NewReader(rd)

	for {
		line, err := br.ReadString('\n')
		if line != "" {
			r.echo(line)

			if fence.Feed(line) {
				return nil
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}
	}
}

func (r *Runner) echo(line string) {
	if r.Echo == nil {
		return
	}

	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}

	fmt.Fprintf(r.Echo, "stdout: %s", line)
}

func parseResult(payload string) (Measurement, error) {
	var raw struct {
		Bytes *int64   `json:"bytes"`
		Time  *float64 `json:"time"`
	}

	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return Measurement{}, &ParseError{
			Payload: payload,
			Err:     fmt.Errorf("decode JSON: %w", err),
		}
	}

	if raw.Bytes == nil {
		return Measurement{}, &ParseError{
			Payload: payload,
			Err:     fmt.Errorf("missing field %q", "bytes"),
		}
	}

	if raw.Time == nil {
		return Measurement{}, &ParseError{
			Payload: payload,
			Err:     fmt.Errorf("missing field %q", "time"),
		}
	}

	return Measurement{Bytes: *raw.Bytes, Time: *raw.Time}, nil
}
