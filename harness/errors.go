package harness

import (
	"errors"
	"fmt"
)

// ErrNotCaptured is returned when output capture was disabled and the
// workload ran attached to the console.
var ErrNotCaptured = errors.New("output not captured")

// ProcessError reports a workload that could not be spawned or that
// terminated abnormally before producing a result.
type ProcessError struct {
	Path string
	Err  error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("process %s: %v", e.Path, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// ParseError reports a missing or undecodable result block. Payload holds
// whatever was captured between the markers.
type ParseError struct {
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse result: %v\npayload: %q", e.Err, e.Payload)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResolveError reports a build target that could not be turned into an
// executable path.
type ResolveError struct {
	Target string
	Err    error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Target, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }
