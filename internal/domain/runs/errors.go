package runs

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates no run row matches the requested id.
var ErrNotFound = errors.New("run not found")

// ErrTimeout indicates the pipeline exceeded its wall-clock budget and was killed.
var ErrTimeout = errors.New("pipeline timed out")

func fieldErr(msg string) error { return fmt.Errorf("invalid result: %s", msg) }

// EncodeError: the request payload could not be serialized to disk.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return "encode payload: " + e.Err.Error() }
func (e *EncodeError) Unwrap() error { return e.Err }

// StartError: the worker executable could not be launched.
type StartError struct {
	Err error
}

func (e *StartError) Error() string { return "start worker: " + e.Err.Error() }
func (e *StartError) Unwrap() error { return e.Err }

// ExitError: the worker exited non-zero; Stderr carries its diagnostics.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("worker exited with code %d: %s", e.Code, e.Stderr)
}

// OutputError: the worker exited cleanly but its final stdout line was not a
// valid result object.
type OutputError struct {
	Line string
	Err  error
}

func (e *OutputError) Error() string {
	if e.Err == nil {
		return "parse worker output"
	}
	return "parse worker output: " + e.Err.Error()
}
func (e *OutputError) Unwrap() error { return e.Err }

// DecodeError: a stored sub-object could not be unmarshalled back from the
// database (corrupted or hand-edited row).
type DecodeError struct {
	Column string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode stored %s: %v", e.Column, e.Err)
}
func (e *DecodeError) Unwrap() error { return e.Err }
