// Package gen implements the baseline generation pipeline: build the
// interpreter, discover test sources, execute each one, and persist the
// captured output as a golden artifact.
package gen

import "fmt"

// SpawnError indicates the interpreter process could not be started or
// completed for reasons other than its own exit status. It aborts the batch.
//
// A non-zero interpreter exit status is NOT a SpawnError: failing programs
// produce valid baseline content.
type SpawnError struct {
	File        string
	Interpreter string
	Cause       error
}

func (e *SpawnError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("spawning %s for %s: %v", e.Interpreter, e.File, e.Cause)
}

func (e *SpawnError) Unwrap() error { return e.Cause }

// WriteError indicates a baseline artifact could not be persisted
// (permissions, missing parent, disk full). It aborts the batch.
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("writing baseline %s: %v", e.Path, e.Cause)
}

func (e *WriteError) Unwrap() error { return e.Cause }
