// Package runlog persists per-run metadata and failure records under
// <workdir>/.goldengen/runs/<run-id>/. It is observational bookkeeping: all
// writes are best-effort from the pipeline's point of view and never change
// generation behavior.
package runlog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// Run is the persistent metadata for one generation attempt.
type Run struct {
	RunID      string    `json:"run_id"`
	ConfigHash string    `json:"config_hash"`
	StartTime  time.Time `json:"start_time"`
	Status     RunStatus `json:"status"`

	// FileCount is the number of test sources processed. Meaningful only
	// once the run has terminated.
	FileCount int `json:"file_count"`
}

func (r Run) Validate() error {
	var errs []error
	if strings.TrimSpace(r.RunID) == "" {
		errs = append(errs, errors.New("run_id is required"))
	}
	if strings.TrimSpace(r.ConfigHash) == "" {
		errs = append(errs, errors.New("config_hash is required"))
	}
	if r.StartTime.IsZero() {
		errs = append(errs, errors.New("start_time is required"))
	}
	switch r.Status {
	case StatusRunning, StatusSucceeded, StatusFailed:
		// ok
	default:
		errs = append(errs, fmt.Errorf("invalid status %q", r.Status))
	}
	if r.FileCount < 0 {
		errs = append(errs, errors.New("file_count must be >= 0"))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// FailureClass is the frozen taxonomy for aborted generation runs.
//
// A non-zero interpreter exit status never appears here: failing programs
// produce valid baselines, not failures.
type FailureClass string

const (
	// FailureClassSpawn: the interpreter process could not be started
	// (missing or non-executable binary, typically a broken build).
	FailureClassSpawn FailureClass = "spawn"

	// FailureClassWrite: a baseline artifact could not be persisted.
	FailureClassWrite FailureClass = "write"

	// FailureClassConfig: invocation or configuration was unusable.
	FailureClassConfig FailureClass = "config"

	// FailureClassSystem: crash/panic or other unclassified termination.
	FailureClassSystem FailureClass = "system"
)

// Failure is the recorded reason a run terminated without completing the
// discovered set.
type Failure struct {
	FailureClass FailureClass `json:"failure_class"`

	// File is the test source being processed when the run aborted,
	// when one is known.
	File string `json:"file,omitempty"`

	ErrorMessage string `json:"error_message"`
}

func (f Failure) Validate() error {
	var errs []error
	switch f.FailureClass {
	case FailureClassSpawn, FailureClassWrite, FailureClassConfig, FailureClassSystem:
		// ok
	default:
		errs = append(errs, fmt.Errorf("invalid failure_class %q", f.FailureClass))
	}
	if strings.TrimSpace(f.ErrorMessage) == "" {
		errs = append(errs, errors.New("error_message is required"))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
