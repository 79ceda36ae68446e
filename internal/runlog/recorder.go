package runlog

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goldengen/internal/gen"
)

// Recorder writes run.json and failure.json artifacts for generation runs.
//
// It is intentionally small: callers provide run metadata and the triggering
// error. The recorder classifies the error into the frozen failure taxonomy
// and persists the record through Store (atomic + durable).
type Recorder struct {
	Store *Store
}

// NewRunID returns a fresh operational identifier for a run. IDs only need
// to be unique on disk, so a random UUID suffices.
func (r *Recorder) NewRunID() string {
	return uuid.NewString()
}

func (r *Recorder) StartRun(run Run) error {
	if r == nil || r.Store == nil {
		return errors.New("Store is required")
	}
	if run.StartTime.IsZero() {
		run.StartTime = time.Now().UTC()
	}
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}
	return r.Store.SaveRun(run)
}

// FinishRun overwrites the run record with its terminal status.
func (r *Recorder) FinishRun(run Run, status RunStatus, fileCount int) error {
	if r == nil || r.Store == nil {
		return errors.New("Store is required")
	}
	run.Status = status
	run.FileCount = fileCount
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}
	return r.Store.SaveRun(run)
}

func (r *Recorder) RecordFailure(runID string, err error) error {
	if r == nil || r.Store == nil {
		return errors.New("Store is required")
	}
	return r.Store.SaveFailure(runID, failureFromError(err))
}

// failureFromError maps pipeline errors onto the failure taxonomy.
func failureFromError(err error) Failure {
	if err == nil {
		return Failure{FailureClass: FailureClassSystem, ErrorMessage: "unknown failure"}
	}

	var spawnErr *gen.SpawnError
	if errors.As(err, &spawnErr) {
		return Failure{
			FailureClass: FailureClassSpawn,
			File:         spawnErr.File,
			ErrorMessage: err.Error(),
		}
	}

	var writeErr *gen.WriteError
	if errors.As(err, &writeErr) {
		return Failure{
			FailureClass: FailureClassWrite,
			File:         writeErr.Path,
			ErrorMessage: err.Error(),
		}
	}

	return Failure{FailureClass: FailureClassSystem, ErrorMessage: err.Error()}
}

// RecordConfigFailure persists a configuration-class failure. Invocation and
// config errors carry no useful typed structure beyond their message, so
// they bypass the taxonomy classifier.
func (r *Recorder) RecordConfigFailure(runID string, err error) error {
	if r == nil || r.Store == nil {
		return errors.New("Store is required")
	}
	return r.Store.SaveFailure(runID, ConfigFailure(err))
}

// ConfigFailure builds a configuration-class failure record directly; config
// errors carry no useful typed structure beyond their message.
func ConfigFailure(err error) Failure {
	msg := "invalid configuration"
	if err != nil {
		msg = err.Error()
	}
	return Failure{FailureClass: FailureClassConfig, ErrorMessage: msg}
}
