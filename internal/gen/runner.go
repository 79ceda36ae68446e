package gen

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"syscall"
)

// CapturedOutput is everything one interpreter invocation wrote to its
// combined output stream, plus the exit status. The exit status is observed
// but does not change how the output is persisted: baselines for
// expected-failure programs are as valid as baselines for passing ones.
type CapturedOutput struct {
	// File is the test source the interpreter was invoked on.
	File string

	// Combined holds the interleaved stdout and stderr bytes.
	Combined []byte

	// ExitCode is the interpreter's exit status (0 on success).
	ExitCode int
}

// Runner executes the interpreter binary on one test file at a time.
//
// Exactly one child process exists per invocation; there is no timeout, so a
// hung interpreter blocks the whole batch until the context is cancelled.
type Runner struct {
	// WorkDir is the directory the interpreter runs in.
	WorkDir string

	// Interpreter is the path to the interpreter binary.
	Interpreter string
}

// Run invokes `<interpreter> <file>` and captures its combined output.
//
// A non-zero exit status is a normal result. Failure to start the process at
// all (missing or non-executable binary) returns a SpawnError, which callers
// must treat as fatal for the remaining batch.
func (r *Runner) Run(ctx context.Context, file string) (*CapturedOutput, error) {
	if file == "" {
		return nil, fmt.Errorf("run: file is required")
	}

	cmd := exec.CommandContext(ctx, r.Interpreter, file)
	cmd.Dir = r.WorkDir

	// stdout and stderr share one buffer so the baseline records the
	// interleaved stream the way a terminal would show it.
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	// Own process group so cancellation can kill the whole tree.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{File: file, Interpreter: r.Interpreter, Cause: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var waitErr error
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return nil, &SpawnError{File: file, Interpreter: r.Interpreter, Cause: ctx.Err()}
	case waitErr = <-done:
	}

	exitCode := 0
	if waitErr != nil {
		exitErr, ok := waitErr.(*exec.ExitError)
		if !ok {
			return nil, &SpawnError{File: file, Interpreter: r.Interpreter, Cause: waitErr}
		}
		exitCode = exitErr.ExitCode()
	}

	return &CapturedOutput{
		File:     file,
		Combined: combined.Bytes(),
		ExitCode: exitCode,
	}, nil
}
