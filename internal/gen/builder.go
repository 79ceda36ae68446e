package gen

import (
	"context"
	"io"
	"os/exec"
)

// Builder triggers the interpreter's release build exactly once per run.
//
// Build diagnostics are discarded and the exit status is never acted on: a
// broken build surfaces later as a SpawnError when the interpreter binary is
// missing or stale. The status is still reported so the trace can record it.
type Builder struct {
	// WorkDir is the directory the build command runs in.
	WorkDir string

	// Command is the build executable (e.g. "cargo").
	Command string

	// Args are the build arguments (e.g. ["build", "--release"]).
	Args []string
}

// BuildExitStartFailed is reported when the build command itself could not
// be started (executable not found). The pipeline proceeds regardless.
const BuildExitStartFailed = -1

// Build runs the build command with stdout and stderr discarded and returns
// its exit code. Build never returns an error: a failed build surfaces later
// in the execution phase.
func (b *Builder) Build(ctx context.Context) int {
	cmd := exec.CommandContext(ctx, b.Command, b.Args...)
	cmd.Dir = b.WorkDir
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		return BuildExitStartFailed
	}
	return 0
}
