package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	ExitSuccess           = 0
	ExitGenerationAborted = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

type TraceConfig struct {
	Enabled bool
	Path    string
}

// Invocation is the fully canonicalized, deterministic description of a
// generation run.
//
// All paths are normalized (Clean) and all relative paths are resolved
// relative to WorkDir.
//
// NOTE: WorkDir is required and must be absolute; this prevents any
// dependency on the process current working directory.
type Invocation struct {
	WorkDir        string
	ConfigPath     string
	Trace          TraceConfig
	OriginalConfig string
	OriginalTrace  string
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// ParseInvocation parses CLI flags into a canonical Invocation.
//
// Determinism goals:
//   - Does not read env vars.
//   - Does not read/assume the process CWD.
//   - Requires WorkDir to be explicit and absolute.
func ParseInvocation(args []string) (Invocation, error) {
	fs := flag.NewFlagSet("goldengen", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // parsing errors are returned, not printed

	var workDir string
	var configPath string
	var tracePath string

	fs.StringVar(&workDir, "workdir", "", "Absolute working directory (the test-file search root). Required.")
	fs.StringVar(&configPath, "config", "", "Path to goldengen.yml (optional; defaults apply when absent).")
	fs.StringVar(&tracePath, "trace", "", "Trace output path (optional).")

	// We intentionally do not accept environment-derived defaults.
	if err := fs.Parse(args); err != nil {
		return Invocation{}, invalidInvocationf("%v", err)
	}
	if fs.NArg() != 0 {
		return Invocation{}, invalidInvocationf("unexpected positional arguments: %q", strings.Join(fs.Args(), " "))
	}

	workDir = filepath.Clean(workDir)
	if workDir == "" || workDir == "." {
		return Invocation{}, invalidInvocationf("--workdir is required")
	}
	if !filepath.IsAbs(workDir) {
		return Invocation{}, invalidInvocationf("--workdir must be an absolute path (got %q)", workDir)
	}

	inv := Invocation{
		WorkDir:        workDir,
		OriginalConfig: configPath,
		OriginalTrace:  tracePath,
	}

	if strings.TrimSpace(configPath) != "" {
		resolved, err := resolveUnderWorkDir(workDir, configPath)
		if err != nil {
			return Invocation{}, err
		}
		inv.ConfigPath = resolved
	}

	if strings.TrimSpace(tracePath) != "" {
		resolved, err := resolveUnderWorkDir(workDir, tracePath)
		if err != nil {
			return Invocation{}, err
		}
		inv.Trace = TraceConfig{Enabled: true, Path: resolved}
	}

	return inv, nil
}

func resolveUnderWorkDir(workDir, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", invalidInvocationf("path must not be empty")
	}
	clean := filepath.Clean(p)
	if clean == "." {
		return "", invalidInvocationf("path must not be '.'")
	}

	// If absolute, accept as-is; it is still deterministic.
	// If relative, resolve under WorkDir.
	if filepath.IsAbs(clean) {
		return clean, nil
	}

	// WorkDir is required to be absolute, so Join does not consult process CWD.
	return filepath.Clean(filepath.Join(workDir, clean)), nil
}

// ExitCodeFor extracts a semantic exit code from a ParseInvocation error.
// If the error is not a known invocation error, it returns ExitInternalError.
func ExitCodeFor(err error) int {
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	if err == nil {
		return ExitSuccess
	}
	return ExitInternalError
}
