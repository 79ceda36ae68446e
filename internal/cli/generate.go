package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"goldengen/internal/config"
	"goldengen/internal/gen"
	"goldengen/internal/runlog"
	"goldengen/internal/trace"
)

// Result is the semantic outcome of one invocation.
type Result struct {
	ExitCode   int
	Generation *gen.Result
}

// Execute runs a canonical invocation with progress on stdout.
func Execute(ctx context.Context, inv Invocation) (Result, error) {
	return ExecuteWithProgress(ctx, inv, os.Stdout)
}

// ExecuteWithProgress maps a canonical Invocation to pipeline execution.
//
// Responsibilities:
//   - Load configuration (defaults when no config file is given or found).
//   - Record run metadata and failures in the run log (best-effort; the run
//     log never changes generation behavior).
//   - Initialize trace output before execution and finalize after execution,
//     even on panic/failure.
//   - Translate pipeline outcomes to semantic exit codes. An empty
//     discovery set is success; an aborted batch is not.
func ExecuteWithProgress(ctx context.Context, inv Invocation, progress io.Writer) (res Result, execErr error) {
	res.ExitCode = ExitInternalError

	// Initialize the run log as early as possible so failures can be recorded.
	st, _ := runlog.NewStore(inv.WorkDir)
	rec := &runlog.Recorder{Store: st}
	runID := rec.NewRunID()

	cfg, err := loadConfig(inv)
	if err != nil {
		_ = rec.RecordConfigFailure(runID, err)
		res.ExitCode = ExitConfigError
		return res, err
	}
	configHash := cfg.Hash()

	run := runlog.Run{
		RunID:      runID,
		ConfigHash: configHash,
		StartTime:  time.Now().UTC(),
		Status:     runlog.StatusRunning,
	}
	_ = rec.StartRun(run)

	traceWriter, err := newTraceWriter(inv, configHash)
	if err != nil {
		_ = rec.RecordConfigFailure(runID, err)
		_ = rec.FinishRun(run, runlog.StatusFailed, 0)
		res.ExitCode = ExitConfigError
		return res, err
	}
	recorder := trace.NewRecorder()
	defer func() {
		// Always finalize trace output deterministically.
		_ = traceWriter.Finalize(recorder)
	}()

	defer func() {
		if r := recover(); r != nil {
			res.ExitCode = ExitInternalError
			res.Generation = nil
			execErr = fmt.Errorf("panic: %v", r)
			_ = rec.RecordFailure(runID, execErr)
			_ = rec.FinishRun(run, runlog.StatusFailed, 0)
		}
	}()

	pipeline := &gen.Pipeline{
		Builder: &gen.Builder{
			WorkDir: inv.WorkDir,
			Command: cfg.Build.Command,
			Args:    cfg.Build.Args,
		},
		Discoverer: &gen.Discoverer{
			Root:      inv.WorkDir,
			Extension: cfg.SourceExtension,
		},
		Runner: &gen.Runner{
			WorkDir:     inv.WorkDir,
			Interpreter: resolveInterpreter(inv.WorkDir, cfg.Interpreter),
		},
		SourceExtension: cfg.SourceExtension,
		OutputSuffix:    cfg.OutputSuffix,
		Progress:        progress,
		Trace:           recorder,
	}

	gr, err := pipeline.Generate(ctx)
	if err != nil {
		_ = rec.RecordFailure(runID, err)
		_ = rec.FinishRun(run, runlog.StatusFailed, 0)
		res.ExitCode = ExitGenerationAborted
		return res, err
	}

	res.Generation = gr
	res.ExitCode = ExitSuccess
	_ = rec.FinishRun(run, runlog.StatusSucceeded, gr.Files)
	return res, nil
}

// loadConfig resolves the effective configuration for an invocation:
// an explicit --config path, else <workdir>/goldengen.yml when present,
// else built-in defaults.
func loadConfig(inv Invocation) (config.Config, error) {
	if inv.ConfigPath != "" {
		return config.Load(inv.ConfigPath)
	}
	implicit := filepath.Join(inv.WorkDir, "goldengen.yml")
	if _, err := os.Stat(implicit); err == nil {
		return config.Load(implicit)
	} else if !errors.Is(err, os.ErrNotExist) {
		return config.Config{}, fmt.Errorf("config: stat %s: %w", implicit, err)
	}
	return config.Default(), nil
}

func resolveInterpreter(workDir, interpreter string) string {
	if filepath.IsAbs(interpreter) {
		return filepath.Clean(interpreter)
	}
	// The default interpreter path points above the test root
	// (../target/release/...); Join cleans that correctly.
	return filepath.Clean(filepath.Join(workDir, interpreter))
}

type traceFileWriter struct {
	enabled    bool
	path       string
	configHash string
}

func newTraceWriter(inv Invocation, configHash string) (*traceFileWriter, error) {
	if !inv.Trace.Enabled {
		return &traceFileWriter{enabled: false}, nil
	}
	if inv.Trace.Path == "" {
		return nil, fmt.Errorf("trace enabled but path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(inv.Trace.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create trace dir: %w", err)
	}
	// Create an empty trace file eagerly so the destination is reserved and
	// so that even a panic results in a deterministic artifact.
	w := &traceFileWriter{enabled: true, path: inv.Trace.Path, configHash: configHash}
	return w, w.writeBytes(trace.GenerationTrace{ConfigHash: configHash, Events: nil})
}

func (w *traceFileWriter) Finalize(recorder *trace.Recorder) error {
	if w == nil || !w.enabled {
		return nil
	}
	if recorder == nil {
		// No events collected (e.g. internal error); still emit a valid
		// empty trace for this configuration.
		return w.writeBytes(trace.GenerationTrace{ConfigHash: w.configHash, Events: nil})
	}
	return w.writeBytes(recorder.Trace(w.configHash))
}

func (w *traceFileWriter) writeBytes(t trace.GenerationTrace) error {
	b, err := t.CanonicalJSON()
	if err != nil {
		return err
	}
	return writeFileAtomic(w.path, b, 0o644)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	_ = tmp.Sync() // best-effort durability
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
