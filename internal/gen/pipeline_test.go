package gen

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"goldengen/internal/trace"
)

func newTestPipeline(t *testing.T, root string, sink trace.Sink, progress *bytes.Buffer) *Pipeline {
	t.Helper()
	interp := writeFakeInterpreter(t, root)
	p := &Pipeline{
		Builder:         &Builder{WorkDir: root, Command: "true"},
		Discoverer:      &Discoverer{Root: root, Extension: ".my"},
		Runner:          &Runner{WorkDir: root, Interpreter: interp},
		SourceExtension: ".my",
		OutputSuffix:    ".out",
		Trace:           sink,
	}
	if progress != nil {
		p.Progress = progress
	}
	return p
}

func TestGenerate_EveryDiscoveredFileYieldsArtifact(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.my"), "hello\n")
	writeFile(t, filepath.Join(root, "sub", "b.my"), "world\n")

	var progress bytes.Buffer
	p := newTestPipeline(t, root, trace.NopSink{}, &progress)

	result, err := p.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Files)

	a, err := os.ReadFile(filepath.Join(root, "a.out"))
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(a))

	b, err := os.ReadFile(filepath.Join(root, "sub", "b.out"))
	require.NoError(t, err)
	require.Equal(t, "world\n", string(b))
}

func TestGenerate_FailingProgramBaselineIsWrittenIdentically(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bad.my"), "FAIL\n")

	p := newTestPipeline(t, root, trace.NopSink{}, nil)

	result, err := p.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Files)

	out, err := os.ReadFile(filepath.Join(root, "bad.out"))
	require.NoError(t, err)
	require.Equal(t, "error: division by zero\n", string(out))
}

func TestGenerate_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.my"), "hello\n")
	writeFile(t, filepath.Join(root, "bad.my"), "FAIL\n")

	p := newTestPipeline(t, root, trace.NopSink{}, nil)

	_, err := p.Generate(context.Background())
	require.NoError(t, err)
	first := map[string][]byte{}
	for _, name := range []string{"a.out", "bad.out"} {
		b, err := os.ReadFile(filepath.Join(root, name))
		require.NoError(t, err)
		first[name] = b
	}

	_, err = p.Generate(context.Background())
	require.NoError(t, err)
	for _, name := range []string{"a.out", "bad.out"} {
		b, err := os.ReadFile(filepath.Join(root, name))
		require.NoError(t, err)
		require.Equal(t, first[name], b, "artifact %s changed between identical runs", name)
	}
}

func TestGenerate_ZeroMatchesStillBuildsAndSucceeds(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.txt"), "no test files here\n")

	marker := filepath.Join(root, "built.marker")
	p := newTestPipeline(t, root, trace.NopSink{}, nil)
	p.Builder = &Builder{WorkDir: root, Command: "sh", Args: []string{"-c", "touch built.marker"}}

	result, err := p.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, result.Files)
	require.Empty(t, result.Artifacts)

	_, err = os.Stat(marker)
	require.NoError(t, err, "build step must run even with zero test files")

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasSuffix(e.Name(), ".out"), "no artifacts expected, found %s", e.Name())
	}
}

func TestGenerate_SameBaseNameAcrossDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "dir1", "x.my"), "one\n")
	writeFile(t, filepath.Join(root, "dir2", "x.my"), "two\n")

	p := newTestPipeline(t, root, trace.NopSink{}, nil)

	_, err := p.Generate(context.Background())
	require.NoError(t, err)

	one, err := os.ReadFile(filepath.Join(root, "dir1", "x.out"))
	require.NoError(t, err)
	require.Equal(t, "one\n", string(one))

	two, err := os.ReadFile(filepath.Join(root, "dir2", "x.out"))
	require.NoError(t, err)
	require.Equal(t, "two\n", string(two))
}

func TestGenerate_AnnouncesEachFileBeforeProcessing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.my"), "hello\n")

	var progress bytes.Buffer
	p := newTestPipeline(t, root, trace.NopSink{}, &progress)

	_, err := p.Generate(context.Background())
	require.NoError(t, err)
	require.Contains(t, progress.String(), filepath.Join(root, "a.my"))
}

func TestGenerate_WriteFailureAbortsRemainingBatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.my"), "one\n")
	writeFile(t, filepath.Join(root, "b.my"), "two\n")

	// A directory squatting on the first artifact path makes the atomic
	// rename fail; processing is sorted, so a.my is attempted first.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a.out"), 0o755))

	p := newTestPipeline(t, root, trace.NopSink{}, nil)

	_, err := p.Generate(context.Background())
	require.Error(t, err)

	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr), "expected WriteError, got %T", err)

	_, statErr := os.Stat(filepath.Join(root, "b.out"))
	require.True(t, os.IsNotExist(statErr), "files after the failure must not be processed")
}

func TestGenerate_MissingInterpreterAbortsWithSpawnError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.my"), "hello\n")

	p := newTestPipeline(t, root, trace.NopSink{}, nil)
	p.Runner = &Runner{WorkDir: root, Interpreter: filepath.Join(root, "no-such-interpreter")}

	_, err := p.Generate(context.Background())
	require.Error(t, err)

	var spawnErr *SpawnError
	require.True(t, errors.As(err, &spawnErr), "expected SpawnError, got %T", err)

	_, statErr := os.Stat(filepath.Join(root, "a.out"))
	require.True(t, os.IsNotExist(statErr))
}

func TestGenerate_RecordsTraceEvents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.my"), "hello\n")
	writeFile(t, filepath.Join(root, "bad.my"), "FAIL\n")

	recorder := trace.NewRecorder()
	p := newTestPipeline(t, root, recorder, nil)

	_, err := p.Generate(context.Background())
	require.NoError(t, err)

	events := recorder.Snapshot()
	require.Len(t, events, 3)
	require.Equal(t, trace.KindBuildCompleted, events[0].Kind)
	require.Equal(t, 0, events[0].ExitCode)

	require.Equal(t, trace.KindBaselineWritten, events[1].Kind)
	require.Equal(t, filepath.Join(root, "a.my"), events[1].File)
	require.Equal(t, filepath.Join(root, "a.out"), events[1].Artifact)
	require.Equal(t, 0, events[1].ExitCode)

	require.Equal(t, trace.KindBaselineWritten, events[2].Kind)
	require.Equal(t, 1, events[2].ExitCode)
}
