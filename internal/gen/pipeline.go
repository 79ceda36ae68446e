package gen

import (
	"context"
	"fmt"
	"io"

	"goldengen/internal/trace"
)

// Pipeline is the top-level driver: build once, then for each discovered
// test file run the interpreter and write its baseline. Strictly sequential;
// the first fatal error aborts the remaining batch with no partial-results
// report.
type Pipeline struct {
	Builder    *Builder
	Discoverer *Discoverer
	Runner     *Runner
	Writer     Writer

	// SourceExtension and OutputSuffix define the artifact-path derivation.
	SourceExtension string
	OutputSuffix    string

	// Progress receives one line per file before it is processed.
	// Nil discards progress output.
	Progress io.Writer

	// Trace receives observational events. Nil is treated as a no-op sink;
	// tracing must never affect generation behavior.
	Trace trace.Sink
}

// Result summarizes a completed generation run.
type Result struct {
	// Files is the number of test sources processed.
	Files int

	// Artifacts lists the written baseline paths in processing order.
	Artifacts []string

	// BuildExitCode is the build step's observed (but ignored) exit code.
	BuildExitCode int
}

// Generate runs the full build-then-generate-all pipeline.
//
// An empty discovery set is success: the build still runs and no artifacts
// are created or modified. Runner and Writer failures propagate immediately;
// files after the failing one are not attempted.
func (p *Pipeline) Generate(ctx context.Context) (*Result, error) {
	if p.Builder == nil || p.Discoverer == nil || p.Runner == nil {
		return nil, fmt.Errorf("pipeline: builder, discoverer, and runner are required")
	}

	buildExit := p.Builder.Build(ctx)
	trace.SafeRecord(p.Trace, trace.Event{
		Kind:     trace.KindBuildCompleted,
		ExitCode: buildExit,
	})

	files, err := p.Discoverer.Discover()
	if err != nil {
		return nil, err
	}

	result := &Result{BuildExitCode: buildExit}
	for _, file := range files {
		p.announce(file)

		captured, err := p.Runner.Run(ctx, file)
		if err != nil {
			return nil, err
		}

		artifact := ArtifactPath(file, p.SourceExtension, p.OutputSuffix)
		if err := p.Writer.Write(artifact, captured.Combined); err != nil {
			return nil, err
		}

		trace.SafeRecord(p.Trace, trace.Event{
			Kind:     trace.KindBaselineWritten,
			File:     file,
			Artifact: artifact,
			ExitCode: captured.ExitCode,
		})
		result.Files++
		result.Artifacts = append(result.Artifacts, artifact)
	}
	return result, nil
}

func (p *Pipeline) announce(file string) {
	if p.Progress == nil {
		return
	}
	fmt.Fprintf(p.Progress, "Generating baseline for %s\n", file)
}
