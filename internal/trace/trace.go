package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// GenerationTrace is the canonical, deterministic record of one baseline
// generation run.
//
// Invariants:
//   - Must capture the ConfigHash and an ordered list of events.
//   - Must contain logical facts only, never runtime-dependent details:
//     no timestamps, no durations, no pointers.
//   - Byte-for-byte stability of the canonical encoding is required, so two
//     runs over unchanged inputs and an unchanged interpreter produce
//     identical trace bytes.
//
// The trace is observational only and must never affect generation behavior.
type GenerationTrace struct {
	ConfigHash string
	Events     []Event
}

// EventKind is the stable, canonical discriminator for Event.
// The string values are part of the trace's canonical bytes; do not rename.
type EventKind string

const (
	// KindBuildCompleted records the build step's observed exit code.
	// The build outcome is recorded but never acted on.
	KindBuildCompleted EventKind = "BuildCompleted"

	// KindBaselineWritten records one artifact written for one test file,
	// along with the interpreter's exit code. Success and failure exit
	// codes are recorded identically.
	KindBaselineWritten EventKind = "BaselineWritten"
)

// Event is a single logical fact about the run.
type Event struct {
	Kind EventKind

	// File is the test source path. Required for BaselineWritten.
	File string

	// Artifact is the written baseline path. Required for BaselineWritten.
	Artifact string

	// ExitCode is the observed child-process exit code.
	ExitCode int
}

// Validate checks basic invariants and returns a descriptive error.
func (t *GenerationTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.ConfigHash == "" {
		return errors.New("configHash is required")
	}
	for i := range t.Events {
		e := t.Events[i]
		switch e.Kind {
		case KindBuildCompleted:
			// File and Artifact are meaningless for the build step.
		case KindBaselineWritten:
			if e.File == "" {
				return fmt.Errorf("events[%d].file is required for kind %q", i, e.Kind)
			}
			if e.Artifact == "" {
				return fmt.Errorf("events[%d].artifact is required for kind %q", i, e.Kind)
			}
		case "":
			return fmt.Errorf("events[%d].kind is required", i)
		default:
			return fmt.Errorf("events[%d].kind %q is unknown", i, e.Kind)
		}
	}
	return nil
}

// Canonicalize sorts the trace into its canonical form.
//
// Ordering is a total order independent of execution timing: the build event
// first, then baseline events by file path. File paths are unique within a
// run (one artifact per test file), so the order is fully determined.
func (t *GenerationTrace) Canonicalize() {
	if t == nil {
		return
	}
	sort.SliceStable(t.Events, func(i, j int) bool {
		a := t.Events[i]
		b := t.Events[j]
		if kindOrder(a.Kind) != kindOrder(b.Kind) {
			return kindOrder(a.Kind) < kindOrder(b.Kind)
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Artifact < b.Artifact
	})
}

func kindOrder(k EventKind) int {
	switch k {
	case KindBuildCompleted:
		return 10
	case KindBaselineWritten:
		return 20
	default:
		return 1000
	}
}

// CanonicalJSON returns the canonical JSON encoding of the trace.
// It canonicalizes a copy to avoid mutating the caller's slices.
func (t GenerationTrace) CanonicalJSON() ([]byte, error) {
	copyTrace := GenerationTrace{ConfigHash: t.ConfigHash}
	copyTrace.Events = make([]Event, len(t.Events))
	copy(copyTrace.Events, t.Events)
	copyTrace.Canonicalize()
	if err := copyTrace.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&copyTrace)
}

// Hash returns the deterministic trace hash (sha256 hex) of the canonical
// JSON bytes.
func (t GenerationTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeTraceHash(b), nil
}

// MarshalJSON fixes field order and omission rules so encoding is stable.
func (t GenerationTrace) MarshalJSON() ([]byte, error) {
	if t.ConfigHash == "" {
		return nil, errors.New("configHash is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString("\"configHash\":")
	ch, _ := json.Marshal(t.ConfigHash)
	buf.Write(ch)
	buf.WriteByte(',')

	buf.WriteString("\"events\":[")
	for i := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(t.Events[i])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteByte(']')

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON fixes field order and omits empty optional fields.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Kind == "" {
		return nil, errors.New("kind is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	// kind (always first)
	buf.WriteString("\"kind\":")
	kb, _ := json.Marshal(string(e.Kind))
	buf.Write(kb)

	if e.File != "" {
		buf.WriteByte(',')
		buf.WriteString("\"file\":")
		fb, _ := json.Marshal(e.File)
		buf.Write(fb)
	}

	if e.Artifact != "" {
		buf.WriteByte(',')
		buf.WriteString("\"artifact\":")
		ab, _ := json.Marshal(e.Artifact)
		buf.Write(ab)
	}

	// exitCode is always emitted: zero is a meaningful observation.
	buf.WriteByte(',')
	buf.WriteString("\"exitCode\":")
	cb, _ := json.Marshal(e.ExitCode)
	buf.Write(cb)

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
