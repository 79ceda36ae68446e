package trace

import "sync"

// Sink is the minimal interface the generation pipeline depends on.
//
// Record must be inert:
//   - must not panic (implementations should guard themselves)
//   - must not return errors
//
// The caller must assume Record may be a no-op.
type Sink interface {
	Record(event Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Record(Event) {}

// SafeRecord records an event and guarantees inertness even if the sink is
// buggy. It intentionally swallows panics.
func SafeRecord(s Sink, event Event) {
	if s == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	s.Record(event)
}

// Recorder is a concurrency-safe in-memory collector.
//
// Generation is single-threaded, but Record never panics and never returns
// an error regardless of how it is called, so the guard costs nothing.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Record(event Event) {
	if r == nil {
		return
	}
	defer func() {
		_ = recover()
	}()

	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

// Snapshot returns a point-in-time copy of all recorded events.
func (r *Recorder) Snapshot() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Trace builds a GenerationTrace from the currently recorded events.
// The returned trace is independent from the recorder (events are copied).
func (r *Recorder) Trace(configHash string) GenerationTrace {
	tr := GenerationTrace{ConfigHash: configHash}
	tr.Events = r.Snapshot()
	tr.Canonicalize()
	return tr
}
