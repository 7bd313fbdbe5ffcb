// Package diag carries runtime diagnostics as structured events.
//
// The deformation and physics code never fails a frame. When it has to
// substitute a value or skip a write it reports an [Event] to a [Sink] and
// carries on. Rendering those events as text is left to sinks such as
// [LogSink].
package diag

import (
	"fmt"
	"sync"
)

type Kind int

const (
	// KindInvalidPhysics is a non-finite intermediate replaced by zero, or
	// a driver output that was not pushed.
	KindInvalidPhysics Kind = iota + 1
	// KindLargeDeformation is a deformation push whose magnitude exceeded
	// the configured limit.
	KindLargeDeformation
	// KindMissingParameter is a driver whose target parameter is absent.
	KindMissingParameter
	// KindUnstableStep is an integrator step that was rolled back.
	KindUnstableStep
)

func (k Kind) String() string {
	switch k {
	case KindInvalidPhysics:
		return "invalid-physics"
	case KindLargeDeformation:
		return "large-deformation"
	case KindMissingParameter:
		return "missing-parameter"
	case KindUnstableStep:
		return "unstable-step"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a single diagnostic. Tag names the check that fired, for example
// "pendulum.dd" or "push:pre".
type Event struct {
	Kind  Kind
	Tag   string
	Node  string
	Value float64
}

func (e Event) String() string {
	if e.Node == "" {
		return fmt.Sprintf("%s %s (%g)", e.Kind, e.Tag, e.Value)
	}
	return fmt.Sprintf("%s %s node=%s (%g)", e.Kind, e.Tag, e.Node, e.Value)
}

// Sink receives diagnostics.
type Sink interface {
	Report(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Report(e Event) { f(e) }

type nopSink struct{}

func (nopSink) Report(Event) {}

// Nop discards every event.
var Nop Sink = nopSink{}

// Or returns s, or Nop when s is nil.
func Or(s Sink) Sink {
	if s == nil {
		return Nop
	}
	return s
}

// Multi fans events out to several sinks.
type Multi []Sink

func (m Multi) Report(e Event) {
	for _, s := range m {
		s.Report(e)
	}
}

// Recorder keeps every event it receives. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Report(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Tags returns the tags of recorded events of kind, in order.
func (r *Recorder) Tags(kind Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e.Tag)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
