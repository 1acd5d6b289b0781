package engine

import (
	"fmt"
	"strings"
)

// TraceEvent is one line of the diagnostic log.
type TraceEvent struct {
	Seq     int64    `json:"seq"`
	Depth   int      `json:"depth"`
	Event   string   `json:"event"`
	Symbols []string `json:"symbols,omitempty"`
}

// String renders the event indented by its depth.
func (e TraceEvent) String() string {
	s := strings.Repeat("  ", e.Depth) + e.Event
	if len(e.Symbols) > 0 {
		s += " " + strings.Join(e.Symbols, " ")
	}
	return s
}

// Trace records Begin/Operation/Outputs/Blocked/Resume/Done events and
// warnings, indented by the nesting of instances being compiled.
type Trace struct {
	clock  *Clock
	depth  int
	events []TraceEvent
}

func newTrace() *Trace {
	return &Trace{clock: NewClock()}
}

func (t *Trace) record(event string, symbols ...string) {
	t.events = append(t.events, TraceEvent{
		Seq:     t.clock.Next(),
		Depth:   t.depth,
		Event:   event,
		Symbols: symbols,
	})
}

func (t *Trace) push() { t.depth++ }

func (t *Trace) pop() {
	if t.depth > 0 {
		t.depth--
	}
}

func (t *Trace) warn(format string, args ...any) {
	t.record("WARNING: " + fmt.Sprintf(format, args...))
}

// Events returns a copy of the recorded events.
func (t *Trace) Events() []TraceEvent {
	out := make([]TraceEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Lines renders every event.
func (t *Trace) Lines() []string {
	out := make([]string, len(t.events))
	for i, e := range t.events {
		out[i] = e.String()
	}
	return out
}

// String renders the whole trace, one event per line.
func (t *Trace) String() string {
	return strings.Join(t.Lines(), "\n")
}
