package harness

import (
	"time"

	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/pad"
)

// Trace event types.
const (
	EventFrame    = "frame"
	EventStarted  = "started"
	EventFinished = "finished"
)

// TraceEvent is one entry of a scenario trace: an output frame that
// differs from the previous one, or a sequence lifecycle event.
type TraceEvent struct {
	Type       string       `json:"type"`
	Tick       int64        `json:"tick"`
	AtMs       int64        `json:"at_ms"`
	SequenceID string       `json:"sequence_id,omitempty"`
	Macro      string       `json:"macro,omitempty"`
	Gamepad    *pad.Gamepad `json:"gamepad,omitempty"`
}

// TickRecord is what one poll looked like from both sides of the engine.
type TickRecord struct {
	Tick   int64       `json:"tick"`
	AtMs   int64       `json:"at_ms"`
	Raw    pad.Gamepad `json:"raw"`
	Output pad.Gamepad `json:"output"`
	Active int         `json:"active"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if no tick failed and every assertion held.
	Pass bool `json:"pass"`

	// Trace contains output frame changes and sequence events in order.
	// Used for golden comparison.
	Trace []TraceEvent `json:"trace"`

	// Ticks has one record per poll, for instant assertions.
	Ticks []TickRecord `json:"-"`

	// Errors contains tick and assertion error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// At returns the last tick at or before atMs.
func (r *Result) At(atMs int64) (TickRecord, bool) {
	var found TickRecord
	ok := false
	for _, rec := range r.Ticks {
		if rec.AtMs > atMs {
			break
		}
		found, ok = rec, true
	}
	return found, ok
}

// Started counts started events for macro, or for every macro if macro is
// empty.
func (r *Result) Started(macro string) int {
	n := 0
	for _, ev := range r.Trace {
		if ev.Type == EventStarted && (macro == "" || ev.Macro == macro) {
			n++
		}
	}
	return n
}

// tracer is the engine.Observer that builds a Result's trace. It runs on
// the tick path, so it only appends.
type tracer struct {
	clock  engine.Clock
	start  time.Time
	result *Result
	last   *pad.Gamepad
}

func newTracer(clock engine.Clock, result *Result) *tracer {
	return &tracer{clock: clock, start: clock.Now(), result: result}
}

func (t *tracer) atMs() int64 {
	return t.clock.Now().Sub(t.start).Milliseconds()
}

func (t *tracer) FrameObserved(tick int64, stage engine.Stage, s pad.State) {
	if stage != engine.StageOutput {
		return
	}
	if t.last != nil && *t.last == s.Gamepad {
		return
	}
	g := s.Gamepad
	t.last = &g
	t.result.Trace = append(t.result.Trace, TraceEvent{
		Type:    EventFrame,
		Tick:    tick,
		AtMs:    t.atMs(),
		Gamepad: &g,
	})
}

func (t *tracer) SequenceStarted(tick int64, id, macro string) {
	t.sequence(EventStarted, tick, id, macro)
}

func (t *tracer) SequenceFinished(tick int64, id, macro string) {
	t.sequence(EventFinished, tick, id, macro)
}

func (t *tracer) sequence(kind string, tick int64, id, macro string) {
	t.result.Trace = append(t.result.Trace, TraceEvent{
		Type:       kind,
		Tick:       tick,
		AtMs:       t.atMs(),
		SequenceID: id,
		Macro:      macro,
	})
}
