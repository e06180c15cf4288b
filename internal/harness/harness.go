package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/DavidAngell/padfx/internal/compiler"
	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/pad"
	"github.com/DavidAngell/padfx/internal/profile"
	"github.com/DavidAngell/padfx/internal/testutil"
)

// Harness is the scenario execution engine.
// It plays one scenario against an engine with a manual clock and
// sequential IDs, so the same scenario always produces the same trace.
type Harness struct {
	scenario *Scenario
	profile  *profile.Profile
	engine   *engine.Engine
	clock    *testutil.ManualClock
	start    time.Time
	period   time.Duration
	raw      pad.State
	logger   *slog.Logger
}

type runConfig struct {
	clock    *testutil.ManualClock
	observer engine.Observer
	logger   *slog.Logger
	pollHz   int
	maxSeq   int
	capSet   bool
}

// Option configures Run.
type Option func(*runConfig)

// WithClock runs the scenario on c instead of a fresh clock. Callers that
// timestamp observer output (a store recorder) share the clock this way.
func WithClock(c *testutil.ManualClock) Option {
	return func(rc *runConfig) {
		rc.clock = c
	}
}

// WithObserver adds an observer next to the tracer.
func WithObserver(o engine.Observer) Option {
	return func(rc *runConfig) {
		rc.observer = o
	}
}

// WithLogger sets the logger handed to the engine and rule set.
// By default logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(rc *runConfig) {
		rc.logger = l
	}
}

// WithDefaultPollHz sets the poll rate of scenarios that omit poll_hz.
func WithDefaultPollHz(hz int) Option {
	return func(rc *runConfig) {
		rc.pollHz = hz
	}
}

// WithMaxSequences sets the live sequence limit for scenarios that do not
// set max_sequences. Zero disables the limit.
func WithMaxSequences(n int) Option {
	return func(rc *runConfig) {
		rc.maxSeq = n
		rc.capSet = true
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Validate the scenario and load its profile plus inline macros
//  2. Build an engine on a manual clock with sequential IDs
//  3. Poll every period below duration_ms, applying input and enqueue
//     steps due at or before each poll
//  4. Evaluate assertions against the recorded polls and trace
//
// Tick errors fail the result; they do not abort the run.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	if err := validateScenario(s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	rc := runConfig{}
	for _, opt := range opts {
		opt(&rc)
	}
	if rc.clock == nil {
		rc.clock = testutil.NewManualClock()
	}
	if rc.logger == nil {
		rc.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p, err := BuildProfile(s)
	if err != nil {
		return nil, err
	}
	for i, step := range s.Enqueue {
		if _, ok := p.Macro(step.Macro); !ok {
			return nil, fmt.Errorf("enqueue[%d]: unknown macro %q", i, step.Macro)
		}
	}

	result := NewResult()
	tr := newTracer(rc.clock, result)

	var observer engine.Observer = tr
	if rc.observer != nil {
		observer = engine.MultiObserver{tr, rc.observer}
	}

	engineOpts := []engine.Option{
		engine.WithMacros(p),
		engine.WithRules(profile.NewSet(p, rc.logger)),
		engine.WithObserver(observer),
		engine.WithIDGenerator(testutil.NewSequentialIDs("seq")),
		engine.WithLogger(rc.logger),
	}
	switch {
	case s.MaxSequences > 0:
		engineOpts = append(engineOpts, engine.WithMaxSequences(s.MaxSequences))
	case rc.capSet:
		engineOpts = append(engineOpts, engine.WithMaxSequences(rc.maxSeq))
	}

	pollHz := s.PollRate(rc.pollHz)

	h := &Harness{
		scenario: s,
		profile:  p,
		engine:   engine.New(rc.clock, engineOpts...),
		clock:    rc.clock,
		start:    rc.clock.Now(),
		period:   time.Second / time.Duration(pollHz),
		logger:   rc.logger,
	}
	if h.period <= 0 {
		return nil, fmt.Errorf("poll_hz %d is too high", pollHz)
	}

	h.execute(result)

	for _, errMsg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// BuildProfile loads the scenario's profile, if any, and adds its inline
// macros. A scenario without a profile gets an empty one named after it.
func BuildProfile(s *Scenario) (*profile.Profile, error) {
	p := &profile.Profile{Name: s.Name}
	if s.Profile != "" {
		res, errs := compiler.LoadProfile(s.Profile, compiler.LoadModeFailFast)
		if len(errs) > 0 {
			return nil, fmt.Errorf("load profile %s: %w", s.Profile, errors.Join(errs...))
		}
		p = res.Profile
	}
	if p.Macros == nil {
		p.Macros = make(map[string]profile.Macro)
	}

	names := make([]string, 0, len(s.Macros))
	for name := range s.Macros {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, exists := p.Macros[name]; exists {
			return nil, fmt.Errorf("macros.%s: shadows a profile macro", name)
		}
		raw := make([]any, len(s.Macros[name]))
		for i, step := range s.Macros[name] {
			raw[i] = step
		}
		steps, err := profile.DecodeSteps(raw)
		if err != nil {
			return nil, fmt.Errorf("macros.%s: %w", name, err)
		}
		m, err := profile.NewMacro(name, steps)
		if err != nil {
			return nil, fmt.Errorf("macros.%s: %w", name, err)
		}
		p.Macros[name] = m
	}

	return p, nil
}

// execute polls the engine for the scenario's duration.
func (h *Harness) execute(result *Result) {
	input := append([]InputStep(nil), h.scenario.Input...)
	sort.SliceStable(input, func(i, j int) bool { return input[i].AtMs < input[j].AtMs })
	enqueue := append([]EnqueueStep(nil), h.scenario.Enqueue...)
	sort.SliceStable(enqueue, func(i, j int) bool { return enqueue[i].AtMs < enqueue[j].AtMs })

	duration := time.Duration(h.scenario.DurationMs) * time.Millisecond
	for at := time.Duration(0); at < duration; at += h.period {
		h.clock.Set(h.start.Add(at))

		for len(input) > 0 && ms(input[0].AtMs) <= at {
			h.applyInput(input[0])
			input = input[1:]
		}
		for len(enqueue) > 0 && ms(enqueue[0].AtMs) <= at {
			h.engine.Enqueue(engine.Trigger{Macro: enqueue[0].Macro})
			enqueue = enqueue[1:]
		}

		state := h.raw
		err := h.engine.Tick(&state)
		rec := TickRecord{
			Tick:   h.engine.Ticks(),
			AtMs:   at.Milliseconds(),
			Raw:    h.raw.Gamepad,
			Output: state.Gamepad,
			Active: h.engine.Active(),
		}
		result.Ticks = append(result.Ticks, rec)

		if err != nil {
			h.logger.Warn("tick failed",
				"scenario", h.scenario.Name,
				"tick", rec.Tick,
				"error", err,
			)
			result.AddError(fmt.Sprintf("tick %d (%dms): %v", rec.Tick, rec.AtMs, err))
		}
	}
}

// applyInput changes the raw controller state. Names were checked by
// validateScenario.
func (h *Harness) applyInput(step InputStep) {
	g := &h.raw.Gamepad
	for _, name := range step.Press {
		b, _ := pad.ParseButton(name)
		g.Buttons |= uint16(b)
	}
	for _, name := range step.Release {
		b, _ := pad.ParseButton(name)
		g.Buttons &^= uint16(b)
	}
	for name, v := range step.Trigger {
		t, _ := pad.ParseTrigger(name)
		if t == pad.RightTrigger {
			g.RightTrigger = uint8(v)
		} else {
			g.LeftTrigger = uint8(v)
		}
	}
	for name, xy := range step.Stick {
		s, _ := pad.ParseStick(name)
		if s == pad.RightStick {
			g.ThumbRX, g.ThumbRY = int16(xy[0]), int16(xy[1])
		} else {
			g.ThumbLX, g.ThumbLY = int16(xy[0]), int16(xy[1])
		}
	}
	h.raw.PacketNumber++
}

func ms(n int64) time.Duration {
	return time.Duration(n) * time.Millisecond
}
