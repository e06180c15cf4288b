package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DavidAngell/padfx/internal/pad"
)

// Scheduler starts sequences from inside a tick. Rules receive one.
type Scheduler interface {
	Schedule(macro string, steps []Step) error
}

// Rules evaluates instantaneous input rules against the polled state.
//
// Evaluate runs once per tick, before the registry is polled. It may
// rewrite the state through h and start sequences through s; sequences it
// starts are polled on the same tick.
type Rules interface {
	Evaluate(h *pad.Handle, s Scheduler) error
}

// RulesFunc adapts an ordinary function into Rules.
type RulesFunc func(h *pad.Handle, s Scheduler) error

// Evaluate calls f(h, s).
func (f RulesFunc) Evaluate(h *pad.Handle, s Scheduler) error {
	return f(h, s)
}

// MacroLookup resolves macro names for triggers that carry no steps.
type MacroLookup interface {
	Macro(name string) ([]Step, bool)
}

// Engine owns one registry of live sequences and drives it from the poll
// path.
//
// An Engine is created once when the host attaches and handed explicitly
// to the poll-interception boundary, which calls Tick once per real poll.
//
// Thread-safety model:
//   - Tick(): serialized by the engine mutex, safe from any goroutine
//   - Enqueue(): safe from any goroutine, never blocks on a tick
//   - Run(): drives Tick from one goroutine
//
// INVARIANTS:
//   - Each tick polls every live sequence exactly once
//   - Rules run before the registry is polled, in declaration order
//   - Nothing on the tick path blocks on I/O
type Engine struct {
	mu       sync.Mutex
	clock    Clock
	ticks    *TickCounter
	registry *Registry
	inbox    *triggerQueue
	quota    *SequenceQuota
	rules    Rules
	macros   MacroLookup
	observer Observer
	ids      IDGenerator
	isolate  bool
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules sets the instantaneous rules evaluated on every tick.
func WithRules(r Rules) Option {
	return func(e *Engine) {
		e.rules = r
	}
}

// WithMacros sets the lookup used to resolve triggers by name.
func WithMacros(m MacroLookup) Option {
	return func(e *Engine) {
		e.macros = m
	}
}

// WithObserver sets the observer notified of frames and sequence
// lifecycle. Use MultiObserver for more than one.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithIDGenerator sets the generator naming scheduled sequences.
//
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithMaxSequences caps the number of live sequences.
//
// Default: 256 (DefaultMaxSequences). Use WithMaxSequences(0) to disable
// the cap.
func WithMaxSequences(n int) Option {
	return func(e *Engine) {
		e.quota = NewSequenceQuota(n)
	}
}

// WithPanicIsolation makes Tick recover panics from rules and mutations
// and report them as MUTATION_PANIC errors instead of propagating them.
func WithPanicIsolation(on bool) Option {
	return func(e *Engine) {
		e.isolate = on
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithTickCounter sets the counter that numbers ticks.
// Used by replays that continue the numbering of an earlier session.
func WithTickCounter(c *TickCounter) Option {
	return func(e *Engine) {
		e.ticks = c
	}
}

// New creates an Engine reading time from clock.
func New(clock Clock, opts ...Option) *Engine {
	e := &Engine{
		clock:    clock,
		ticks:    NewTickCounter(),
		registry: NewRegistry(),
		inbox:    newTriggerQueue(),
		quota:    NewSequenceQuota(DefaultMaxSequences),
		observer: NopObserver{},
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Tick runs one poll cycle over state.
//
// In order: queued triggers are started, the raw frame is reported, rules
// are evaluated, every live sequence is polled once and finished ones are
// reaped, and the output frame is reported. The state handle is only valid
// for the duration of the call.
//
// Errors from triggers and rules are joined and returned after the full
// cycle has run; they never abort the cycle.
func (e *Engine) Tick(state *pad.State) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tick := e.ticks.Next()

	if e.isolate {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("tick panicked",
					"tick", tick,
					"panic", r,
				)
				err = NewMutationPanicError(tick, r)
			}
		}()
	}

	pad.With(state, func(h *pad.Handle) {
		err = e.tick(tick, h)
	})
	return err
}

// tick is the body of Tick. CRITICAL: called with e.mu held.
func (e *Engine) tick(tick int64, h *pad.Handle) error {
	var errs []error

	for {
		t, ok := e.inbox.TryDequeue()
		if !ok {
			break
		}
		if err := e.startTrigger(tick, t); err != nil {
			errs = append(errs, err)
		}
	}

	e.observer.FrameObserved(tick, StageRaw, snapshot(h))

	if e.rules != nil {
		if err := e.rules.Evaluate(h, tickScheduler{e: e, tick: tick}); err != nil {
			errs = append(errs, fmt.Errorf("evaluate rules: %w", err))
		}
	}

	for _, p := range e.registry.PollAll(h) {
		s, ok := p.(*Sequence)
		if !ok {
			continue
		}
		e.logger.Debug("sequence finished",
			"tick", tick,
			"id", s.ID(),
			"macro", s.Name(),
		)
		e.observer.SequenceFinished(tick, s.ID(), s.Name())
	}

	e.observer.FrameObserved(tick, StageOutput, snapshot(h))

	return errors.Join(errs...)
}

func (e *Engine) startTrigger(tick int64, t Trigger) error {
	steps := t.Steps
	if steps == nil {
		var ok bool
		if e.macros != nil {
			steps, ok = e.macros.Macro(t.Macro)
		}
		if !ok {
			e.logger.Warn("trigger for unknown macro",
				"tick", tick,
				"macro", t.Macro,
			)
			return NewUnknownMacroError(t.Macro, tick)
		}
	}
	return e.start(tick, t.Macro, steps)
}

// start builds a sequence and adds it to the registry.
// CRITICAL: called with e.mu held.
func (e *Engine) start(tick int64, macro string, steps []Step) error {
	if err := e.quota.Check(macro, e.registry.Len()); err != nil {
		e.logger.Warn("sequence refused",
			"tick", tick,
			"macro", macro,
			"live", e.registry.Len(),
			"limit", e.quota.Limit(),
		)
		return err
	}

	s, err := NewSequence(e.clock, macro, steps)
	if err != nil {
		return fmt.Errorf("start %q: %w", macro, err)
	}
	s.id = e.ids.Generate()
	e.registry.Add(s)

	e.logger.Debug("sequence started",
		"tick", tick,
		"id", s.id,
		"macro", macro,
		"steps", len(steps),
	)
	e.observer.SequenceStarted(tick, s.id, macro)
	return nil
}

func snapshot(h *pad.Handle) pad.State {
	return pad.State{PacketNumber: h.PacketNumber(), Gamepad: h.Gamepad()}
}

// tickScheduler is the Scheduler handed to rules. It is only used while
// the engine lock is held.
type tickScheduler struct {
	e    *Engine
	tick int64
}

func (s tickScheduler) Schedule(macro string, steps []Step) error {
	return s.e.start(s.tick, macro, steps)
}

// Enqueue queues a trigger to start on the next tick.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(t Trigger) bool {
	return e.inbox.Enqueue(t)
}

// Start queues steps under the given macro name. It is shorthand for
// Enqueue(Trigger{Macro: macro, Steps: steps}).
func (e *Engine) Start(macro string, steps []Step) bool {
	return e.Enqueue(Trigger{Macro: macro, Steps: steps})
}

// Stop closes the trigger inbox and makes Run return. Live sequences keep
// running on any further Tick calls.
func (e *Engine) Stop() {
	e.inbox.Close()
}

// Reset drops every live sequence. Used when the host detaches.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.Clear()
}

// Active returns the number of live sequences.
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Len()
}

// Pending returns the number of queued triggers.
func (e *Engine) Pending() int {
	return e.inbox.Len()
}

// Ticks returns the number of the last tick run.
func (e *Engine) Ticks() int64 {
	return e.ticks.Current()
}

// Refused returns how many sequences the quota has rejected.
func (e *Engine) Refused() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quota.Refused()
}

// Clock returns the engine's time source.
func (e *Engine) Clock() Clock {
	return e.clock
}
