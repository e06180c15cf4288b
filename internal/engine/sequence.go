package engine

import (
	"fmt"
	"time"

	"github.com/DavidAngell/padfx/internal/effect"
	"github.com/DavidAngell/padfx/internal/pad"
)

// Step is one timed phase of a Sequence.
type Step struct {
	Duration time.Duration
	Mutation effect.Mutation
}

// Status is the lifecycle state of a Sequence.
type Status int

const (
	// Active sequences still have a current step.
	Active Status = iota
	// Finished sequences have exhausted their steps. Polling them is a no-op.
	Finished
)

func (s Status) String() string {
	if s == Finished {
		return "finished"
	}
	return "active"
}

// Sequence plays an ordered list of steps against successive polls.
//
// Each step's mutation is applied on every poll while the step is current.
// When a poll finds the current step's deadline has passed (now >= deadline)
// the sequence advances instead of mutating: the next deadline is the
// previous deadline plus the new step's duration, so poll jitter never
// accumulates. The poll that advances past the last step marks the sequence
// Finished. Neither kind of advancing poll applies a mutation.
//
// Sequences are not safe for concurrent use; the Engine serializes polls.
type Sequence struct {
	id       string
	name     string
	clock    Clock
	steps    []Step
	cursor   int
	deadline time.Time
	status   Status
}

// NewSequence starts a sequence at clock.Now().
//
// Returns ErrEmptySequence if steps is empty, and an INVALID_STEP error if
// any step has a negative duration or no mutation. The steps slice is
// copied.
func NewSequence(clock Clock, name string, steps []Step) (*Sequence, error) {
	if len(steps) == 0 {
		return nil, ErrEmptySequence
	}
	for i, st := range steps {
		if st.Duration < 0 {
			return nil, NewInvalidStepError(name, i, fmt.Sprintf("negative duration %s", st.Duration))
		}
		if st.Mutation == nil {
			return nil, NewInvalidStepError(name, i, "missing mutation")
		}
	}

	owned := make([]Step, len(steps))
	copy(owned, steps)

	return &Sequence{
		name:     name,
		clock:    clock,
		steps:    owned,
		deadline: clock.Now().Add(owned[0].Duration),
		status:   Active,
	}, nil
}

// MustSequence is like NewSequence but panics on error.
func MustSequence(clock Clock, name string, steps []Step) *Sequence {
	s, err := NewSequence(clock, name, steps)
	if err != nil {
		panic(err)
	}
	return s
}

// Poll drives the sequence by one tick.
func (s *Sequence) Poll(h *pad.Handle) Status {
	if s.status == Finished {
		return Finished
	}

	if s.clock.Now().Before(s.deadline) {
		s.steps[s.cursor].Mutation.Apply(h)
		return Active
	}

	s.cursor++
	if s.cursor >= len(s.steps) {
		s.cursor = len(s.steps) - 1
		s.status = Finished
		return Finished
	}
	s.deadline = s.deadline.Add(s.steps[s.cursor].Duration)
	return Active
}

// ID returns the identifier assigned when the sequence was scheduled, or
// "" for sequences that were never scheduled by an Engine.
func (s *Sequence) ID() string { return s.id }

// Name returns the macro name the sequence was built from.
func (s *Sequence) Name() string { return s.name }

// Status returns the current lifecycle state.
func (s *Sequence) Status() Status { return s.status }

// Cursor returns the index of the current step. Once finished it stays on
// the last step.
func (s *Sequence) Cursor() int { return s.cursor }

// Deadline returns the instant the current step ends.
func (s *Sequence) Deadline() time.Time { return s.deadline }

// Len returns the number of steps.
func (s *Sequence) Len() int { return len(s.steps) }

// Remaining returns the time left until the final deadline, measured from
// now. It is zero once finished.
func (s *Sequence) Remaining() time.Duration {
	if s.status == Finished {
		return 0
	}
	end := s.deadline
	for _, st := range s.steps[s.cursor+1:] {
		end = end.Add(st.Duration)
	}
	if d := end.Sub(s.clock.Now()); d > 0 {
		return d
	}
	return 0
}

func (s *Sequence) String() string {
	return fmt.Sprintf("%s[%s] step %d/%d %s", s.name, s.id, s.cursor+1, len(s.steps), s.status)
}
