package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidAngell/padfx/internal/effect"
	"github.com/DavidAngell/padfx/internal/pad"
	"github.com/DavidAngell/padfx/internal/testutil"
)

// recorder counts applications per label, in order.
type recorder struct {
	calls []string
}

func (r *recorder) mutation(label string) effect.Mutation {
	return testutil.MutationFunc(func(*pad.Handle) {
		r.calls = append(r.calls, label)
	})
}

func (r *recorder) count(label string) int {
	n := 0
	for _, c := range r.calls {
		if c == label {
			n++
		}
	}
	return n
}

// poll runs one Poll of s against a throwaway state.
func poll(s Poller) Status {
	var st Status
	pad.With(&pad.State{}, func(h *pad.Handle) {
		st = s.Poll(h)
	})
	return st
}

func TestNewSequence_Empty(t *testing.T) {
	clock := testutil.NewManualClock()

	s, err := NewSequence(clock, "empty", nil)
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, IsEmptySequenceError(err))

	_, err = NewSequence(clock, "empty", []Step{})
	assert.ErrorIs(t, err, ErrEmptySequence)
}

func TestMustSequence_PanicsOnEmpty(t *testing.T) {
	assert.PanicsWithValue(t, ErrEmptySequence, func() {
		MustSequence(testutil.NewManualClock(), "empty", nil)
	})
}

func TestNewSequence_InvalidSteps(t *testing.T) {
	clock := testutil.NewManualClock()

	_, err := NewSequence(clock, "neg", []Step{
		{Duration: time.Second, Mutation: effect.Hold{}},
		{Duration: -time.Millisecond, Mutation: effect.Hold{}},
	})
	require.Error(t, err)
	assert.True(t, IsInvalidStepError(err))
	assert.Contains(t, err.Error(), "step 1")

	_, err = NewSequence(clock, "nil", []Step{{Duration: time.Second}})
	require.Error(t, err)
	assert.True(t, IsInvalidStepError(err))
}

func TestNewSequence_InitialState(t *testing.T) {
	clock := testutil.NewManualClock()

	s, err := NewSequence(clock, "pulse", []Step{
		{Duration: 250 * time.Millisecond, Mutation: effect.Press(pad.A)},
		{Duration: time.Second, Mutation: effect.Release(pad.A)},
	})
	require.NoError(t, err)

	assert.Equal(t, Active, s.Status())
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, testutil.Epoch.Add(250*time.Millisecond), s.Deadline())
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "pulse", s.Name())
	assert.Equal(t, 1250*time.Millisecond, s.Remaining())
}

func TestNewSequence_CopiesSteps(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}
	steps := []Step{{Duration: 100 * time.Millisecond, Mutation: rec.mutation("A")}}

	s := MustSequence(clock, "copy", steps)
	steps[0].Mutation = rec.mutation("B")

	poll(s)
	assert.Equal(t, []string{"A"}, rec.calls)
}

// Steps [(100ms, A), (100ms, B)] polled every 10ms.
func TestSequence_TwoStepsAtTenMillisecondCadence(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}

	s := MustSequence(clock, "ab", []Step{
		{Duration: 100 * time.Millisecond, Mutation: rec.mutation("A")},
		{Duration: 100 * time.Millisecond, Mutation: rec.mutation("B")},
	})

	// t = 0..90ms: A on every poll.
	for i := 0; i < 10; i++ {
		require.Equal(t, Active, poll(s), "t=%dms", i*10)
		clock.Advance(10 * time.Millisecond)
	}
	assert.Equal(t, 10, rec.count("A"))
	assert.Equal(t, 0, rec.count("B"))

	// t = 100ms: deadline reached, advance without mutating.
	require.Equal(t, Active, poll(s))
	assert.Len(t, rec.calls, 10)
	assert.Equal(t, 1, s.Cursor())
	assert.Equal(t, testutil.Epoch.Add(200*time.Millisecond), s.Deadline())

	// t = 110..190ms: B on every poll.
	for i := 0; i < 9; i++ {
		clock.Advance(10 * time.Millisecond)
		require.Equal(t, Active, poll(s))
	}
	assert.Equal(t, 9, rec.count("B"))

	// t = 200ms: finished, no mutation.
	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, Finished, poll(s))
	assert.Len(t, rec.calls, 19)
	assert.Equal(t, Finished, s.Status())
	assert.Zero(t, s.Remaining())

	// Terminal state is a no-op forever.
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		assert.Equal(t, Finished, poll(s))
	}
	assert.Len(t, rec.calls, 19)
}

func TestSequence_DeadlineEqualityAdvances(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}

	s := MustSequence(clock, "tie", []Step{
		{Duration: 50 * time.Millisecond, Mutation: rec.mutation("A")},
		{Duration: 50 * time.Millisecond, Mutation: rec.mutation("B")},
	})

	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, Active, poll(s))
	assert.Empty(t, rec.calls, "poll at exactly the deadline advances instead of mutating")
	assert.Equal(t, 1, s.Cursor())
}

func TestSequence_DeadlineAnchoredToPreviousDeadline(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}

	s := MustSequence(clock, "late", []Step{
		{Duration: 100 * time.Millisecond, Mutation: rec.mutation("A")},
		{Duration: 100 * time.Millisecond, Mutation: rec.mutation("B")},
	})

	// The host stalls and the first poll lands 50ms late.
	clock.Advance(150 * time.Millisecond)
	require.Equal(t, Active, poll(s))
	assert.Equal(t, testutil.Epoch.Add(200*time.Millisecond), s.Deadline(),
		"next deadline chains from the old deadline, not from now")

	clock.Advance(40 * time.Millisecond)
	require.Equal(t, Active, poll(s))
	assert.Equal(t, []string{"B"}, rec.calls)

	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, Finished, poll(s))
}

func TestSequence_SkipsAtMostOneStepPerPoll(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}

	s := MustSequence(clock, "burst", []Step{
		{Duration: 10 * time.Millisecond, Mutation: rec.mutation("A")},
		{Duration: 10 * time.Millisecond, Mutation: rec.mutation("B")},
		{Duration: 10 * time.Millisecond, Mutation: rec.mutation("C")},
	})

	// Every deadline is long past; each poll advances exactly one step.
	clock.Advance(time.Second)
	assert.Equal(t, Active, poll(s))
	assert.Equal(t, 1, s.Cursor())
	assert.Equal(t, Active, poll(s))
	assert.Equal(t, 2, s.Cursor())
	assert.Equal(t, Finished, poll(s))
	assert.Empty(t, rec.calls)
}

func TestSequence_SingleStepNeverMutatesAfterFinish(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}

	s := MustSequence(clock, "one", []Step{
		{Duration: 30 * time.Millisecond, Mutation: rec.mutation("A")},
	})

	for i := 0; i < 3; i++ {
		assert.Equal(t, Active, poll(s))
		clock.Advance(10 * time.Millisecond)
	}
	assert.Equal(t, Finished, poll(s))
	assert.Equal(t, 3, rec.count("A"))
}

func TestSequence_ZeroDurationStepIsSkipped(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}

	s := MustSequence(clock, "zero", []Step{
		{Duration: 0, Mutation: rec.mutation("A")},
		{Duration: 20 * time.Millisecond, Mutation: rec.mutation("B")},
	})

	assert.Equal(t, Active, poll(s))
	assert.Equal(t, Active, poll(s))
	assert.Equal(t, []string{"B"}, rec.calls)
}

func TestSequence_ClockRegressionStalls(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}

	s := MustSequence(clock, "regress", []Step{
		{Duration: 100 * time.Millisecond, Mutation: rec.mutation("A")},
	})

	clock.Advance(90 * time.Millisecond)
	poll(s)
	clock.Advance(-time.Hour)
	assert.Equal(t, Active, poll(s), "a clock that steps back keeps the current step")
	assert.Equal(t, 2, rec.count("A"))
}

func TestSequence_AppliesToHandle(t *testing.T) {
	clock := testutil.NewManualClock()
	s := MustSequence(clock, "press", []Step{
		{Duration: time.Second, Mutation: effect.Press(pad.A)},
	})

	st := &pad.State{}
	pad.With(st, func(h *pad.Handle) {
		s.Poll(h)
	})
	assert.True(t, st.Gamepad.Pressed(pad.A))
}
