package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/pad"
	"github.com/DavidAngell/padfx/internal/testutil"
)

const rocketProfile = "../../testdata/profiles/rocket"

func intp(v int) *int { return &v }

func tapScenario() *Scenario {
	return &Scenario{
		Name:       "tap",
		PollHz:     100,
		DurationMs: 60,
		Macros: map[string][]map[string]any{
			"tap": {
				{"ms": 20, "set": map[string]any{"button": "a"}},
				{"ms": 20, "set": map[string]any{"button": "a", "state": "up"}},
			},
		},
		Enqueue: []EnqueueStep{{AtMs: 10, Macro: "tap"}},
		Assertions: []Assertion{
			{Type: AssertButtonAt, AtMs: 15, Button: "a", Expect: "down"},
			{Type: AssertSequenceCount, Macro: "tap", Count: intp(1)},
		},
	}
}

func TestRun_InlineMacro(t *testing.T) {
	result, err := Run(tapScenario())
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	require.Len(t, result.Ticks, 6)
	assert.Equal(t, int64(1), result.Ticks[0].Tick)
	assert.Equal(t, int64(50), result.Ticks[5].AtMs)

	assert.True(t, result.Ticks[1].Output.Pressed(pad.A), "applies on the tick it starts")
	assert.False(t, result.Ticks[3].Output.Pressed(pad.A), "boundary poll applies nothing")
	assert.Equal(t, 1, result.Ticks[4].Active)
	assert.Equal(t, 0, result.Ticks[5].Active, "reaped on the poll past the last deadline")
}

func TestRun_ProfileRules(t *testing.T) {
	s := &Scenario{
		Name:       "flick",
		Profile:    rocketProfile,
		PollHz:     100,
		DurationMs: 200,
		Input: []InputStep{
			{AtMs: 0, Press: []string{"lb"}, Trigger: map[string]int{"right": 255}},
		},
		Assertions: []Assertion{
			{Type: AssertStickAt, AtMs: 20, Stick: "right", X: intp(32767)},
			{Type: AssertStickAt, AtMs: 45, Stick: "right", X: intp(0), Y: intp(0)},
			{Type: AssertStickAt, AtMs: 75, Stick: "right", X: intp(32767)},
			{Type: AssertTriggerAt, AtMs: 75, Trigger: "right", Value: intp(255)},
			{Type: AssertActiveSequencesAt, AtMs: 170, Count: intp(1)},
			{Type: AssertActiveSequencesAt, AtMs: 185, Count: intp(0)},
			{Type: AssertSequenceCount, Macro: "flick", Count: intp(1)},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_FailedAssertionsFailResult(t *testing.T) {
	s := tapScenario()
	s.Assertions = []Assertion{
		{Type: AssertButtonAt, AtMs: 15, Button: "a", Expect: "up"},
		{Type: AssertSequenceCount, Count: intp(2)},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "button_at")
	assert.Contains(t, result.Errors[1], "sequence_count")
}

func TestRun_UnknownEnqueuedMacro(t *testing.T) {
	s := tapScenario()
	s.Enqueue = []EnqueueStep{{AtMs: 0, Macro: "nope"}}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown macro")
}

func TestRun_InvalidScenario(t *testing.T) {
	s := tapScenario()
	s.PollHz = -1

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario")
}

func TestRun_DefaultPollRate(t *testing.T) {
	s := tapScenario()
	s.PollHz = 0
	s.Assertions = []Assertion{{Type: AssertSequenceCount, Macro: "tap", Count: intp(1)}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.Len(t, result.Ticks, 8, "60ms at %d Hz", DefaultPollHz)

	result, err = Run(s, WithDefaultPollHz(50))
	require.NoError(t, err)
	require.Len(t, result.Ticks, 3)
	assert.Equal(t, int64(40), result.Ticks[2].AtMs)

	s.PollHz = 100
	result, err = Run(s, WithDefaultPollHz(50))
	require.NoError(t, err)
	assert.Len(t, result.Ticks, 6, "scenario rate wins")
}

func TestRun_MaxSequencesOption(t *testing.T) {
	burst := func() *Scenario {
		s := tapScenario()
		s.Enqueue = []EnqueueStep{{AtMs: 0, Macro: "tap"}, {AtMs: 0, Macro: "tap"}, {AtMs: 0, Macro: "tap"}}
		s.Assertions = []Assertion{{Type: AssertSequenceCount, Count: intp(0)}}
		return s
	}

	result, err := Run(burst(), WithMaxSequences(2))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Started("tap"))
	assert.Equal(t, 2, result.Ticks[0].Active)

	result, err = Run(burst(), WithMaxSequences(0))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Started("tap"), "zero disables the limit")

	s := burst()
	s.MaxSequences = 1
	result, err = Run(s, WithMaxSequences(2))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Started("tap"), "scenario limit wins")
}

func TestRun_MacroShadowingProfile(t *testing.T) {
	s := tapScenario()
	s.Profile = rocketProfile
	s.Macros["flick"] = s.Macros["tap"]

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shadows")
}

func TestRun_CapacityRefusals(t *testing.T) {
	s := tapScenario()
	s.MaxSequences = 1
	s.Enqueue = []EnqueueStep{{AtMs: 0, Macro: "tap"}, {AtMs: 0, Macro: "tap"}}
	s.Assertions = []Assertion{{Type: AssertSequenceCount, Count: intp(1)}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass, "a refused enqueue is a tick error")
	assert.Equal(t, 1, result.Started("tap"))
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "tick 1")
}

func TestRun_Deterministic(t *testing.T) {
	first, err := Run(tapScenario())
	require.NoError(t, err)
	second, err := Run(tapScenario())
	require.NoError(t, err)

	a, err := MarshalTrace("tap", first)
	require.NoError(t, err)
	b, err := MarshalTrace("tap", second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

type countingObserver struct {
	engine.NopObserver
	frames, started int
}

func (o *countingObserver) FrameObserved(int64, engine.Stage, pad.State) { o.frames++ }
func (o *countingObserver) SequenceStarted(int64, string, string) { o.started++ }

func TestRun_WithObserverAndClock(t *testing.T) {
	clock := testutil.NewManualClock()
	obs := &countingObserver{}

	result, err := Run(tapScenario(), WithClock(clock), WithObserver(obs))
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	assert.Equal(t, 12, obs.frames, "raw and output frame for each of 6 ticks")
	assert.Equal(t, 1, obs.started)
	assert.Equal(t, int64(50), clock.Elapsed().Milliseconds(), "shared clock ends on the last poll")
}

func TestRun_ScenarioFiles(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
		})
	}
}
