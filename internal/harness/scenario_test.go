package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content to dir/test.yaml and returns the path.
func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "profiles", "mini"), 0755))

	path := writeScenario(t, dir, `
name: test_scenario
description: "Test scenario for validation"
profile: profiles/mini
poll_hz: 125
duration_ms: 100
macros:
  tap:
    - {ms: 16, set: {button: a}}
input:
  - at_ms: 0
    press: [lb]
    trigger: {right: 255}
    stick: {left: [0, -32768]}
enqueue:
  - at_ms: 8
    macro: tap
assertions:
  - type: button_at
    at_ms: 8
    button: a
    expect: down
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "profiles", "mini"), scenario.Profile, "profile resolves against the scenario file")
	assert.Equal(t, 125, scenario.PollHz)
	assert.Equal(t, int64(100), scenario.DurationMs)
	require.Len(t, scenario.Input, 1)
	assert.Equal(t, []string{"lb"}, scenario.Input[0].Press)
	assert.Equal(t, 255, scenario.Input[0].Trigger["right"])
	assert.Equal(t, []int{0, -32768}, scenario.Input[0].Stick["left"])
	require.Len(t, scenario.Macros["tap"], 1)
	assert.Equal(t, 16, scenario.Macros["tap"][0]["ms"])
	assert.Equal(t, "tap", scenario.Enqueue[0].Macro)
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "mini"), 0755))
	path := writeScenario(t, t.TempDir(), `
name: based
profile: mini
poll_hz: 100
duration_ms: 10
assertions:
  - type: sequence_count
    count: 0
`)

	scenario, err := LoadScenarioWithBasePath(path, base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "mini"), scenario.Profile)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: typo
poll_hz: 100
duration_ms: 10
assertion:
  - type: sequence_count
    count: 0
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingProfile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: lost
profile: nowhere
poll_hz: 100
duration_ms: 10
assertions:
  - type: sequence_count
    count: 0
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile not found")
}

func TestValidateScenario_Errors(t *testing.T) {
	zero := 0
	valid := func() *Scenario {
		return &Scenario{
			Name:       "ok",
			PollHz:     100,
			DurationMs: 50,
			Assertions: []Assertion{{Type: AssertSequenceCount, Count: &zero}},
		}
	}

	tests := []struct {
		name   string
		mutate func(s *Scenario)
		want   string
	}{
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"negative poll rate", func(s *Scenario) { s.PollHz = -1 }, "poll_hz must not be negative"},
		{"zero duration", func(s *Scenario) { s.DurationMs = 0 }, "duration_ms must be positive"},
		{"negative max sequences", func(s *Scenario) { s.MaxSequences = -1 }, "max_sequences"},
		{"no assertions", func(s *Scenario) { s.Assertions = nil }, "assertions list is required"},
		{"empty macro", func(s *Scenario) { s.Macros = map[string][]map[string]any{"m": {}} }, "macros.m"},
		{"unknown button", func(s *Scenario) { s.Input = []InputStep{{Press: []string{"turbo"}}} }, "input[0]"},
		{"trigger range", func(s *Scenario) { s.Input = []InputStep{{Trigger: map[string]int{"left": 256}}} }, "outside 0-255"},
		{"stick arity", func(s *Scenario) { s.Input = []InputStep{{Stick: map[string][]int{"left": {1}}}} }, "want [x, y]"},
		{"stick range", func(s *Scenario) { s.Input = []InputStep{{Stick: map[string][]int{"right": {0, 40000}}}} }, "outside int16"},
		{"negative input time", func(s *Scenario) { s.Input = []InputStep{{AtMs: -1}} }, "at_ms must not be negative"},
		{"enqueue without macro", func(s *Scenario) { s.Enqueue = []EnqueueStep{{AtMs: 0}} }, "macro is required"},
		{"unknown assertion", func(s *Scenario) { s.Assertions = []Assertion{{Type: "frame_at"}} }, "unknown type"},
		{"assertion without type", func(s *Scenario) { s.Assertions = []Assertion{{}} }, "type is required"},
		{"button_at bad state", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertButtonAt, Button: "a", Expect: "maybe"}}
		}, "expect"},
		{"trigger_at without value", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertTriggerAt, Trigger: "left"}}
		}, "requires 'value'"},
		{"stick_at without axes", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertStickAt, Stick: "left"}}
		}, "requires 'x' or 'y'"},
		{"active_sequences_at without count", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertActiveSequencesAt}}
		}, "requires non-negative 'count'"},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
