package harness

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/DavidAngell/padfx/internal/pad"
)

// Scenario defines a scripted controller session.
// The harness feeds the scripted input through an engine on a manual clock
// and asserts on the frames the game would have seen.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Profile is an optional CUE profile directory.
	// Relative paths are resolved against the scenario file location.
	Profile string `yaml:"profile,omitempty"`

	// Macros are inline macros added to the profile, in step wire form:
	// {ms: 20, set: {button: a}}. A name may not shadow a profile macro.
	Macros map[string][]map[string]any `yaml:"macros,omitempty"`

	// PollHz is how often the simulated game polls the controller.
	// Zero uses the runner's default rate.
	PollHz int `yaml:"poll_hz,omitempty"`

	// DurationMs is how long the scenario runs. Polls happen at every
	// multiple of the poll period strictly below it.
	DurationMs int64 `yaml:"duration_ms"`

	// MaxSequences overrides the engine's live sequence limit.
	MaxSequences int `yaml:"max_sequences,omitempty"`

	// Input changes the physical controller state at the given instants.
	Input []InputStep `yaml:"input,omitempty"`

	// Enqueue raises triggers from outside the poll path.
	Enqueue []EnqueueStep `yaml:"enqueue,omitempty"`

	// Assertions validate the output frames and sequence lifecycle.
	// Supported types: button_at, trigger_at, stick_at,
	// active_sequences_at, sequence_count
	Assertions []Assertion `yaml:"assertions"`
}

// InputStep changes the raw controller state. The change holds until a
// later step overrides it.
type InputStep struct {
	AtMs    int64    `yaml:"at_ms"`
	Press   []string `yaml:"press,omitempty"`
	Release []string `yaml:"release,omitempty"`

	// Trigger sets analog trigger values by name ("left", "right").
	Trigger map[string]int `yaml:"trigger,omitempty"`

	// Stick sets thumbstick positions by name as [x, y].
	Stick map[string][]int `yaml:"stick,omitempty"`
}

// EnqueueStep starts a macro by name on the first poll at or after AtMs.
type EnqueueStep struct {
	AtMs  int64  `yaml:"at_ms"`
	Macro string `yaml:"macro"`
}

// Assertion validates the output at an instant or the sequence lifecycle.
type Assertion struct {
	// Type specifies the assertion type:
	// - "button_at": button is Expect ("down"/"up") in the output at AtMs
	// - "trigger_at": trigger reads Value in the output at AtMs
	// - "stick_at": stick reads (X, Y) in the output at AtMs
	// - "active_sequences_at": Count sequences are live after the poll at AtMs
	// - "sequence_count": Macro was started Count times (all macros if empty)
	Type string `yaml:"type"`

	// AtMs selects the last poll at or before this instant.
	AtMs int64 `yaml:"at_ms,omitempty"`

	Button  string `yaml:"button,omitempty"`
	Expect  string `yaml:"expect,omitempty"`
	Trigger string `yaml:"trigger,omitempty"`
	Stick   string `yaml:"stick,omitempty"`
	Macro   string `yaml:"macro,omitempty"`

	Value *int `yaml:"value,omitempty"`
	X     *int `yaml:"x,omitempty"`
	Y     *int `yaml:"y,omitempty"`
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertButtonAt          = "button_at"
	AssertTriggerAt         = "trigger_at"
	AssertStickAt           = "stick_at"
	AssertActiveSequencesAt = "active_sequences_at"
	AssertSequenceCount     = "sequence_count"
)

// LoadScenario reads and parses a scenario YAML file.
// The profile path is resolved relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the profile path relative to basePath instead.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve the profile path BEFORE validation
	if scenario.Profile != "" && !filepath.IsAbs(scenario.Profile) && basePath != "" {
		scenario.Profile = filepath.Join(basePath, scenario.Profile)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// Validate checks that required fields are present and valid.
// DefaultPollHz is the poll rate of a scenario without poll_hz when the
// runner supplies none.
const DefaultPollHz = 125

// PollRate returns the scenario's poll rate, falling back to fallback and
// then to DefaultPollHz.
func (s *Scenario) PollRate(fallback int) int {
	switch {
	case s.PollHz > 0:
		return s.PollHz
	case fallback > 0:
		return fallback
	}
	return DefaultPollHz
}

func (s *Scenario) Validate() error {
	return validateScenario(s)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.PollHz < 0 {
		return fmt.Errorf("poll_hz must not be negative, got %d", s.PollHz)
	}

	if s.DurationMs <= 0 {
		return fmt.Errorf("duration_ms must be positive, got %d", s.DurationMs)
	}

	if s.MaxSequences < 0 {
		return fmt.Errorf("max_sequences must not be negative, got %d", s.MaxSequences)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Profile != "" {
		info, err := os.Stat(s.Profile)
		if err != nil {
			return fmt.Errorf("profile not found: %s", s.Profile)
		}
		if !info.IsDir() {
			return fmt.Errorf("profile is not a directory: %s", s.Profile)
		}
	}

	for name, steps := range s.Macros {
		if len(steps) == 0 {
			return fmt.Errorf("macros.%s: at least one step is required", name)
		}
	}

	for i, step := range s.Input {
		if err := validateInput(step); err != nil {
			return fmt.Errorf("input[%d]: %w", i, err)
		}
	}

	for i, step := range s.Enqueue {
		if step.AtMs < 0 {
			return fmt.Errorf("enqueue[%d]: at_ms must not be negative", i)
		}
		if step.Macro == "" {
			return fmt.Errorf("enqueue[%d]: macro is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

func validateInput(step InputStep) error {
	if step.AtMs < 0 {
		return fmt.Errorf("at_ms must not be negative")
	}
	for _, name := range append(append([]string{}, step.Press...), step.Release...) {
		if _, err := pad.ParseButton(name); err != nil {
			return err
		}
	}
	for name, v := range step.Trigger {
		if _, err := pad.ParseTrigger(name); err != nil {
			return err
		}
		if v < 0 || v > math.MaxUint8 {
			return fmt.Errorf("trigger %s: value %d outside 0-255", name, v)
		}
	}
	for name, xy := range step.Stick {
		if _, err := pad.ParseStick(name); err != nil {
			return err
		}
		if len(xy) != 2 {
			return fmt.Errorf("stick %s: want [x, y], got %d values", name, len(xy))
		}
		for _, v := range xy {
			if v < math.MinInt16 || v > math.MaxInt16 {
				return fmt.Errorf("stick %s: value %d outside int16", name, v)
			}
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertButtonAt:
		if _, err := pad.ParseButton(a.Button); err != nil {
			return fmt.Errorf("assertions[%d]: button_at: %w", index, err)
		}
		if _, err := pad.ParseButtonState(a.Expect); err != nil {
			return fmt.Errorf("assertions[%d]: button_at: expect: %w", index, err)
		}

	case AssertTriggerAt:
		if _, err := pad.ParseTrigger(a.Trigger); err != nil {
			return fmt.Errorf("assertions[%d]: trigger_at: %w", index, err)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: trigger_at requires 'value' field", index)
		}

	case AssertStickAt:
		if _, err := pad.ParseStick(a.Stick); err != nil {
			return fmt.Errorf("assertions[%d]: stick_at: %w", index, err)
		}
		if a.X == nil && a.Y == nil {
			return fmt.Errorf("assertions[%d]: stick_at requires 'x' or 'y' field", index)
		}

	case AssertActiveSequencesAt:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: active_sequences_at requires non-negative 'count' field", index)
		}

	case AssertSequenceCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: sequence_count requires non-negative 'count' field", index)
		}

	default:
		return fmt.Errorf("assertions[%d]: unknown type %q (valid: button_at, trigger_at, stick_at, active_sequences_at, sequence_count)", index, a.Type)
	}

	if a.AtMs < 0 {
		return fmt.Errorf("assertions[%d]: at_ms must not be negative", index)
	}

	return nil
}
