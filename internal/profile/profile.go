package profile

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/DavidAngell/padfx/internal/effect"
	"github.com/DavidAngell/padfx/internal/engine"
)

// Profile is a compiled set of macros and rules.
type Profile struct {
	Name   string
	Macros map[string]Macro
	Rules  []Rule
}

// Macro is a named, reusable list of steps.
type Macro struct {
	Name  string
	Steps []engine.Step
	// Hash is the content address of Name and Steps.
	Hash string
}

// NewMacro builds a macro and computes its hash.
func NewMacro(name string, steps []engine.Step) (Macro, error) {
	wire, err := EncodeSteps(steps)
	if err != nil {
		return Macro{}, fmt.Errorf("macro %s: %w", name, err)
	}
	hash, err := effect.MacroHash(name, wire)
	if err != nil {
		return Macro{}, fmt.Errorf("macro %s: %w", name, err)
	}
	return Macro{Name: name, Steps: steps, Hash: hash}, nil
}

// Duration returns the total length of the macro.
func (m Macro) Duration() time.Duration {
	var d time.Duration
	for _, st := range m.Steps {
		d += st.Duration
	}
	return d
}

// Macro implements engine.MacroLookup.
func (p *Profile) Macro(name string) ([]engine.Step, bool) {
	m, ok := p.Macros[name]
	if !ok {
		return nil, false
	}
	return m.Steps, true
}

// MacroNames returns the macro names, sorted.
func (p *Profile) MacroNames() []string {
	names := make([]string, 0, len(p.Macros))
	for name := range p.Macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Wire returns the JSON-ready form of the profile: macros sorted by name
// with their hashes, rules in declaration order.
func (p *Profile) Wire() (map[string]any, error) {
	macros := make([]any, 0, len(p.Macros))
	for _, name := range p.MacroNames() {
		m := p.Macros[name]
		steps, err := EncodeSteps(m.Steps)
		if err != nil {
			return nil, fmt.Errorf("macro %s: %w", name, err)
		}
		stepsAny := make([]any, len(steps))
		for i := range steps {
			stepsAny[i] = steps[i]
		}
		macros = append(macros, map[string]any{
			"name":  name,
			"hash":  m.Hash,
			"steps": stepsAny,
		})
	}

	rules := make([]any, 0, len(p.Rules))
	for _, r := range p.Rules {
		wire, err := r.Encode()
		if err != nil {
			return nil, err
		}
		rules = append(rules, wire)
	}

	return map[string]any{
		"name":   p.Name,
		"macros": macros,
		"rules":  rules,
	}, nil
}

// Hash returns the content address of the profile's wire form.
func (p *Profile) Hash() (string, error) {
	wire, err := p.Wire()
	if err != nil {
		return "", err
	}
	return effect.ProfileHash(wire)
}

// EncodeSteps returns the wire form of steps: {"ms": N, "set": mutation}.
// Hold steps omit "set".
func EncodeSteps(steps []engine.Step) ([]map[string]any, error) {
	out := make([]map[string]any, len(steps))
	for i, st := range steps {
		obj := map[string]any{"ms": st.Duration.Milliseconds()}
		if st.Mutation != nil && st.Mutation.Kind() != effect.KindHold {
			wire, err := effect.Encode(st.Mutation)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			obj["set"] = wire
		}
		out[i] = obj
	}
	return out, nil
}

// DecodeSteps parses the wire form produced by EncodeSteps, as decoded by
// encoding/json or yaml.v3. A step without "set" holds.
func DecodeSteps(raw []any) ([]engine.Step, error) {
	steps := make([]engine.Step, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("step %d: expected object, got %T", i, item)
		}

		ms, err := millis(obj["ms"])
		if err != nil {
			return nil, fmt.Errorf("step %d: ms: %w", i, err)
		}

		var m effect.Mutation = effect.Hold{}
		if set, ok := obj["set"]; ok {
			setObj, ok := set.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("step %d: set: expected object, got %T", i, set)
			}
			m, err = effect.Decode(setObj)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
		}

		d, err := StepDuration(ms)
		if err != nil {
			return nil, fmt.Errorf("step %d: ms: %w", i, err)
		}
		steps = append(steps, engine.Step{Duration: d, Mutation: m})
	}
	return steps, nil
}

// Limits on macro shape.
const (
	// MaxSteps bounds a macro's length after repeats are expanded.
	MaxSteps = 100_000
	// MaxStepMillis is the longest step that fits in a time.Duration.
	MaxStepMillis = math.MaxInt64 / int64(time.Millisecond)
)

// StepDuration converts a step length in milliseconds, rejecting values
// that do not fit in a time.Duration. The sign is left to validation.
func StepDuration(ms int64) (time.Duration, error) {
	if ms > MaxStepMillis || ms < -MaxStepMillis {
		return 0, fmt.Errorf("duration %dms is outside +/-%dms", ms, MaxStepMillis)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// Repeat returns steps repeated n times. n < 1 is treated as 1. The
// expanded length may not exceed MaxSteps.
func Repeat(steps []engine.Step, n int) ([]engine.Step, error) {
	if n < 1 {
		n = 1
	}
	if len(steps) > 0 && n > MaxSteps/len(steps) {
		return nil, fmt.Errorf("%d steps repeated %d times exceeds %d steps", len(steps), n, MaxSteps)
	}
	out := make([]engine.Step, 0, len(steps)*n)
	for i := 0; i < n; i++ {
		out = append(out, steps...)
	}
	return out, nil
}

func millis(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("expected whole milliseconds, got %v", n)
		}
		return int64(n), nil
	case nil:
		return 0, fmt.Errorf("required")
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}
