package compiler

import (
	"fmt"
	"math"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/DavidAngell/padfx/internal/effect"
	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/pad"
	"github.com/DavidAngell/padfx/internal/profile"
)

// DefaultProfileName is used when a profile does not declare profile.name.
const DefaultProfileName = "default"

// MaxRepeat bounds a macro's repeat count. The expanded macro is also
// bounded by profile.MaxSteps.
const MaxRepeat = 10_000

// CompileProfile parses a CUE value into a Profile.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the root of a profile document:
//
//	profile: name: "rocket"
//	macro: pulse_a: steps: [{ms: 2000, set: {button: "a"}}, ...]
//	rule: up_pulse: {when: pressed: "dpad_up", edge: "rising", then: [{start: "pulse_a"}]}
//
// Rules keep their declaration order. A start action naming a macro that
// does not exist compiles to a Start with no steps; Validate reports it.
func CompileProfile(v cue.Value) (*profile.Profile, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &profile.Profile{
		Name:   DefaultProfileName,
		Macros: make(map[string]profile.Macro),
	}

	nameVal := v.LookupPath(cue.ParsePath("profile.name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.Name = name
	}

	macrosVal := v.LookupPath(cue.ParsePath("macro"))
	if macrosVal.Exists() {
		iter, err := macrosVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			m, err := compileMacro(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			p.Macros[m.Name] = m
		}
	}

	rulesVal := v.LookupPath(cue.ParsePath("rule"))
	if rulesVal.Exists() {
		iter, err := rulesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			r, err := compileRule(p, iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			p.Rules = append(p.Rules, r)
		}
	}

	return p, nil
}

// compileMacro parses macro.<name>: {steps: [...], repeat?: int}.
func compileMacro(name string, v cue.Value) (profile.Macro, error) {
	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return profile.Macro{}, &CompileError{
			Field:   "steps",
			Message: fmt.Sprintf("macro %q: steps are required", name),
			Pos:     v.Pos(),
		}
	}

	iter, err := stepsVal.List()
	if err != nil {
		return profile.Macro{}, formatCUEError(err)
	}

	var steps []engine.Step
	for iter.Next() {
		st, err := compileStep(iter.Value())
		if err != nil {
			return profile.Macro{}, err
		}
		steps = append(steps, st)
	}

	repeatVal := v.LookupPath(cue.ParsePath("repeat"))
	if repeatVal.Exists() {
		n, err := repeatVal.Int64()
		if err != nil {
			return profile.Macro{}, formatCUEError(err)
		}
		if n < 1 || n > MaxRepeat {
			return profile.Macro{}, &CompileError{
				Field:   "repeat",
				Message: fmt.Sprintf("macro %q: repeat must be between 1 and %d, got %d", name, MaxRepeat, n),
				Pos:     repeatVal.Pos(),
			}
		}
		steps, err = profile.Repeat(steps, int(n))
		if err != nil {
			return profile.Macro{}, &CompileError{
				Field:   "repeat",
				Message: fmt.Sprintf("macro %q: %v", name, err),
				Pos:     repeatVal.Pos(),
			}
		}
	}

	m, err := profile.NewMacro(name, steps)
	if err != nil {
		return profile.Macro{}, &CompileError{Field: "macro", Message: err.Error(), Pos: v.Pos()}
	}
	return m, nil
}

// compileStep parses {ms: int, set?: mutation}. A step without set holds.
func compileStep(v cue.Value) (engine.Step, error) {
	msVal := v.LookupPath(cue.ParsePath("ms"))
	if !msVal.Exists() {
		return engine.Step{}, &CompileError{
			Field:   "ms",
			Message: "step duration (ms) is required",
			Pos:     v.Pos(),
		}
	}
	if msVal.IncompleteKind() != cue.IntKind {
		return engine.Step{}, &CompileError{
			Field:   "ms",
			Message: "step duration must be an integer number of milliseconds",
			Pos:     msVal.Pos(),
		}
	}
	ms, err := msVal.Int64()
	if err != nil {
		return engine.Step{}, formatCUEError(err)
	}

	var m effect.Mutation = effect.Hold{}
	setVal := v.LookupPath(cue.ParsePath("set"))
	if setVal.Exists() {
		m, err = CompileMutation(setVal)
		if err != nil {
			return engine.Step{}, err
		}
	}

	d, err := profile.StepDuration(ms)
	if err != nil {
		return engine.Step{}, &CompileError{Field: "ms", Message: err.Error(), Pos: msVal.Pos()}
	}
	return engine.Step{Duration: d, Mutation: m}, nil
}

// CompileMutation parses a mutation object such as {button: "a", state: "up"}
// or {trigger: "right", value: 255}.
func CompileMutation(v cue.Value) (effect.Mutation, error) {
	if err := checkTriggerValue(v, "value"); err != nil {
		return nil, err
	}

	wire, err := toWire(v)
	if err != nil {
		return nil, err
	}
	obj, ok := wire.(map[string]any)
	if !ok {
		return nil, &CompileError{
			Field:   "set",
			Message: fmt.Sprintf("mutation must be an object, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	m, err := effect.Decode(obj)
	if err != nil {
		return nil, &CompileError{Field: "set", Message: err.Error(), Pos: v.Pos()}
	}
	return m, nil
}

// checkTriggerValue reports an out-of-range trigger value under the
// "trigger" field so it maps to its own error code.
func checkTriggerValue(v cue.Value, key string) error {
	if !v.LookupPath(cue.ParsePath("trigger")).Exists() {
		return nil
	}
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() || val.IncompleteKind() != cue.IntKind {
		return nil
	}
	n, err := val.Int64()
	if err != nil {
		return formatCUEError(err)
	}
	if n < 0 || n > math.MaxUint8 {
		return &CompileError{
			Field:   "trigger",
			Message: fmt.Sprintf("trigger %s %d out of range [0, 255]", key, n),
			Pos:     val.Pos(),
		}
	}
	return nil
}

// CompileCondition parses a rule's when clause. Exactly one of pressed,
// trigger, stick, all, any, not or always must be present.
func CompileCondition(v cue.Value) (profile.Condition, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var (
		cond  profile.Condition
		count int
	)
	for iter.Next() {
		count++
		if count > 1 {
			return nil, &CompileError{
				Field:   "when",
				Message: "condition must have exactly one key",
				Pos:     v.Pos(),
			}
		}
		cond, err = compileConditionKey(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
	}

	if count == 0 {
		return nil, &CompileError{
			Field:   "when",
			Message: "condition must have exactly one key",
			Pos:     v.Pos(),
		}
	}
	return cond, nil
}

func compileConditionKey(key string, v cue.Value) (profile.Condition, error) {
	switch key {
	case "pressed":
		name, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		b, err := pad.ParseButton(name)
		if err != nil {
			return nil, &CompileError{Field: "when", Message: err.Error(), Pos: v.Pos()}
		}
		return profile.Pressed{Button: b}, nil

	case "trigger":
		if err := checkTriggerValue(v, "above"); err != nil {
			return nil, err
		}
		name, err := v.LookupPath(cue.ParsePath("trigger")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		t, err := pad.ParseTrigger(name)
		if err != nil {
			return nil, &CompileError{Field: "when", Message: err.Error(), Pos: v.Pos()}
		}
		above := int64(pad.TriggerThreshold)
		if av := v.LookupPath(cue.ParsePath("above")); av.Exists() {
			above, err = av.Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
		}
		return profile.TriggerAbove{Trigger: t, Threshold: uint8(above)}, nil

	case "stick":
		stickName, err := v.LookupPath(cue.ParsePath("stick")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		s, err := pad.ParseStick(stickName)
		if err != nil {
			return nil, &CompileError{Field: "when", Message: err.Error(), Pos: v.Pos()}
		}
		axisName, err := v.LookupPath(cue.ParsePath("axis")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		a, err := pad.ParseAxis(axisName)
		if err != nil {
			return nil, &CompileError{Field: "when", Message: err.Error(), Pos: v.Pos()}
		}
		beyond, err := v.LookupPath(cue.ParsePath("beyond")).Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if beyond < math.MinInt16 || beyond > math.MaxInt16 {
			return nil, &CompileError{
				Field:   "when",
				Message: fmt.Sprintf("stick threshold %d out of range", beyond),
				Pos:     v.Pos(),
			}
		}
		return profile.StickBeyond{Stick: s, Axis: a, Threshold: int16(beyond)}, nil

	case "all", "any":
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var members []profile.Condition
		for iter.Next() {
			c, err := CompileCondition(iter.Value())
			if err != nil {
				return nil, err
			}
			members = append(members, c)
		}
		if key == "all" {
			return profile.All(members), nil
		}
		return profile.Any(members), nil

	case "not":
		c, err := CompileCondition(v)
		if err != nil {
			return nil, err
		}
		return profile.Not{Cond: c}, nil

	case "always":
		on, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if !on {
			return profile.Not{Cond: profile.Always{}}, nil
		}
		return profile.Always{}, nil
	}

	return nil, &CompileError{
		Field:   "when",
		Message: fmt.Sprintf("unknown condition %q", key),
		Pos:     v.Pos(),
	}
}

// compileRule parses rule.<id>: {when, edge?, then}.
func compileRule(p *profile.Profile, id string, v cue.Value) (profile.Rule, error) {
	r := profile.Rule{ID: id, Edge: profile.EdgeHold}

	whenVal := v.LookupPath(cue.ParsePath("when"))
	if !whenVal.Exists() {
		return r, &CompileError{
			Field:   "when",
			Message: fmt.Sprintf("rule %q: when is required", id),
			Pos:     v.Pos(),
		}
	}
	cond, err := CompileCondition(whenVal)
	if err != nil {
		return r, err
	}
	r.When = cond

	if edgeVal := v.LookupPath(cue.ParsePath("edge")); edgeVal.Exists() {
		edge, err := edgeVal.String()
		if err != nil {
			return r, formatCUEError(err)
		}
		r.Edge = profile.EdgeMode(edge)
	}

	thenVal := v.LookupPath(cue.ParsePath("then"))
	if !thenVal.Exists() {
		return r, nil
	}
	iter, err := thenVal.List()
	if err != nil {
		return r, formatCUEError(err)
	}
	for iter.Next() {
		a, err := compileAction(p, iter.Value())
		if err != nil {
			return r, err
		}
		r.Then = append(r.Then, a)
	}

	return r, nil
}

func compileAction(p *profile.Profile, v cue.Value) (profile.Action, error) {
	if startVal := v.LookupPath(cue.ParsePath("start")); startVal.Exists() {
		name, err := startVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		steps, _ := p.Macro(name)
		return profile.Start{Macro: name, Steps: steps}, nil
	}

	if setVal := v.LookupPath(cue.ParsePath("set")); setVal.Exists() {
		m, err := CompileMutation(setVal)
		if err != nil {
			return nil, err
		}
		return profile.Mutate{Mutation: m}, nil
	}

	return nil, &CompileError{
		Field:   "then",
		Message: "action must have set or start",
		Pos:     v.Pos(),
	}
}

// toWire converts a concrete CUE value into the plain Go values the effect
// codec decodes. Floats are rejected; all numbers are integers.
func toWire(v cue.Value) (any, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return n, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := make(map[string]any)
		for iter.Next() {
			fv, err := toWire(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Label()] = fv
		}
		return out, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var out []any
		for iter.Next() {
			ev, err := toWire(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   "type",
			Message: "float values are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported value kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
