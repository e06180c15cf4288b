package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidAngell/padfx/internal/effect"
	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/pad"
	"github.com/DavidAngell/padfx/internal/profile"
)

func validProfile() *profile.Profile {
	steps := []engine.Step{{Duration: time.Millisecond, Mutation: effect.Press(pad.A)}}
	return &profile.Profile{
		Name:   "ok",
		Macros: map[string]profile.Macro{"m": {Name: "m", Steps: steps}},
		Rules: []profile.Rule{{
			ID:   "r",
			When: profile.Always{},
			Edge: profile.EdgeHold,
			Then: []profile.Action{profile.Start{Macro: "m", Steps: steps}},
		}},
	}
}

func codesOf(errs []ValidationError) map[string]int {
	codes := make(map[string]int)
	for _, e := range errs {
		codes[e.Code]++
	}
	return codes
}

func TestValidateValidProfile(t *testing.T) {
	assert.Empty(t, Validate(validProfile()))
}

func TestValidateEmptyProfile(t *testing.T) {
	errs := Validate(&profile.Profile{Name: "empty"})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrEmptyProfile, errs[0].Code)
	assert.Contains(t, errs[0].Message, "empty")
}

func TestValidateMacroErrors(t *testing.T) {
	p := validProfile()
	p.Macros["nothing"] = profile.Macro{Name: "nothing"}
	p.Macros["bad"] = profile.Macro{Name: "bad", Steps: []engine.Step{
		{Duration: 0, Mutation: effect.Hold{}},
		{Duration: -time.Millisecond, Mutation: effect.Hold{}},
	}}

	codes := codesOf(Validate(p))
	assert.Equal(t, 1, codes[ErrEmptyMacro])
	assert.Equal(t, 2, codes[ErrStepDuration])
}

func TestValidateRuleErrors(t *testing.T) {
	p := validProfile()
	p.Rules = append(p.Rules,
		profile.Rule{ID: "r", When: profile.Always{}, Edge: profile.EdgeHold, Then: []profile.Action{profile.Mutate{Mutation: effect.Hold{}}}},
		profile.Rule{ID: "lonely", When: profile.Always{}, Edge: "sometimes"},
		profile.Rule{ID: "dangling", Edge: profile.EdgeRising, Then: []profile.Action{profile.Start{Macro: "missing"}}},
	)

	errs := Validate(p)
	codes := codesOf(errs)
	assert.Equal(t, 1, codes[ErrDuplicateRuleID])
	assert.Equal(t, 1, codes[ErrUnknownEdgeMode])
	assert.Equal(t, 1, codes[ErrRuleNoActions])
	assert.Equal(t, 1, codes[ErrUnknownMacroRef])
	assert.Equal(t, 1, codes[ErrRuleNoCondition])

	for _, e := range errs {
		if e.Code == ErrUnknownMacroRef {
			assert.Equal(t, "rules[3].then[0].start", e.Field)
		}
	}
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "rules[0].edge", Message: "bad", Code: ErrUnknownEdgeMode}
	assert.Equal(t, "[E207] rules[0].edge: bad", err.Error())

	err.Line = 12
	assert.Equal(t, "[E207] line 12: rules[0].edge: bad", err.Error())
}
