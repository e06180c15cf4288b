package profile

import (
	"fmt"

	"github.com/DavidAngell/padfx/internal/effect"
	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/pad"
)

// EdgeMode controls when a rule whose condition holds actually fires.
type EdgeMode string

const (
	// EdgeHold fires on every tick the condition holds.
	EdgeHold EdgeMode = "hold"
	// EdgeRising fires only on the tick the condition becomes true.
	EdgeRising EdgeMode = "rising"
)

// ValidEdgeModes lists the accepted edge modes.
var ValidEdgeModes = map[EdgeMode]bool{
	EdgeHold:   true,
	EdgeRising: true,
}

// Rule fires its actions when its condition holds.
type Rule struct {
	ID   string
	When Condition
	Edge EdgeMode
	Then []Action
}

// Action is one thing a fired rule does.
type Action interface {
	Do(h *pad.Handle, s engine.Scheduler) error
	Encode() (map[string]any, error)
}

// Mutate rewrites the state immediately, on this tick only.
type Mutate struct {
	Mutation effect.Mutation
}

func (a Mutate) Do(h *pad.Handle, _ engine.Scheduler) error {
	a.Mutation.Apply(h)
	return nil
}

func (a Mutate) Encode() (map[string]any, error) {
	wire, err := effect.Encode(a.Mutation)
	if err != nil {
		return nil, err
	}
	return map[string]any{"set": wire}, nil
}

// Start schedules a macro as a new sequence. Every firing starts a fresh
// sequence, even if an earlier one for the same macro is still live.
type Start struct {
	Macro string
	Steps []engine.Step
}

func (a Start) Do(_ *pad.Handle, s engine.Scheduler) error {
	return s.Schedule(a.Macro, a.Steps)
}

func (a Start) Encode() (map[string]any, error) {
	return map[string]any{"start": a.Macro}, nil
}

// Encode returns the wire form of the rule.
func (r Rule) Encode() (map[string]any, error) {
	then := make([]any, len(r.Then))
	for i, a := range r.Then {
		wire, err := a.Encode()
		if err != nil {
			return nil, fmt.Errorf("rule %s: action %d: %w", r.ID, i, err)
		}
		then[i] = wire
	}
	return map[string]any{
		"id":   r.ID,
		"when": r.When.Encode(),
		"edge": string(r.Edge),
		"then": then,
	}, nil
}
