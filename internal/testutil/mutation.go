package testutil

import (
	"github.com/DavidAngell/padfx/internal/effect"
	"github.com/DavidAngell/padfx/internal/pad"
)

// MutationFunc adapts a function into an effect.Mutation so tests can
// observe or sabotage a step. It has no wire form.
type MutationFunc func(h *pad.Handle)

func (f MutationFunc) Apply(h *pad.Handle) { f(h) }
func (MutationFunc) Kind() effect.Kind { return "func" }
