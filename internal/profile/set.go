package profile

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/pad"
)

// Set evaluates a profile's rules tick by tick. It implements engine.Rules.
//
// A Set remembers whether each rule's condition held on the previous tick
// so that EdgeRising rules fire once per press. It is not safe for
// concurrent use; the Engine serializes Evaluate calls.
type Set struct {
	profile *Profile
	held    []bool
	fired   []int64
	logger  *slog.Logger
}

// NewSet creates a Set over p.
func NewSet(p *Profile, logger *slog.Logger) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	return &Set{
		profile: p,
		held:    make([]bool, len(p.Rules)),
		fired:   make([]int64, len(p.Rules)),
		logger:  logger,
	}
}

// Evaluate runs every rule once, in declaration order.
//
// A rule whose schedule is refused because the registry is full is logged
// and skipped; other action errors are joined and returned after every
// rule has run.
func (s *Set) Evaluate(h *pad.Handle, sched engine.Scheduler) error {
	var errs []error

	for i, r := range s.profile.Rules {
		holds := r.When.Holds(h)
		fire := holds && (r.Edge != EdgeRising || !s.held[i])
		s.held[i] = holds
		if !fire {
			continue
		}
		s.fired[i]++

		for j, a := range r.Then {
			err := a.Do(h, sched)
			if err == nil {
				continue
			}
			if engine.IsCapacityError(err) {
				s.logger.Debug("rule action refused",
					"rule", r.ID,
					"action", j,
					"error", err,
				)
				continue
			}
			errs = append(errs, fmt.Errorf("rule %s: action %d: %w", r.ID, j, err))
		}
	}

	return errors.Join(errs...)
}

// Fired returns how many times the rule with the given ID has fired.
func (s *Set) Fired(id string) int64 {
	for i, r := range s.profile.Rules {
		if r.ID == id {
			return s.fired[i]
		}
	}
	return 0
}

// Reset forgets edge state and fire counts.
func (s *Set) Reset() {
	clear(s.held)
	clear(s.fired)
}

// Profile returns the profile being evaluated.
func (s *Set) Profile() *Profile {
	return s.profile
}
