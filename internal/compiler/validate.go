package compiler

import (
	"fmt"
	"strings"

	"github.com/DavidAngell/padfx/internal/profile"
)

// Validation error codes (E200-E299)
const (
	ErrEmptyMacro      = "E201" // macro has no steps
	ErrStepDuration    = "E202" // step duration must be positive
	ErrUnknownMacroRef = "E203" // start action names a missing macro
	ErrDuplicateRuleID = "E204" // two rules share an ID
	ErrRuleNoActions   = "E205" // rule has no then actions
	ErrTriggerRange    = "E206" // trigger value outside 0-255
	ErrUnknownEdgeMode = "E207" // edge is not hold or rising
	ErrEmptyProfile    = "E208" // profile has neither rules nor macros
	ErrRuleNoCondition = "E209" // rule has no when clause
	ErrBlankIdentifier = "E210" // macro or rule name is blank
)

// ValidationError represents a profile validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled profile.
// Returns all errors found (does not fail-fast).
func Validate(p *profile.Profile) []ValidationError {
	var errs []ValidationError

	// E208: nothing to do
	if len(p.Macros) == 0 && len(p.Rules) == 0 {
		errs = append(errs, ValidationError{
			Field:   "profile",
			Message: fmt.Sprintf("profile %q defines no rules or macros", p.Name),
			Code:    ErrEmptyProfile,
		})
	}

	for _, name := range p.MacroNames() {
		errs = append(errs, validateMacro(p.Macros[name])...)
	}

	seen := make(map[string]bool)
	for i, r := range p.Rules {
		field := fmt.Sprintf("rules[%d]", i)

		if strings.TrimSpace(r.ID) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: "rule ID must be non-empty",
				Code:    ErrBlankIdentifier,
			})
		}

		// E204: duplicate rule ID
		if seen[r.ID] {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate rule ID: %q", r.ID),
				Code:    ErrDuplicateRuleID,
			})
		}
		seen[r.ID] = true

		if r.When == nil {
			errs = append(errs, ValidationError{
				Field:   field + ".when",
				Message: fmt.Sprintf("rule %q has no condition", r.ID),
				Code:    ErrRuleNoCondition,
			})
		}

		// E207: edge mode
		if !profile.ValidEdgeModes[r.Edge] {
			errs = append(errs, ValidationError{
				Field:   field + ".edge",
				Message: fmt.Sprintf("invalid edge mode %q, must be \"hold\" or \"rising\"", r.Edge),
				Code:    ErrUnknownEdgeMode,
			})
		}

		// E205: rule must do something
		if len(r.Then) == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".then",
				Message: fmt.Sprintf("rule %q must have at least one action", r.ID),
				Code:    ErrRuleNoActions,
			})
		}

		// E203: start references must resolve
		for j, a := range r.Then {
			start, ok := a.(profile.Start)
			if !ok {
				continue
			}
			if _, ok := p.Macros[start.Macro]; !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.then[%d].start", field, j),
					Message: fmt.Sprintf("rule %q starts unknown macro %q", r.ID, start.Macro),
					Code:    ErrUnknownMacroRef,
				})
			}
		}
	}

	return errs
}

func validateMacro(m profile.Macro) []ValidationError {
	var errs []ValidationError
	field := fmt.Sprintf("macros.%s", m.Name)

	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: "macro name must be non-empty",
			Code:    ErrBlankIdentifier,
		})
	}

	// E201: empty macro
	if len(m.Steps) == 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".steps",
			Message: fmt.Sprintf("macro %q must have at least one step", m.Name),
			Code:    ErrEmptyMacro,
		})
	}

	// E202: positive durations
	for i, st := range m.Steps {
		if st.Duration <= 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.steps[%d].ms", field, i),
				Message: fmt.Sprintf("step duration must be positive, got %s", st.Duration),
				Code:    ErrStepDuration,
			})
		}
	}

	return errs
}
