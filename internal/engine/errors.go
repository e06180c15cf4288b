package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while scheduling or running
// sequences.
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Macro names the sequence's macro, when known.
	Macro string

	// Tick is the tick the error surfaced on, or 0 outside a tick.
	Tick int64

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeEmptySequence indicates a sequence was built with no steps.
	ErrCodeEmptySequence RuntimeErrorCode = "EMPTY_SEQUENCE"

	// ErrCodeInvalidStep indicates a step with a negative duration or no mutation.
	ErrCodeInvalidStep RuntimeErrorCode = "INVALID_STEP"

	// ErrCodeUnknownMacro indicates a trigger named a macro nobody defined.
	ErrCodeUnknownMacro RuntimeErrorCode = "UNKNOWN_MACRO"

	// ErrCodeCapacity indicates the registry is at its sequence limit.
	ErrCodeCapacity RuntimeErrorCode = "CAPACITY_EXCEEDED"

	// ErrCodeMutationPanic indicates a mutation or rule panicked during a tick.
	ErrCodeMutationPanic RuntimeErrorCode = "MUTATION_PANIC"

	// ErrCodeStopped indicates the engine no longer accepts work.
	ErrCodeStopped RuntimeErrorCode = "ENGINE_STOPPED"
)

// ErrEmptySequence is returned by NewSequence for an empty step list.
var ErrEmptySequence = &RuntimeError{
	Code:    ErrCodeEmptySequence,
	Message: "sequence requires at least one step",
}

// ErrStopped is returned by Run after Stop.
var ErrStopped = &RuntimeError{
	Code:    ErrCodeStopped,
	Message: "engine stopped",
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Macro != "" && e.Tick != 0 {
		return fmt.Sprintf("%s: %s (macro=%s, tick=%d)", e.Code, e.Message, e.Macro, e.Tick)
	}
	if e.Macro != "" {
		return fmt.Sprintf("%s: %s (macro=%s)", e.Code, e.Message, e.Macro)
	}
	if e.Tick != 0 {
		return fmt.Sprintf("%s: %s (tick=%d)", e.Code, e.Message, e.Tick)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsEmptySequenceError returns true if err is an empty sequence error.
// Uses errors.As to handle wrapped errors.
func IsEmptySequenceError(err error) bool {
	return hasCode(err, ErrCodeEmptySequence)
}

// IsInvalidStepError returns true if err is an invalid step error.
func IsInvalidStepError(err error) bool {
	return hasCode(err, ErrCodeInvalidStep)
}

// IsUnknownMacroError returns true if err is an unknown macro error.
func IsUnknownMacroError(err error) bool {
	return hasCode(err, ErrCodeUnknownMacro)
}

// IsCapacityError returns true if err is a capacity error.
func IsCapacityError(err error) bool {
	return hasCode(err, ErrCodeCapacity)
}

// IsMutationPanic returns true if err is a recovered panic.
func IsMutationPanic(err error) bool {
	return hasCode(err, ErrCodeMutationPanic)
}

// NewInvalidStepError creates a RuntimeError for a malformed step.
func NewInvalidStepError(macro string, index int, reason string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidStep,
		Message: fmt.Sprintf("step %d: %s", index, reason),
		Macro:   macro,
		Details: map[string]string{
			"step": fmt.Sprintf("%d", index),
		},
	}
}

// NewUnknownMacroError creates a RuntimeError for an unresolvable trigger.
func NewUnknownMacroError(macro string, tick int64) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownMacro,
		Message: "no macro with that name",
		Macro:   macro,
		Tick:    tick,
	}
}

// NewCapacityError creates a RuntimeError for a full registry.
func NewCapacityError(macro string, live, limit int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeCapacity,
		Message: fmt.Sprintf("registry at sequence limit (%d >= %d)", live, limit),
		Macro:   macro,
		Details: map[string]string{
			"live":  fmt.Sprintf("%d", live),
			"limit": fmt.Sprintf("%d", limit),
		},
	}
}

// NewMutationPanicError creates a RuntimeError for a recovered panic.
func NewMutationPanicError(tick int64, recovered any) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeMutationPanic,
		Message: fmt.Sprintf("panic during tick: %v", recovered),
		Tick:    tick,
	}
}
