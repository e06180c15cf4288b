package harness

import (
	"fmt"
	"strings"

	"github.com/DavidAngell/padfx/internal/pad"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, formatEvent(event))
		}
	}

	return buf.String()
}

func formatEvent(ev TraceEvent) string {
	switch ev.Type {
	case EventFrame:
		return fmt.Sprintf("t=%dms tick %d frame %s", ev.AtMs, ev.Tick, ev.Gamepad)
	default:
		return fmt.Sprintf("t=%dms tick %d %s %s (%s)", ev.AtMs, ev.Tick, ev.Type, ev.Macro, ev.SequenceID)
	}
}

// tickAt finds the poll an instant assertion refers to.
func tickAt(result *Result, kind string, atMs int64) (TickRecord, error) {
	rec, ok := result.At(atMs)
	if !ok {
		return rec, &AssertionError{
			Type:     kind,
			Expected: fmt.Sprintf("a poll at or before %dms", atMs),
			Actual:   "no poll happened yet",
		}
	}
	return rec, nil
}

// assertButtonAt checks a button's output state at an instant.
func assertButtonAt(result *Result, a Assertion) error {
	rec, err := tickAt(result, AssertButtonAt, a.AtMs)
	if err != nil {
		return err
	}
	b, err := pad.ParseButton(a.Button)
	if err != nil {
		return err
	}
	want, err := pad.ParseButtonState(a.Expect)
	if err != nil {
		return err
	}

	got := pad.ButtonState(rec.Output.Pressed(b))
	if got != want {
		return &AssertionError{
			Type:     AssertButtonAt,
			Expected: fmt.Sprintf("%s %s at %dms", b, want, a.AtMs),
			Actual:   fmt.Sprintf("%s %s at tick %d (%dms), output %s", b, got, rec.Tick, rec.AtMs, rec.Output),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertTriggerAt checks a trigger's output value at an instant.
func assertTriggerAt(result *Result, a Assertion) error {
	rec, err := tickAt(result, AssertTriggerAt, a.AtMs)
	if err != nil {
		return err
	}
	trig, err := pad.ParseTrigger(a.Trigger)
	if err != nil {
		return err
	}

	got := int(rec.Output.LeftTrigger)
	if trig == pad.RightTrigger {
		got = int(rec.Output.RightTrigger)
	}
	if got != *a.Value {
		return &AssertionError{
			Type:     AssertTriggerAt,
			Expected: fmt.Sprintf("%s trigger %d at %dms", trig, *a.Value, a.AtMs),
			Actual:   fmt.Sprintf("%d at tick %d (%dms)", got, rec.Tick, rec.AtMs),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertStickAt checks a stick's output position at an instant. Omitted
// axes are not checked.
func assertStickAt(result *Result, a Assertion) error {
	rec, err := tickAt(result, AssertStickAt, a.AtMs)
	if err != nil {
		return err
	}
	stick, err := pad.ParseStick(a.Stick)
	if err != nil {
		return err
	}

	x, y := int(rec.Output.ThumbLX), int(rec.Output.ThumbLY)
	if stick == pad.RightStick {
		x, y = int(rec.Output.ThumbRX), int(rec.Output.ThumbRY)
	}
	if (a.X != nil && *a.X != x) || (a.Y != nil && *a.Y != y) {
		return &AssertionError{
			Type:     AssertStickAt,
			Expected: fmt.Sprintf("%s stick at (%s, %s) at %dms", stick, optional(a.X), optional(a.Y), a.AtMs),
			Actual:   fmt.Sprintf("(%d, %d) at tick %d (%dms)", x, y, rec.Tick, rec.AtMs),
			Trace:    result.Trace,
		}
	}
	return nil
}

func optional(v *int) string {
	if v == nil {
		return "*"
	}
	return fmt.Sprintf("%d", *v)
}

// assertActiveSequencesAt checks how many sequences were live after the
// poll at an instant.
func assertActiveSequencesAt(result *Result, a Assertion) error {
	rec, err := tickAt(result, AssertActiveSequencesAt, a.AtMs)
	if err != nil {
		return err
	}
	if rec.Active != *a.Count {
		return &AssertionError{
			Type:     AssertActiveSequencesAt,
			Expected: fmt.Sprintf("%d active sequences at %dms", *a.Count, a.AtMs),
			Actual:   fmt.Sprintf("%d at tick %d (%dms)", rec.Active, rec.Tick, rec.AtMs),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertSequenceCount checks how many times a macro was started.
func assertSequenceCount(result *Result, a Assertion) error {
	got := result.Started(a.Macro)
	if got != *a.Count {
		what := "sequences"
		if a.Macro != "" {
			what = a.Macro + " sequences"
		}
		return &AssertionError{
			Type:     AssertSequenceCount,
			Expected: fmt.Sprintf("%d %s started", *a.Count, what),
			Actual:   fmt.Sprintf("%d started", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a list of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertButtonAt:
			err = assertButtonAt(result, assertion)
		case AssertTriggerAt:
			err = assertTriggerAt(result, assertion)
		case AssertStickAt:
			err = assertStickAt(result, assertion)
		case AssertActiveSequencesAt:
			err = assertActiveSequencesAt(result, assertion)
		case AssertSequenceCount:
			err = assertSequenceCount(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
