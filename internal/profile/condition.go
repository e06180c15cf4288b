package profile

import (
	"fmt"
	"strings"

	"github.com/DavidAngell/padfx/internal/pad"
)

// Condition is a predicate over the polled state.
type Condition interface {
	Holds(h *pad.Handle) bool
	Encode() map[string]any
	String() string
}

// Pressed holds while a button is down.
type Pressed struct {
	Button pad.Button
}

func (c Pressed) Holds(h *pad.Handle) bool { return h.Pressed(c.Button) }

func (c Pressed) Encode() map[string]any {
	return map[string]any{"pressed": c.Button.String()}
}

func (c Pressed) String() string { return "pressed(" + c.Button.String() + ")" }

// TriggerAbove holds while a trigger's magnitude exceeds Threshold.
type TriggerAbove struct {
	Trigger   pad.Trigger
	Threshold uint8
}

func (c TriggerAbove) Holds(h *pad.Handle) bool { return h.Trigger(c.Trigger) > c.Threshold }

func (c TriggerAbove) Encode() map[string]any {
	return map[string]any{"trigger": map[string]any{
		"trigger": c.Trigger.String(),
		"above":   int64(c.Threshold),
	}}
}

func (c TriggerAbove) String() string {
	return fmt.Sprintf("trigger(%s>%d)", c.Trigger, c.Threshold)
}

// StickBeyond holds while a stick axis is pushed past Threshold. A positive
// threshold means at or above it; a negative one means at or below it.
type StickBeyond struct {
	Stick     pad.Stick
	Axis      pad.Axis
	Threshold int16
}

func (c StickBeyond) Holds(h *pad.Handle) bool {
	x, y := h.Stick(c.Stick)
	v := x
	if c.Axis == pad.AxisY {
		v = y
	}
	if c.Threshold < 0 {
		return v <= c.Threshold
	}
	return v >= c.Threshold
}

func (c StickBeyond) Encode() map[string]any {
	return map[string]any{"stick": map[string]any{
		"stick":  c.Stick.String(),
		"axis":   c.Axis.String(),
		"beyond": int64(c.Threshold),
	}}
}

func (c StickBeyond) String() string {
	return fmt.Sprintf("stick(%s.%s beyond %d)", c.Stick, c.Axis, c.Threshold)
}

// All holds when every member holds. An empty All always holds.
type All []Condition

func (c All) Holds(h *pad.Handle) bool {
	for _, m := range c {
		if !m.Holds(h) {
			return false
		}
	}
	return true
}

func (c All) Encode() map[string]any {
	return map[string]any{"all": encodeConditions(c)}
}

func (c All) String() string { return "all(" + joinConditions(c) + ")" }

// Any holds when at least one member holds. An empty Any never holds.
type Any []Condition

func (c Any) Holds(h *pad.Handle) bool {
	for _, m := range c {
		if m.Holds(h) {
			return true
		}
	}
	return false
}

func (c Any) Encode() map[string]any {
	return map[string]any{"any": encodeConditions(c)}
}

func (c Any) String() string { return "any(" + joinConditions(c) + ")" }

// Not inverts a condition.
type Not struct {
	Cond Condition
}

func (c Not) Holds(h *pad.Handle) bool { return !c.Cond.Holds(h) }

func (c Not) Encode() map[string]any {
	return map[string]any{"not": c.Cond.Encode()}
}

func (c Not) String() string { return "not(" + c.Cond.String() + ")" }

// Always holds on every tick.
type Always struct{}

func (Always) Holds(*pad.Handle) bool { return true }

func (Always) Encode() map[string]any {
	return map[string]any{"always": true}
}

func (Always) String() string { return "always" }

func encodeConditions(cs []Condition) []any {
	out := make([]any, len(cs))
	for i, c := range cs {
		out[i] = c.Encode()
	}
	return out
}

func joinConditions(cs []Condition) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
