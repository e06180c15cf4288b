package effect

import (
	"fmt"

	"github.com/DavidAngell/padfx/internal/pad"
)

// Kind names a mutation variant in its wire form.
type Kind string

const (
	KindSetButton    Kind = "set_button"
	KindSetTrigger   Kind = "set_trigger"
	KindSetStickAxis Kind = "set_stick_axis"
	KindSetStick     Kind = "set_stick"
	KindSwapSticks   Kind = "swap_sticks"
	KindSetSnapshot  Kind = "set_snapshot"
	KindHold         Kind = "hold"
)

// Mutation rewrites part of a polled state.
//
// Apply must be idempotent and must not retain h.
type Mutation interface {
	Apply(h *pad.Handle)
	Kind() Kind
}

// SetButton forces one button up or down.
type SetButton struct {
	Button pad.Button
	State  pad.ButtonState
}

func (m SetButton) Apply(h *pad.Handle) { h.SetButton(m.Button, m.State) }
func (m SetButton) Kind() Kind { return KindSetButton }

func (m SetButton) String() string {
	return fmt.Sprintf("%s %s", m.Button, m.State)
}

// Press returns a SetButton that holds b down.
func Press(b pad.Button) SetButton {
	return SetButton{Button: b, State: pad.Down}
}

// Release returns a SetButton that forces b up.
func Release(b pad.Button) SetButton {
	return SetButton{Button: b, State: pad.Up}
}

// SetTrigger forces a trigger magnitude.
type SetTrigger struct {
	Trigger pad.Trigger
	Value   uint8
}

func (m SetTrigger) Apply(h *pad.Handle) { h.SetTrigger(m.Trigger, m.Value) }
func (m SetTrigger) Kind() Kind { return KindSetTrigger }

func (m SetTrigger) String() string {
	return fmt.Sprintf("%s trigger=%d", m.Trigger, m.Value)
}

// SetStickAxis forces a single thumbstick axis.
type SetStickAxis struct {
	Stick pad.Stick
	Axis  pad.Axis
	Value int16
}

func (m SetStickAxis) Apply(h *pad.Handle) { h.SetStickAxis(m.Stick, m.Axis, m.Value) }
func (m SetStickAxis) Kind() Kind { return KindSetStickAxis }

func (m SetStickAxis) String() string {
	return fmt.Sprintf("%s stick %s=%d", m.Stick, m.Axis, m.Value)
}

// SetStick forces both axes of a thumbstick.
type SetStick struct {
	Stick pad.Stick
	X, Y  int16
}

func (m SetStick) Apply(h *pad.Handle) { h.SetStick(m.Stick, m.X, m.Y) }
func (m SetStick) Kind() Kind { return KindSetStick }

func (m SetStick) String() string {
	return fmt.Sprintf("%s stick=(%d,%d)", m.Stick, m.X, m.Y)
}

// SwapSticks exchanges the left and right thumbstick readings.
//
// Unlike the other kinds, applying it twice in one tick restores the
// original reading, so it belongs in rules rather than in macro steps.
type SwapSticks struct{}

func (SwapSticks) Apply(h *pad.Handle) {
	lx, ly := h.Stick(pad.LeftStick)
	rx, ry := h.Stick(pad.RightStick)
	h.SetStick(pad.LeftStick, rx, ry)
	h.SetStick(pad.RightStick, lx, ly)
}

func (SwapSticks) Kind() Kind { return KindSwapSticks }
func (SwapSticks) String() string { return "swap sticks" }

// SetSnapshot overwrites the whole gamepad record. Replays are built
// from it.
type SetSnapshot struct {
	Gamepad pad.Gamepad
}

func (m SetSnapshot) Apply(h *pad.Handle) { h.SetGamepad(m.Gamepad) }
func (m SetSnapshot) Kind() Kind { return KindSetSnapshot }

func (m SetSnapshot) String() string {
	return "snapshot " + m.Gamepad.String()
}

// Hold leaves the state alone. It is the pause between two active steps.
type Hold struct{}

func (Hold) Apply(*pad.Handle) {}
func (Hold) Kind() Kind { return KindHold }
func (Hold) String() string { return "hold" }
