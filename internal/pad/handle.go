package pad

import (
	"errors"
	"math"
)

// ErrStaleHandle is the panic value raised when a Handle is used after the
// call it was scoped to has returned.
var ErrStaleHandle = errors.New("pad: handle used after its call returned")

// Handle is the only sanctioned accessor for a polled State.
//
// A Handle is valid only inside the function passed to With. It must not
// be stored; every accessor panics with ErrStaleHandle once the call ends.
// Handles are not safe for concurrent use.
type Handle struct {
	s *State
}

// With scopes a Handle over s for the duration of fn.
func With(s *State, fn func(h *Handle)) {
	h := &Handle{s: s}
	defer h.invalidate()
	fn(h)
}

func (h *Handle) invalidate() {
	h.s = nil
}

func (h *Handle) state() *State {
	if h == nil || h.s == nil {
		panic(ErrStaleHandle)
	}
	return h.s
}

// Valid reports whether the handle can still be used.
func (h *Handle) Valid() bool {
	return h != nil && h.s != nil
}

// PacketNumber returns the snapshot's packet number.
func (h *Handle) PacketNumber() uint32 {
	return h.state().PacketNumber
}

// SameSnapshot reports whether the handle and other carry the same packet
// number. Only the packet number is compared.
func (h *Handle) SameSnapshot(other State) bool {
	return h.state().PacketNumber == other.PacketNumber
}

// Gamepad returns a copy of the current gamepad record.
func (h *Handle) Gamepad() Gamepad {
	return h.state().Gamepad
}

// SetGamepad overwrites the whole gamepad record. The packet number is left
// untouched.
func (h *Handle) SetGamepad(g Gamepad) {
	h.state().Gamepad = g
}

// Pressed reports whether b is down.
func (h *Handle) Pressed(b Button) bool {
	return h.state().Gamepad.Pressed(b)
}

// SetButton sets b to the given state. Other buttons are untouched.
func (h *Handle) SetButton(b Button, st ButtonState) {
	g := &h.state().Gamepad
	if st == Down {
		g.Buttons |= uint16(b)
	} else {
		g.Buttons &^= uint16(b)
	}
}

// Trigger returns the magnitude of t.
func (h *Handle) Trigger(t Trigger) uint8 {
	g := h.state().Gamepad
	if t == RightTrigger {
		return g.RightTrigger
	}
	return g.LeftTrigger
}

// SetTrigger sets the magnitude of t.
func (h *Handle) SetTrigger(t Trigger, v uint8) {
	g := &h.state().Gamepad
	if t == RightTrigger {
		g.RightTrigger = v
	} else {
		g.LeftTrigger = v
	}
}

// TriggerPressed reports whether t exceeds TriggerThreshold.
func (h *Handle) TriggerPressed(t Trigger) bool {
	return h.Trigger(t) > TriggerThreshold
}

// Stick returns the raw axes of s.
func (h *Handle) Stick(s Stick) (x, y int16) {
	g := h.state().Gamepad
	if s == RightStick {
		return g.ThumbRX, g.ThumbRY
	}
	return g.ThumbLX, g.ThumbLY
}

// SetStick sets both axes of s.
func (h *Handle) SetStick(s Stick, x, y int16) {
	g := &h.state().Gamepad
	if s == RightStick {
		g.ThumbRX, g.ThumbRY = x, y
	} else {
		g.ThumbLX, g.ThumbLY = x, y
	}
}

// SetStickAxis sets a single axis of s.
func (h *Handle) SetStickAxis(s Stick, a Axis, v int16) {
	x, y := h.Stick(s)
	if a == AxisY {
		y = v
	} else {
		x = v
	}
	h.SetStick(s, x, y)
}

// StickNormalized returns s normalized with its recommended deadzone.
func (h *Handle) StickNormalized(s Stick) (float64, float64) {
	x, y := h.Stick(s)
	dz := float64(LeftStickDeadzone)
	if s == RightStick {
		dz = RightStickDeadzone
	}
	return NormalizeStick(x, y, dz)
}

// NormalizeStick maps raw axes to a unit-circle direction scaled by how far
// the stick sits outside the deadzone. Inside the deadzone it returns 0,0.
// Magnitudes are clipped at StickMax.
func NormalizeStick(x, y int16, deadzone float64) (float64, float64) {
	fx, fy := float64(x), float64(y)
	magnitude := math.Hypot(fx, fy)
	if magnitude <= deadzone || magnitude == 0 {
		return 0, 0
	}
	nx, ny := fx/magnitude, fy/magnitude
	magnitude = math.Min(magnitude, StickMax)
	scale := (magnitude - deadzone) / (StickMax - deadzone)
	return nx * scale, ny * scale
}
