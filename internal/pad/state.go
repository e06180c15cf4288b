package pad

import "fmt"

// Button is one bit of Gamepad.Buttons.
type Button uint16

const (
	DPadUp        Button = 0x0001
	DPadDown      Button = 0x0002
	DPadLeft      Button = 0x0004
	DPadRight     Button = 0x0008
	Start         Button = 0x0010
	Back          Button = 0x0020
	LeftThumb     Button = 0x0040
	RightThumb    Button = 0x0080
	LeftShoulder  Button = 0x0100
	RightShoulder Button = 0x0200
	A             Button = 0x1000
	B             Button = 0x2000
	X             Button = 0x4000
	Y             Button = 0x8000
)

// Positional aliases for the face buttons.
const (
	South = A
	East  = B
	West  = X
	North = Y
)

// ButtonState is the binary state of a single button.
type ButtonState bool

const (
	Up   ButtonState = false
	Down ButtonState = true
)

func (s ButtonState) String() string {
	if s {
		return "down"
	}
	return "up"
}

// Trigger selects one of the two analog triggers.
type Trigger int

const (
	LeftTrigger Trigger = iota
	RightTrigger
)

// Stick selects one of the two thumbsticks.
type Stick int

const (
	LeftStick Stick = iota
	RightStick
)

// Axis selects a thumbstick axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

const (
	// TriggerThreshold is the magnitude at which a trigger counts as pressed.
	TriggerThreshold uint8 = 30

	// LeftStickDeadzone and RightStickDeadzone are the radial deadzones
	// recommended for each thumbstick.
	LeftStickDeadzone  = 7849
	RightStickDeadzone = 8689

	// StickMax is the largest magnitude a stick axis reports.
	StickMax = 32767
)

// Gamepad is the button, trigger and thumbstick record of one poll.
type Gamepad struct {
	Buttons      uint16 `json:"buttons"`
	LeftTrigger  uint8  `json:"left_trigger"`
	RightTrigger uint8  `json:"right_trigger"`
	ThumbLX      int16  `json:"thumb_lx"`
	ThumbLY      int16  `json:"thumb_ly"`
	ThumbRX      int16  `json:"thumb_rx"`
	ThumbRY      int16  `json:"thumb_ry"`
}

// State is one polled controller snapshot.
//
// PacketNumber increases whenever the device reports a change. It is only
// meaningful for comparing two snapshots of the same controller.
type State struct {
	PacketNumber uint32  `json:"packet_number"`
	Gamepad      Gamepad `json:"gamepad"`
}

// Pressed reports whether b is set in the gamepad's button mask.
func (g Gamepad) Pressed(b Button) bool {
	return g.Buttons&uint16(b) != 0
}

// Pressed reports whether b is held in the snapshot.
func (s State) Pressed(b Button) bool {
	return s.Gamepad.Pressed(b)
}

// String renders the gamepad for logs.
func (g Gamepad) String() string {
	return fmt.Sprintf("buttons=%s lt=%d rt=%d l=(%d,%d) r=(%d,%d)",
		FormatButtons(g.Buttons), g.LeftTrigger, g.RightTrigger,
		g.ThumbLX, g.ThumbLY, g.ThumbRX, g.ThumbRY)
}
