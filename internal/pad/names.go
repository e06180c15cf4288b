package pad

import (
	"fmt"
	"sort"
	"strings"
)

// buttonOrder lists buttons in bit order for formatting.
var buttonOrder = []Button{
	DPadUp, DPadDown, DPadLeft, DPadRight,
	Start, Back, LeftThumb, RightThumb,
	LeftShoulder, RightShoulder,
	A, B, X, Y,
}

var buttonNames = map[Button]string{
	DPadUp:        "dpad_up",
	DPadDown:      "dpad_down",
	DPadLeft:      "dpad_left",
	DPadRight:     "dpad_right",
	Start:         "start",
	Back:          "back",
	LeftThumb:     "left_thumb",
	RightThumb:    "right_thumb",
	LeftShoulder:  "left_shoulder",
	RightShoulder: "right_shoulder",
	A:             "a",
	B:             "b",
	X:             "x",
	Y:             "y",
}

// buttonAliases maps every accepted spelling to its button.
var buttonAliases = map[string]Button{
	"south":  South,
	"east":   East,
	"west":   West,
	"north":  North,
	"lb":     LeftShoulder,
	"rb":     RightShoulder,
	"ls":     LeftThumb,
	"rs":     RightThumb,
	"select": Back,
}

func init() {
	for b, name := range buttonNames {
		buttonAliases[name] = b
	}
}

// String returns the canonical name of a single button, or a hex mask
// for values that are not exactly one known bit.
func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return fmt.Sprintf("0x%04x", uint16(b))
}

// ParseButton resolves a button name. Matching is case-insensitive and
// accepts positional aliases (south, east, west, north).
func ParseButton(name string) (Button, error) {
	b, ok := buttonAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown button %q", name)
	}
	return b, nil
}

// ButtonNames returns the canonical button names, sorted.
func ButtonNames() []string {
	names := make([]string, 0, len(buttonNames))
	for _, name := range buttonNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatButtons renders a button mask as "a+dpad_up", or "none".
func FormatButtons(mask uint16) string {
	if mask == 0 {
		return "none"
	}
	var parts []string
	for _, b := range buttonOrder {
		if mask&uint16(b) != 0 {
			parts = append(parts, buttonNames[b])
		}
	}
	return strings.Join(parts, "+")
}

// ParseButtonState accepts down/up and their synonyms.
func ParseButtonState(s string) (ButtonState, error) {
	switch strings.ToLower(s) {
	case "down", "pressed", "press":
		return Down, nil
	case "up", "released", "release":
		return Up, nil
	}
	return Up, fmt.Errorf("unknown button state %q (want down or up)", s)
}

func (t Trigger) String() string {
	if t == RightTrigger {
		return "right"
	}
	return "left"
}

// ParseTrigger accepts left/right and lt/rt.
func ParseTrigger(s string) (Trigger, error) {
	switch strings.ToLower(s) {
	case "left", "lt":
		return LeftTrigger, nil
	case "right", "rt":
		return RightTrigger, nil
	}
	return 0, fmt.Errorf("unknown trigger %q", s)
}

func (s Stick) String() string {
	if s == RightStick {
		return "right"
	}
	return "left"
}

// ParseStick accepts left/right.
func ParseStick(s string) (Stick, error) {
	switch strings.ToLower(s) {
	case "left":
		return LeftStick, nil
	case "right":
		return RightStick, nil
	}
	return 0, fmt.Errorf("unknown stick %q", s)
}

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

// ParseAxis accepts x/y.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}
