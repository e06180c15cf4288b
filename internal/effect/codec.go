package effect

import (
	"fmt"
	"math"
	"sort"

	"github.com/DavidAngell/padfx/internal/pad"
)

// Encode returns the wire form of m. Integers are int64 so the result can
// be passed straight to MarshalCanonical.
func Encode(m Mutation) (map[string]any, error) {
	out := map[string]any{"kind": string(m.Kind())}
	switch v := m.(type) {
	case SetButton:
		out["button"] = v.Button.String()
		out["state"] = v.State.String()
	case SetTrigger:
		out["trigger"] = v.Trigger.String()
		out["value"] = int64(v.Value)
	case SetStickAxis:
		out["stick"] = v.Stick.String()
		out["axis"] = v.Axis.String()
		out["value"] = int64(v.Value)
	case SetStick:
		out["stick"] = v.Stick.String()
		out["x"] = int64(v.X)
		out["y"] = int64(v.Y)
	case SwapSticks, Hold:
	case SetSnapshot:
		g := v.Gamepad
		out["buttons"] = int64(g.Buttons)
		out["left_trigger"] = int64(g.LeftTrigger)
		out["right_trigger"] = int64(g.RightTrigger)
		out["thumb_lx"] = int64(g.ThumbLX)
		out["thumb_ly"] = int64(g.ThumbLY)
		out["thumb_rx"] = int64(g.ThumbRX)
		out["thumb_ry"] = int64(g.ThumbRY)
	default:
		return nil, fmt.Errorf("mutation kind %q has no wire form", m.Kind())
	}
	return out, nil
}

// Decode parses a wire-form object. When "kind" is absent it is inferred
// from the fields present: button, trigger, stick+axis, stick+x/y, swap.
// An empty object decodes to Hold.
//
// Numeric fields accept int, int64 and whole float64 values so that
// objects produced by encoding/json and yaml.v3 both decode.
func Decode(obj map[string]any) (Mutation, error) {
	kind, err := kindOf(obj)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindSetButton:
		b, err := stringField(obj, "button", pad.ParseButton)
		if err != nil {
			return nil, err
		}
		st := pad.Down
		if _, ok := obj["state"]; ok {
			st, err = stringField(obj, "state", pad.ParseButtonState)
			if err != nil {
				return nil, err
			}
		}
		return SetButton{Button: b, State: st}, nil

	case KindSetTrigger:
		t, err := stringField(obj, "trigger", pad.ParseTrigger)
		if err != nil {
			return nil, err
		}
		v, err := intField(obj, "value", 0, math.MaxUint8)
		if err != nil {
			return nil, err
		}
		return SetTrigger{Trigger: t, Value: uint8(v)}, nil

	case KindSetStickAxis:
		s, err := stringField(obj, "stick", pad.ParseStick)
		if err != nil {
			return nil, err
		}
		a, err := stringField(obj, "axis", pad.ParseAxis)
		if err != nil {
			return nil, err
		}
		v, err := intField(obj, "value", math.MinInt16, math.MaxInt16)
		if err != nil {
			return nil, err
		}
		return SetStickAxis{Stick: s, Axis: a, Value: int16(v)}, nil

	case KindSetStick:
		s, err := stringField(obj, "stick", pad.ParseStick)
		if err != nil {
			return nil, err
		}
		x, err := intField(obj, "x", math.MinInt16, math.MaxInt16)
		if err != nil {
			return nil, err
		}
		y, err := intField(obj, "y", math.MinInt16, math.MaxInt16)
		if err != nil {
			return nil, err
		}
		return SetStick{Stick: s, X: int16(x), Y: int16(y)}, nil

	case KindSwapSticks:
		return SwapSticks{}, nil

	case KindHold:
		return Hold{}, nil

	case KindSetSnapshot:
		return decodeSnapshot(obj)
	}

	return nil, fmt.Errorf("unknown mutation kind %q", kind)
}

func kindOf(obj map[string]any) (Kind, error) {
	if raw, ok := obj["kind"]; ok {
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("kind: expected string, got %T", raw)
		}
		return Kind(s), nil
	}

	_, hasButton := obj["button"]
	_, hasTrigger := obj["trigger"]
	_, hasStick := obj["stick"]
	_, hasAxis := obj["axis"]
	_, hasSwap := obj["swap"]
	_, hasButtons := obj["buttons"]

	switch {
	case hasButton:
		return KindSetButton, nil
	case hasTrigger:
		return KindSetTrigger, nil
	case hasStick && hasAxis:
		return KindSetStickAxis, nil
	case hasStick:
		return KindSetStick, nil
	case hasSwap:
		return KindSwapSticks, nil
	case hasButtons:
		return KindSetSnapshot, nil
	case len(obj) == 0:
		return KindHold, nil
	}
	return "", fmt.Errorf("cannot infer mutation kind from fields %v", fieldNames(obj))
}

func decodeSnapshot(obj map[string]any) (Mutation, error) {
	var g pad.Gamepad
	buttons, err := intField(obj, "buttons", 0, math.MaxUint16)
	if err != nil {
		return nil, err
	}
	g.Buttons = uint16(buttons)

	triggers := []struct {
		key string
		dst *uint8
	}{
		{"left_trigger", &g.LeftTrigger},
		{"right_trigger", &g.RightTrigger},
	}
	for _, f := range triggers {
		v, err := optionalInt(obj, f.key, 0, math.MaxUint8)
		if err != nil {
			return nil, err
		}
		*f.dst = uint8(v)
	}

	axes := []struct {
		key string
		dst *int16
	}{
		{"thumb_lx", &g.ThumbLX},
		{"thumb_ly", &g.ThumbLY},
		{"thumb_rx", &g.ThumbRX},
		{"thumb_ry", &g.ThumbRY},
	}
	for _, f := range axes {
		v, err := optionalInt(obj, f.key, math.MinInt16, math.MaxInt16)
		if err != nil {
			return nil, err
		}
		*f.dst = int16(v)
	}

	return SetSnapshot{Gamepad: g}, nil
}

func stringField[T any](obj map[string]any, key string, parse func(string) (T, error)) (T, error) {
	var zero T
	raw, ok := obj[key]
	if !ok {
		return zero, fmt.Errorf("%s: required", key)
	}
	s, ok := raw.(string)
	if !ok {
		return zero, fmt.Errorf("%s: expected string, got %T", key, raw)
	}
	v, err := parse(s)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func intField(obj map[string]any, key string, lo, hi int64) (int64, error) {
	raw, ok := obj[key]
	if !ok {
		return 0, fmt.Errorf("%s: required", key)
	}
	return toInt(key, raw, lo, hi)
}

func optionalInt(obj map[string]any, key string, lo, hi int64) (int64, error) {
	raw, ok := obj[key]
	if !ok {
		return 0, nil
	}
	return toInt(key, raw, lo, hi)
}

func toInt(key string, raw any, lo, hi int64) (int64, error) {
	var n int64
	switch v := raw.(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s: expected integer, got %v", key, v)
		}
		n = int64(v)
	default:
		return 0, fmt.Errorf("%s: expected integer, got %T", key, raw)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s: %d out of range [%d, %d]", key, n, lo, hi)
	}
	return n, nil
}

func fieldNames(obj map[string]any) []string {
	names := make([]string, 0, len(obj))
	for k := range obj {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
