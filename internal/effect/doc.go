// Package effect defines the closed catalog of input mutations.
//
// A Mutation rewrites part of a polled controller state through a
// *pad.Handle. Mutations are applied once per tick for as long as their
// step is current, so every kind in this package is idempotent: it sets a
// field to a fixed value rather than adjusting it.
//
// Each kind has a wire form, a flat object keyed by "kind":
//
//	{"kind": "set_button", "button": "a", "state": "down"}
//	{"kind": "set_trigger", "trigger": "right", "value": 255}
//	{"kind": "set_stick_axis", "stick": "left", "axis": "x", "value": -32768}
//	{"kind": "set_stick", "stick": "right", "x": 0, "y": 0}
//	{"kind": "swap_sticks"}
//	{"kind": "set_snapshot", "buttons": 4096, "left_trigger": 0, ...}
//	{"kind": "hold"}
//
// Encode and Decode convert between the two. MarshalCanonical and
// MacroHash give compiled macros a stable content address.
package effect
