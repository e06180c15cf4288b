// Package pad models the controller input state that padfx rewrites.
//
// The layout mirrors XINPUT_STATE: a packet number followed by a gamepad
// record of a 16-bit button mask, two 8-bit triggers and four signed 16-bit
// thumbstick axes.
//
// State is owned by whoever polled it. padfx code never holds a *State
// directly; it is handed a *Handle scoped to one call via With, and every
// read or write goes through the handle's accessors. A handle used after
// its call has returned panics with ErrStaleHandle.
//
// This package imports nothing internal.
package pad
