// Package profile holds compiled input profiles: named macros and the
// rules that fire them.
//
// A macro is a list of timed steps. A rule pairs a condition over the
// polled state with actions that either rewrite the state immediately or
// start a macro as a new sequence.
//
// Rules are evaluated by a Set, in declaration order, once per tick and
// before live sequences are polled. Each rule sees the state as left by
// the rules before it. A rule fires on every tick its condition holds
// (EdgeHold) or only on the tick it becomes true (EdgeRising).
package profile
