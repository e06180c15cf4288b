// Package harness runs scripted controller scenarios through the engine.
//
// A scenario scripts the physical controller (button presses, trigger
// pulls, stick moves) and out-of-band triggers against a profile, polls
// the engine at a fixed rate on a manual clock, and asserts on what the
// game would have read.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: pulse_train
//	description: "D-pad up starts a pulse on A"
//	profile: ../profiles/rocket
//	poll_hz: 100
//	duration_ms: 500
//	macros:
//	  tap:
//	    - {ms: 20, set: {button: a}}
//	input:
//	  - at_ms: 0
//	    press: [dpad_up]
//	  - at_ms: 30
//	    release: [dpad_up]
//	    trigger: {right: 255}
//	    stick: {left: [0, 32767]}
//	enqueue:
//	  - at_ms: 100
//	    macro: tap
//	assertions:
//	  - type: button_at
//	    at_ms: 50
//	    button: a
//	    expect: down
//	  - type: sequence_count
//	    macro: pulse_a
//	    count: 1
//
// # Assertion Types
//
//   - button_at: a button's output state at an instant
//   - trigger_at: a trigger's output value at an instant
//   - stick_at: a stick's output position at an instant
//   - active_sequences_at: live sequences after the poll at an instant
//   - sequence_count: how many times a macro was started
//
// An instant refers to the last poll at or before it.
//
// # Deterministic Testing
//
// Every run uses a fresh testutil.ManualClock and sequential sequence IDs
// ("seq-1", "seq-2", ...), so the trace is identical across runs and can
// be compared against golden files with RunWithGolden.
package harness
