// Package store provides SQLite-backed recordings of engine sessions.
//
// A session is one run of the engine. The store keeps:
//   - Sessions: profile hash, poll rate and the canonical profile document
//   - Frames: the raw and output gamepad state of every tick
//   - Sequence events: every sequence start and finish
//
// # Ordering
//
//   - Sessions are ordered by created_seq, a logical counter, never by
//     wall time
//   - Frames and events are ordered by tick, then a binary-collated
//     tie-breaker, so reads are identical across runs
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Recorded frames can be turned back into snapshot steps with ReplaySteps
// and played through an ordinary sequence.
package store
