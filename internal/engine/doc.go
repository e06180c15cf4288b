// Package engine implements the padfx scheduled-effect engine.
//
// A Sequence is an ordered list of timed steps, each pairing a duration with
// an effect.Mutation. A Registry holds the live sequences. An Engine owns
// one registry and is driven by the poll-interception boundary, once per
// real poll of the controller.
//
// ARCHITECTURE:
//
// Tick cycle (Engine.Tick):
// 1. Triggers queued with Enqueue since the last tick are started
// 2. Observers see the raw frame
// 3. Rules run and may rewrite the state or start sequences
// 4. Registry.PollAll polls every live sequence once and reaps finished ones
// 5. Observers see the output frame
//
// The whole cycle runs under one mutex, so concurrent polls from different
// game threads are serialized. The polled state is reachable only through a
// pad.Handle scoped to the call.
//
// CRITICAL PATTERNS:
//
// Deadline chaining
// A step's deadline is the previous deadline plus its duration, never
// now plus its duration, so irregular poll cadence does not accumulate
// drift. The poll that crosses a deadline advances without mutating.
//
// Deferred reaping
// Finished sequences are removed after the full PollAll pass, on the same
// call that saw them finish.
//
// No ambient state
// There is no package-level registry. Whoever attaches to the host creates
// an Engine and passes it to the interception boundary.
package engine
