// Package detour is the boundary between a hooked platform poll call and
// the engine.
//
// The host hooks the game's controller poll function and routes it through
// Detour.Call. The original function fills the state; on success the engine
// rewrites it in place before the game sees it. Errors from the engine are
// logged and never change what the game receives as a return code.
package detour
