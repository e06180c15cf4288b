package store

import (
	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/pad"
)

// Session is one recorded run of the engine.
type Session struct {
	ID          string
	Name        string
	ProfileHash string
	PollHz      int
	// Meta holds the canonical profile document and run settings.
	Meta map[string]any
	// CreatedSeq orders sessions. Assigned by CreateSession.
	CreatedSeq int64
}

// Frame is the gamepad state at one stage of one tick.
type Frame struct {
	SessionID string
	Tick      int64
	Stage     engine.Stage
	// OffsetMicros is the engine clock reading relative to the start of
	// the session.
	OffsetMicros int64
	State        pad.State
}

// EventKind is the kind of a sequence event.
type EventKind string

const (
	EventStarted  EventKind = "started"
	EventFinished EventKind = "finished"
)

// SequenceEvent records a sequence entering or leaving the registry.
type SequenceEvent struct {
	SessionID  string
	Tick       int64
	SequenceID string
	Macro      string
	Kind       EventKind
}
