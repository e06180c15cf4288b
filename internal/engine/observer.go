package engine

import "github.com/DavidAngell/padfx/internal/pad"

// Stage says which side of the engine a frame was observed on.
type Stage string

const (
	// StageRaw is the state as the device reported it.
	StageRaw Stage = "raw"
	// StageOutput is the state handed back to the game.
	StageOutput Stage = "out"
)

// Observer is notified of everything a tick does.
//
// Observers run on the tick path with the engine lock held. They must
// return promptly and must not call back into the Engine.
type Observer interface {
	FrameObserved(tick int64, stage Stage, s pad.State)
	SequenceStarted(tick int64, id, macro string)
	SequenceFinished(tick int64, id, macro string)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) FrameObserved(int64, Stage, pad.State) {}
func (NopObserver) SequenceStarted(int64, string, string) {}
func (NopObserver) SequenceFinished(int64, string, string) {}

// MultiObserver fans notifications out in order.
type MultiObserver []Observer

func (m MultiObserver) FrameObserved(tick int64, stage Stage, s pad.State) {
	for _, o := range m {
		o.FrameObserved(tick, stage, s)
	}
}

func (m MultiObserver) SequenceStarted(tick int64, id, macro string) {
	for _, o := range m {
		o.SequenceStarted(tick, id, macro)
	}
}

func (m MultiObserver) SequenceFinished(tick int64, id, macro string) {
	for _, o := range m {
		o.SequenceFinished(tick, id, macro)
	}
}
