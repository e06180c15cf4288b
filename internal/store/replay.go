package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/DavidAngell/padfx/internal/effect"
	"github.com/DavidAngell/padfx/internal/engine"
)

// DefaultFrameDuration is the step length used for a frame whose duration
// cannot be inferred from its neighbours: one tick at 125 Hz.
const DefaultFrameDuration = 8 * time.Millisecond

// ReplaySteps converts recorded frames into SetSnapshot steps so that a
// recording plays back as an ordinary sequence.
//
// Each step lasts until the next frame's offset. The last frame lasts as
// long as the one before it, or DefaultFrameDuration for a single frame.
// Frames must be ordered by offset; an offset that goes backwards is an
// error. Equal offsets produce zero-length steps, which the sequence skips.
func ReplaySteps(frames []Frame) ([]engine.Step, error) {
	if len(frames) == 0 {
		return nil, engine.ErrEmptySequence
	}

	steps := make([]engine.Step, len(frames))
	last := DefaultFrameDuration
	for i, f := range frames {
		d := last
		if i+1 < len(frames) {
			delta := frames[i+1].OffsetMicros - f.OffsetMicros
			if delta < 0 {
				return nil, fmt.Errorf("replay steps: frame %d (tick %d): offset goes backwards by %dus",
					i+1, frames[i+1].Tick, -delta)
			}
			d = time.Duration(delta) * time.Microsecond
			last = d
		}
		steps[i] = engine.Step{
			Duration: d,
			Mutation: effect.SetSnapshot{Gamepad: f.State.Gamepad},
		}
	}
	return steps, nil
}

// ReplaySession loads a session's frames at stage and converts them with
// ReplaySteps.
func (s *Store) ReplaySession(ctx context.Context, sessionID string, stage engine.Stage) ([]engine.Step, error) {
	frames, err := s.ReadFrames(ctx, sessionID, stage)
	if err != nil {
		return nil, fmt.Errorf("replay session %s: %w", sessionID, err)
	}
	steps, err := ReplaySteps(frames)
	if err != nil {
		return nil, fmt.Errorf("replay session %s: %w", sessionID, err)
	}
	return steps, nil
}

// FrameDiff is one tick where two recordings disagree.
type FrameDiff struct {
	Tick int64
	Want Frame
	Got  Frame
	// Missing is set when one side has no frame for the tick.
	Missing bool
}

// DiffFrames compares two frame lists tick by tick on gamepad state only.
// Offsets and packet numbers are ignored.
func DiffFrames(want, got []Frame) []FrameDiff {
	byTick := make(map[int64]Frame, len(got))
	for _, f := range got {
		byTick[f.Tick] = f
	}

	var diffs []FrameDiff
	seen := make(map[int64]bool, len(want))
	for _, w := range want {
		seen[w.Tick] = true
		g, ok := byTick[w.Tick]
		if !ok {
			diffs = append(diffs, FrameDiff{Tick: w.Tick, Want: w, Missing: true})
			continue
		}
		if g.State.Gamepad != w.State.Gamepad {
			diffs = append(diffs, FrameDiff{Tick: w.Tick, Want: w, Got: g})
		}
	}
	for _, g := range got {
		if !seen[g.Tick] {
			diffs = append(diffs, FrameDiff{Tick: g.Tick, Got: g, Missing: true})
		}
	}

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Tick < diffs[j].Tick })
	return diffs
}

// TimelineEntry is a single line of a session timeline: either a frame or a
// sequence event.
type TimelineEntry struct {
	Tick  int64
	Frame *Frame
	Event *SequenceEvent
}

// Timeline merges a session's output frames and sequence events into one
// tick-ordered stream. Within a tick, starts come first, then the frame,
// then finishes.
func (s *Store) Timeline(ctx context.Context, sessionID string) ([]TimelineEntry, error) {
	frames, err := s.ReadFrames(ctx, sessionID, engine.StageOutput)
	if err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}
	events, err := s.ReadSequenceEvents(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}

	entries := make([]TimelineEntry, 0, len(frames)+len(events))
	for i := range frames {
		entries = append(entries, TimelineEntry{Tick: frames[i].Tick, Frame: &frames[i]})
	}
	for i := range events {
		entries = append(entries, TimelineEntry{Tick: events[i].Tick, Event: &events[i]})
	}
	sortTimeline(entries)
	return entries, nil
}

// sortTimeline orders entries by tick, then by timelineRank. Stable so
// events of equal rank keep their read order.
func sortTimeline(entries []TimelineEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Tick != entries[j].Tick {
			return entries[i].Tick < entries[j].Tick
		}
		return timelineRank(entries[i]) < timelineRank(entries[j])
	})
}

func timelineRank(e TimelineEntry) int {
	switch {
	case e.Event != nil && e.Event.Kind == EventStarted:
		return 0
	case e.Frame != nil:
		return 1
	default:
		return 2
	}
}
