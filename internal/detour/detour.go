package detour

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/pad"
)

// Return codes of the intercepted poll call.
const (
	Success                 uint32 = 0
	ErrorNoMoreItems        uint32 = 259
	ErrorDeviceNotConnected uint32 = 1167
)

// AnyIndex makes a Detour handle every controller index.
const AnyIndex = ^uint32(0)

// PollFunc is the shape of the intercepted platform call: fill s for the
// controller at index and return a status code.
type PollFunc func(index uint32, s *pad.State) uint32

// Detour wraps an original poll function with the engine.
type Detour struct {
	Original PollFunc
	Engine   *engine.Engine
	// Index is the controller index to rewrite, or AnyIndex.
	Index uint32
	// Logger receives tick failures. Nil uses slog.Default().
	Logger *slog.Logger

	calls   atomic.Int64
	ticked  atomic.Int64
	skipped atomic.Int64

	mu   sync.Mutex
	last pad.State
}

// New creates a Detour for one controller index.
func New(original PollFunc, e *engine.Engine, index uint32, logger *slog.Logger) *Detour {
	return &Detour{
		Original: original,
		Engine:   e,
		Index:    index,
		Logger:   logger,
	}
}

// Call has the signature of the hooked function. It calls the original,
// then ticks the engine when the call succeeded for a handled index.
// The original's return code is always passed through unchanged.
func (d *Detour) Call(index uint32, s *pad.State) uint32 {
	d.calls.Add(1)

	code := d.Original(index, s)
	if code != Success || s == nil || !d.handles(index) {
		d.skipped.Add(1)
		return code
	}

	d.mu.Lock()
	d.last = *s
	d.mu.Unlock()

	if err := d.Engine.Tick(s); err != nil {
		d.logger().Warn("tick failed",
			"index", index,
			"packet", s.PacketNumber,
			"error", err,
		)
	}
	d.ticked.Add(1)
	return code
}

func (d *Detour) handles(index uint32) bool {
	return d.Index == AnyIndex || d.Index == index
}

func (d *Detour) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Source adapts the original poll function into an engine.Source so that
// Engine.Run can drive it without a game calling in.
//
// A failed poll yields the last successfully polled raw state (the zero
// state before the first success), so live sequences keep advancing while
// the controller is away. ErrorNoMoreItems ends the source with io.EOF;
// a live controller never reports it, so a Source over a live poll
// function runs until its context is cancelled.
func (d *Detour) Source() engine.Source {
	index := d.Index
	if index == AnyIndex {
		index = 0
	}

	return engine.SourceFunc(func(ctx context.Context) (*pad.State, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var s pad.State
		d.calls.Add(1)
		code := d.Original(index, &s)
		if code == ErrorNoMoreItems {
			d.skipped.Add(1)
			return nil, io.EOF
		}
		if code != Success {
			d.skipped.Add(1)
			d.mu.Lock()
			s = d.last
			d.mu.Unlock()
			return &s, nil
		}

		d.mu.Lock()
		d.last = s
		d.mu.Unlock()
		d.ticked.Add(1)
		return &s, nil
	})
}

// Stats reports how many calls went through the detour.
type Stats struct {
	Calls   int64
	Ticked  int64
	Skipped int64
}

// Stats returns the call counters.
func (d *Detour) Stats() Stats {
	return Stats{
		Calls:   d.calls.Load(),
		Ticked:  d.ticked.Load(),
		Skipped: d.skipped.Load(),
	}
}

// Playback returns a PollFunc that reports states in order, one per call,
// for any index. Once exhausted it reports ErrorNoMoreItems.
func Playback(states []pad.State) PollFunc {
	var (
		mu   sync.Mutex
		next int
	)
	return func(_ uint32, s *pad.State) uint32 {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(states) {
			return ErrorNoMoreItems
		}
		*s = states[next]
		next++
		return Success
	}
}
