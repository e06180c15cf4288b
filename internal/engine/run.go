package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/DavidAngell/padfx/internal/pad"
)

// Source produces one polled state per call. It returns io.EOF when it has
// nothing more to report.
type Source interface {
	Poll(ctx context.Context) (*pad.State, error)
}

// SourceFunc adapts an ordinary function into a Source.
type SourceFunc func(ctx context.Context) (*pad.State, error)

// Poll calls f(ctx).
func (f SourceFunc) Poll(ctx context.Context) (*pad.State, error) {
	return f(ctx)
}

// Sink receives every state after its tick. It may be nil.
type Sink func(tick int64, s *pad.State)

// Run polls src and ticks the engine until ctx is cancelled, src returns
// io.EOF, or Stop is called.
//
// With a positive period, ticks are paced by a time.Ticker. With period 0
// they run back to back, which replays use together with a clock the
// source advances itself.
//
// ERROR HANDLING: a failing tick is logged and the loop continues; one bad
// frame must not stop the input stream. Source errors other than io.EOF end
// the loop.
func (e *Engine) Run(ctx context.Context, src Source, period time.Duration, sink Sink) error {
	e.logger.Info("engine starting", "period", period)

	var tickC <-chan time.Time
	if period > 0 {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tickC = ticker.C
	}

	for {
		if period > 0 {
			select {
			case <-ctx.Done():
				e.logger.Info("engine stopping: context cancelled")
				return ctx.Err()
			case <-e.inbox.Wait():
				// Woken by Enqueue or Close. Triggers are drained on the next
				// tick; only a close ends the loop.
				if e.inbox.Closed() {
					e.logger.Info("engine stopping: stopped")
					return nil
				}
				continue
			case <-tickC:
			}
		} else {
			if err := ctx.Err(); err != nil {
				e.logger.Info("engine stopping: context cancelled")
				return err
			}
			if e.inbox.Closed() {
				e.logger.Info("engine stopping: stopped")
				return nil
			}
		}

		st, err := src.Poll(ctx)
		if errors.Is(err, io.EOF) {
			e.logger.Info("engine stopping: source exhausted", "ticks", e.Ticks())
			return nil
		}
		if err != nil {
			return fmt.Errorf("poll source: %w", err)
		}

		if err := e.Tick(st); err != nil {
			e.logger.Warn("tick failed",
				"tick", e.Ticks(),
				"error", err,
			)
		}
		if sink != nil {
			sink(e.Ticks(), st)
		}
	}
}
