package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/pad"
)

// DefaultRecordBuffer is the default capacity of the recorder channel.
const DefaultRecordBuffer = 4096

// maxBatch bounds how many frames one write transaction carries.
const maxBatch = 256

// ErrRecorderClosed is returned by Close after the first call.
var ErrRecorderClosed = errors.New("recorder closed")

type record struct {
	frame *Frame
	event *SequenceEvent
}

// Recorder is an engine.Observer that persists a session in the background.
//
// Notifications are stamped and pushed onto a buffered channel; a single
// writer goroutine drains it into the store. The tick path never blocks:
// when the buffer is full the record is dropped and counted.
type Recorder struct {
	store   *Store
	session string
	clock   engine.Clock
	start   time.Time
	logger  *slog.Logger

	mu      sync.RWMutex
	closed  bool
	records chan record

	dropped atomic.Int64
	written atomic.Int64

	group errgroup.Group
}

var _ engine.Observer = (*Recorder)(nil)

// NewRecorder starts a recorder for sessionID. Offsets are measured from
// clock.Now() at the time of the call. buffer <= 0 uses
// DefaultRecordBuffer.
func NewRecorder(s *Store, sessionID string, clock engine.Clock, buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = DefaultRecordBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		store:   s,
		session: sessionID,
		clock:   clock,
		start:   clock.Now(),
		logger:  logger,
		records: make(chan record, buffer),
	}
	r.group.Go(r.drain)
	return r
}

// FrameObserved implements engine.Observer.
func (r *Recorder) FrameObserved(tick int64, stage engine.Stage, s pad.State) {
	r.push(record{frame: &Frame{
		SessionID:    r.session,
		Tick:         tick,
		Stage:        stage,
		OffsetMicros: r.clock.Now().Sub(r.start).Microseconds(),
		State:        s,
	}})
}

// SequenceStarted implements engine.Observer.
func (r *Recorder) SequenceStarted(tick int64, id, macro string) {
	r.push(record{event: &SequenceEvent{
		SessionID:  r.session,
		Tick:       tick,
		SequenceID: id,
		Macro:      macro,
		Kind:       EventStarted,
	}})
}

// SequenceFinished implements engine.Observer.
func (r *Recorder) SequenceFinished(tick int64, id, macro string) {
	r.push(record{event: &SequenceEvent{
		SessionID:  r.session,
		Tick:       tick,
		SequenceID: id,
		Macro:      macro,
		Kind:       EventFinished,
	}})
}

func (r *Recorder) push(rec record) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.records <- rec:
	default:
		r.dropped.Add(1)
	}
}

// drain runs on the writer goroutine until the channel is closed.
// Write failures are logged and the first one is returned from Close.
func (r *Recorder) drain() error {
	var (
		firstErr error
		frames   []Frame
	)

	flush := func() {
		if len(frames) == 0 {
			return
		}
		if err := r.store.WriteFrames(context.Background(), frames); err != nil {
			r.logger.Error("recorder write failed",
				"session", r.session,
				"frames", len(frames),
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			r.written.Add(int64(len(frames)))
		}
		frames = frames[:0]
	}

	for rec := range r.records {
		if rec.frame != nil {
			frames = append(frames, *rec.frame)
			if len(frames) >= maxBatch || len(r.records) == 0 {
				flush()
			}
			continue
		}

		flush()
		if err := r.store.WriteSequenceEvent(context.Background(), *rec.event); err != nil {
			r.logger.Error("recorder write failed",
				"session", r.session,
				"sequence", rec.event.SequenceID,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		r.written.Add(1)
	}
	flush()

	return firstErr
}

// Close stops accepting records, waits for the writer to flush what is
// buffered and returns the first write error. If ctx ends first, Close
// returns its error and the writer keeps flushing in the background.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRecorderClosed
	}
	r.closed = true
	close(r.records)
	r.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- r.group.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("recorder: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped returns how many records were discarded because the buffer was
// full or the recorder was closed.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Written returns how many records reached the store.
func (r *Recorder) Written() int64 {
	return r.written.Load()
}

// SessionID returns the session being recorded.
func (r *Recorder) SessionID() string {
	return r.session
}
