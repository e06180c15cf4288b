package engine

import "sync"

// Trigger asks the engine to start a sequence on its next tick.
//
// When Steps is nil the engine resolves Macro through its MacroLookup.
type Trigger struct {
	Macro string
	Steps []Step
}

// triggerQueue is a thread-safe FIFO inbox for triggers raised outside a
// tick (hotkeys, scenario scripts, replays).
//
// The queue is unbounded; the registry limit applies when triggers are
// drained, not when they are queued.
//
// The signal channel lets Run wait for work without polling.
type triggerQueue struct {
	mu       sync.Mutex
	triggers []Trigger
	closed   bool
	signal   chan struct{} // buffered, size 1
}

func newTriggerQueue() *triggerQueue {
	return &triggerQueue{
		triggers: make([]Trigger, 0, 8),
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue adds a trigger to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *triggerQueue) Enqueue(t Trigger) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.triggers = append(q.triggers, t)

	// Non-blocking: the size-1 buffer coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front trigger without blocking.
// Returns (Trigger{}, false) if the queue is empty.
func (q *triggerQueue) TryDequeue() (Trigger, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.triggers) == 0 {
		return Trigger{}, false
	}

	t := q.triggers[0]

	// Nil out the slot so the backing array does not pin the steps.
	q.triggers[0] = Trigger{}

	if len(q.triggers) == 1 {
		q.triggers = q.triggers[:0]
	} else {
		q.triggers = q.triggers[1:]
	}

	return t, true
}

// Wait returns a channel that signals when triggers may be available. It is
// closed by Close.
func (q *triggerQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *triggerQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.triggers)
}

// Close stops the queue from accepting triggers and wakes waiters.
// Triggers already queued can still be dequeued.
func (q *triggerQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

// Closed reports whether Close has been called.
func (q *triggerQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
