package engine

import "github.com/DavidAngell/padfx/internal/pad"

// Poller is anything the Registry can drive. *Sequence implements it.
type Poller interface {
	Poll(h *pad.Handle) Status
}

// Registry holds the live sequences and drives them once per tick.
//
// Entries are anonymous: the registry hands out no keys and offers no way
// to cancel a single entry. Polls run in insertion order, so when two
// entries write the same field the later one wins.
//
// Registry is not safe for concurrent use; the Engine's mutex guards it.
type Registry struct {
	live     []Poller
	finished []bool // scratch, reused across PollAll calls
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		live: make([]Poller, 0, 16),
	}
}

// Add takes ownership of p.
func (r *Registry) Add(p Poller) {
	r.live = append(r.live, p)
}

// PollAll polls every live entry exactly once, then removes the entries
// that reported Finished and returns them in insertion order.
//
// Removal happens after the full pass, so an entry finishing mid-pass
// never causes another to be skipped or polled twice. If a Poll panics the
// registry is left unchanged apart from the polls that already ran.
func (r *Registry) PollAll(h *pad.Handle) []Poller {
	n := len(r.live)
	if n == 0 {
		return nil
	}

	r.finished = r.finished[:0]
	anyFinished := false
	for _, p := range r.live {
		done := p.Poll(h) == Finished
		r.finished = append(r.finished, done)
		anyFinished = anyFinished || done
	}
	if !anyFinished {
		return nil
	}

	var reaped []Poller
	kept := r.live[:0]
	for i, p := range r.live {
		if r.finished[i] {
			reaped = append(reaped, p)
			continue
		}
		kept = append(kept, p)
	}
	clear(r.live[len(kept):n])
	r.live = kept

	return reaped
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	return len(r.live)
}

// Clear drops every live entry without polling it.
func (r *Registry) Clear() {
	clear(r.live)
	r.live = r.live[:0]
}
