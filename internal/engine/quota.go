package engine

// DefaultMaxSequences is the default cap on live sequences.
//
// A hold-mode rule that starts a macro re-fires on every poll while its
// button is held, so an uncapped registry grows by the poll rate for as
// long as the button stays down.
const DefaultMaxSequences = 256

// SequenceQuota caps the number of live sequences in a registry and
// counts the schedules it refused.
//
// A limit of 0 or less disables the cap.
type SequenceQuota struct {
	limit   int
	refused int64
}

// NewSequenceQuota creates a quota with the given limit.
func NewSequenceQuota(limit int) *SequenceQuota {
	return &SequenceQuota{limit: limit}
}

// Check reports whether one more sequence fits next to live ones.
//
// Returns a CAPACITY_EXCEEDED RuntimeError and counts the refusal when it
// does not.
func (q *SequenceQuota) Check(macro string, live int) error {
	if q.limit <= 0 || live < q.limit {
		return nil
	}
	q.refused++
	return NewCapacityError(macro, live, q.limit)
}

// Limit returns the configured cap.
func (q *SequenceQuota) Limit() int {
	return q.limit
}

// Refused returns how many schedules Check has rejected.
func (q *SequenceQuota) Refused() int64 {
	return q.refused
}

// Reset clears the refusal count.
func (q *SequenceQuota) Reset() {
	q.refused = 0
}
