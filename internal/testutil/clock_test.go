package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualClock_StartsAtEpoch(t *testing.T) {
	clock := NewManualClock()
	assert.Equal(t, Epoch, clock.Now())
	assert.Zero(t, clock.Elapsed())
}

func TestManualClock_AdvanceAndSet(t *testing.T) {
	clock := NewManualClock()

	got := clock.Advance(10 * time.Millisecond)
	assert.Equal(t, Epoch.Add(10*time.Millisecond), got)
	assert.Equal(t, 10*time.Millisecond, clock.Elapsed())

	clock.Advance(-5 * time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, clock.Elapsed())

	later := Epoch.Add(time.Hour)
	clock.Set(later)
	assert.Equal(t, later, clock.Now())
}

func TestManualClock_ConcurrentAdvance(t *testing.T) {
	clock := NewManualClock()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100*time.Millisecond, clock.Elapsed())
}

func TestManualClockAt(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := NewManualClockAt(start)
	require.Equal(t, start, clock.Now())

	clock.Advance(-time.Second)
	assert.Equal(t, start.Add(-time.Second), clock.Now())
}

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("")
	assert.Equal(t, "seq-1", ids.Generate())
	assert.Equal(t, "seq-2", ids.Generate())
	assert.Equal(t, 2, ids.Issued())

	named := NewSequentialIDs("macro")
	assert.Equal(t, "macro-1", named.Generate())
}
