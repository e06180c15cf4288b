package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceQuota_WithinLimit(t *testing.T) {
	q := NewSequenceQuota(3)

	for live := 0; live < 3; live++ {
		assert.NoError(t, q.Check("m", live), "live=%d should fit", live)
	}
	assert.Equal(t, int64(0), q.Refused())
	assert.Equal(t, 3, q.Limit())
}

func TestSequenceQuota_AtLimit(t *testing.T) {
	q := NewSequenceQuota(2)

	err := q.Check("pulse_a", 2)
	require.Error(t, err)
	assert.True(t, IsCapacityError(err))

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "pulse_a", re.Macro)
	assert.Equal(t, "2", re.Details["live"])
	assert.Equal(t, "2", re.Details["limit"])
	assert.Equal(t, int64(1), q.Refused())
}

func TestSequenceQuota_Disabled(t *testing.T) {
	for _, limit := range []int{0, -1} {
		q := NewSequenceQuota(limit)
		assert.NoError(t, q.Check("m", 1_000_000))
	}
}

func TestSequenceQuota_Reset(t *testing.T) {
	q := NewSequenceQuota(1)
	_ = q.Check("m", 1)
	_ = q.Check("m", 1)
	assert.Equal(t, int64(2), q.Refused())

	q.Reset()
	assert.Equal(t, int64(0), q.Refused())
}

func TestRuntimeError_Error(t *testing.T) {
	tests := []struct {
		err  *RuntimeError
		want string
	}{
		{ErrEmptySequence, "EMPTY_SEQUENCE: sequence requires at least one step"},
		{NewUnknownMacroError("x", 4), "UNKNOWN_MACRO: no macro with that name (macro=x, tick=4)"},
		{NewInvalidStepError("x", 2, "missing mutation"), "INVALID_STEP: step 2: missing mutation (macro=x)"},
		{NewMutationPanicError(9, "boom"), "MUTATION_PANIC: panic during tick: boom (tick=9)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestRuntimeError_IsHelpersSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("start: %w", NewCapacityError("m", 5, 5))
	assert.True(t, IsCapacityError(wrapped))
	assert.False(t, IsUnknownMacroError(wrapped))
	assert.False(t, IsCapacityError(nil))
}
