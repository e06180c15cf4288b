package pad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseButton(t *testing.T) {
	tests := []struct {
		name string
		want Button
	}{
		{"a", A},
		{"A", A},
		{"south", A},
		{"east", B},
		{"west", X},
		{"north", Y},
		{"dpad_up", DPadUp},
		{" dpad_down ", DPadDown},
		{"lb", LeftShoulder},
		{"right_thumb", RightThumb},
		{"select", Back},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseButton(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseButton_Unknown(t *testing.T) {
	_, err := ParseButton("turbo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "turbo")
}

func TestButtonString_RoundTrips(t *testing.T) {
	for _, name := range ButtonNames() {
		b, err := ParseButton(name)
		require.NoError(t, err)
		assert.Equal(t, name, b.String())
	}
	assert.Len(t, ButtonNames(), 14)
	assert.Equal(t, "0x0003", (DPadUp | DPadDown).String())
}

func TestFormatButtons(t *testing.T) {
	assert.Equal(t, "none", FormatButtons(0))
	assert.Equal(t, "dpad_up+a", FormatButtons(uint16(A|DPadUp)))
	assert.Equal(t, "a+b+x+y", FormatButtons(uint16(A|B|X|Y)))
}

func TestParseButtonState(t *testing.T) {
	st, err := ParseButtonState("down")
	require.NoError(t, err)
	assert.Equal(t, Down, st)

	st, err = ParseButtonState("Released")
	require.NoError(t, err)
	assert.Equal(t, Up, st)

	_, err = ParseButtonState("half")
	assert.Error(t, err)
}

func TestParseTriggerStickAxis(t *testing.T) {
	tr, err := ParseTrigger("rt")
	require.NoError(t, err)
	assert.Equal(t, RightTrigger, tr)
	assert.Equal(t, "right", tr.String())

	st, err := ParseStick("left")
	require.NoError(t, err)
	assert.Equal(t, LeftStick, st)

	ax, err := ParseAxis("Y")
	require.NoError(t, err)
	assert.Equal(t, AxisY, ax)

	_, err = ParseTrigger("middle")
	assert.Error(t, err)
	_, err = ParseStick("center")
	assert.Error(t, err)
	_, err = ParseAxis("z")
	assert.Error(t, err)
}
