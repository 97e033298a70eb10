package carousel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	closed := loadedState(1, 2, 3)
	open := closed
	open.PickerOpen = true

	tests := []struct {
		name   string
		state  State
		key    Key
		want   CommandType
		routed bool
	}{
		{"toggle opens", closed, Key{Kind: KeyTogglePicker}, CmdTogglePicker, true},
		{"toggle closes", open, Key{Kind: KeyTogglePicker}, CmdTogglePicker, true},
		{"escape closes", open, Key{Kind: KeyEscape}, CmdClosePicker, true},
		{"escape without picker", closed, Key{Kind: KeyEscape}, "", false},
		{"space pauses", closed, Key{Kind: KeySpace}, CmdTogglePause, true},
		{"space suppressed", open, Key{Kind: KeySpace}, "", false},
		{"left", closed, Key{Kind: KeyLeft}, CmdAdvance, true},
		{"right", closed, Key{Kind: KeyRight}, CmdAdvance, true},
		{"right suppressed", open, Key{Kind: KeyRight}, "", false},
		{"select", open, Key{Kind: KeyRune, Rune: '2'}, CmdFocusPlayer, true},
		{"select out of range", open, Key{Kind: KeyRune, Rune: '9'}, "", false},
		{"select without picker", closed, Key{Kind: KeyRune, Rune: '1'}, "", false},
		{"unknown label", open, Key{Kind: KeyRune, Rune: 'p'}, "", false},
		{"other", closed, Key{Kind: KeyOther}, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, ok := Route(tc.state, tc.key)
			assert.Equal(t, tc.routed, ok)
			assert.Equal(t, tc.want, cmd.Type)
		})
	}
}

func TestRoute_Direction(t *testing.T) {
	s := loadedState(1)
	left, _ := Route(s, Key{Kind: KeyLeft})
	right, _ := Route(s, Key{Kind: KeyRight})
	assert.Equal(t, -1, left.Dir)
	assert.Equal(t, 1, right.Dir)
}

func TestRoute_SelectMapsCyclePosition(t *testing.T) {
	s := loadedState(40, 50, 60)
	s.PickerOpen = true
	cmd, ok := Route(s, Key{Kind: KeyRune, Rune: '3'})
	assert.True(t, ok)
	assert.Equal(t, int64(60), cmd.PlayerID)
}

func TestPickerLabel(t *testing.T) {
	r, ok := PickerLabel(0)
	assert.True(t, ok)
	assert.Equal(t, '1', r)

	r, ok = PickerLabel(9)
	assert.True(t, ok)
	assert.Equal(t, 'a', r)

	_, ok = PickerLabel(len(PickerLabels))
	assert.False(t, ok)
	assert.NotContains(t, PickerLabels, "p")
	assert.NotContains(t, PickerLabels, "q")
}
