package keyboard_test

import (
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/layopt/internal/keyboard"
)

func twoKeys(t *testing.T, template string, compact []int) *keyboard.Keyboard {
	t.Helper()
	kb, err := keyboard.New([]keyboard.Key{
		{Hand: keyboard.Left, Finger: keyboard.Index},
		{Hand: keyboard.Right, Finger: keyboard.Index},
	}, template, compact)
	require.NoError(t, err)
	return kb
}

func TestPlotKeepsOneColumnPerKey(t *testing.T) {
	kb := twoKeys(t, "[{}|{}]", nil)

	require.Equal(t, "[a|b]", kb.Plot([]string{"a", "b"}))
	require.Equal(t, "[ |b]", kb.Plot([]string{"", "b"}))
	require.Equal(t, "[x|b]", kb.Plot([]string{"xy", "b"}))

	for _, wide := range []string{"中", "😀"} {
		out := kb.Plot([]string{wide, "b"})
		require.Equal(t, "[?|b]", out, wide)
		require.Equal(t, 5, runewidth.StringWidth(out))
	}
}

func TestPlotCompactSubstitutesWideSymbols(t *testing.T) {
	kb := twoKeys(t, "", []int{1, 1})
	require.Equal(t, "?\nb", kb.PlotCompact([]string{"語", "b"}))
	require.Equal(t, "? b", kb.Plot([]string{"語", "b"}))
}

func TestNewRejectsTemplateMismatch(t *testing.T) {
	_, err := keyboard.New([]keyboard.Key{{}}, "{} {}", nil)
	require.Error(t, err)

	_, err = keyboard.New(nil, "", nil)
	require.Error(t, err)
}
