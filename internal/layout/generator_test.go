package layout_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/layopt/internal/keyboard"
	"github.com/verte-zerg/layopt/internal/layout"
)

func newTestGenerator(t *testing.T) *layout.Generator {
	t.Helper()
	kb := testKeyboard(t, 5)
	mods := []layout.Modifiers{{keyboard.Left: []rune("⇧")}}
	g, err := layout.NewGenerator(kb,
		columns("⇧", "aA", "bB", "cC", " "),
		[]bool{true, false, false, false, true},
		mods, []float64{0, 1})
	require.NoError(t, err)
	return g
}

func TestGeneratorPermutableKeys(t *testing.T) {
	g := newTestGenerator(t)
	require.Equal(t, []rune("abc"), g.PermutableKeys())
	require.Equal(t, "abc", g.Base().AsText())
}

func TestGeneratorMovesHigherLayersWithSymbol(t *testing.T) {
	g := newTestGenerator(t)
	l, err := g.Generate("cab")
	require.NoError(t, err)
	require.Equal(t, "cab", l.AsText())

	upperC, ok := l.LayerKeyForSymbol('C')
	require.True(t, ok)
	require.Equal(t, 1, upperC.KeyIndex())
	require.Equal(t, 1, upperC.Layer)
}

func TestGeneratorValidation(t *testing.T) {
	g := newTestGenerator(t)

	_, err := g.Generate("ab")
	require.ErrorIs(t, err, layout.ErrLayoutLength)

	_, err = g.Generate("abz")
	require.ErrorIs(t, err, layout.ErrUnknownSymbol)

	_, err = g.Generate("aab")
	require.ErrorIs(t, err, layout.ErrDuplicateSymbol)

	l, err := g.GenerateUnchecked("abz")
	require.NoError(t, err)
	require.Equal(t, "abz", l.AsText())
}

func TestGenerateAndUncheckedAgree(t *testing.T) {
	g := newTestGenerator(t)
	checked, err := g.Generate("bca")
	require.NoError(t, err)
	unchecked, err := g.GenerateUnchecked("bca")
	require.NoError(t, err)

	require.Equal(t, checked.Len(), unchecked.Len())
	for i := 0; i < checked.Len(); i++ {
		idx := layout.LayerKeyIndex(i)
		require.Equal(t, checked.LayerKey(idx).Symbol, unchecked.LayerKey(idx).Symbol)
		require.Equal(t, checked.LayerKey(idx).Modifiers, unchecked.LayerKey(idx).Modifiers)
	}
}

func TestGeneratorAllFixedReturnsBase(t *testing.T) {
	kb := testKeyboard(t, 2)
	g, err := layout.NewGenerator(kb, columns("a", "b"), []bool{true, true}, nil, nil)
	require.NoError(t, err)
	require.Empty(t, g.PermutableKeys())

	l, err := g.Generate("")
	require.NoError(t, err)
	require.Same(t, g.Base(), l)
	require.Equal(t, "", l.AsText())
}
