package ngram_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/layopt/internal/keyboard"
	"github.com/verte-zerg/layopt/internal/layout"
	"github.com/verte-zerg/layopt/internal/ngram"
)

func TestParseKeepsSpacesAndEscapes(t *testing.T) {
	input := "12.5 a \n3 \\nb\n\n  1e-1 ab\n"
	got := map[string]float64{}
	err := ngram.Parse(strings.NewReader(input), 2, func(s []rune, w float64) {
		got[string(s)] += w
	})
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"a ": 12.5, "\nb": 3, "ab": 0.1}, got)
}

func TestParseRejectsWrongLength(t *testing.T) {
	err := ngram.Parse(strings.NewReader("1 abc\n"), 2, func([]rune, float64) {})
	require.ErrorIs(t, err, ngram.ErrMalformedLine)

	err = ngram.Parse(strings.NewReader("x ab\n"), 2, func([]rune, float64) {})
	require.ErrorIs(t, err, ngram.ErrMalformedLine)
}

func TestLoadBigramsSumsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2-grams.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 ab\n2 ab\n4 ba\n"), 0o644))

	bigrams, err := ngram.LoadBigrams(path)
	require.NoError(t, err)
	require.Equal(t, ngram.Bigrams{{'a', 'b'}: 3, {'b', 'a'}: 4}, bigrams)
}

func shiftLayout(t *testing.T) *layout.Layout {
	t.Helper()
	keys := []keyboard.Key{
		{Hand: keyboard.Left, Finger: keyboard.Pinky},
		{Hand: keyboard.Right, Finger: keyboard.Index},
		{Hand: keyboard.Right, Finger: keyboard.Middle},
	}
	kb, err := keyboard.New(keys, "", nil)
	require.NoError(t, err)
	l, err := layout.New(
		[][]rune{[]rune("⇧"), []rune("aA"), []rune("bB")},
		[]bool{true, false, false},
		kb,
		[]layout.Modifiers{{keyboard.Left: []rune("⇧")}},
		[]float64{0, 1},
	)
	require.NoError(t, err)
	return l
}

func TestMapTracksFoundAndNotFoundWeight(t *testing.T) {
	l := shiftLayout(t)
	m := ngram.NewMapper(
		ngram.Unigrams{'a': 3, 'z': 1},
		ngram.Bigrams{{'a', 'b'}: 2, {'b', 'z'}: 5},
		ngram.Trigrams{{'a', 'b', 'a'}: 1},
		ngram.MapperConfig{},
	)
	mapped := m.Map(l)

	require.Equal(t, 3.0, mapped.UnigramsFound)
	require.Equal(t, 1.0, mapped.UnigramsNotFound)
	require.Equal(t, 2.0, mapped.BigramsFound)
	require.Equal(t, 5.0, mapped.BigramsNotFound)
	require.Equal(t, 1.0, mapped.TrigramsFound)
	require.Len(t, mapped.Bigrams, 1)
	require.Equal(t, 'a', mapped.Bigrams[0].K1.Symbol)
	require.Equal(t, 'b', mapped.Bigrams[0].K2.Symbol)
}

func TestMapSplitsModifiers(t *testing.T) {
	l := shiftLayout(t)
	m := ngram.NewMapper(
		ngram.Unigrams{'A': 2},
		ngram.Bigrams{{'A', 'b'}: 1},
		nil,
		ngram.MapperConfig{SplitModifiers: true},
	)
	mapped := m.Map(l)

	unigrams := map[rune]float64{}
	for _, u := range mapped.Unigrams {
		unigrams[u.Key.Symbol] = u.Weight
	}
	require.Equal(t, map[rune]float64{'a': 2, '⇧': 2}, unigrams)

	bigrams := map[string]float64{}
	for _, b := range mapped.Bigrams {
		bigrams[string([]rune{b.K1.Symbol, b.K2.Symbol})] = b.Weight
	}
	require.Equal(t, map[string]float64{"ab": 1, "⇧a": 1}, bigrams)
}
