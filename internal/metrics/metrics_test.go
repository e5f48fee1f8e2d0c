package metrics_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/layopt/internal/keyboard"
	"github.com/verte-zerg/layopt/internal/layout"
	"github.com/verte-zerg/layopt/internal/metrics"
	"github.com/verte-zerg/layopt/internal/ngram"
)

func buildLayout(t *testing.T, keys []keyboard.Key, symbols string) *layout.Layout {
	t.Helper()
	kb, err := keyboard.New(keys, "", nil)
	require.NoError(t, err)
	chars := make([][]rune, 0, len(keys))
	for _, r := range symbols {
		chars = append(chars, []rune{r})
	}
	l, err := layout.New(chars, make([]bool, len(chars)), kb, nil, []float64{0})
	require.NoError(t, err)
	return l
}

func threeKeys() []keyboard.Key {
	return []keyboard.Key{
		{Hand: keyboard.Left, Finger: keyboard.Index, Col: 0, Row: 0, Cost: 1},
		{Hand: keyboard.Left, Finger: keyboard.Index, Col: 1, Row: 2, Cost: 2},
		{Hand: keyboard.Right, Finger: keyboard.Middle, Col: 2, Row: 1, Cost: 3},
	}
}

func TestBigramMetricChargesOnlyMatchingPairs(t *testing.T) {
	l := buildLayout(t, threeKeys(), "abc")
	mapper := ngram.NewMapper(nil, ngram.Bigrams{
		{'a', 'b'}: 0.6,
		{'b', 'a'}: 0.3,
		{'a', 'c'}: 0.1,
	}, nil, ngram.MapperConfig{})
	mapped := mapper.Map(l)

	m, err := metrics.NewManualBigramPenalty(metrics.ManualBigramPenaltyParams{
		Pairs: []metrics.KeyPairPenalty{{Key1: 0, Key2: 1, Cost: 1}},
	})
	require.NoError(t, err)

	cost, msg := m.TotalCost(mapped.Bigrams, mapped.BigramsFound, l)
	require.InDelta(t, 0.6, cost, 1e-12)
	require.Contains(t, msg, "Worst bigrams: ab (100.00%)")
}

func TestManualBigramPenaltySymmetric(t *testing.T) {
	l := buildLayout(t, threeKeys(), "abc")
	mapped := ngram.NewMapper(nil, ngram.Bigrams{
		{'a', 'b'}: 0.6,
		{'b', 'a'}: 0.3,
		{'a', 'c'}: 0.1,
	}, nil, ngram.MapperConfig{}).Map(l)

	m, err := metrics.NewManualBigramPenalty(metrics.ManualBigramPenaltyParams{
		Pairs:     []metrics.KeyPairPenalty{{Key1: 0, Key2: 1, Cost: 1}},
		Symmetric: true,
	})
	require.NoError(t, err)

	cost, _ := m.TotalCost(mapped.Bigrams, mapped.BigramsFound, l)
	require.InDelta(t, 0.9, cost, 1e-12)

	_, err = metrics.NewManualBigramPenalty(metrics.ManualBigramPenaltyParams{
		Pairs: []metrics.KeyPairPenalty{{Key1: -1, Key2: 1, Cost: 1}},
	})
	require.Error(t, err)
}

func TestWorstMessageListsTopThreeDescending(t *testing.T) {
	l := buildLayout(t, threeKeys(), "abc")
	mapped := ngram.NewMapper(ngram.Unigrams{
		'a': 1,
		'b': 1,
		'c': 1,
	}, nil, nil, ngram.MapperConfig{}).Map(l)

	cost, msg := metrics.NewKeyCosts().TotalCost(mapped.Unigrams, mapped.UnigramsFound, l)
	require.InDelta(t, 6, cost, 1e-12)
	require.True(t, strings.HasPrefix(msg, "Worst unigrams: c (50.00%), b (33.33%), a (16.67%)"), msg)
	require.Contains(t, msg, " 0.00% of cost involved a modifier")
}

func TestDiagnosticsDoNotChangeTotal(t *testing.T) {
	l := buildLayout(t, threeKeys(), "abc")
	unigrams := ngram.Unigrams{'a': 5, 'b': 3, 'c': 2}
	bigrams := ngram.Bigrams{{'a', 'b'}: 4, {'b', 'a'}: 2, {'a', 'c'}: 1, {'c', 'b'}: 1}
	mapped := ngram.NewMapper(unigrams, bigrams, nil, ngram.MapperConfig{}).Map(l)

	var want float64
	for _, u := range mapped.Unigrams {
		want += u.Weight * u.Key.Key.Cost
	}
	got, _ := metrics.NewKeyCosts().TotalCost(mapped.Unigrams, mapped.UnigramsFound, l)
	require.InDelta(t, want, got, 1e-12)

	fr := metrics.NewFingerRepeats(metrics.FingerRepeatsParams{IndexFingerFactor: 2})
	got, _ = fr.TotalCost(mapped.Bigrams, mapped.BigramsFound, l)
	// a and b share the left index finger.
	require.InDelta(t, (4+2)*2.0, got, 1e-12)
}

func TestFingerRepeatVariants(t *testing.T) {
	l := buildLayout(t, threeKeys(), "abc")
	a, _ := l.LayerKeyForSymbol('a')
	b, _ := l.LayerKeyForSymbol('b')
	c, _ := l.LayerKeyForSymbol('c')

	cost, ok := metrics.NewFingerRepeatsLateral().IndividualCost(a, b, 1, 1, l)
	require.True(t, ok)
	require.InDelta(t, 1, cost, 1e-12)

	cost, _ = metrics.NewFingerRepeatsTopBottom().IndividualCost(a, b, 1, 1, l)
	require.InDelta(t, 1, cost, 1e-12)

	cost, _ = metrics.NewFingerRepeatsTopBottom().IndividualCost(a, c, 1, 1, l)
	require.Zero(t, cost)

	cost, _ = metrics.NewFingerRepeats(metrics.FingerRepeatsParams{}).IndividualCost(a, a, 1, 1, l)
	require.Zero(t, cost)
}

func TestLineChangesScalesWithRowDistance(t *testing.T) {
	keys := []keyboard.Key{
		{Hand: keyboard.Left, Finger: keyboard.Index, Row: 0},
		{Hand: keyboard.Left, Finger: keyboard.Middle, Row: 2},
		{Hand: keyboard.Left, Finger: keyboard.Pinky, Row: 1},
		{Hand: keyboard.Right, Finger: keyboard.Index, Row: 2},
	}
	l := buildLayout(t, keys, "abcd")
	a, _ := l.LayerKeyForSymbol('a')
	b, _ := l.LayerKeyForSymbol('b')
	c, _ := l.LayerKeyForSymbol('c')
	d, _ := l.LayerKeyForSymbol('d')

	m := metrics.NewLineChanges(metrics.LineChangesParams{ShortDistanceFactor: 2, LongDistanceFactor: 0.5})

	cost, _ := m.IndividualCost(a, b, 1, 1, l)
	require.InDelta(t, 4*2, cost, 1e-12)

	cost, _ = m.IndividualCost(a, c, 1, 1, l)
	require.InDelta(t, 1*0.5, cost, 1e-12)

	cost, _ = m.IndividualCost(a, d, 1, 1, l)
	require.Zero(t, cost)
}

func TestMovementPatternLooksUpFingerPair(t *testing.T) {
	keys := []keyboard.Key{
		{Hand: keyboard.Left, Finger: keyboard.Pinky},
		{Hand: keyboard.Left, Finger: keyboard.Ring},
		{Hand: keyboard.Right, Finger: keyboard.Ring},
	}
	l := buildLayout(t, keys, "abc")
	a, _ := l.LayerKeyForSymbol('a')
	b, _ := l.LayerKeyForSymbol('b')
	c, _ := l.LayerKeyForSymbol('c')

	m, err := metrics.NewMovementPattern(metrics.MovementPatternParams{Costs: []metrics.FingerSwitchCost{
		{Hand: "left", From: "pinky", To: "ring", Cost: 3},
	}})
	require.NoError(t, err)

	cost, _ := m.IndividualCost(a, b, 2, 2, l)
	require.InDelta(t, 6, cost, 1e-12)
	cost, _ = m.IndividualCost(b, a, 2, 2, l)
	require.Zero(t, cost)
	cost, _ = m.IndividualCost(a, c, 2, 2, l)
	require.Zero(t, cost)

	_, err = metrics.NewMovementPattern(metrics.MovementPatternParams{Costs: []metrics.FingerSwitchCost{
		{Hand: "middle", From: "pinky", To: "ring", Cost: 3},
	}})
	require.Error(t, err)
}

func TestUnbalancingMetrics(t *testing.T) {
	keys := []keyboard.Key{
		{Hand: keyboard.Left, Finger: keyboard.Index, Col: 4, Unbalancing: 0.5},
		{Hand: keyboard.Left, Finger: keyboard.Middle, Col: 2},
		{Hand: keyboard.Right, Finger: keyboard.Middle, Col: 7},
	}
	l := buildLayout(t, keys, "abc")
	a, _ := l.LayerKeyForSymbol('a')
	b, _ := l.LayerKeyForSymbol('b')
	c, _ := l.LayerKeyForSymbol('c')

	cost, _ := metrics.NewNoHandswitchAfterUnbalancingKey().IndividualCost(a, b, 2, 2, l)
	require.InDelta(t, 1, cost, 1e-12)
	cost, _ = metrics.NewNoHandswitchAfterUnbalancingKey().IndividualCost(a, c, 2, 2, l)
	require.Zero(t, cost)

	cost, _ = metrics.NewUnbalancingAfterNeighboring().IndividualCost(b, a, 2, 2, l)
	require.InDelta(t, 1, cost, 1e-12)
	cost, _ = metrics.NewUnbalancingAfterNeighboring().IndividualCost(c, a, 2, 2, l)
	require.Zero(t, cost)
}

func TestAsymmetricBigrams(t *testing.T) {
	keys := []keyboard.Key{
		{Hand: keyboard.Left, Finger: keyboard.Index, SymmetryIndex: 1},
		{Hand: keyboard.Right, Finger: keyboard.Index, SymmetryIndex: 1},
		{Hand: keyboard.Right, Finger: keyboard.Ring, SymmetryIndex: 3},
		{Hand: keyboard.Left, Finger: keyboard.Thumb, SymmetryIndex: 5},
	}
	l := buildLayout(t, keys, "abc ")
	a, _ := l.LayerKeyForSymbol('a')
	b, _ := l.LayerKeyForSymbol('b')
	c, _ := l.LayerKeyForSymbol('c')
	sp, _ := l.LayerKeyForSymbol(' ')

	m := metrics.NewAsymmetricBigrams()
	cost, _ := m.IndividualCost(a, b, 1, 1, l)
	require.Zero(t, cost)
	cost, _ = m.IndividualCost(a, c, 1, 1, l)
	require.InDelta(t, 1, cost, 1e-12)
	cost, _ = m.IndividualCost(a, sp, 1, 1, l)
	require.Zero(t, cost)
}

func TestTrigramMetrics(t *testing.T) {
	keys := []keyboard.Key{
		{Hand: keyboard.Left, Finger: keyboard.Pinky, Row: 0},
		{Hand: keyboard.Left, Finger: keyboard.Ring},
		{Hand: keyboard.Left, Finger: keyboard.Middle},
		{Hand: keyboard.Right, Finger: keyboard.Index},
		{Hand: keyboard.Left, Finger: keyboard.Pinky, Row: 1},
	}
	l := buildLayout(t, keys, "abcde")
	mapped := ngram.NewMapper(nil, nil, ngram.Trigrams{
		{'a', 'b', 'c'}: 1,
		{'a', 'b', 'a'}: 1,
		{'a', 'd', 'e'}: 1,
		{'a', 'd', 'a'}: 1,
	}, ngram.MapperConfig{}).Map(l)

	nh := metrics.NewNoHandswitchInTrigram(metrics.NoHandswitchInTrigramParams{DirectionChangeFactor: 3})
	cost, _ := nh.TotalCost(mapped.Trigrams, mapped.TrigramsFound, l)
	// abc rolls inward (1), aba changes direction (3).
	require.InDelta(t, 4, cost, 1e-12)

	sb := metrics.NewSecondaryBigrams(metrics.SecondaryBigramsParams{Factor: 0.5})
	cost, _ = sb.TotalCost(mapped.Trigrams, mapped.TrigramsFound, l)
	// only ade repeats the pinky on a different key around a hand switch.
	require.InDelta(t, 0.5, cost, 1e-12)
}

func TestHandAndFingerBalance(t *testing.T) {
	keys := []keyboard.Key{
		{Hand: keyboard.Left, Finger: keyboard.Index},
		{Hand: keyboard.Right, Finger: keyboard.Index},
		{Hand: keyboard.Left, Finger: keyboard.Thumb},
	}
	l := buildLayout(t, keys, "ab ")
	mapped := ngram.NewMapper(ngram.Unigrams{'a': 3, 'b': 1, ' ': 100}, nil, nil, ngram.MapperConfig{}).Map(l)

	cost, msg := metrics.NewHandDisbalance().TotalCost(mapped.Unigrams, mapped.UnigramsFound, l)
	require.InDelta(t, 0.25, cost, 1e-12)
	require.Equal(t, "Hand loads (left/right): 75.0% / 25.0%", msg)

	fb, err := metrics.NewFingerBalance(metrics.FingerBalanceParams{IntendedLoads: []float64{0, 0, 0, 1, 1, 0, 0, 0}})
	require.NoError(t, err)
	cost, _ = fb.TotalCost(mapped.Unigrams, mapped.UnigramsFound, l)
	// actual 0.75/0.25 against intended 0.5/0.5.
	require.InDelta(t, 0.25+0.25, cost, 1e-12)

	_, err = metrics.NewFingerBalance(metrics.FingerBalanceParams{IntendedLoads: []float64{1, 2}})
	require.Error(t, err)
}

func TestShortcutKeys(t *testing.T) {
	keys := []keyboard.Key{
		{Hand: keyboard.Left, Finger: keyboard.Index},
		{Hand: keyboard.Right, Finger: keyboard.Index},
	}
	l := buildLayout(t, keys, "cv")
	cost, msg := metrics.NewShortcutKeys(metrics.ShortcutKeysParams{Shortcuts: "cvx"}).TotalCost(l)
	require.InDelta(t, 2, cost, 1e-12)
	require.Equal(t, "Not on left base layer: v x", msg)
}
