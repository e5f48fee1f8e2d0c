package metrics

import (
	"github.com/verte-zerg/layopt/internal/keyboard"
	"github.com/verte-zerg/layopt/internal/layout"
	"github.com/verte-zerg/layopt/internal/ngram"
)

// sameFingerDifferentKey reports a finger repeat: one finger presses two
// different keys in a row. Thumbs are excluded.
func sameFingerDifferentKey(k1, k2 *layout.LayerKey) bool {
	return k1.Key.Hand == k2.Key.Hand &&
		k1.Key.Finger == k2.Key.Finger &&
		k1.Key.Finger != keyboard.Thumb &&
		k1.KeyIndex() != k2.KeyIndex()
}

// FingerRepeatsParams weights repeats of the weaker fingers.
type FingerRepeatsParams struct {
	IndexFingerFactor float64 `toml:"index_finger_factor"`
	PinkyFingerFactor float64 `toml:"pinky_finger_factor"`
}

// FingerRepeats charges bigrams typed with the same finger on different keys.
type FingerRepeats struct {
	p FingerRepeatsParams
}

// NewFingerRepeats returns the finger repeat metric. Zero factors count as 1.
func NewFingerRepeats(p FingerRepeatsParams) *FingerRepeats {
	if p.IndexFingerFactor == 0 {
		p.IndexFingerFactor = 1
	}
	if p.PinkyFingerFactor == 0 {
		p.PinkyFingerFactor = 1
	}
	return &FingerRepeats{p: p}
}

func (m *FingerRepeats) Name() string { return "Finger Repeats" }

func (m *FingerRepeats) IndividualCost(k1, k2 *layout.LayerKey, weight, _ float64, _ *layout.Layout) (float64, bool) {
	if !sameFingerDifferentKey(k1, k2) {
		return 0, true
	}
	switch k1.Key.Finger {
	case keyboard.Index:
		return weight * m.p.IndexFingerFactor, true
	case keyboard.Pinky:
		return weight * m.p.PinkyFingerFactor, true
	default:
		return weight, true
	}
}

func (m *FingerRepeats) TotalCost(bigrams []ngram.Bigram, totalWeight float64, l *layout.Layout) (float64, string) {
	return SumBigrams(m, bigrams, totalWeight, l)
}

// FingerRepeatsLateral charges finger repeats by the number of columns the finger moves.
type FingerRepeatsLateral struct{}

// NewFingerRepeatsLateral returns the lateral finger repeat metric.
func NewFingerRepeatsLateral() *FingerRepeatsLateral { return &FingerRepeatsLateral{} }

func (m *FingerRepeatsLateral) Name() string { return "Finger Repeats Lateral" }

func (m *FingerRepeatsLateral) IndividualCost(k1, k2 *layout.LayerKey, weight, _ float64, _ *layout.Layout) (float64, bool) {
	if !sameFingerDifferentKey(k1, k2) {
		return 0, true
	}
	return weight * float64(abs(k1.Key.Col-k2.Key.Col)), true
}

func (m *FingerRepeatsLateral) TotalCost(bigrams []ngram.Bigram, totalWeight float64, l *layout.Layout) (float64, string) {
	return SumBigrams(m, bigrams, totalWeight, l)
}

// FingerRepeatsTopBottom charges finger repeats that jump over the home row.
type FingerRepeatsTopBottom struct{}

// NewFingerRepeatsTopBottom returns the top/bottom finger repeat metric.
func NewFingerRepeatsTopBottom() *FingerRepeatsTopBottom { return &FingerRepeatsTopBottom{} }

func (m *FingerRepeatsTopBottom) Name() string { return "Finger Repeats Top-Bottom" }

func (m *FingerRepeatsTopBottom) IndividualCost(k1, k2 *layout.LayerKey, weight, _ float64, _ *layout.Layout) (float64, bool) {
	if !sameFingerDifferentKey(k1, k2) || abs(k1.Key.Row-k2.Key.Row) < 2 {
		return 0, true
	}
	return weight, true
}

func (m *FingerRepeatsTopBottom) TotalCost(bigrams []ngram.Bigram, totalWeight float64, l *layout.Layout) (float64, string) {
	return SumBigrams(m, bigrams, totalWeight, l)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
