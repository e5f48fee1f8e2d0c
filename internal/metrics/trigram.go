package metrics

import (
	"github.com/verte-zerg/layopt/internal/keyboard"
	"github.com/verte-zerg/layopt/internal/layout"
	"github.com/verte-zerg/layopt/internal/ngram"
)

// NoHandswitchInTrigramParams weights trigrams that change direction.
type NoHandswitchInTrigramParams struct {
	DirectionChangeFactor float64 `toml:"direction_change_factor"`
}

// NoHandswitchInTrigram charges trigrams typed entirely with one hand.
type NoHandswitchInTrigram struct {
	p NoHandswitchInTrigramParams
}

// NewNoHandswitchInTrigram returns the metric. A zero factor counts as 1.
func NewNoHandswitchInTrigram(p NoHandswitchInTrigramParams) *NoHandswitchInTrigram {
	if p.DirectionChangeFactor == 0 {
		p.DirectionChangeFactor = 1
	}
	return &NoHandswitchInTrigram{p: p}
}

func (m *NoHandswitchInTrigram) Name() string { return "No Handswitch in Trigram" }

func (m *NoHandswitchInTrigram) IndividualCost(k1, k2, k3 *layout.LayerKey, weight, _ float64, _ *layout.Layout) (float64, bool) {
	if k1.Key.Hand != k2.Key.Hand || k2.Key.Hand != k3.Key.Hand {
		return 0, true
	}
	if k1.Key.Finger == keyboard.Thumb || k2.Key.Finger == keyboard.Thumb || k3.Key.Finger == keyboard.Thumb {
		return 0, true
	}
	d1 := int(k2.Key.Finger) - int(k1.Key.Finger)
	d2 := int(k3.Key.Finger) - int(k2.Key.Finger)
	if d1*d2 < 0 {
		return weight * m.p.DirectionChangeFactor, true
	}
	return weight, true
}

func (m *NoHandswitchInTrigram) TotalCost(trigrams []ngram.Trigram, totalWeight float64, l *layout.Layout) (float64, string) {
	return SumTrigrams(m, trigrams, totalWeight, l)
}

// SecondaryBigramsParams scales the secondary finger repeat cost.
type SecondaryBigramsParams struct {
	Factor float64 `toml:"factor"`
}

// SecondaryBigrams charges finger repeats between the first and the last key
// of a trigram whose middle key is typed by the other hand.
type SecondaryBigrams struct {
	p SecondaryBigramsParams
}

// NewSecondaryBigrams returns the metric. A zero factor counts as 1.
func NewSecondaryBigrams(p SecondaryBigramsParams) *SecondaryBigrams {
	if p.Factor == 0 {
		p.Factor = 1
	}
	return &SecondaryBigrams{p: p}
}

func (m *SecondaryBigrams) Name() string { return "Secondary Bigrams" }

func (m *SecondaryBigrams) IndividualCost(k1, k2, k3 *layout.LayerKey, weight, _ float64, _ *layout.Layout) (float64, bool) {
	if k2.Key.Hand == k1.Key.Hand || !sameFingerDifferentKey(k1, k3) {
		return 0, true
	}
	return weight * m.p.Factor, true
}

func (m *SecondaryBigrams) TotalCost(trigrams []ngram.Trigram, totalWeight float64, l *layout.Layout) (float64, string) {
	return SumTrigrams(m, trigrams, totalWeight, l)
}
