package metrics

import (
	"github.com/verte-zerg/layopt/internal/keyboard"
	"github.com/verte-zerg/layopt/internal/layout"
	"github.com/verte-zerg/layopt/internal/ngram"
)

// NoHandswitchAfterUnbalancingKey charges staying on the same hand after a
// key that moves the hand out of its rest position.
type NoHandswitchAfterUnbalancingKey struct{}

// NewNoHandswitchAfterUnbalancingKey returns the metric.
func NewNoHandswitchAfterUnbalancingKey() *NoHandswitchAfterUnbalancingKey {
	return &NoHandswitchAfterUnbalancingKey{}
}

func (m *NoHandswitchAfterUnbalancingKey) Name() string {
	return "No Handswitch After Unbalancing Key"
}

func (m *NoHandswitchAfterUnbalancingKey) IndividualCost(k1, k2 *layout.LayerKey, weight, _ float64, _ *layout.Layout) (float64, bool) {
	if k1.Key.Unbalancing <= 0 ||
		k1.Key.Hand != k2.Key.Hand ||
		k2.Key.Finger == keyboard.Thumb ||
		k1.KeyIndex() == k2.KeyIndex() {
		return 0, true
	}
	return weight * k1.Key.Unbalancing, true
}

func (m *NoHandswitchAfterUnbalancingKey) TotalCost(bigrams []ngram.Bigram, totalWeight float64, l *layout.Layout) (float64, string) {
	return SumBigrams(m, bigrams, totalWeight, l)
}

// UnbalancingAfterNeighboring charges reaching for an unbalancing key right
// after using the neighboring finger of the same hand.
type UnbalancingAfterNeighboring struct{}

// NewUnbalancingAfterNeighboring returns the metric.
func NewUnbalancingAfterNeighboring() *UnbalancingAfterNeighboring {
	return &UnbalancingAfterNeighboring{}
}

func (m *UnbalancingAfterNeighboring) Name() string { return "Unbalancing After Neighboring" }

func (m *UnbalancingAfterNeighboring) IndividualCost(k1, k2 *layout.LayerKey, weight, _ float64, _ *layout.Layout) (float64, bool) {
	if k2.Key.Unbalancing <= 0 ||
		k1.Key.Hand != k2.Key.Hand ||
		k1.Key.Finger == keyboard.Thumb ||
		k1.Key.Finger.Distance(k2.Key.Finger) != 1 {
		return 0, true
	}
	return weight * k2.Key.Unbalancing, true
}

func (m *UnbalancingAfterNeighboring) TotalCost(bigrams []ngram.Bigram, totalWeight float64, l *layout.Layout) (float64, string) {
	return SumBigrams(m, bigrams, totalWeight, l)
}

// AsymmetricBigrams charges bigrams whose keys are not mirror images of each
// other. Thumbs are excluded.
type AsymmetricBigrams struct{}

// NewAsymmetricBigrams returns the metric.
func NewAsymmetricBigrams() *AsymmetricBigrams { return &AsymmetricBigrams{} }

func (m *AsymmetricBigrams) Name() string { return "Asymmetric Bigrams" }

func (m *AsymmetricBigrams) IndividualCost(k1, k2 *layout.LayerKey, weight, _ float64, _ *layout.Layout) (float64, bool) {
	if k1.Key.SymmetryIndex != k2.Key.SymmetryIndex &&
		k1.Key.Finger != keyboard.Thumb &&
		k2.Key.Finger != keyboard.Thumb {
		return weight, true
	}
	return 0, true
}

func (m *AsymmetricBigrams) TotalCost(bigrams []ngram.Bigram, totalWeight float64, l *layout.Layout) (float64, string) {
	return SumBigrams(m, bigrams, totalWeight, l)
}
