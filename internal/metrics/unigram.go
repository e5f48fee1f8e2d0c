package metrics

import (
	"fmt"
	"math"
	"strings"

	"github.com/verte-zerg/layopt/internal/keyboard"
	"github.com/verte-zerg/layopt/internal/layout"
	"github.com/verte-zerg/layopt/internal/ngram"
)

// KeyCosts charges every keystroke with the cost of its key and layer.
type KeyCosts struct{}

// NewKeyCosts returns the key cost metric.
func NewKeyCosts() *KeyCosts { return &KeyCosts{} }

func (m *KeyCosts) Name() string { return "Key Costs" }

func (m *KeyCosts) IndividualCost(k *layout.LayerKey, weight, _ float64, l *layout.Layout) (float64, bool) {
	return weight * (k.Key.Cost + l.LayerCost(k.Layer)), true
}

func (m *KeyCosts) TotalCost(unigrams []ngram.Unigram, totalWeight float64, l *layout.Layout) (float64, string) {
	return SumUnigrams(m, unigrams, totalWeight, l)
}

// HandDisbalance measures how far the load deviates from an even split
// between both hands. Thumb keys are ignored.
type HandDisbalance struct{}

// NewHandDisbalance returns the hand disbalance metric.
func NewHandDisbalance() *HandDisbalance { return &HandDisbalance{} }

func (m *HandDisbalance) Name() string { return "Hand Disbalance" }

func (m *HandDisbalance) TotalCost(unigrams []ngram.Unigram, _ float64, _ *layout.Layout) (float64, string) {
	var left, right float64
	for _, u := range unigrams {
		if u.Key.Key.Finger == keyboard.Thumb {
			continue
		}
		if u.Key.Key.Hand == keyboard.Left {
			left += u.Weight
		} else {
			right += u.Weight
		}
	}
	total := left + right
	if total == 0 {
		return 0, ""
	}
	share := left / total
	return math.Abs(0.5 - share), fmt.Sprintf("Hand loads (left/right): %.1f%% / %.1f%%", 100*share, 100*(1-share))
}

// FingerBalanceParams sets the intended relative load of every non-thumb
// finger, ordered from the left pinky to the right pinky.
type FingerBalanceParams struct {
	IntendedLoads []float64 `toml:"intended_loads"`
}

// FingerBalance compares the actual finger loads with the intended ones.
type FingerBalance struct {
	intended [2][5]float64
}

var balanceOrder = []struct {
	hand   keyboard.Hand
	finger keyboard.Finger
}{
	{keyboard.Left, keyboard.Pinky},
	{keyboard.Left, keyboard.Ring},
	{keyboard.Left, keyboard.Middle},
	{keyboard.Left, keyboard.Index},
	{keyboard.Right, keyboard.Index},
	{keyboard.Right, keyboard.Middle},
	{keyboard.Right, keyboard.Ring},
	{keyboard.Right, keyboard.Pinky},
}

// NewFingerBalance validates the intended loads.
func NewFingerBalance(p FingerBalanceParams) (*FingerBalance, error) {
	if len(p.IntendedLoads) != len(balanceOrder) {
		return nil, fmt.Errorf("finger balance needs %d intended loads, got %d", len(balanceOrder), len(p.IntendedLoads))
	}
	var sum float64
	for _, v := range p.IntendedLoads {
		if v < 0 {
			return nil, fmt.Errorf("intended finger loads must be >= 0")
		}
		sum += v
	}
	if sum == 0 {
		return nil, fmt.Errorf("intended finger loads must not all be zero")
	}
	m := &FingerBalance{}
	for i, f := range balanceOrder {
		m.intended[f.hand][f.finger] = p.IntendedLoads[i] / sum
	}
	return m, nil
}

func (m *FingerBalance) Name() string { return "Finger Balance" }

func (m *FingerBalance) TotalCost(unigrams []ngram.Unigram, _ float64, _ *layout.Layout) (float64, string) {
	var loads [2][5]float64
	var total float64
	for _, u := range unigrams {
		if u.Key.Key.Finger == keyboard.Thumb {
			continue
		}
		loads[u.Key.Key.Hand][u.Key.Key.Finger] += u.Weight
		total += u.Weight
	}
	if total == 0 {
		return 0, ""
	}
	var cost float64
	parts := make([]string, 0, len(balanceOrder))
	for _, f := range balanceOrder {
		actual := loads[f.hand][f.finger] / total
		parts = append(parts, fmt.Sprintf("%.1f", 100*actual))
		intended := m.intended[f.hand][f.finger]
		if intended == 0 {
			continue
		}
		d := actual/intended - 1
		cost += d * d
	}
	return cost, "Finger loads %: " + strings.Join(parts, " ")
}
