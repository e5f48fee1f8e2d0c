package metrics

import (
	"fmt"

	"github.com/verte-zerg/layopt/internal/keyboard"
	"github.com/verte-zerg/layopt/internal/layout"
	"github.com/verte-zerg/layopt/internal/ngram"
)

// LineChangesParams weights row changes by how close the two fingers are.
type LineChangesParams struct {
	ShortDistanceFactor float64 `toml:"short_distance_factor"`
	LongDistanceFactor  float64 `toml:"long_distance_factor"`
}

// LineChanges charges same-hand bigrams that change rows. The cost grows with
// the square of the row distance.
type LineChanges struct {
	p LineChangesParams
}

// NewLineChanges returns the line change metric. Zero factors count as 1.
func NewLineChanges(p LineChangesParams) *LineChanges {
	if p.ShortDistanceFactor == 0 {
		p.ShortDistanceFactor = 1
	}
	if p.LongDistanceFactor == 0 {
		p.LongDistanceFactor = 1
	}
	return &LineChanges{p: p}
}

func (m *LineChanges) Name() string { return "Line Changes" }

func (m *LineChanges) IndividualCost(k1, k2 *layout.LayerKey, weight, _ float64, _ *layout.Layout) (float64, bool) {
	if k1.Key.Hand != k2.Key.Hand || k1.Key.Finger == keyboard.Thumb || k2.Key.Finger == keyboard.Thumb {
		return 0, true
	}
	rows := abs(k1.Key.Row - k2.Key.Row)
	if rows == 0 {
		return 0, true
	}
	factor := m.p.LongDistanceFactor
	if k1.Key.Finger.Distance(k2.Key.Finger) <= 1 {
		factor = m.p.ShortDistanceFactor
	}
	return weight * float64(rows*rows) * factor, true
}

func (m *LineChanges) TotalCost(bigrams []ngram.Bigram, totalWeight float64, l *layout.Layout) (float64, string) {
	return SumBigrams(m, bigrams, totalWeight, l)
}

// FingerSwitchCost is the cost of moving from one finger to another on a hand.
type FingerSwitchCost struct {
	Hand string  `toml:"hand"`
	From string  `toml:"from"`
	To   string  `toml:"to"`
	Cost float64 `toml:"cost"`
}

// MovementPatternParams lists the finger switch costs.
type MovementPatternParams struct {
	Costs []FingerSwitchCost `toml:"costs"`
}

// MovementPattern charges same-hand finger transitions from a cost table.
type MovementPattern struct {
	costs [2][5][5]float64
}

// NewMovementPattern parses the finger switch table.
func NewMovementPattern(p MovementPatternParams) (*MovementPattern, error) {
	m := &MovementPattern{}
	for _, c := range p.Costs {
		hand, err := keyboard.ParseHand(c.Hand)
		if err != nil {
			return nil, err
		}
		from, err := keyboard.ParseFinger(c.From)
		if err != nil {
			return nil, err
		}
		to, err := keyboard.ParseFinger(c.To)
		if err != nil {
			return nil, err
		}
		m.costs[hand][from][to] = c.Cost
	}
	return m, nil
}

func (m *MovementPattern) Name() string { return "Movement Pattern" }

func (m *MovementPattern) IndividualCost(k1, k2 *layout.LayerKey, weight, _ float64, _ *layout.Layout) (float64, bool) {
	if k1.Key.Hand != k2.Key.Hand || k1.Key.Finger == k2.Key.Finger {
		return 0, true
	}
	return weight * m.costs[k1.Key.Hand][k1.Key.Finger][k2.Key.Finger], true
}

func (m *MovementPattern) TotalCost(bigrams []ngram.Bigram, totalWeight float64, l *layout.Layout) (float64, string) {
	return SumBigrams(m, bigrams, totalWeight, l)
}

// KeyPairPenalty is a manual penalty for typing Key2 after Key1 (key indices).
type KeyPairPenalty struct {
	Key1 int     `toml:"key1"`
	Key2 int     `toml:"key2"`
	Cost float64 `toml:"cost"`
}

// ManualBigramPenaltyParams lists the penalized key pairs. With Symmetric
// set, a penalty also applies to the reversed pair.
type ManualBigramPenaltyParams struct {
	Pairs     []KeyPairPenalty `toml:"pairs"`
	Symmetric bool             `toml:"symmetric"`
}

// ManualBigramPenalty charges hand-picked key pairs.
type ManualBigramPenalty struct {
	penalties map[[2]int]float64
}

// NewManualBigramPenalty builds the penalty table.
func NewManualBigramPenalty(p ManualBigramPenaltyParams) (*ManualBigramPenalty, error) {
	m := &ManualBigramPenalty{penalties: make(map[[2]int]float64, len(p.Pairs))}
	for _, pair := range p.Pairs {
		if pair.Key1 < 0 || pair.Key2 < 0 {
			return nil, fmt.Errorf("manual bigram penalty: negative key index in pair (%d, %d)", pair.Key1, pair.Key2)
		}
		m.penalties[[2]int{pair.Key1, pair.Key2}] = pair.Cost
		if p.Symmetric {
			m.penalties[[2]int{pair.Key2, pair.Key1}] = pair.Cost
		}
	}
	return m, nil
}

func (m *ManualBigramPenalty) Name() string { return "Manual Bigram Penalty" }

func (m *ManualBigramPenalty) IndividualCost(k1, k2 *layout.LayerKey, weight, _ float64, _ *layout.Layout) (float64, bool) {
	cost, ok := m.penalties[[2]int{k1.KeyIndex(), k2.KeyIndex()}]
	if !ok {
		return 0, false
	}
	return weight * cost, true
}

func (m *ManualBigramPenalty) TotalCost(bigrams []ngram.Bigram, totalWeight float64, l *layout.Layout) (float64, string) {
	return SumBigrams(m, bigrams, totalWeight, l)
}
