// Package metrics contains the cost functions used to score layouts.
//
// A metric either scores individual n-grams (IndividualCost) and sums them
// through SumUnigrams, SumBigrams or SumTrigrams, or computes its total over
// the whole collection at once.
package metrics

import (
	"github.com/verte-zerg/layopt/internal/layout"
	"github.com/verte-zerg/layopt/internal/ngram"
)

// LayoutMetric scores a layout without looking at n-grams.
type LayoutMetric interface {
	Name() string
	TotalCost(l *layout.Layout) (float64, string)
}

// UnigramMetric scores weighted unigrams.
type UnigramMetric interface {
	Name() string
	TotalCost(unigrams []ngram.Unigram, totalWeight float64, l *layout.Layout) (float64, string)
}

// BigramMetric scores weighted bigrams.
type BigramMetric interface {
	Name() string
	TotalCost(bigrams []ngram.Bigram, totalWeight float64, l *layout.Layout) (float64, string)
}

// TrigramMetric scores weighted trigrams.
type TrigramMetric interface {
	Name() string
	TotalCost(trigrams []ngram.Trigram, totalWeight float64, l *layout.Layout) (float64, string)
}

// UnigramCoster computes the cost of a single unigram; ok is false when no cost applies.
type UnigramCoster interface {
	IndividualCost(k *layout.LayerKey, weight, totalWeight float64, l *layout.Layout) (cost float64, ok bool)
}

// BigramCoster computes the cost of a single bigram; ok is false when no cost applies.
type BigramCoster interface {
	IndividualCost(k1, k2 *layout.LayerKey, weight, totalWeight float64, l *layout.Layout) (cost float64, ok bool)
}

// TrigramCoster computes the cost of a single trigram; ok is false when no cost applies.
type TrigramCoster interface {
	IndividualCost(k1, k2, k3 *layout.LayerKey, weight, totalWeight float64, l *layout.Layout) (cost float64, ok bool)
}

// SumUnigrams adds up the individual unigram costs and describes the worst offenders.
func SumUnigrams(c UnigramCoster, unigrams []ngram.Unigram, totalWeight float64, l *layout.Layout) (float64, string) {
	if totalWeight == 0 {
		for _, u := range unigrams {
			totalWeight += u.Weight
		}
	}
	var total, withModifier float64
	worst := newWorstSet[ngram.Unigram](worstCount)
	for _, u := range unigrams {
		cost, ok := c.IndividualCost(u.Key, u.Weight, totalWeight, l)
		if !ok {
			continue
		}
		total += cost
		if u.Key.IsModifier {
			withModifier += cost
		}
		worst.offer(u, cost)
	}
	return total, worst.message("unigrams", total, withModifier, func(u ngram.Unigram) string {
		return escapeSymbol(u.Key.Symbol)
	})
}

// SumBigrams adds up the individual bigram costs and describes the worst offenders.
func SumBigrams(c BigramCoster, bigrams []ngram.Bigram, totalWeight float64, l *layout.Layout) (float64, string) {
	if totalWeight == 0 {
		for _, b := range bigrams {
			totalWeight += b.Weight
		}
	}
	var total, withModifier float64
	worst := newWorstSet[ngram.Bigram](worstCount)
	for _, b := range bigrams {
		cost, ok := c.IndividualCost(b.K1, b.K2, b.Weight, totalWeight, l)
		if !ok {
			continue
		}
		total += cost
		if b.K1.IsModifier || b.K2.IsModifier {
			withModifier += cost
		}
		worst.offer(b, cost)
	}
	return total, worst.message("bigrams", total, withModifier, func(b ngram.Bigram) string {
		return escapeSymbol(b.K1.Symbol) + escapeSymbol(b.K2.Symbol)
	})
}

// SumTrigrams adds up the individual trigram costs and describes the worst offenders.
func SumTrigrams(c TrigramCoster, trigrams []ngram.Trigram, totalWeight float64, l *layout.Layout) (float64, string) {
	if totalWeight == 0 {
		for _, t := range trigrams {
			totalWeight += t.Weight
		}
	}
	var total, withModifier float64
	worst := newWorstSet[ngram.Trigram](worstCount)
	for _, t := range trigrams {
		cost, ok := c.IndividualCost(t.K1, t.K2, t.K3, t.Weight, totalWeight, l)
		if !ok {
			continue
		}
		total += cost
		if t.K1.IsModifier || t.K2.IsModifier || t.K3.IsModifier {
			withModifier += cost
		}
		worst.offer(t, cost)
	}
	return total, worst.message("trigrams", total, withModifier, func(t ngram.Trigram) string {
		return escapeSymbol(t.K1.Symbol) + escapeSymbol(t.K2.Symbol) + escapeSymbol(t.K3.Symbol)
	})
}
