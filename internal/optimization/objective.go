package optimization

import (
	"math"

	"github.com/verte-zerg/layopt/internal/evaluation"
	"github.com/verte-zerg/layopt/internal/layout"
)

// Objective computes the cost of genomes, consulting the cache first.
type Objective struct {
	gen   *PermutationGenerator
	eval  *evaluation.Evaluator
	cache *Cache
}

// NewObjective returns an objective. cache may be nil.
func NewObjective(gen *PermutationGenerator, eval *evaluation.Evaluator, cache *Cache) *Objective {
	return &Objective{gen: gen, eval: eval, cache: cache}
}

// Generator returns the genome to layout mapping.
func (o *Objective) Generator() *PermutationGenerator {
	return o.gen
}

// Cost returns the total cost of genome's layout.
func (o *Objective) Cost(genome []int) float64 {
	key := o.gen.GenerateString(genome)
	if cost, ok := o.cache.Get(key); ok {
		return cost
	}
	cost := o.eval.EvaluateLayout(o.gen.GenerateLayout(genome)).TotalCost()
	o.cache.Insert(key, cost)
	return cost
}

// Fitness maps genome's cost to a higher-is-better integer.
func (o *Objective) Fitness(genome []int) int64 {
	return fitnessFromCost(o.Cost(genome))
}

// Evaluate returns the full evaluation of genome's layout.
func (o *Objective) Evaluate(genome []int) (*layout.Layout, *evaluation.EvaluationResult) {
	l := o.gen.GenerateLayout(genome)
	return l, o.eval.EvaluateLayout(l)
}

func fitnessFromCost(cost float64) int64 {
	f := 1e8 / cost
	if cost <= 0 || f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}
