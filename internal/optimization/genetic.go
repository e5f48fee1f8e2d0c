package optimization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ErrEmptyPopulation is returned by Step when there is nothing to evolve.
var ErrEmptyPopulation = errors.New("population is empty")

// GeneticParams configures the evolutionary search.
type GeneticParams struct {
	PopulationSize int `toml:"population_size"`
	// GenerationLimit stops the search after that many generations; 0 runs
	// until the context is canceled.
	GenerationLimit  int     `toml:"generation_limit"`
	SelectionRatio   float64 `toml:"selection_ratio"`
	TournamentSize   int     `toml:"tournament_size"`
	MutationRate     float64 `toml:"mutation_rate"`
	ReinsertionRatio float64 `toml:"reinsertion_ratio"`
	Seed             int64   `toml:"seed"`
}

// DefaultGeneticParams returns the parameters used when none are configured.
func DefaultGeneticParams() GeneticParams {
	return GeneticParams{
		PopulationSize:   100,
		GenerationLimit:  1000,
		SelectionRatio:   0.7,
		TournamentSize:   3,
		MutationRate:     0.05,
		ReinsertionRatio: 0.7,
	}
}

// Validate checks the ratios and sizes.
func (p GeneticParams) Validate() error {
	if p.PopulationSize < 0 {
		return fmt.Errorf("population_size must be >= 0")
	}
	if p.GenerationLimit < 0 {
		return fmt.Errorf("generation_limit must be >= 0")
	}
	if p.SelectionRatio <= 0 || p.SelectionRatio > 1 {
		return fmt.Errorf("selection_ratio must be in (0, 1]")
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return fmt.Errorf("mutation_rate must be in [0, 1]")
	}
	if p.ReinsertionRatio < 0 || p.ReinsertionRatio > 1 {
		return fmt.Errorf("reinsertion_ratio must be in [0, 1]")
	}
	if p.TournamentSize < 1 {
		return fmt.Errorf("tournament_size must be >= 1")
	}
	return nil
}

// Individual is a genome with its fitness.
type Individual struct {
	Genome  []int
	Fitness int64
}

// Cost converts the fitness back to a layout cost.
func (ind Individual) Cost() float64 {
	if ind.Fitness <= 0 {
		return math.Inf(1)
	}
	return 1e8 / float64(ind.Fitness)
}

func (ind Individual) clone() Individual {
	g := make([]int, len(ind.Genome))
	copy(g, ind.Genome)
	return Individual{Genome: g, Fitness: ind.Fitness}
}

// StepKind tells whether a step advanced the search or found it finished.
type StepKind int

const (
	StepIntermediate StepKind = iota
	StepFinal
)

// StepResult reports one generation.
type StepResult struct {
	Kind       StepKind
	Generation int
	// Best is the best individual of the current population.
	Best Individual
	// AllTimeBest never gets worse across steps.
	AllTimeBest Individual
}

// Simulator runs the evolutionary search one generation at a time. It is
// not safe for concurrent use.
type Simulator struct {
	params     GeneticParams
	obj        *Objective
	rng        *rand.Rand
	population []Individual
	generation int

	allTimeBest Individual
	hasBest     bool
}

// NewSimulator builds the initial population. With startWithLayout the
// start layout itself is part of it; every other individual is random. The
// best initial individual is the first all-time best.
func NewSimulator(params GeneticParams, obj *Objective, startWithLayout bool, rng *rand.Rand) (*Simulator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{params: params, obj: obj, rng: rng}
	gen := obj.Generator()
	for i := 0; i < params.PopulationSize; i++ {
		var genome []int
		if i == 0 && startWithLayout {
			genome = gen.Identity()
		} else {
			genome = gen.Random(rng)
		}
		s.population = append(s.population, Individual{Genome: genome, Fitness: obj.Fitness(genome)})
	}
	if len(s.population) > 0 {
		s.allTimeBest = s.populationBest().clone()
		s.hasBest = true
	}
	return s, nil
}

// Generation returns the number of completed generations.
func (s *Simulator) Generation() int {
	return s.generation
}

// Params returns the search parameters.
func (s *Simulator) Params() GeneticParams {
	return s.params
}

// AllTimeBest returns the best individual seen so far.
func (s *Simulator) AllTimeBest() (Individual, bool) {
	return s.allTimeBest, s.hasBest
}

// Step advances the search by one generation. Once the generation limit is
// reached it returns a StepFinal result without changing the population.
func (s *Simulator) Step() (StepResult, error) {
	if len(s.population) == 0 {
		return StepResult{}, ErrEmptyPopulation
	}
	if s.params.GenerationLimit > 0 && s.generation >= s.params.GenerationLimit {
		return StepResult{Kind: StepFinal, Generation: s.generation, Best: s.populationBest(), AllTimeBest: s.allTimeBest}, nil
	}

	offspring := s.breed()
	s.reinsert(offspring)
	s.generation++

	best := s.populationBest()
	if !s.hasBest || best.Fitness > s.allTimeBest.Fitness {
		s.allTimeBest = best.clone()
		s.hasBest = true
	}
	return StepResult{Kind: StepIntermediate, Generation: s.generation, Best: best, AllTimeBest: s.allTimeBest}, nil
}

// Run steps until the generation limit or until ctx is done. onStep, if
// set, sees every intermediate step.
func (s *Simulator) Run(ctx context.Context, onStep func(StepResult)) (Individual, error) {
	for {
		if err := ctx.Err(); err != nil {
			return s.allTimeBest, err
		}
		res, err := s.Step()
		if err != nil {
			return s.allTimeBest, err
		}
		if res.Kind == StepFinal {
			return res.AllTimeBest, nil
		}
		if onStep != nil {
			onStep(res)
		}
	}
}

func (s *Simulator) populationBest() Individual {
	best := s.population[0]
	for _, ind := range s.population[1:] {
		if ind.Fitness > best.Fitness {
			best = ind
		}
	}
	return best
}

// breed produces one child per selected pair of tournament winners.
func (s *Simulator) breed() []Individual {
	n := int(math.Round(float64(len(s.population)) * s.params.SelectionRatio))
	if n < 1 {
		n = 1
	}
	children := make([]Individual, 0, n)
	for range n {
		p1 := s.tournament()
		p2 := s.tournament()
		child := orderCrossover(p1.Genome, p2.Genome, s.rng)
		swapMutation(child, s.params.MutationRate, s.rng)
		children = append(children, Individual{Genome: child, Fitness: s.obj.Fitness(child)})
	}
	return children
}

func (s *Simulator) tournament() Individual {
	best := s.population[s.rng.Intn(len(s.population))]
	for i := 1; i < s.params.TournamentSize; i++ {
		c := s.population[s.rng.Intn(len(s.population))]
		if c.Fitness > best.Fitness {
			best = c
		}
	}
	return best
}

// reinsert replaces part of the population by the fittest offspring. The
// rest of the population is filled with the fittest parents, so with a
// reinsertion ratio of 1 the previous elite may be lost.
func (s *Simulator) reinsert(offspring []Individual) {
	size := len(s.population)
	byFitness := func(inds []Individual) {
		sort.SliceStable(inds, func(i, j int) bool { return inds[i].Fitness > inds[j].Fitness })
	}
	byFitness(offspring)
	byFitness(s.population)

	k := int(math.Round(float64(size) * s.params.ReinsertionRatio))
	k = min(k, len(offspring))
	next := make([]Individual, 0, size)
	next = append(next, offspring[:k]...)
	next = append(next, s.population[:size-k]...)
	s.population = next
}

// orderCrossover copies a random slice of a and fills the remaining
// positions with the missing genes in the order they appear in b.
func orderCrossover(a, b []int, rng *rand.Rand) []int {
	n := len(a)
	child := make([]int, n)
	if n < 2 {
		copy(child, a)
		return child
	}
	lo, hi := rng.Intn(n), rng.Intn(n)
	if lo > hi {
		lo, hi = hi, lo
	}
	used := make(map[int]bool, hi-lo+1)
	for i := lo; i <= hi; i++ {
		child[i] = a[i]
		used[a[i]] = true
	}
	pos := (hi + 1) % n
	for i := 0; i < n; i++ {
		g := b[(hi+1+i)%n]
		if used[g] {
			continue
		}
		child[pos] = g
		pos = (pos + 1) % n
	}
	return child
}

// swapMutation swaps every gene with a random partner with the given rate.
func swapMutation(genome []int, rate float64, rng *rand.Rand) {
	if len(genome) < 2 {
		return
	}
	for i := range genome {
		if rng.Float64() < rate {
			j := rng.Intn(len(genome))
			genome[i], genome[j] = genome[j], genome[i]
		}
	}
}
