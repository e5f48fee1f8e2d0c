package optimization

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/layopt/internal/evaluation"
	"github.com/verte-zerg/layopt/internal/keyboard"
	"github.com/verte-zerg/layopt/internal/layout"
	"github.com/verte-zerg/layopt/internal/metrics"
	"github.com/verte-zerg/layopt/internal/ngram"
)

func sixKeyGenerator(t *testing.T, fixed []bool) *layout.Generator {
	t.Helper()
	fingers := []keyboard.Finger{keyboard.Index, keyboard.Middle, keyboard.Ring}
	var keys []keyboard.Key
	for _, hand := range []keyboard.Hand{keyboard.Left, keyboard.Right} {
		for i, f := range fingers {
			keys = append(keys, keyboard.Key{Hand: hand, Finger: f, Col: len(keys), Cost: float64(i + 1)})
		}
	}
	kb, err := keyboard.New(keys, "", nil)
	require.NoError(t, err)
	g, err := layout.NewGenerator(kb, [][]rune{{'a'}, {'b'}, {'c'}, {'d'}, {'e'}, {'f'}}, fixed, nil, []float64{0})
	require.NoError(t, err)
	return g
}

func testEvaluator(t *testing.T) *evaluation.Evaluator {
	t.Helper()
	mapper := ngram.NewMapper(
		ngram.Unigrams{'a': 1, 'b': 2, 'c': 3, 'd': 4, 'e': 5, 'f': 6},
		ngram.Bigrams{{'f', 'e'}: 3, {'e', 'd'}: 2, {'a', 'f'}: 1},
		nil,
		ngram.MapperConfig{},
	)
	e := evaluation.NewEvaluator(mapper)
	norm := evaluation.Normalization{Type: evaluation.Fixed, Value: 1}
	require.NoError(t, e.AddMetric(metrics.NewKeyCosts(), 1, norm))
	require.NoError(t, e.AddMetric(metrics.NewFingerRepeats(metrics.FingerRepeatsParams{}), 1, norm))
	return e
}

func testObjective(t *testing.T, cache *Cache) *Objective {
	t.Helper()
	g := sixKeyGenerator(t, make([]bool, 6))
	pg, err := NewPermutationGenerator("abcdef", "", g)
	require.NoError(t, err)
	return NewObjective(pg, testEvaluator(t), cache)
}

func isPermutationOf(t *testing.T, want, got []int) {
	t.Helper()
	a := append([]int(nil), want...)
	b := append([]int(nil), got...)
	sort.Ints(a)
	sort.Ints(b)
	require.Equal(t, a, b)
}

func TestPermutationGeneratorKeepsFixedSymbols(t *testing.T) {
	g := sixKeyGenerator(t, make([]bool, 6))
	pg, err := NewPermutationGenerator("fedcba", "eb", g)
	require.NoError(t, err)
	require.Equal(t, 4, pg.GenomeSize())
	require.Equal(t, "fedcba", pg.GenerateString(pg.Identity()))

	rng := rand.New(rand.NewSource(1))
	for range 20 {
		s := []rune(pg.GenerateString(pg.Random(rng)))
		require.Equal(t, 'e', s[1])
		require.Equal(t, 'b', s[4])
	}

	l, err := pg.Generate([]int{5, 3, 2, 0})
	require.NoError(t, err)
	require.Equal(t, "aecdbf", l.AsText())
	require.Equal(t, l.AsText(), pg.GenerateLayout([]int{5, 3, 2, 0}).AsText())
}

func TestPermutationGeneratorRejectsBadGenomes(t *testing.T) {
	g := sixKeyGenerator(t, make([]bool, 6))
	pg, err := NewPermutationGenerator("abcdef", "", g)
	require.NoError(t, err)

	_, err = pg.Generate([]int{0, 1})
	require.True(t, errors.Is(err, ErrGenomeLength))

	_, err = pg.Generate([]int{0, 0, 1, 2, 3, 4})
	require.Error(t, err)

	require.Panics(t, func() { pg.GenerateLayout([]int{0}) })

	_, err = NewPermutationGenerator("abc", "", g)
	require.True(t, errors.Is(err, layout.ErrLayoutLength))
}

func TestAllFixedKeysYieldBaseLayout(t *testing.T) {
	fixed := []bool{true, true, true, true, true, true}
	g := sixKeyGenerator(t, fixed)
	pg, err := NewPermutationGenerator("", "", g)
	require.NoError(t, err)
	require.Zero(t, pg.GenomeSize())
	require.Same(t, g.Base(), pg.GenerateLayout(nil))
	require.Same(t, g.Base(), pg.GenerateLayout([]int{}))
}

func TestCacheDoesNotChangeCosts(t *testing.T) {
	cache, err := NewCache(64)
	require.NoError(t, err)
	cached := testObjective(t, cache)
	plain := testObjective(t, nil)

	rng := rand.New(rand.NewSource(7))
	genomes := make([][]int, 0, 40)
	for range 20 {
		genomes = append(genomes, cached.Generator().Random(rng))
	}
	genomes = append(genomes, genomes...)

	for _, g := range genomes {
		require.Equal(t, plain.Cost(g), cached.Cost(g))
	}
	require.Positive(t, cache.Len())
	require.LessOrEqual(t, cache.Len(), 20)
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	c.Insert("abc", 1)
	_, ok := c.Get("abc")
	require.False(t, ok)
	require.Zero(t, c.Len())
}

func TestGreedyAcceptsOnlyNonWorseMoves(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for range 10000 {
		curr := rng.Float64() * 100
		cand := rng.Float64() * 100
		if accept(curr, cand, GreedyTemperature, rng) {
			require.LessOrEqual(t, cand, curr)
		}
	}
}

func TestPositiveTemperatureAcceptsSomeWorseMoves(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	var accepted int
	for range 1000 {
		if accept(1, 2, 1, rng) {
			accepted++
		}
	}
	// exp(-1) is about 0.37.
	require.Greater(t, accepted, 250)
	require.Less(t, accepted, 500)
}

type recordingMover struct {
	obj   *Objective
	costs []float64
}

func (m *recordingMover) Propose(genome []int, rng *rand.Rand) []int {
	m.costs = append(m.costs, m.obj.Cost(genome))
	return SwapMove{}.Propose(genome, rng)
}

func TestGreedyAnnealingNeverWorsens(t *testing.T) {
	obj := testObjective(t, nil)
	mover := &recordingMover{obj: obj}
	a := &Annealer{
		Name:      "greedy",
		Params:    AnnealingParams{InitTemp: GreedyTemperature, MaxIters: 300},
		Objective: obj,
		Mover:     mover,
	}
	res, err := a.Run(context.Background(), obj.Generator().Identity(), rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	require.Equal(t, 300, res.Iterations)

	for i := 1; i < len(mover.costs); i++ {
		require.LessOrEqual(t, mover.costs[i], mover.costs[i-1])
	}
	require.Equal(t, obj.Cost(res.Genome), res.Cost)
	require.LessOrEqual(t, res.Cost, obj.Cost(obj.Generator().Identity()))
}

func TestAnnealingStallsAndLogs(t *testing.T) {
	obj := testObjective(t, nil)
	var lines int
	var bests []float64
	a := &Annealer{
		Name:      "stall",
		Params:    AnnealingParams{MaxIters: 100000, StallBest: 50, LogEvery: 10},
		Objective: obj,
		Logf:      func(string, ...any) { lines++ },
		Hook:      func(_ int, _, _, best float64) { bests = append(bests, best) },
	}
	res, err := a.Run(context.Background(), obj.Generator().Identity(), rand.New(rand.NewSource(13)))
	require.NoError(t, err)
	require.Less(t, res.Iterations, 100000)
	require.Positive(t, res.InitTemp)
	require.Equal(t, (res.Iterations+9)/10, lines)
	require.Len(t, bests, res.Iterations)
	for i := 1; i < len(bests); i++ {
		require.LessOrEqual(t, bests[i], bests[i-1])
	}
	require.Equal(t, res.Cost, bests[len(bests)-1])
	isPermutationOf(t, obj.Generator().Identity(), res.Genome)
}

func TestAnnealingHonorsContext(t *testing.T) {
	obj := testObjective(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &Annealer{Params: AnnealingParams{InitTemp: 1, MaxIters: 10}, Objective: obj}
	res, err := a.Run(ctx, obj.Generator().Identity(), rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, res.Iterations)
	require.NotNil(t, res.Genome)
}

func TestSchedulesNeverHeatUp(t *testing.T) {
	for _, s := range []Schedule{FastSchedule{}, BoltzmannSchedule{}, ExponentialSchedule{Rate: 0.99}} {
		prev := s.Temperature(10, 0)
		require.InDelta(t, 10, prev, 1e-12)
		for i := 1; i < 1000; i++ {
			temp := s.Temperature(10, i)
			require.LessOrEqual(t, temp, prev)
			prev = temp
		}
	}
	_, err := NewSchedule("linear", 0)
	require.Error(t, err)
	_, err = NewSchedule("exponential", 1.5)
	require.Error(t, err)
}

func TestAllTimeBestNeverRegresses(t *testing.T) {
	obj := testObjective(t, nil)
	params := GeneticParams{
		PopulationSize:   6,
		GenerationLimit:  60,
		SelectionRatio:   1,
		TournamentSize:   1,
		MutationRate:     0.5,
		ReinsertionRatio: 1,
	}
	sim, err := NewSimulator(params, obj, true, rand.New(rand.NewSource(17)))
	require.NoError(t, err)

	var prev int64
	for {
		res, err := sim.Step()
		require.NoError(t, err)
		if res.Kind == StepFinal {
			require.Equal(t, 60, res.Generation)
			break
		}
		require.GreaterOrEqual(t, res.AllTimeBest.Fitness, prev)
		require.GreaterOrEqual(t, res.AllTimeBest.Fitness, res.Best.Fitness)
		isPermutationOf(t, obj.Generator().Identity(), res.Best.Genome)
		prev = res.AllTimeBest.Fitness
	}

	best, ok := sim.AllTimeBest()
	require.True(t, ok)
	require.Equal(t, obj.Fitness(best.Genome), best.Fitness)
}

// permutations calls f with every ordering of genome.
func permutations(genome []int, k int, f func([]int)) {
	if k == len(genome) {
		f(genome)
		return
	}
	for i := k; i < len(genome); i++ {
		genome[k], genome[i] = genome[i], genome[k]
		permutations(genome, k+1, f)
		genome[k], genome[i] = genome[i], genome[k]
	}
}

func TestSimulatorNeverLosesTheStartLayout(t *testing.T) {
	obj := testObjective(t, nil)
	optimal := obj.Generator().Identity()
	bestCost := obj.Cost(optimal)
	permutations(obj.Generator().Identity(), 0, func(g []int) {
		if c := obj.Cost(g); c < bestCost {
			bestCost = c
			optimal = append([]int(nil), g...)
		}
	})

	// Start from the optimum: every offspring is at most as fit.
	pg, err := NewPermutationGenerator(obj.Generator().GenerateString(optimal), "", sixKeyGenerator(t, make([]bool, 6)))
	require.NoError(t, err)
	start := NewObjective(pg, testEvaluator(t), nil)
	want := start.Fitness(pg.Identity())

	params := GeneticParams{
		PopulationSize:   2,
		GenerationLimit:  3,
		SelectionRatio:   1,
		TournamentSize:   1,
		MutationRate:     1,
		ReinsertionRatio: 1,
	}
	for seed := int64(1); seed <= 20; seed++ {
		sim, err := NewSimulator(params, start, true, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		initial, ok := sim.AllTimeBest()
		require.True(t, ok)
		require.Equal(t, want, initial.Fitness)

		best, err := sim.Run(context.Background(), nil)
		require.NoError(t, err)
		require.GreaterOrEqual(t, best.Fitness, want, "seed %d", seed)
	}
}

func TestSimulatorRun(t *testing.T) {
	obj := testObjective(t, nil)
	params := DefaultGeneticParams()
	params.PopulationSize = 10
	params.GenerationLimit = 5
	sim, err := NewSimulator(params, obj, false, rand.New(rand.NewSource(19)))
	require.NoError(t, err)

	var steps int
	best, err := sim.Run(context.Background(), func(StepResult) { steps++ })
	require.NoError(t, err)
	require.Equal(t, 5, steps)
	require.Equal(t, 5, sim.Generation())
	require.InDelta(t, obj.Cost(best.Genome), best.Cost(), 1e-5*best.Cost())
}

func TestEmptyPopulationFailsStep(t *testing.T) {
	obj := testObjective(t, nil)
	params := DefaultGeneticParams()
	params.PopulationSize = 0
	sim, err := NewSimulator(params, obj, false, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	_, err = sim.Step()
	require.ErrorIs(t, err, ErrEmptyPopulation)

	_, err = sim.Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyPopulation)
}

func TestOperatorsKeepPermutations(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	a := []int{0, 1, 2, 3, 4, 5, 6, 7}
	for range 200 {
		b := append([]int(nil), a...)
		rng.Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })
		child := orderCrossover(a, b, rng)
		isPermutationOf(t, a, child)
		swapMutation(child, 0.3, rng)
		isPermutationOf(t, a, child)

		moved := SwapMove{}.Propose(b, rng)
		var diff int
		for i := range b {
			if b[i] != moved[i] {
				diff++
			}
		}
		require.Equal(t, 2, diff)
	}
	require.Empty(t, orderCrossover(nil, nil, rng))
}

func TestLayoutIteratorCycles(t *testing.T) {
	it := NewLayoutIterator([]string{"x", "y"}, true)
	var got []string
	for range 5 {
		s, ok := it.Next()
		require.True(t, ok)
		got = append(got, s)
	}
	require.Equal(t, []string{"x", "y", "x", "y", "x"}, got)

	once := NewLayoutIterator([]string{"x"}, false)
	_, ok := once.Next()
	require.True(t, ok)
	_, ok = once.Next()
	require.False(t, ok)

	_, ok = NewLayoutIterator(nil, true).Next()
	require.False(t, ok)
}

func TestRunParallelIsolatesFailures(t *testing.T) {
	var runs atomic.Int32
	boom := errors.New("boom")
	err := RunParallel(context.Background(), NewLayoutIterator([]string{"a", "b", "c", "d", "e"}, false), 2,
		func(_ context.Context, i int, start string) error {
			runs.Add(1)
			switch start {
			case "b":
				return boom
			case "c":
				panic("corrupt layout")
			}
			return nil
		})
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "run 2: panic:")
	require.EqualValues(t, 5, runs.Load())
}

func TestRunParallelStopsForeverRunsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	err := RunParallel(ctx, NewLayoutIterator([]string{"a"}, true), 1, func(context.Context, int, string) error {
		if runs.Add(1) == 3 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, runs.Load(), int32(3))
}

func TestRunRNGIsReproducible(t *testing.T) {
	a := RunRNG(42, 3)
	b := RunRNG(42, 3)
	c := RunRNG(42, 4)
	x, y, z := a.Int63(), b.Int63(), c.Int63()
	require.Equal(t, x, y)
	require.NotEqual(t, x, z)
}
