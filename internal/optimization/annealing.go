package optimization

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// GreedyTemperature turns simulated annealing into hill climbing: no
// strictly worse move is ever accepted.
const GreedyTemperature = math.SmallestNonzeroFloat64

// calibrationSamples is the number of random moves used to pick an initial
// temperature, and calibrationAcceptance the probability with which the
// mean worsening move is accepted at that temperature.
const (
	calibrationSamples    = 100
	calibrationAcceptance = 0.8
)

// AnnealingParams configures simulated annealing.
type AnnealingParams struct {
	// InitTemp is the starting temperature; 0 calibrates it from the start genome.
	InitTemp float64 `toml:"init_temp"`
	MaxIters int     `toml:"max_iters"`
	// StallBest stops a run after that many iterations without a new best; 0 disables it.
	StallBest int `toml:"stall_best"`
	// Schedule is one of "fast", "boltzmann" or "exponential".
	Schedule    string  `toml:"schedule"`
	CoolingRate float64 `toml:"cooling_rate"`
	// LogEvery logs every n-th iteration; 1 logs all of them.
	LogEvery int   `toml:"log_every"`
	Seed     int64 `toml:"seed"`
}

// DefaultAnnealingParams returns the parameters used when none are configured.
func DefaultAnnealingParams() AnnealingParams {
	return AnnealingParams{
		MaxIters:    10000,
		StallBest:   5000,
		Schedule:    "fast",
		CoolingRate: 0.999,
		LogEvery:    100,
	}
}

// Validate checks the parameters.
func (p AnnealingParams) Validate() error {
	if p.InitTemp < 0 {
		return fmt.Errorf("init_temp must be >= 0")
	}
	if p.MaxIters <= 0 {
		return fmt.Errorf("max_iters must be > 0")
	}
	if p.StallBest < 0 {
		return fmt.Errorf("stall_best must be >= 0")
	}
	if _, err := NewSchedule(p.Schedule, p.CoolingRate); err != nil {
		return err
	}
	return nil
}

// Schedule maps an iteration to a temperature. Temperatures never increase
// with the iteration.
type Schedule interface {
	Temperature(t0 float64, iter int) float64
}

// FastSchedule cools as t0 / (iter+1).
type FastSchedule struct{}

func (FastSchedule) Temperature(t0 float64, iter int) float64 {
	return t0 / float64(iter+1)
}

// BoltzmannSchedule cools as t0 / ln(iter+e).
type BoltzmannSchedule struct{}

func (BoltzmannSchedule) Temperature(t0 float64, iter int) float64 {
	return t0 / math.Log(float64(iter)+math.E)
}

// ExponentialSchedule cools as t0 * rate^iter.
type ExponentialSchedule struct {
	Rate float64
}

func (s ExponentialSchedule) Temperature(t0 float64, iter int) float64 {
	return t0 * math.Pow(s.Rate, float64(iter))
}

// NewSchedule returns the schedule with the given name.
func NewSchedule(name string, rate float64) (Schedule, error) {
	switch name {
	case "", "fast":
		return FastSchedule{}, nil
	case "boltzmann":
		return BoltzmannSchedule{}, nil
	case "exponential":
		if rate <= 0 || rate > 1 {
			return nil, fmt.Errorf("cooling_rate must be in (0, 1]")
		}
		return ExponentialSchedule{Rate: rate}, nil
	default:
		return nil, fmt.Errorf("unknown schedule %q", name)
	}
}

// Mover proposes a neighbor of genome without modifying it.
type Mover interface {
	Propose(genome []int, rng *rand.Rand) []int
}

// SwapMove exchanges two random genes.
type SwapMove struct{}

func (SwapMove) Propose(genome []int, rng *rand.Rand) []int {
	out := make([]int, len(genome))
	copy(out, genome)
	if len(out) < 2 {
		return out
	}
	i := rng.Intn(len(out))
	j := rng.Intn(len(out) - 1)
	if j >= i {
		j++
	}
	out[i], out[j] = out[j], out[i]
	return out
}

// accept reports whether a move from curr to cand is taken at temp.
func accept(curr, cand, temp float64, rng *rand.Rand) bool {
	if cand <= curr {
		return true
	}
	if temp <= 0 {
		return false
	}
	return rng.Float64() < math.Exp(-(cand-curr)/temp)
}

// AnnealingResult is the outcome of one run.
type AnnealingResult struct {
	Genome     []int
	Cost       float64
	Iterations int
	Accepted   int
	InitTemp   float64
}

// Annealer runs simulated annealing over genomes of one objective.
type Annealer struct {
	Name      string
	Params    AnnealingParams
	Objective *Objective
	Mover     Mover
	// Logf receives progress lines. Optional.
	Logf func(format string, args ...any)
	// Hook sees every iteration after the acceptance decision. Optional.
	Hook func(iter int, temp, current, best float64)
}

// Run anneals from start. It stops after MaxIters iterations, after
// StallBest iterations without a new best, or when ctx is done, and returns
// the best genome seen.
func (a *Annealer) Run(ctx context.Context, start []int, rng *rand.Rand) (AnnealingResult, error) {
	if err := a.Params.Validate(); err != nil {
		return AnnealingResult{}, err
	}
	schedule, _ := NewSchedule(a.Params.Schedule, a.Params.CoolingRate)
	mover := a.Mover
	if mover == nil {
		mover = SwapMove{}
	}

	current := append([]int(nil), start...)
	currentCost := a.Objective.Cost(current)
	best := current
	bestCost := currentCost

	t0 := a.Params.InitTemp
	if t0 == 0 {
		t0 = a.calibrate(current, currentCost, mover, rng)
	}

	res := AnnealingResult{InitTemp: t0}
	sinceBest := 0
	for iter := 0; iter < a.Params.MaxIters; iter++ {
		if err := ctx.Err(); err != nil {
			res.Genome, res.Cost = best, bestCost
			return res, err
		}

		temp := schedule.Temperature(t0, iter)
		cand := mover.Propose(current, rng)
		candCost := a.Objective.Cost(cand)
		if accept(currentCost, candCost, temp, rng) {
			current, currentCost = cand, candCost
			res.Accepted++
		}
		res.Iterations++

		if currentCost < bestCost {
			best, bestCost = current, currentCost
			sinceBest = 0
		} else {
			sinceBest++
		}

		a.log(iter, temp, currentCost, bestCost)
		if a.Hook != nil {
			a.Hook(iter, temp, currentCost, bestCost)
		}

		if a.Params.StallBest > 0 && sinceBest >= a.Params.StallBest {
			break
		}
	}

	res.Genome, res.Cost = best, bestCost
	return res, nil
}

// calibrate picks the temperature at which the mean worsening move of a
// random sample is accepted with probability calibrationAcceptance.
func (a *Annealer) calibrate(start []int, startCost float64, mover Mover, rng *rand.Rand) float64 {
	var sum float64
	var n int
	for range calibrationSamples {
		d := a.Objective.Cost(mover.Propose(start, rng)) - startCost
		if d > 0 {
			sum += d
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return -(sum / float64(n)) / math.Log(calibrationAcceptance)
}

func (a *Annealer) log(iter int, temp, current, best float64) {
	if a.Logf == nil {
		return
	}
	every := a.Params.LogEvery
	if every > 1 && iter%every != 0 {
		return
	}
	a.Logf("%s: iter %6d, temp %10.4g, current %.4f, best %.4f", a.Name, iter, temp, current, best)
}
