package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/layopt/internal/model"
	"github.com/verte-zerg/layopt/internal/optimization"
	"github.com/verte-zerg/layopt/internal/report"
	"github.com/verte-zerg/layopt/internal/store"
)

// historySamples bounds the number of cost points kept per annealing run.
const historySamples = 500

var (
	optFix             string
	optFixFrom         string
	optNoCache         bool
	optRunForever      bool
	optSave            bool
	optPlot            bool
	optSeed            int64
	optStartLayout     string
	optGenerationLimit int

	saStartLayouts  []string
	saInitTemp      float64
	saGreedy        bool
	saLogEverything bool
	saWorkers       int
)

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&optFix, "fix", "", "symbols that keep their place in the start layout")
	cmd.Flags().StringVar(&optFixFrom, "fix-from", "", "layout the --fix symbols are taken from (default: base layout)")
	cmd.Flags().BoolVar(&optNoCache, "no-cache", false, "do not cache layout costs")
	cmd.Flags().BoolVar(&optRunForever, "run-forever", false, "repeat optimizations until interrupted")
	cmd.Flags().BoolVar(&optSave, "save", false, "store found layouts in the database")
	cmd.Flags().BoolVar(&optPlot, "plot", false, "plot the cost history of every run")
	cmd.Flags().Int64Var(&optSeed, "seed", 0, "random seed (0: seed from the clock)")
}

func newOptimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Optimize a layout with an evolutionary search",
		Args:  cobra.NoArgs,
		RunE:  runOptimizeCmd,
	}
	addSearchFlags(cmd)
	cmd.Flags().StringVar(&optStartLayout, "start-layout", "", "start from this layout instead of random ones")
	cmd.Flags().IntVar(&optGenerationLimit, "generation-limit", 0, "maximum number of generations")
	return cmd
}

func newOptimizeSACmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize-sa",
		Short: "Optimize layouts with simulated annealing",
		Args:  cobra.NoArgs,
		RunE:  runOptimizeSACmd,
	}
	addSearchFlags(cmd)
	cmd.Flags().StringSliceVar(&saStartLayouts, "start-layouts", nil, "start layouts, one run each")
	cmd.Flags().Float64Var(&saInitTemp, "init-temp", 0, "initial temperature (default: calibrated)")
	cmd.Flags().BoolVar(&saGreedy, "greedy", false, "only accept improvements")
	cmd.Flags().BoolVar(&saLogEverything, "log-everything", false, "log every iteration")
	cmd.Flags().IntVar(&saWorkers, "workers", 0, "parallel runs (0: one per CPU)")
	return cmd
}

// startFrom returns the layout the search starts from and whether it was
// given explicitly.
func (s *session) startFrom(explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	if optFixFrom != "" {
		return optFixFrom, false
	}
	return s.gen.Base().AsText(), false
}

func runOptimizeCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	params := s.cfg.Genetic.GeneticParams()
	applyIntConfig(cmd, "generation-limit", &optGenerationLimit, &params.GenerationLimit)
	applyInt64Config(cmd, "seed", &optSeed, &params.Seed)
	params.GenerationLimit = optGenerationLimit
	params.Seed = optSeed
	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid genetic parameters: %w", err)
	}

	start, fromLayout := s.startFrom(optStartLayout)
	cache, err := newCache(optNoCache)
	if err != nil {
		return err
	}
	obj, err := s.objective(start, optFix, cache)
	if err != nil {
		return err
	}

	var st *store.Store
	if optSave {
		if st, err = openStore(s.cfg); err != nil {
			return err
		}
		defer closeStore(st)
	}

	ctx, stop := interruptContext()
	defer stop()

	for i := 0; ; i++ {
		rng := optimization.RunRNG(params.Seed, i)
		sim, err := optimization.NewSimulator(params, obj, fromLayout, rng)
		if err != nil {
			return fmt.Errorf("failed to start search: %w", err)
		}
		var history []model.CostPoint
		last := 0.0
		best, err := sim.Run(ctx, func(res optimization.StepResult) {
			cost := res.AllTimeBest.Cost()
			history = append(history, model.CostPoint{Step: res.Generation, Cost: cost})
			if res.Generation == 1 || cost < last {
				logErrf("Generation %5d: best %.4f\n", res.Generation, cost)
			}
			last = cost
		})
		interrupted := errors.Is(err, context.Canceled)
		if err != nil && !interrupted {
			return fmt.Errorf("search failed: %w", err)
		}
		if best.Genome != nil {
			if err := finishRun(ctx, st, model.OptimizerGenetic, start, obj, best.Genome, sim.Generation(), history, "Evolutionary search"); err != nil {
				return err
			}
		}
		if interrupted || !optRunForever {
			return nil
		}
	}
}

var printMu sync.Mutex

// finishRun prints, plots and optionally saves the result of one run.
func finishRun(ctx context.Context, st *store.Store, optimizer, start string, obj *optimization.Objective, genome []int, steps int, history []model.CostPoint, title string) error {
	l, res := obj.Evaluate(genome)

	printMu.Lock()
	defer printMu.Unlock()
	fmt.Println(l.Plot())
	fmt.Println(l.PlotCompact())
	fmt.Println(res)
	if optPlot && len(history) > 0 {
		series := report.HistorySeries("best", history)
		if err := report.PlotCosts(os.Stdout, title+" cost history", []report.Series{series}, report.PlotOptions{}); err != nil {
			return fmt.Errorf("failed to plot: %w", err)
		}
	}
	if st != nil {
		return saveSolution(ctx, st, optimizer, start, optFix, res, l, steps, history)
	}
	return nil
}

func runOptimizeSACmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	params := s.cfg.Annealing.AnnealingParams()
	if saGreedy {
		params.InitTemp = optimization.GreedyTemperature
	} else if cmd.Flags().Changed("init-temp") {
		if saInitTemp <= 0 {
			return fmt.Errorf("--init-temp must be > 0")
		}
		params.InitTemp = saInitTemp
	}
	if saLogEverything {
		params.LogEvery = 1
	}
	applyInt64Config(cmd, "seed", &optSeed, &params.Seed)
	params.Seed = optSeed
	applyIntConfig(cmd, "workers", &saWorkers, s.cfg.Annealing.Workers)
	if saWorkers < 0 {
		return fmt.Errorf("--workers must be >= 0")
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid annealing parameters: %w", err)
	}

	layouts := saStartLayouts
	fromLayout := len(layouts) > 0
	if !fromLayout {
		start, _ := s.startFrom("")
		layouts = []string{start}
	}
	// Reject bad start layouts before any run begins.
	for _, l := range layouts {
		if _, err := s.objective(l, optFix, nil); err != nil {
			return err
		}
	}

	cache, err := newCache(optNoCache)
	if err != nil {
		return err
	}
	var st *store.Store
	if optSave {
		if st, err = openStore(s.cfg); err != nil {
			return err
		}
		defer closeStore(st)
	}

	ctx, stop := interruptContext()
	defer stop()

	it := optimization.NewLayoutIterator(layouts, optRunForever)
	err = optimization.RunParallel(ctx, it, saWorkers, func(ctx context.Context, i int, start string) error {
		if fromLayout {
			logErrf("Starting optimization %d from %s\n", i, start)
		} else {
			logErrf("Starting optimization %d\n", i)
		}
		obj, err := s.objective(start, optFix, cache)
		if err != nil {
			return err
		}
		rng := optimization.RunRNG(params.Seed, i)
		genome := obj.Generator().Identity()
		if !fromLayout {
			genome = obj.Generator().Random(rng)
		}

		every := max(1, params.MaxIters/historySamples)
		var history []model.CostPoint
		a := &optimization.Annealer{
			Name:      fmt.Sprintf("Process %3d", i),
			Params:    params,
			Objective: obj,
			Logf:      logLine,
			Hook: func(iter int, _, _, best float64) {
				if iter%every == 0 {
					history = append(history, model.CostPoint{Step: iter, Cost: best})
				}
			},
		}
		res, err := a.Run(ctx, genome, rng)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		title := fmt.Sprintf("Process %d", i)
		return finishRun(ctx, st, model.OptimizerAnnealing, start, obj, res.Genome, res.Iterations, history, title)
	})
	if err != nil {
		return fmt.Errorf("optimization failed:\n%s", indent(err.Error()))
	}
	return nil
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}

