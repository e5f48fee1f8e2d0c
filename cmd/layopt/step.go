package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/layopt/internal/model"
	"github.com/verte-zerg/layopt/internal/optimization"
	"github.com/verte-zerg/layopt/internal/store"
	"github.com/verte-zerg/layopt/internal/tui"
)

func newStepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Step through an evolutionary search interactively",
		Args:  cobra.NoArgs,
		RunE:  runStepCmd,
	}
	cmd.Flags().StringVar(&optFix, "fix", "", "symbols that keep their place in the start layout")
	cmd.Flags().StringVar(&optFixFrom, "fix-from", "", "layout the --fix symbols are taken from (default: base layout)")
	cmd.Flags().StringVar(&optStartLayout, "start-layout", "", "start from this layout instead of random ones")
	cmd.Flags().IntVar(&optGenerationLimit, "generation-limit", 0, "maximum number of generations")
	cmd.Flags().BoolVar(&optNoCache, "no-cache", false, "do not cache layout costs")
	cmd.Flags().BoolVar(&optSave, "save", false, "store the final layout in the database")
	cmd.Flags().Int64Var(&optSeed, "seed", 0, "random seed (0: seed from the clock)")
	return cmd
}

func runStepCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	params := s.cfg.Genetic.GeneticParams()
	applyIntConfig(cmd, "generation-limit", &optGenerationLimit, &params.GenerationLimit)
	applyInt64Config(cmd, "seed", &optSeed, &params.Seed)
	params.GenerationLimit = optGenerationLimit
	params.Seed = optSeed

	start, fromLayout := s.startFrom(optStartLayout)
	cache, err := newCache(optNoCache)
	if err != nil {
		return err
	}
	obj, err := s.objective(start, optFix, cache)
	if err != nil {
		return err
	}
	sim, err := optimization.NewSimulator(params, obj, fromLayout, optimization.RunRNG(params.Seed, 0))
	if err != nil {
		return fmt.Errorf("failed to start search: %w", err)
	}

	var st *store.Store
	if optSave {
		if st, err = openStore(s.cfg); err != nil {
			return err
		}
		defer closeStore(st)
	}

	onFinish := func(res optimization.StepResult, history []float64) error {
		if st == nil {
			return nil
		}
		points := make([]model.CostPoint, len(history))
		for i, c := range history {
			points[i] = model.CostPoint{Step: i + 1, Cost: c}
		}
		l, evalRes := obj.Evaluate(res.AllTimeBest.Genome)
		return saveSolution(context.Background(), st, model.OptimizerGenetic, start, optFix, evalRes, l, res.Generation, points)
	}

	program := tea.NewProgram(tui.NewModel(sim, obj, onFinish), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
