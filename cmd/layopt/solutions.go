package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/layopt/internal/model"
	"github.com/verte-zerg/layopt/internal/report"
)

var (
	solutionsOptimizer string
	solutionsLast      int
	solutionsSince     string
	solutionsHistory   int64
)

func newSolutionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solutions",
		Short: "List saved layouts",
		Args:  cobra.NoArgs,
		RunE:  runSolutionsCmd,
	}
	cmd.Flags().StringVar(&solutionsOptimizer, "optimizer", "", "only solutions of this optimizer (genetic or annealing)")
	cmd.Flags().IntVar(&solutionsLast, "last", 0, "only the N most recent solutions")
	cmd.Flags().StringVar(&solutionsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&solutionsHistory, "history", 0, "plot the cost history of the solution with this ID")
	return cmd
}

func runSolutionsCmd(cmd *cobra.Command, _ []string) error {
	switch solutionsOptimizer {
	case "", model.OptimizerGenetic, model.OptimizerAnnealing:
	default:
		return fmt.Errorf("unknown optimizer %q", solutionsOptimizer)
	}
	if solutionsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	var sinceTime *time.Time
	if solutionsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", solutionsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	cfg, err := loadConfigOnly()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	out := cmd.OutOrStdout()
	if solutionsHistory > 0 {
		history, err := st.ListHistory(ctx, solutionsHistory)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if len(history) == 0 {
			logErrf("no history stored for solution %d\n", solutionsHistory)
			return nil
		}
		title := fmt.Sprintf("Solution %d cost history", solutionsHistory)
		return report.PlotCosts(out, title, []report.Series{report.HistorySeries("best", history)}, report.PlotOptions{})
	}

	sols, err := st.ListSolutions(ctx, model.SolutionFilter{
		Optimizer: solutionsOptimizer,
		Since:     sinceTime,
		Last:      solutionsLast,
	})
	if err != nil {
		return fmt.Errorf("failed to list solutions: %w", err)
	}
	if len(sols) == 0 {
		logErrln("no solutions saved yet")
		return nil
	}
	if _, err := fmt.Fprintln(out, report.SolutionsTable(sols)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
