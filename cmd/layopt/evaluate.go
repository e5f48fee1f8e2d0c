package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/layopt/internal/evaluation"
	"github.com/verte-zerg/layopt/internal/report"
)

var (
	evaluateJSON  bool
	evaluateLayer int
)

// evaluationOutput is one line of `evaluate --json`.
type evaluationOutput struct {
	TotalCost float64                      `json:"total_cost"`
	Details   *evaluation.EvaluationResult `json:"details"`
	Printed   string                       `json:"printed"`
	Plot      string                       `json:"plot"`
	Layout    string                       `json:"layout"`
}

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [layout...]",
		Short: "Evaluate layouts (the base layout when none is given)",
		RunE:  runEvaluateCmd,
	}
	cmd.Flags().BoolVar(&evaluateJSON, "json", false, "print one JSON object per layout")
	cmd.Flags().IntVar(&evaluateLayer, "layer", 0, "layer to plot")
	return cmd
}

func runEvaluateCmd(cmd *cobra.Command, args []string) error {
	if evaluateLayer < 0 {
		return fmt.Errorf("--layer must be >= 0")
	}
	s, err := loadSession()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{s.gen.Base().AsText()}
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	styled := out == os.Stdout && isTerminal(os.Stdout)
	for _, arg := range args {
		l, err := s.gen.Generate(arg)
		if err != nil {
			return fmt.Errorf("invalid layout %q: %w", arg, err)
		}
		res := s.eval.EvaluateLayout(l)
		if evaluateJSON {
			if err := enc.Encode(evaluationOutput{
				TotalCost: res.TotalCost(),
				Details:   res,
				Printed:   res.String(),
				Plot:      l.PlotLayer(evaluateLayer),
				Layout:    l.AsText(),
			}); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			continue
		}
		if _, err := fmt.Fprintln(out, report.RenderEvaluation(l, res, evaluateLayer, styled)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
