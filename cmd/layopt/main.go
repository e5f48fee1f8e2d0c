// Package main provides the CLI entrypoint for layopt.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/layopt/internal/config"
	"github.com/verte-zerg/layopt/internal/evaluation"
	"github.com/verte-zerg/layopt/internal/layout"
	"github.com/verte-zerg/layopt/internal/model"
	"github.com/verte-zerg/layopt/internal/optimization"
	"github.com/verte-zerg/layopt/internal/store"
)

var configPath string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "layopt",
		Short:         "Keyboard layout optimizer",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "path to the TOML config")

	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newOptimizeCmd())
	rootCmd.AddCommand(newOptimizeSACmd())
	rootCmd.AddCommand(newStepCmd())
	rootCmd.AddCommand(newSolutionsCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

// session holds everything built from the config file.
type session struct {
	cfg  config.FileConfig
	gen  *layout.Generator
	eval *evaluation.Evaluator
}

func loadConfigOnly() (config.FileConfig, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func loadSession() (*session, error) {
	cfg, err := loadConfigOnly()
	if err != nil {
		return nil, err
	}
	gen, err := cfg.BuildGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to build layout: %w", err)
	}
	eval, err := cfg.BuildEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluator: %w", err)
	}
	return &session{cfg: cfg, gen: gen, eval: eval}, nil
}

// objective builds the genome objective for one start layout.
func (s *session) objective(start, fix string, cache *optimization.Cache) (*optimization.Objective, error) {
	pg, err := optimization.NewPermutationGenerator(start, fix, s.gen)
	if err != nil {
		return nil, err
	}
	return optimization.NewObjective(pg, s.eval, cache), nil
}

func newCache(disabled bool) (*optimization.Cache, error) {
	if disabled {
		return nil, nil
	}
	cache, err := optimization.NewCache(optimization.DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return cache, nil
}

func openStore(cfg config.FileConfig) (*store.Store, error) {
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if st == nil {
		return
	}
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// saveSolution stores a found layout and the cost history of its run.
func saveSolution(ctx context.Context, st *store.Store, optimizer, start, fix string, res *evaluation.EvaluationResult, l *layout.Layout, steps int, history []model.CostPoint) error {
	sol := model.Solution{
		FoundAt:     time.Now(),
		Optimizer:   optimizer,
		Layout:      l.AsText(),
		StartLayout: start,
		Fixed:       fix,
		Cost:        res.TotalCost(),
		Score:       res.OptimizationScore(),
		Steps:       steps,
	}
	// The run may have been interrupted; the solution is still worth keeping.
	id, err := st.InsertSolution(context.WithoutCancel(ctx), sol, history)
	if err != nil {
		return fmt.Errorf("failed to save solution: %w", err)
	}
	logErrf("Saved solution %d\n", id)
	return nil
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultConfig()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

// logLine adapts logErrf to the engines' line-oriented Logf hooks.
func logLine(format string, args ...any) {
	logErrf(format+"\n", args...)
}
