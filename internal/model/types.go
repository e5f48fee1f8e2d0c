// Package model defines shared data structures.
package model

import "time"

// Optimizer names used when persisting solutions.
const (
	OptimizerGenetic   = "genetic"
	OptimizerAnnealing = "annealing"
)

// Solution is a layout found by one optimization run.
type Solution struct {
	ID          int64
	FoundAt     time.Time
	Optimizer   string
	Layout      string
	StartLayout string
	Fixed       string
	Cost        float64
	Score       int64
	// Steps counts generations or iterations.
	Steps int
}

// CostPoint is the best cost after a given step of a run.
type CostPoint struct {
	Step int
	Cost float64
}

// SolutionFilter selects stored solutions.
type SolutionFilter struct {
	Optimizer string
	Since     *time.Time
	Last      int
}
