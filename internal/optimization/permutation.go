// Package optimization searches the permutation space of the non-fixed keys
// with an evolutionary search and with simulated annealing.
package optimization

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/verte-zerg/layopt/internal/layout"
)

// ErrGenomeLength is returned when a genome does not cover exactly the
// permutable positions of a layout.
var ErrGenomeLength = errors.New("genome length does not match permutable keys")

// PermutationGenerator maps genomes onto layouts. A genome is a permutation
// of the positions of the start layout string that are not fixed; position
// i of the genome names the start layout position whose symbol moves to the
// i-th permutable position.
type PermutationGenerator struct {
	gen        *layout.Generator
	start      []rune
	permutable []int
}

// NewPermutationGenerator validates startLayout against g. Symbols listed in
// fixed keep their place in startLayout.
func NewPermutationGenerator(startLayout, fixed string, g *layout.Generator) (*PermutationGenerator, error) {
	if _, err := g.Generate(startLayout); err != nil {
		return nil, fmt.Errorf("failed to use start layout %q: %w", startLayout, err)
	}
	start := []rune(startLayout)
	permutable := make([]int, 0, len(start))
	for i, r := range start {
		if strings.ContainsRune(fixed, r) {
			continue
		}
		permutable = append(permutable, i)
	}
	return &PermutationGenerator{gen: g, start: start, permutable: permutable}, nil
}

// GenomeSize returns the number of permutable positions.
func (p *PermutationGenerator) GenomeSize() int {
	return len(p.permutable)
}

// Identity returns the genome that reproduces the start layout.
func (p *PermutationGenerator) Identity() []int {
	g := make([]int, len(p.permutable))
	copy(g, p.permutable)
	return g
}

// Random returns a random genome.
func (p *PermutationGenerator) Random(rng *rand.Rand) []int {
	g := p.Identity()
	rng.Shuffle(len(g), func(i, j int) { g[i], g[j] = g[j], g[i] })
	return g
}

// GenerateString returns the layout string of genome. It panics if the
// genome length is wrong.
func (p *PermutationGenerator) GenerateString(genome []int) string {
	if len(genome) != len(p.permutable) {
		panic(fmt.Sprintf("%v: got %d, want %d", ErrGenomeLength, len(genome), len(p.permutable)))
	}
	out := make([]rune, len(p.start))
	copy(out, p.start)
	for i, pos := range p.permutable {
		out[pos] = p.start[genome[i]]
	}
	return string(out)
}

// GenerateLayout builds the layout of genome without validating the symbols.
// Genomes are produced by the search itself, so a bad one is a bug and panics.
func (p *PermutationGenerator) GenerateLayout(genome []int) *layout.Layout {
	l, err := p.gen.GenerateUnchecked(p.GenerateString(genome))
	if err != nil {
		panic(err)
	}
	return l
}

// Generate builds the layout of genome and validates it.
func (p *PermutationGenerator) Generate(genome []int) (*layout.Layout, error) {
	if len(genome) != len(p.permutable) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrGenomeLength, len(genome), len(p.permutable))
	}
	free := make(map[int]bool, len(p.permutable))
	for _, pos := range p.permutable {
		free[pos] = true
	}
	for _, v := range genome {
		if !free[v] {
			return nil, fmt.Errorf("genome is not a permutation of the free positions: %v", genome)
		}
		delete(free, v)
	}
	return p.gen.Generate(p.GenerateString(genome))
}
