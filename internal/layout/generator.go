package layout

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/layopt/internal/keyboard"
)

var (
	// ErrLayoutLength reports a layout string that does not cover every non-fixed key.
	ErrLayoutLength = errors.New("layout string length does not match the number of non-fixed keys")
	// ErrUnknownSymbol reports a symbol that the base layout does not know.
	ErrUnknownSymbol = errors.New("symbol is not part of the base layout")
	// ErrDuplicateSymbol reports a symbol used twice in a layout string.
	ErrDuplicateSymbol = errors.New("symbol appears more than once")
)

// Generator turns layout strings into layouts. A layout string lists the
// base layer symbols of the non-fixed keys, left to right and top to bottom.
// Each symbol brings along the higher layers of the key it sits on in the
// base layout.
type Generator struct {
	keyboard   *keyboard.Keyboard
	keyChars   [][]rune
	fixed      []bool
	modifiers  []Modifiers
	layerCosts []float64

	freeKeys   []int
	columns    map[rune][]rune
	permutable []rune
	base       *Layout
}

// NewGenerator validates the base layout and prepares the symbol columns.
func NewGenerator(kb *keyboard.Keyboard, keyChars [][]rune, fixed []bool, modifiers []Modifiers, layerCosts []float64) (*Generator, error) {
	base, err := New(keyChars, fixed, kb, modifiers, layerCosts)
	if err != nil {
		return nil, fmt.Errorf("failed to build base layout: %w", err)
	}
	g := &Generator{
		keyboard:   kb,
		keyChars:   keyChars,
		fixed:      fixed,
		modifiers:  modifiers,
		layerCosts: layerCosts,
		columns:    make(map[rune][]rune),
		base:       base,
	}
	for i, chars := range keyChars {
		if fixed[i] {
			continue
		}
		if _, dup := g.columns[chars[0]]; dup {
			return nil, fmt.Errorf("base layout: %w: %q", ErrDuplicateSymbol, chars[0])
		}
		g.freeKeys = append(g.freeKeys, i)
		g.columns[chars[0]] = chars
		g.permutable = append(g.permutable, chars[0])
	}
	return g, nil
}

// Base returns the base layout.
func (g *Generator) Base() *Layout {
	return g.base
}

// Keyboard returns the underlying keyboard.
func (g *Generator) Keyboard() *keyboard.Keyboard {
	return g.keyboard
}

// PermutableKeys returns the base layer symbols of the non-fixed keys.
func (g *Generator) PermutableKeys() []rune {
	return append([]rune(nil), g.permutable...)
}

// Generate validates the layout string against the base layout and builds it.
func (g *Generator) Generate(s string) (*Layout, error) {
	runes := []rune(s)
	if len(runes) != len(g.freeKeys) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLayoutLength, len(runes), len(g.freeKeys))
	}
	seen := make(map[rune]struct{}, len(runes))
	for _, r := range runes {
		if _, ok := g.columns[r]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, r)
		}
		if _, ok := seen[r]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSymbol, r)
		}
		seen[r] = struct{}{}
	}
	return g.build(runes)
}

// GenerateUnchecked builds the layout without validating the symbol set.
// Unknown symbols occupy a single layer.
func (g *Generator) GenerateUnchecked(s string) (*Layout, error) {
	runes := []rune(s)
	if len(runes) != len(g.freeKeys) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLayoutLength, len(runes), len(g.freeKeys))
	}
	return g.build(runes)
}

func (g *Generator) build(runes []rune) (*Layout, error) {
	if len(runes) == 0 {
		return g.base, nil
	}
	keyChars := make([][]rune, len(g.keyChars))
	copy(keyChars, g.keyChars)
	for i, r := range runes {
		column, ok := g.columns[r]
		if !ok {
			column = []rune{r}
		}
		keyChars[g.freeKeys[i]] = column
	}
	return New(keyChars, g.fixed, g.keyboard, g.modifiers, g.layerCosts)
}
