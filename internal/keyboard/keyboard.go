// Package keyboard describes the physical keyboard geometry.
package keyboard

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Hand identifies the hand that presses a key.
type Hand int

const (
	Left Hand = iota
	Right
)

// Other returns the opposite hand.
func (h Hand) Other() Hand {
	if h == Left {
		return Right
	}
	return Left
}

func (h Hand) String() string {
	if h == Left {
		return "left"
	}
	return "right"
}

// ParseHand parses "left" or "right".
func ParseHand(s string) (Hand, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	default:
		return Left, fmt.Errorf("unknown hand %q", s)
	}
}

// Finger identifies the finger that presses a key.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

var fingerNames = []string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if int(f) < 0 || int(f) >= len(fingerNames) {
		return "unknown"
	}
	return fingerNames[f]
}

// ParseFinger parses a finger name.
func ParseFinger(s string) (Finger, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range fingerNames {
		if n == name {
			return Finger(i), nil
		}
	}
	return Thumb, fmt.Errorf("unknown finger %q", s)
}

// Distance returns the number of fingers between f and other on the same hand.
func (f Finger) Distance(other Finger) int {
	d := int(f) - int(other)
	if d < 0 {
		return -d
	}
	return d
}

// Key is a physical key.
type Key struct {
	Hand   Hand
	Finger Finger
	// Col and Row are the matrix position; Row 0 is the top letter row.
	Col int
	Row int
	// Cost is the effort of pressing the key.
	Cost float64
	// SymmetryIndex is shared by a key and its mirror on the other half.
	SymmetryIndex int
	// Unbalancing is > 0 for keys that shift the hand out of its rest position.
	Unbalancing float64
}

// Keyboard is the immutable, ordered set of keys.
type Keyboard struct {
	Keys          []Key
	PlotTemplate  string
	CompactLayout []int
}

// New builds a Keyboard. The plot template contains one "{}" per key.
// compactRows gives the number of non-fixed keys per row for PlotCompact.
func New(keys []Key, plotTemplate string, compactRows []int) (*Keyboard, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("keyboard has no keys")
	}
	if plotTemplate != "" {
		if n := strings.Count(plotTemplate, "{}"); n != len(keys) {
			return nil, fmt.Errorf("plot template has %d placeholders for %d keys", n, len(keys))
		}
	}
	return &Keyboard{
		Keys:          keys,
		PlotTemplate:  plotTemplate,
		CompactLayout: compactRows,
	}, nil
}

// Plot fills the plot template with one symbol per key.
func (k *Keyboard) Plot(symbols []string) string {
	if k.PlotTemplate == "" {
		return strings.Join(padCells(symbols), " ")
	}
	cells := padCells(symbols)
	var b strings.Builder
	rest := k.PlotTemplate
	for _, cell := range cells {
		i := strings.Index(rest, "{}")
		if i < 0 {
			break
		}
		b.WriteString(rest[:i])
		b.WriteString(cell)
		rest = rest[i+2:]
	}
	b.WriteString(rest)
	return b.String()
}

// PlotCompact renders the given symbols without borders, split into rows.
func (k *Keyboard) PlotCompact(symbols []string) string {
	cells := padCells(symbols)
	if len(k.CompactLayout) == 0 {
		return strings.Join(cells, "")
	}
	var lines []string
	pos := 0
	for _, n := range k.CompactLayout {
		if pos >= len(cells) {
			break
		}
		end := pos + n
		if end > len(cells) {
			end = len(cells)
		}
		lines = append(lines, strings.Join(cells[pos:end], ""))
		pos = end
	}
	if pos < len(cells) {
		lines = append(lines, strings.Join(cells[pos:], ""))
	}
	return strings.Join(lines, "\n")
}

// widePlaceholder stands in for symbols wider than one terminal column.
const widePlaceholder = "?"

// padCells turns every symbol into a cell exactly one column wide.
func padCells(symbols []string) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		cell := runewidth.Truncate(s, 1, "")
		if cell == "" && runewidth.StringWidth(s) > 1 {
			cell = widePlaceholder
		}
		out[i] = runewidth.FillRight(cell, 1)
	}
	return out
}
