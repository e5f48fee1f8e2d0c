// Package layout binds symbols to keys and layers of a keyboard.
package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/verte-zerg/layopt/internal/keyboard"
)

// LayerKeyIndex is the position of a LayerKey in a Layout.
//
// It is the hash key of the mapped n-gram tables, so it is kept narrow.
type LayerKeyIndex uint16

// ErrUnknownModifier reports a modifier symbol that no key of the layout produces.
var ErrUnknownModifier = errors.New("modifier is not a supported symbol")

// LayerKey is a symbol produced by pressing a key on a given layer.
type LayerKey struct {
	Layer  int
	Key    keyboard.Key
	Symbol rune
	// Modifiers are the keys needed to reach Layer, pressed by the other hand.
	Modifiers  []LayerKeyIndex
	IsFixed    bool
	IsModifier bool

	keyIndex int
}

// KeyIndex returns the position of the underlying key in the keyboard.
func (k *LayerKey) KeyIndex() int {
	return k.keyIndex
}

// Modifiers maps the hand pressing the modifiers to the modifier symbols of one layer.
type Modifiers map[keyboard.Hand][]rune

// Layout is an immutable assignment of symbols to keys and layers.
type Layout struct {
	layerKeys  []LayerKey
	keyboard   *keyboard.Keyboard
	keyLayers  [][]LayerKeyIndex
	symbolMap  map[rune]LayerKeyIndex
	layerCosts []float64
}

// New builds a layout. keyChars holds the symbols of every layer for each key
// of the keyboard; modifiers holds one entry per layer above the base layer.
func New(keyChars [][]rune, fixedKeys []bool, kb *keyboard.Keyboard, modifiers []Modifiers, layerCosts []float64) (*Layout, error) {
	if len(keyChars) != len(kb.Keys) {
		return nil, fmt.Errorf("layout has %d keys, keyboard has %d", len(keyChars), len(kb.Keys))
	}
	if len(fixedKeys) != len(kb.Keys) {
		return nil, fmt.Errorf("fixed key mask has %d entries, keyboard has %d", len(fixedKeys), len(kb.Keys))
	}

	total := 0
	for keyIndex, chars := range keyChars {
		if len(chars) == 0 {
			return nil, fmt.Errorf("key %d has no base layer symbol", keyIndex)
		}
		total += len(chars)
	}
	if total > math.MaxUint16+1 {
		return nil, fmt.Errorf("layout has %d layer keys, at most %d are supported", total, math.MaxUint16+1)
	}

	layerKeys := make([]LayerKey, 0, total)
	keyLayers := make([][]LayerKeyIndex, len(keyChars))
	for keyIndex, chars := range keyChars {
		indices := make([]LayerKeyIndex, len(chars))
		for layer, c := range chars {
			indices[layer] = LayerKeyIndex(len(layerKeys))
			layerKeys = append(layerKeys, LayerKey{
				Layer:    layer,
				Key:      kb.Keys[keyIndex],
				Symbol:   c,
				IsFixed:  fixedKeys[keyIndex],
				keyIndex: keyIndex,
			})
		}
		keyLayers[keyIndex] = indices
	}

	l := &Layout{
		layerKeys:  layerKeys,
		keyboard:   kb,
		keyLayers:  keyLayers,
		layerCosts: layerCosts,
	}
	l.symbolMap = l.buildSymbolMap()

	resolved := make([]map[keyboard.Hand][]LayerKeyIndex, len(modifiers))
	for layer, perHand := range modifiers {
		resolved[layer] = make(map[keyboard.Hand][]LayerKeyIndex, len(perHand))
		for hand, symbols := range perHand {
			mods := make([]LayerKeyIndex, 0, len(symbols))
			for _, s := range symbols {
				idx, ok := l.symbolMap[s]
				if !ok {
					return nil, fmt.Errorf("%w: %q", ErrUnknownModifier, s)
				}
				mods = append(mods, idx)
				l.layerKeys[idx].IsModifier = true
			}
			resolved[layer][hand] = mods
		}
	}

	for i := range l.layerKeys {
		k := &l.layerKeys[i]
		if k.Layer == 0 || k.Layer > len(resolved) {
			continue
		}
		mods := resolved[k.Layer-1][k.Key.Hand.Other()]
		if len(mods) > 0 {
			k.Modifiers = append([]LayerKeyIndex(nil), mods...)
		}
	}

	return l, nil
}

// buildSymbolMap picks the cheapest representation of every symbol. Costs
// within 0.01 of each other count as equal and the lower layer wins.
func (l *Layout) buildSymbolMap() map[rune]LayerKeyIndex {
	m := make(map[rune]LayerKeyIndex, len(l.layerKeys))
	for i := range l.layerKeys {
		k := &l.layerKeys[i]
		idx := LayerKeyIndex(i)
		existing, ok := m[k.Symbol]
		if !ok {
			m[k.Symbol] = idx
			continue
		}
		e := &l.layerKeys[existing]
		existingCost := e.Key.Cost + l.LayerCost(e.Layer)
		newCost := k.Key.Cost + l.LayerCost(k.Layer)
		if newCost < existingCost ||
			(math.Abs(newCost-existingCost) < 0.01 && k.Layer < e.Layer) {
			m[k.Symbol] = idx
		}
	}
	return m
}

// Keyboard returns the keyboard the layout is built on.
func (l *Layout) Keyboard() *keyboard.Keyboard {
	return l.keyboard
}

// Len returns the number of layer keys.
func (l *Layout) Len() int {
	return len(l.layerKeys)
}

// LayerKey returns the layer key at idx.
func (l *Layout) LayerKey(idx LayerKeyIndex) *LayerKey {
	return &l.layerKeys[idx]
}

// LayerKeyForSymbol returns the cheapest layer key producing s.
func (l *Layout) LayerKeyForSymbol(s rune) (*LayerKey, bool) {
	idx, ok := l.symbolMap[s]
	if !ok {
		return nil, false
	}
	return &l.layerKeys[idx], true
}

// LayerKeyIndexForSymbol returns the index of the cheapest layer key producing s.
func (l *Layout) LayerKeyIndexForSymbol(s rune) (LayerKeyIndex, bool) {
	idx, ok := l.symbolMap[s]
	return idx, ok
}

// BaseLayerKeyIndex returns the base layer sibling of idx (e.g. "A" -> "a").
func (l *Layout) BaseLayerKeyIndex(idx LayerKeyIndex) LayerKeyIndex {
	return l.keyLayers[l.layerKeys[idx].keyIndex][0]
}

// ResolveModifiers returns the base layer key of idx and the modifiers needed to reach it.
func (l *Layout) ResolveModifiers(idx LayerKeyIndex) (LayerKeyIndex, []LayerKeyIndex) {
	return l.BaseLayerKeyIndex(idx), l.layerKeys[idx].Modifiers
}

// LayerCost returns the cost of a layer, 0 when it is not configured.
func (l *Layout) LayerCost(layer int) float64 {
	if layer < 0 || layer >= len(l.layerCosts) {
		return 0
	}
	return l.layerCosts[layer]
}

// PlotLayer renders one layer with the keyboard's plot template. Keys with
// fewer layers show their highest layer.
func (l *Layout) PlotLayer(layer int) string {
	symbols := make([]string, len(l.keyLayers))
	for i, indices := range l.keyLayers {
		switch {
		case len(indices) > layer:
			symbols[i] = displaySymbol(l.layerKeys[indices[layer]].Symbol)
		case len(indices) > 0:
			symbols[i] = displaySymbol(l.layerKeys[indices[len(indices)-1]].Symbol)
		default:
			symbols[i] = " "
		}
	}
	return l.keyboard.Plot(symbols)
}

// Plot renders the base layer.
func (l *Layout) Plot() string {
	return l.PlotLayer(0)
}

// PlotCompact renders the non-fixed keys of the base layer without borders.
func (l *Layout) PlotCompact() string {
	var symbols []string
	for _, indices := range l.keyLayers {
		k := &l.layerKeys[indices[0]]
		if k.IsFixed {
			continue
		}
		symbols = append(symbols, string(k.Symbol))
	}
	return l.keyboard.PlotCompact(symbols)
}

// AsText concatenates the base layer symbols of all non-fixed keys.
func (l *Layout) AsText() string {
	var b strings.Builder
	for _, indices := range l.keyLayers {
		k := &l.layerKeys[indices[0]]
		if k.IsFixed {
			continue
		}
		b.WriteRune(k.Symbol)
	}
	return b.String()
}

func (l *Layout) String() string {
	return l.AsText()
}

func displaySymbol(s rune) string {
	switch s {
	case '\n':
		return "⏎"
	case '\t':
		return "⇥"
	case '␡':
		return " "
	default:
		return string(s)
	}
}
