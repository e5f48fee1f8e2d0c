package metrics

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/layopt/internal/keyboard"
	"github.com/verte-zerg/layopt/internal/layout"
)

// ShortcutKeysParams lists the symbols used in common shortcuts.
type ShortcutKeysParams struct {
	Shortcuts string `toml:"shortcuts"`
}

// ShortcutKeys charges shortcut symbols that the left hand cannot reach
// while the right hand holds the mouse.
type ShortcutKeys struct {
	shortcuts []rune
}

// NewShortcutKeys returns the metric.
func NewShortcutKeys(p ShortcutKeysParams) *ShortcutKeys {
	return &ShortcutKeys{shortcuts: []rune(p.Shortcuts)}
}

func (m *ShortcutKeys) Name() string { return "Shortcut Keys" }

func (m *ShortcutKeys) TotalCost(l *layout.Layout) (float64, string) {
	var misplaced []string
	for _, s := range m.shortcuts {
		k, ok := l.LayerKeyForSymbol(s)
		if ok && k.Key.Hand == keyboard.Left && k.Layer == 0 {
			continue
		}
		misplaced = append(misplaced, escapeSymbol(s))
	}
	if len(misplaced) == 0 {
		return 0, ""
	}
	return float64(len(misplaced)), fmt.Sprintf("Not on left base layer: %s", strings.Join(misplaced, " "))
}
