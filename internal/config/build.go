package config

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"path/filepath"

	"github.com/verte-zerg/layopt/internal/evaluation"
	"github.com/verte-zerg/layopt/internal/keyboard"
	"github.com/verte-zerg/layopt/internal/layout"
	"github.com/verte-zerg/layopt/internal/ngram"
)

//go:embed ngrams/*.txt
var bundledNgrams embed.FS

// BuildKeyboard converts the keyboard section into a keyboard.
func (c FileConfig) BuildKeyboard() (*keyboard.Keyboard, error) {
	keys := make([]keyboard.Key, 0, len(c.Keyboard.Keys))
	for i, kc := range c.Keyboard.Keys {
		hand, err := keyboard.ParseHand(kc.Hand)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		finger, err := keyboard.ParseFinger(kc.Finger)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		keys = append(keys, keyboard.Key{
			Hand:          hand,
			Finger:        finger,
			Col:           kc.Col,
			Row:           kc.Row,
			Cost:          kc.Cost,
			SymmetryIndex: kc.Symmetry,
			Unbalancing:   kc.Unbalancing,
		})
	}
	kb, err := keyboard.New(keys, c.Keyboard.PlotTemplate, c.Keyboard.CompactRows)
	if err != nil {
		return nil, fmt.Errorf("failed to build keyboard: %w", err)
	}
	return kb, nil
}

// BuildGenerator builds the layout generator for the configured base layout.
func (c FileConfig) BuildGenerator() (*layout.Generator, error) {
	kb, err := c.BuildKeyboard()
	if err != nil {
		return nil, err
	}
	keyChars := make([][]rune, len(c.Layout.Keys))
	for i, s := range c.Layout.Keys {
		keyChars[i] = []rune(s)
	}
	fixed := make([]bool, len(c.Layout.Keys))
	for _, idx := range c.Layout.Fixed {
		if idx < 0 || idx >= len(fixed) {
			return nil, fmt.Errorf("fixed key index %d out of range", idx)
		}
		fixed[idx] = true
	}
	modifiers := make([]layout.Modifiers, len(c.Layout.Modifiers))
	for i, m := range c.Layout.Modifiers {
		modifiers[i] = layout.Modifiers{
			keyboard.Left:  []rune(m.Left),
			keyboard.Right: []rune(m.Right),
		}
	}
	return layout.NewGenerator(kb, keyChars, fixed, modifiers, c.Layout.LayerCosts)
}

// LoadNgrams reads the configured frequency files. Empty paths fall back to
// the bundled English data.
func (c FileConfig) LoadNgrams() (ngram.Unigrams, ngram.Bigrams, ngram.Trigrams, error) {
	u, err := loadNgrams(c, c.Ngrams.Unigrams, "1-grams.txt", ngram.LoadUnigrams, ngram.ReadUnigrams)
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := loadNgrams(c, c.Ngrams.Bigrams, "2-grams.txt", ngram.LoadBigrams, ngram.ReadBigrams)
	if err != nil {
		return nil, nil, nil, err
	}
	t, err := loadNgrams(c, c.Ngrams.Trigrams, "3-grams.txt", ngram.LoadTrigrams, ngram.ReadTrigrams)
	if err != nil {
		return nil, nil, nil, err
	}
	return u, b, t, nil
}

func loadNgrams[T any](c FileConfig, path, bundled string, load func(string) (T, error), read func(io.Reader) (T, error)) (T, error) {
	if path != "" {
		out, err := load(c.resolve(path))
		if err != nil {
			return out, fmt.Errorf("failed to read n-grams: %w", err)
		}
		return out, nil
	}
	data, err := bundledNgrams.ReadFile("ngrams/" + bundled)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to read n-grams: %w", err)
	}
	out, err := read(bytes.NewReader(data))
	if err != nil {
		return out, fmt.Errorf("failed to parse %s: %w", bundled, err)
	}
	return out, nil
}

func (c FileConfig) resolve(path string) string {
	path = ExpandHome(path)
	if filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// BuildEvaluator loads the n-grams and registers every enabled metric.
func (c FileConfig) BuildEvaluator() (*evaluation.Evaluator, error) {
	u, b, t, err := c.LoadNgrams()
	if err != nil {
		return nil, err
	}
	eval := evaluation.NewEvaluator(ngram.NewMapper(u, b, t, c.NgramMapper))
	if err := eval.AddConfigured(c.MetricSpecs()); err != nil {
		return nil, err
	}
	return eval, nil
}

func dirOf(path string) string {
	return filepath.Dir(path)
}
