package ngram

import (
	"sort"

	"github.com/verte-zerg/layopt/internal/layout"
)

// MapperConfig controls how symbols on higher layers are mapped.
type MapperConfig struct {
	// SplitModifiers replaces higher layer symbols by their base key and
	// charges the modifiers separately.
	SplitModifiers bool `toml:"split_modifiers" json:"split_modifiers"`
}

// Unigram is a weighted layer key.
type Unigram struct {
	Key    *layout.LayerKey
	Weight float64
}

// Bigram is a weighted ordered pair of layer keys.
type Bigram struct {
	K1, K2 *layout.LayerKey
	Weight float64
}

// Trigram is a weighted ordered triple of layer keys.
type Trigram struct {
	K1, K2, K3 *layout.LayerKey
	Weight     float64
}

// Mapped holds the n-grams of a corpus resolved against one layout. Found
// weights sum the mapped n-grams, not-found weights the n-grams containing a
// symbol the layout cannot produce.
type Mapped struct {
	Unigrams []Unigram
	Bigrams  []Bigram
	Trigrams []Trigram

	UnigramsFound, UnigramsNotFound float64
	BigramsFound, BigramsNotFound   float64
	TrigramsFound, TrigramsNotFound float64
}

type unigramEntry struct {
	s rune
	w float64
}

type bigramEntry struct {
	s [2]rune
	w float64
}

type trigramEntry struct {
	s [3]rune
	w float64
}

// Mapper resolves symbol n-grams against layouts. It is immutable and safe
// for concurrent use.
type Mapper struct {
	unigrams []unigramEntry
	bigrams  []bigramEntry
	trigrams []trigramEntry
	cfg      MapperConfig
}

// NewMapper sorts the n-grams by descending weight so mapping is deterministic.
func NewMapper(u Unigrams, b Bigrams, t Trigrams, cfg MapperConfig) *Mapper {
	m := &Mapper{cfg: cfg}
	for s, w := range u {
		m.unigrams = append(m.unigrams, unigramEntry{s: s, w: w})
	}
	for s, w := range b {
		m.bigrams = append(m.bigrams, bigramEntry{s: s, w: w})
	}
	for s, w := range t {
		m.trigrams = append(m.trigrams, trigramEntry{s: s, w: w})
	}
	sort.Slice(m.unigrams, func(i, j int) bool {
		if m.unigrams[i].w == m.unigrams[j].w {
			return m.unigrams[i].s < m.unigrams[j].s
		}
		return m.unigrams[i].w > m.unigrams[j].w
	})
	sort.Slice(m.bigrams, func(i, j int) bool {
		a, b := m.bigrams[i], m.bigrams[j]
		if a.w == b.w {
			return lessRunes(a.s[:], b.s[:])
		}
		return a.w > b.w
	})
	sort.Slice(m.trigrams, func(i, j int) bool {
		a, b := m.trigrams[i], m.trigrams[j]
		if a.w == b.w {
			return lessRunes(a.s[:], b.s[:])
		}
		return a.w > b.w
	})
	return m
}

func lessRunes(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Map resolves all n-grams against l.
func (m *Mapper) Map(l *layout.Layout) Mapped {
	var out Mapped
	out.Unigrams, out.UnigramsFound, out.UnigramsNotFound = m.mapUnigrams(l)
	out.Bigrams, out.BigramsFound, out.BigramsNotFound = m.mapBigrams(l)
	out.Trigrams, out.TrigramsFound, out.TrigramsNotFound = m.mapTrigrams(l)
	return out
}

func (m *Mapper) mapUnigrams(l *layout.Layout) ([]Unigram, float64, float64) {
	pos := make(map[layout.LayerKeyIndex]int, len(m.unigrams))
	out := make([]Unigram, 0, len(m.unigrams))
	var found, notFound float64
	add := func(idx layout.LayerKeyIndex, w float64) {
		found += w
		if p, ok := pos[idx]; ok {
			out[p].Weight += w
			return
		}
		pos[idx] = len(out)
		out = append(out, Unigram{Key: l.LayerKey(idx), Weight: w})
	}
	for _, e := range m.unigrams {
		idx, ok := l.LayerKeyIndexForSymbol(e.s)
		if !ok {
			notFound += e.w
			continue
		}
		if !m.cfg.SplitModifiers {
			add(idx, e.w)
			continue
		}
		base, mods := l.ResolveModifiers(idx)
		add(base, e.w)
		for _, mod := range mods {
			add(mod, e.w)
		}
	}
	return out, found, notFound
}

func (m *Mapper) mapBigrams(l *layout.Layout) ([]Bigram, float64, float64) {
	pos := make(map[[2]layout.LayerKeyIndex]int, len(m.bigrams))
	out := make([]Bigram, 0, len(m.bigrams))
	var found, notFound float64
	add := func(i1, i2 layout.LayerKeyIndex, w float64) {
		found += w
		key := [2]layout.LayerKeyIndex{i1, i2}
		if p, ok := pos[key]; ok {
			out[p].Weight += w
			return
		}
		pos[key] = len(out)
		out = append(out, Bigram{K1: l.LayerKey(i1), K2: l.LayerKey(i2), Weight: w})
	}
	for _, e := range m.bigrams {
		i1, ok1 := l.LayerKeyIndexForSymbol(e.s[0])
		i2, ok2 := l.LayerKeyIndexForSymbol(e.s[1])
		if !ok1 || !ok2 {
			notFound += e.w
			continue
		}
		if !m.cfg.SplitModifiers {
			add(i1, i2, e.w)
			continue
		}
		// Every modifier is paired with the key it modifies; the base keys
		// form the main bigram.
		b1, mods1 := l.ResolveModifiers(i1)
		b2, mods2 := l.ResolveModifiers(i2)
		add(b1, b2, e.w)
		for _, mod := range mods1 {
			add(mod, b1, e.w)
		}
		for _, mod := range mods2 {
			add(mod, b2, e.w)
		}
	}
	return out, found, notFound
}

func (m *Mapper) mapTrigrams(l *layout.Layout) ([]Trigram, float64, float64) {
	pos := make(map[[3]layout.LayerKeyIndex]int, len(m.trigrams))
	out := make([]Trigram, 0, len(m.trigrams))
	var found, notFound float64
	for _, e := range m.trigrams {
		i1, ok1 := l.LayerKeyIndexForSymbol(e.s[0])
		i2, ok2 := l.LayerKeyIndexForSymbol(e.s[1])
		i3, ok3 := l.LayerKeyIndexForSymbol(e.s[2])
		if !ok1 || !ok2 || !ok3 {
			notFound += e.w
			continue
		}
		if m.cfg.SplitModifiers {
			i1 = l.BaseLayerKeyIndex(i1)
			i2 = l.BaseLayerKeyIndex(i2)
			i3 = l.BaseLayerKeyIndex(i3)
		}
		found += e.w
		key := [3]layout.LayerKeyIndex{i1, i2, i3}
		if p, ok := pos[key]; ok {
			out[p].Weight += e.w
			continue
		}
		pos[key] = len(out)
		out = append(out, Trigram{K1: l.LayerKey(i1), K2: l.LayerKey(i2), K3: l.LayerKey(i3), Weight: e.w})
	}
	return out, found, notFound
}
