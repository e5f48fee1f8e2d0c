// Package config provides configuration helpers and TOML parsing.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/layopt/internal/evaluation"
	"github.com/verte-zerg/layopt/internal/ngram"
	"github.com/verte-zerg/layopt/internal/optimization"
)

//go:embed default.toml
var defaultConfig string

// DefaultConfig returns the bundled configuration file.
func DefaultConfig() string {
	return defaultConfig
}

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Keyboard    KeyboardConfig          `toml:"keyboard"`
	Layout      LayoutConfig            `toml:"layout"`
	Ngrams      NgramsConfig            `toml:"ngrams"`
	NgramMapper ngram.MapperConfig      `toml:"ngram_mapper"`
	Metrics     map[string]MetricConfig `toml:"metrics"`
	Genetic     GeneticConfig           `toml:"genetic"`
	Annealing   AnnealingConfig         `toml:"annealing"`
	Store       StoreConfig             `toml:"store"`

	// Dir resolves relative n-gram paths.
	Dir  string `toml:"-"`
	meta toml.MetaData
}

// KeyConfig describes one physical key.
type KeyConfig struct {
	Hand        string  `toml:"hand"`
	Finger      string  `toml:"finger"`
	Col         int     `toml:"col"`
	Row         int     `toml:"row"`
	Cost        float64 `toml:"cost"`
	Symmetry    int     `toml:"symmetry"`
	Unbalancing float64 `toml:"unbalancing"`
}

// KeyboardConfig maps the keyboard geometry.
type KeyboardConfig struct {
	Keys         []KeyConfig `toml:"keys"`
	PlotTemplate string      `toml:"plot_template"`
	CompactRows  []int       `toml:"compact_rows"`
}

// LayoutConfig maps the base layout.
type LayoutConfig struct {
	// Keys holds the layer symbols of every key, base layer first.
	Keys       []string    `toml:"keys"`
	Fixed      []int       `toml:"fixed"`
	LayerCosts []float64   `toml:"layer_costs"`
	Modifiers  []Modifiers `toml:"modifiers"`
}

// Modifiers lists the modifier symbols per hand for one layer above the base.
type Modifiers struct {
	Left  string `toml:"left"`
	Right string `toml:"right"`
}

// NgramsConfig maps n-gram frequency files. Empty paths use bundled data.
type NgramsConfig struct {
	Unigrams string `toml:"unigrams"`
	Bigrams  string `toml:"bigrams"`
	Trigrams string `toml:"trigrams"`
}

// MetricConfig maps one [metrics.<name>] table.
type MetricConfig struct {
	Enabled       *bool                    `toml:"enabled"`
	Weight        float64                  `toml:"weight"`
	Normalization evaluation.Normalization `toml:"normalization"`
	Params        toml.Primitive           `toml:"params"`
}

// GeneticConfig maps evolutionary search settings.
type GeneticConfig struct {
	PopulationSize   *int     `toml:"population_size"`
	GenerationLimit  *int     `toml:"generation_limit"`
	SelectionRatio   *float64 `toml:"selection_ratio"`
	TournamentSize   *int     `toml:"tournament_size"`
	MutationRate     *float64 `toml:"mutation_rate"`
	ReinsertionRatio *float64 `toml:"reinsertion_ratio"`
	Seed             *int64   `toml:"seed"`
}

// AnnealingConfig maps simulated annealing settings.
type AnnealingConfig struct {
	InitTemp    *float64 `toml:"init_temp"`
	MaxIters    *int     `toml:"max_iters"`
	StallBest   *int     `toml:"stall_best"`
	Schedule    *string  `toml:"schedule"`
	CoolingRate *float64 `toml:"cooling_rate"`
	LogEvery    *int     `toml:"log_every"`
	Seed        *int64   `toml:"seed"`
	Workers     *int     `toml:"workers"`
}

// StoreConfig maps persistence settings.
type StoreConfig struct {
	Path *string `toml:"path"`
}

// LoadConfig reads a TOML config from the given path. A missing file yields
// the bundled default configuration.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ParseConfig(defaultConfig, "")
		}
		return FileConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(string(data), dirOf(path))
}

// ParseConfig decodes a configuration. dir resolves relative n-gram paths.
func ParseConfig(data, dir string) (FileConfig, error) {
	var cfg FileConfig
	meta, err := toml.Decode(data, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.meta = meta
	cfg.Dir = dir
	return cfg, nil
}

// MetricSpecs returns the enabled metrics in name order. Parameters are
// decoded strictly: unknown keys are an error.
func (c FileConfig) MetricSpecs() []evaluation.MetricSpec {
	names := make([]string, 0, len(c.Metrics))
	for name, m := range c.Metrics {
		if m.Enabled != nil && !*m.Enabled {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]evaluation.MetricSpec, 0, len(names))
	for _, name := range names {
		m := c.Metrics[name]
		spec := evaluation.MetricSpec{Name: name, Weight: m.Weight, Normalization: m.Normalization}
		if c.meta.IsDefined("metrics", name, "params") {
			spec.Decode = c.paramsDecoder(name, m.Params)
		}
		specs = append(specs, spec)
	}
	return specs
}

func (c FileConfig) paramsDecoder(name string, params toml.Primitive) evaluation.DecodeFunc {
	return func(v any) error {
		if err := c.meta.PrimitiveDecode(params, v); err != nil {
			return fmt.Errorf("failed to decode params: %w", err)
		}
		prefix := "metrics." + name + ".params."
		var unknown []string
		for _, key := range c.meta.Undecoded() {
			if k := key.String(); strings.HasPrefix(k, prefix) {
				unknown = append(unknown, strings.TrimPrefix(k, prefix))
			}
		}
		if len(unknown) > 0 {
			return fmt.Errorf("unknown params: %s", strings.Join(unknown, ", "))
		}
		return nil
	}
}

// GeneticParams overlays the configured values onto the defaults.
func (c GeneticConfig) GeneticParams() optimization.GeneticParams {
	p := optimization.DefaultGeneticParams()
	if c.PopulationSize != nil {
		p.PopulationSize = *c.PopulationSize
	}
	if c.GenerationLimit != nil {
		p.GenerationLimit = *c.GenerationLimit
	}
	if c.SelectionRatio != nil {
		p.SelectionRatio = *c.SelectionRatio
	}
	if c.TournamentSize != nil {
		p.TournamentSize = *c.TournamentSize
	}
	if c.MutationRate != nil {
		p.MutationRate = *c.MutationRate
	}
	if c.ReinsertionRatio != nil {
		p.ReinsertionRatio = *c.ReinsertionRatio
	}
	if c.Seed != nil {
		p.Seed = *c.Seed
	}
	return p
}

// AnnealingParams overlays the configured values onto the defaults.
func (c AnnealingConfig) AnnealingParams() optimization.AnnealingParams {
	p := optimization.DefaultAnnealingParams()
	if c.InitTemp != nil {
		p.InitTemp = *c.InitTemp
	}
	if c.MaxIters != nil {
		p.MaxIters = *c.MaxIters
	}
	if c.StallBest != nil {
		p.StallBest = *c.StallBest
	}
	if c.Schedule != nil {
		p.Schedule = *c.Schedule
	}
	if c.CoolingRate != nil {
		p.CoolingRate = *c.CoolingRate
	}
	if c.LogEvery != nil {
		p.LogEvery = *c.LogEvery
	}
	if c.Seed != nil {
		p.Seed = *c.Seed
	}
	return p
}
