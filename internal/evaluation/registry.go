package evaluation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/verte-zerg/layopt/internal/metrics"
)

// ErrUnknownMetric is returned for metric names missing from the registry.
var ErrUnknownMetric = errors.New("unknown metric")

// DecodeFunc decodes a metric's raw parameters into v. A nil DecodeFunc
// leaves v at its zero value.
type DecodeFunc func(v any) error

// Factory builds a metric from its raw parameters.
type Factory func(decode DecodeFunc) (any, error)

func decodeParams(decode DecodeFunc, v any) error {
	if decode == nil {
		return nil
	}
	return decode(v)
}

// noParams wraps a constructor of a metric without parameters.
func noParams[M any](newMetric func() M) Factory {
	return func(decode DecodeFunc) (any, error) {
		// Any key in a params table of such a metric is unknown.
		if err := decodeParams(decode, &struct{}{}); err != nil {
			return nil, err
		}
		return newMetric(), nil
	}
}

// withParams wraps a constructor that cannot fail.
func withParams[P, M any](newMetric func(P) M) Factory {
	return func(decode DecodeFunc) (any, error) {
		var p P
		if err := decodeParams(decode, &p); err != nil {
			return nil, err
		}
		return newMetric(p), nil
	}
}

// withCheckedParams wraps a constructor that validates its parameters.
func withCheckedParams[P, M any](newMetric func(P) (M, error)) Factory {
	return func(decode DecodeFunc) (any, error) {
		var p P
		if err := decodeParams(decode, &p); err != nil {
			return nil, err
		}
		m, err := newMetric(p)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// Registry maps configuration names to metric factories.
var Registry = map[string]Factory{
	// layout
	"shortcut_keys": withParams(metrics.NewShortcutKeys),

	// unigram
	"key_costs":       noParams(metrics.NewKeyCosts),
	"hand_disbalance": noParams(metrics.NewHandDisbalance),
	"finger_balance":  withCheckedParams(metrics.NewFingerBalance),

	// bigram
	"finger_repeats":                      withParams(metrics.NewFingerRepeats),
	"finger_repeats_lateral":              noParams(metrics.NewFingerRepeatsLateral),
	"finger_repeats_top_bottom":           noParams(metrics.NewFingerRepeatsTopBottom),
	"line_changes":                        withParams(metrics.NewLineChanges),
	"movement_pattern":                    withCheckedParams(metrics.NewMovementPattern),
	"manual_bigram_penalty":               withCheckedParams(metrics.NewManualBigramPenalty),
	"no_handswitch_after_unbalancing_key": noParams(metrics.NewNoHandswitchAfterUnbalancingKey),
	"unbalancing_after_neighboring":       noParams(metrics.NewUnbalancingAfterNeighboring),
	"asymmetric_bigrams":                  noParams(metrics.NewAsymmetricBigrams),

	// trigram
	"no_handswitch_in_trigram": withParams(metrics.NewNoHandswitchInTrigram),
	"secondary_bigrams":        withParams(metrics.NewSecondaryBigrams),
}

// MetricNames returns the registered names in sorted order.
func MetricNames() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MetricSpec is one configured metric.
type MetricSpec struct {
	Name          string
	Weight        float64
	Normalization Normalization
	Decode        DecodeFunc
}

// AddConfigured builds every spec through the registry and adds it to e.
func (e *Evaluator) AddConfigured(specs []MetricSpec) error {
	for _, s := range specs {
		factory, ok := Registry[s.Name]
		if !ok {
			return fmt.Errorf("%w: %q (known: %s)", ErrUnknownMetric, s.Name, strings.Join(MetricNames(), ", "))
		}
		m, err := factory(s.Decode)
		if err != nil {
			return fmt.Errorf("failed to build metric %s: %w", s.Name, err)
		}
		if err := e.AddMetric(m, s.Weight, s.Normalization); err != nil {
			return fmt.Errorf("failed to add metric %s: %w", s.Name, err)
		}
	}
	return nil
}
