// Package evaluation turns metric outputs into a normalized, weighted total
// cost and renders the result tree.
package evaluation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// NormalizationKind selects how a metric cost is divided before aggregation.
type NormalizationKind string

const (
	// Fixed divides by Value.
	Fixed NormalizationKind = "fixed"
	// WeightFound divides by Value times the found n-gram weight.
	WeightFound NormalizationKind = "weight_found"
	// WeightAll divides by Value times the found weight plus the not-found weight.
	WeightAll NormalizationKind = "weight_all"
)

// Normalization is a normalization policy with its constant.
type Normalization struct {
	Type  NormalizationKind `toml:"type" json:"type"`
	Value float64           `toml:"value" json:"value"`
}

// Validate checks the policy name.
func (n Normalization) Validate() error {
	switch n.Type {
	case Fixed, WeightFound, WeightAll:
		return nil
	default:
		return fmt.Errorf("unknown normalization type %q", n.Type)
	}
}

// MetricType names the data a metric operates on.
type MetricType int

const (
	LayoutMetrics MetricType = iota
	UnigramMetrics
	BigramMetrics
	TrigramMetrics
)

func (t MetricType) String() string {
	switch t {
	case LayoutMetrics:
		return "Layout"
	case UnigramMetrics:
		return "Unigram"
	case BigramMetrics:
		return "Bigram"
	case TrigramMetrics:
		return "Trigram"
	default:
		return "Unknown"
	}
}

func (t MetricType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// MetricResult is the raw output of one metric.
type MetricResult struct {
	Name          string        `json:"name"`
	Cost          float64       `json:"cost"`
	Message       string        `json:"message,omitempty"`
	Weight        float64       `json:"weight"`
	Normalization Normalization `json:"normalization"`
}

// NormalizedMetricResult adds the normalized costs to a MetricResult.
type NormalizedMetricResult struct {
	MetricResult
	WeightedCost   float64 `json:"weighted_cost"`
	UnweightedCost float64 `json:"unweighted_cost"`
}

// MetricResults groups the results of all metrics of one type.
type MetricResults struct {
	Type           MetricType               `json:"metric_type"`
	FoundWeight    float64                  `json:"found_weight"`
	NotFoundWeight float64                  `json:"not_found_weight"`
	Costs          []NormalizedMetricResult `json:"metric_costs"`
}

// NewMetricResults returns an empty result group.
func NewMetricResults(t MetricType, found, notFound float64) *MetricResults {
	return &MetricResults{Type: t, FoundWeight: found, NotFoundWeight: notFound}
}

// AddResult normalizes r and appends it.
func (mr *MetricResults) AddResult(r MetricResult) {
	mr.Costs = append(mr.Costs, NormalizedMetricResult{
		MetricResult:   r,
		WeightedCost:   mr.normalize(r.Weight*r.Cost, r.Normalization),
		UnweightedCost: mr.normalize(r.Cost, r.Normalization),
	})
}

// normalize divides v according to n. Undefined results (NaN or infinite,
// e.g. when no n-gram was found) count as zero cost.
func (mr *MetricResults) normalize(v float64, n Normalization) float64 {
	var res float64
	switch n.Type {
	case WeightFound:
		res = v / (n.Value * mr.FoundWeight)
	case WeightAll:
		res = v / (n.Value*mr.FoundWeight + mr.NotFoundWeight)
	default:
		res = v / n.Value
	}
	if math.IsNaN(res) || math.IsInf(res, 0) {
		return 0
	}
	return res
}

// TotalCost is the weighted and normalized sum of all metric costs.
func (mr *MetricResults) TotalCost() float64 {
	var total float64
	for _, c := range mr.Costs {
		total += mr.normalize(c.Weight*c.Cost, c.Normalization)
	}
	return total
}

func (mr *MetricResults) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s metrics:\n", mr.Type)
	if mr.Type != LayoutMetrics {
		all := mr.NotFoundWeight + mr.FoundWeight
		var pct float64
		if all > 0 {
			pct = 100 * mr.NotFoundWeight / all
		}
		fmt.Fprintf(&b, "  Not found: %.4f%% of %.4f\n", pct, all)
	}
	for _, c := range mr.Costs {
		fmt.Fprintf(&b, "  %9.4f (weighted: %9.4f) %-35s | %s\n", c.UnweightedCost, c.WeightedCost, c.Name, c.Message)
	}
	return b.String()
}

// EvaluationResult is the full result tree of one layout evaluation.
type EvaluationResult struct {
	Results []*MetricResults `json:"individual_results"`
}

// TotalCost sums the totals of all metric types that have metrics.
func (er *EvaluationResult) TotalCost() float64 {
	var cost float64
	for _, mr := range er.Results {
		if len(mr.Costs) == 0 {
			continue
		}
		cost += mr.TotalCost()
	}
	return cost
}

// OptimizationScore is 1e8 / TotalCost, truncated. It is only meant for
// display; a non-positive total maps to math.MaxInt64.
func (er *EvaluationResult) OptimizationScore() int64 {
	total := er.TotalCost()
	score := 1e8 / total
	if total <= 0 || score >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(score)
}

func (er *EvaluationResult) String() string {
	var b strings.Builder
	for _, mr := range er.Results {
		b.WriteString(mr.String())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Cost: %.4f (optimization score: %d)\n", er.TotalCost(), er.OptimizationScore())
	return b.String()
}
