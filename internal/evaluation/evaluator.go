package evaluation

import (
	"fmt"

	"github.com/verte-zerg/layopt/internal/layout"
	"github.com/verte-zerg/layopt/internal/metrics"
	"github.com/verte-zerg/layopt/internal/ngram"
)

type weighted[M any] struct {
	metric        M
	weight        float64
	normalization Normalization
}

// Evaluator scores layouts against a fixed n-gram corpus. It is safe for
// concurrent use once all metrics are added.
type Evaluator struct {
	mapper *ngram.Mapper

	layoutMetrics  []weighted[metrics.LayoutMetric]
	unigramMetrics []weighted[metrics.UnigramMetric]
	bigramMetrics  []weighted[metrics.BigramMetric]
	trigramMetrics []weighted[metrics.TrigramMetric]
}

// NewEvaluator returns an evaluator without metrics.
func NewEvaluator(mapper *ngram.Mapper) *Evaluator {
	return &Evaluator{mapper: mapper}
}

// AddMetric registers m under its metric type. m must implement one of the
// metric interfaces of package metrics.
func (e *Evaluator) AddMetric(m any, weight float64, n Normalization) error {
	if err := n.Validate(); err != nil {
		return err
	}
	switch m := m.(type) {
	case metrics.LayoutMetric:
		e.layoutMetrics = append(e.layoutMetrics, weighted[metrics.LayoutMetric]{m, weight, n})
	case metrics.UnigramMetric:
		e.unigramMetrics = append(e.unigramMetrics, weighted[metrics.UnigramMetric]{m, weight, n})
	case metrics.BigramMetric:
		e.bigramMetrics = append(e.bigramMetrics, weighted[metrics.BigramMetric]{m, weight, n})
	case metrics.TrigramMetric:
		e.trigramMetrics = append(e.trigramMetrics, weighted[metrics.TrigramMetric]{m, weight, n})
	default:
		return fmt.Errorf("%T is not a metric", m)
	}
	return nil
}

// MetricCount returns the number of registered metrics.
func (e *Evaluator) MetricCount() int {
	return len(e.layoutMetrics) + len(e.unigramMetrics) + len(e.bigramMetrics) + len(e.trigramMetrics)
}

// EvaluateLayout maps the corpus onto l and runs every metric.
func (e *Evaluator) EvaluateLayout(l *layout.Layout) *EvaluationResult {
	var mapped ngram.Mapped
	if len(e.unigramMetrics)+len(e.bigramMetrics)+len(e.trigramMetrics) > 0 {
		mapped = e.mapper.Map(l)
	}

	res := &EvaluationResult{}

	if len(e.layoutMetrics) > 0 {
		mr := NewMetricResults(LayoutMetrics, 0, 0)
		for _, w := range e.layoutMetrics {
			cost, msg := w.metric.TotalCost(l)
			mr.AddResult(MetricResult{Name: w.metric.Name(), Cost: cost, Message: msg, Weight: w.weight, Normalization: w.normalization})
		}
		res.Results = append(res.Results, mr)
	}

	if len(e.unigramMetrics) > 0 {
		mr := NewMetricResults(UnigramMetrics, mapped.UnigramsFound, mapped.UnigramsNotFound)
		for _, w := range e.unigramMetrics {
			cost, msg := w.metric.TotalCost(mapped.Unigrams, mapped.UnigramsFound, l)
			mr.AddResult(MetricResult{Name: w.metric.Name(), Cost: cost, Message: msg, Weight: w.weight, Normalization: w.normalization})
		}
		res.Results = append(res.Results, mr)
	}

	if len(e.bigramMetrics) > 0 {
		mr := NewMetricResults(BigramMetrics, mapped.BigramsFound, mapped.BigramsNotFound)
		for _, w := range e.bigramMetrics {
			cost, msg := w.metric.TotalCost(mapped.Bigrams, mapped.BigramsFound, l)
			mr.AddResult(MetricResult{Name: w.metric.Name(), Cost: cost, Message: msg, Weight: w.weight, Normalization: w.normalization})
		}
		res.Results = append(res.Results, mr)
	}

	if len(e.trigramMetrics) > 0 {
		mr := NewMetricResults(TrigramMetrics, mapped.TrigramsFound, mapped.TrigramsNotFound)
		for _, w := range e.trigramMetrics {
			cost, msg := w.metric.TotalCost(mapped.Trigrams, mapped.TrigramsFound, l)
			mr.AddResult(MetricResult{Name: w.metric.Name(), Cost: cost, Message: msg, Weight: w.weight, Normalization: w.normalization})
		}
		res.Results = append(res.Results, mr)
	}

	return res
}
