// Package evaluation scores predictions against their labels.
package evaluation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/lyrics/internal/domain/pipeline"
)

// Supported metrics.
const (
	MetricF1                = "f1"
	MetricAccuracy          = "accuracy"
	MetricWeightedPrecision = "weighted_precision"
	MetricWeightedRecall    = "weighted_recall"
)

var (
	// ErrUnknownMetric is returned for an unsupported metric name.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrNoRows is returned when evaluating an empty prediction set.
	ErrNoRows = errors.New("no rows to evaluate")
)

// Evaluator turns predictions into a single number.
type Evaluator interface {
	Evaluate(rows []pipeline.Document) (float64, error)
	MetricName() string
	// IsLargerBetter reports the optimization direction of the metric.
	IsLargerBetter() bool
}

// Option applies a configuration option to Multiclass.
type Option func(*Multiclass)

// WithMetric selects the metric. Unknown names are rejected by NewMulticlass.
func WithMetric(name string) Option {
	return func(m *Multiclass) {
		if name != "" {
			m.metric = strings.ToLower(strings.TrimSpace(name))
		}
	}
}

// Multiclass evaluates single-label multiclass predictions.
type Multiclass struct {
	metric string
}

// NewMulticlass creates an evaluator; the default metric is weighted F1.
func NewMulticlass(opts ...Option) (*Multiclass, error) {
	m := &Multiclass{metric: MetricF1}
	for _, opt := range opts {
		opt(m)
	}
	switch m.metric {
	case MetricF1, MetricAccuracy, MetricWeightedPrecision, MetricWeightedRecall:
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, m.metric)
	}
}

// MetricName is the configured metric.
func (m *Multiclass) MetricName() string { return m.metric }

// IsLargerBetter is true for every supported metric.
func (m *Multiclass) IsLargerBetter() bool { return true }

// Evaluate computes the metric over rows. Weighted metrics average per-class
// values weighted by each class's share of the true labels.
func (m *Multiclass) Evaluate(rows []pipeline.Document) (float64, error) {
	if len(rows) == 0 {
		return 0, ErrNoRows
	}
	c := confusion(rows)
	switch m.metric {
	case MetricAccuracy:
		return c.accuracy(), nil
	case MetricWeightedPrecision:
		return c.weighted(func(s classStats) float64 { return s.precision() }), nil
	case MetricWeightedRecall:
		return c.weighted(func(s classStats) float64 { return s.recall() }), nil
	default:
		return c.weighted(func(s classStats) float64 { return s.f1() }), nil
	}
}

type classStats struct {
	tp, fp, fn float64
}

func (s classStats) precision() float64 { return ratio(s.tp, s.tp+s.fp) }
func (s classStats) recall() float64    { return ratio(s.tp, s.tp+s.fn) }

func (s classStats) f1() float64 {
	p, r := s.precision(), s.recall()
	return ratio(2*p*r, p+r)
}

type confusionMatrix struct {
	n       float64
	correct float64
	classes map[float64]*classStats
}

func confusion(rows []pipeline.Document) confusionMatrix {
	c := confusionMatrix{n: float64(len(rows)), classes: map[float64]*classStats{}}
	get := func(l float64) *classStats {
		s, ok := c.classes[l]
		if !ok {
			s = &classStats{}
			c.classes[l] = s
		}
		return s
	}
	for _, r := range rows {
		label, pred := r.Record.Label, r.Prediction
		if label == pred {
			c.correct++
			get(label).tp++
			continue
		}
		get(label).fn++
		get(pred).fp++
	}
	return c
}

func (c confusionMatrix) accuracy() float64 { return c.correct / c.n }

func (c confusionMatrix) weighted(metric func(classStats) float64) float64 {
	labels := make([]float64, 0, len(c.classes))
	for l := range c.classes {
		labels = append(labels, l)
	}
	sort.Float64s(labels)
	var total float64
	for _, l := range labels {
		s := *c.classes[l]
		total += (s.tp + s.fn) / c.n * metric(s)
	}
	return total
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
