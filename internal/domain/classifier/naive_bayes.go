package classifier

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/lyrics/internal/domain/pipeline"
)

// Naive Bayes parameters.
const (
	ParamSmoothing   = "naive_bayes.smoothing"
	DefaultSmoothing = 1.0
)

// NaiveBayes is a multinomial naive Bayes estimator with additive smoothing.
// Smoothing must be positive so that every log probability stays finite.
type NaiveBayes struct {
	Smoothing float64
}

// NewNaiveBayes creates the estimator.
func NewNaiveBayes(smoothing float64) *NaiveBayes { return &NaiveBayes{Smoothing: smoothing} }

func (*NaiveBayes) Name() string { return "naive_bayes" }

// Fit estimates log priors and per-class log term probabilities.
func (nb *NaiveBayes) Fit(ctx context.Context, docs []pipeline.Document, params pipeline.ParamMap) (pipeline.Transformer, error) {
	alpha := params.Float(ParamSmoothing, nb.Smoothing)
	if alpha <= 0 || math.IsNaN(alpha) {
		return nil, fmt.Errorf("%w: %s=%v", pipeline.ErrInvalidParam, ParamSmoothing, alpha)
	}
	labels, index, d, err := shape(docs)
	if err != nil {
		return nil, err
	}
	k := len(labels)

	counts := make([]float64, k)
	termSums := make([][]float64, k)
	for c := range termSums {
		termSums[c] = make([]float64, d)
	}
	for i, doc := range docs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		c := index[doc.Record.Label]
		counts[c]++
		for _, v := range doc.Features.Values {
			if v < 0 {
				return nil, fmt.Errorf("%w: naive bayes needs non-negative features, got %v", pipeline.ErrInvalidParam, v)
			}
		}
		doc.Features.AddTo(termSums[c], 1)
	}

	n := float64(len(docs))
	m := &NaiveBayesModel{Classes: Classes{Codes: labels}, Pi: make([]float64, k), Theta: make([][]float64, k)}
	for c := 0; c < k; c++ {
		m.Pi[c] = math.Log(counts[c]+alpha) - math.Log(n+float64(k)*alpha)
		denom := math.Log(floats.Sum(termSums[c]) + float64(d)*alpha)
		theta := make([]float64, d)
		for j, v := range termSums[c] {
			theta[j] = math.Log(v+alpha) - denom
		}
		m.Theta[c] = theta
	}
	return m, nil
}

// NaiveBayesModel holds log priors Pi and log term probabilities Theta.
type NaiveBayesModel struct {
	Classes
	Pi    []float64   `json:"pi"`
	Theta [][]float64 `json:"theta"`
}

// Validate checks that priors, term rows and labels agree in class count.
func (m *NaiveBayesModel) Validate() error {
	if err := m.validate(len(m.Pi)); err != nil {
		return err
	}
	if len(m.Theta) != len(m.Pi) {
		return fmt.Errorf("%d term rows for %d classes", len(m.Theta), len(m.Pi))
	}
	return nil
}

func (*NaiveBayesModel) Name() string      { return "naive_bayes" }
func (*NaiveBayesModel) Kind() string      { return KindNaiveBayes }
func (*NaiveBayesModel) Columns() []string { return probabilisticColumns }

// Transform predicts the most probable class and attaches the posterior.
func (m *NaiveBayesModel) Transform(ctx context.Context, docs []pipeline.Document) ([]pipeline.Document, error) {
	return predictAll(ctx, docs, m.Codes, true, m.posterior)
}

func (m *NaiveBayesModel) posterior(x pipeline.Vector) []float64 {
	s := make([]float64, len(m.Pi))
	for c := range s {
		s[c] = m.Pi[c] + x.Dot(m.Theta[c])
	}
	softmax(s)
	return s
}
