package classifier

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/okian/lyrics/internal/domain/pipeline"
)

// Logistic regression parameters.
const (
	ParamRegParam = "logistic_regression.reg_param"
	ParamMaxIter  = "logistic_regression.max_iter"
	ParamStepSize = "logistic_regression.step_size"

	DefaultRegParam = 0.01
	DefaultMaxIter  = 100
	DefaultStepSize = 0.5

	gradientTolerance = 1e-6
)

// LogisticRegression is a multinomial (softmax) logistic regression trained
// by full-batch gradient descent with L2 regularization.
type LogisticRegression struct {
	RegParam float64
	MaxIter  int
	StepSize float64
}

// NewLogisticRegression creates the estimator with default parameters.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{RegParam: DefaultRegParam, MaxIter: DefaultMaxIter, StepSize: DefaultStepSize}
}

func (*LogisticRegression) Name() string { return "logistic_regression" }

// Fit learns one weight row and intercept per class.
func (lr *LogisticRegression) Fit(ctx context.Context, docs []pipeline.Document, params pipeline.ParamMap) (pipeline.Transformer, error) {
	reg := params.Float(ParamRegParam, lr.RegParam)
	iters := params.Int(ParamMaxIter, lr.MaxIter)
	step := params.Float(ParamStepSize, lr.StepSize)
	switch {
	case reg < 0 || math.IsNaN(reg):
		return nil, fmt.Errorf("%w: %s=%v", pipeline.ErrInvalidParam, ParamRegParam, reg)
	case iters < 0:
		return nil, fmt.Errorf("%w: %s=%d", pipeline.ErrInvalidParam, ParamMaxIter, iters)
	case step <= 0 || math.IsNaN(step):
		return nil, fmt.Errorf("%w: %s=%v", pipeline.ErrInvalidParam, ParamStepSize, step)
	}
	labels, index, d, err := shape(docs)
	if err != nil {
		return nil, err
	}
	k := len(labels)

	w := mat.NewDense(k, d, nil)
	grad := mat.NewDense(k, d, nil)
	b := make([]float64, k)
	gb := make([]float64, k)
	scores := make([]float64, k)
	n := float64(len(docs))

	for it := 0; it < iters; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		grad.Zero()
		for c := range gb {
			gb[c] = 0
		}
		for _, doc := range docs {
			y := index[doc.Record.Label]
			for c := 0; c < k; c++ {
				scores[c] = doc.Features.Dot(w.RawRowView(c)) + b[c]
			}
			softmax(scores)
			for c := 0; c < k; c++ {
				g := scores[c]
				if c == y {
					g--
				}
				doc.Features.AddTo(grad.RawRowView(c), g)
				gb[c] += g
			}
		}
		grad.Scale(1/n, grad)
		grad.Add(grad, scaled(reg, w))
		floats.Scale(1/n, gb)

		if floats.Norm(grad.RawMatrix().Data, 2)+floats.Norm(gb, 2) < gradientTolerance {
			break
		}
		w.Sub(w, scaled(step, grad))
		floats.AddScaled(b, -step, gb)
	}

	m := &LogisticRegressionModel{Classes: Classes{Codes: labels}, Weights: make([][]float64, k), Intercepts: b}
	for c := 0; c < k; c++ {
		m.Weights[c] = mat.Row(nil, c, w)
	}
	return m, nil
}

func scaled(f float64, a *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Scale(f, a)
	return &out
}

// LogisticRegressionModel holds per-class weights and intercepts.
type LogisticRegressionModel struct {
	Classes
	Weights    [][]float64 `json:"weights"`
	Intercepts []float64   `json:"intercepts"`
}

// Validate checks that weights, intercepts and labels agree in class count.
func (m *LogisticRegressionModel) Validate() error {
	if err := m.validate(len(m.Intercepts)); err != nil {
		return err
	}
	if len(m.Weights) != len(m.Intercepts) {
		return fmt.Errorf("%d weight rows for %d classes", len(m.Weights), len(m.Intercepts))
	}
	return nil
}

func (*LogisticRegressionModel) Name() string      { return "logistic_regression" }
func (*LogisticRegressionModel) Kind() string      { return KindLogisticRegression }
func (*LogisticRegressionModel) Columns() []string { return probabilisticColumns }

// Transform predicts the most probable class and attaches the softmax output.
func (m *LogisticRegressionModel) Transform(ctx context.Context, docs []pipeline.Document) ([]pipeline.Document, error) {
	return predictAll(ctx, docs, m.Codes, true, func(x pipeline.Vector) []float64 {
		s := make([]float64, len(m.Intercepts))
		for c := range s {
			s[c] = x.Dot(m.Weights[c]) + m.Intercepts[c]
		}
		softmax(s)
		return s
	})
}
