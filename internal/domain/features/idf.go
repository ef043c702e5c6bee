package features

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/lyrics/internal/domain/pipeline"
)

// IDF parameters.
const (
	ParamMinDocFreq = "idf.min_doc_freq"
)

// IDF learns inverse document frequencies from the documents it is fitted on.
type IDF struct {
	MinDocFreq int
}

// NewIDF creates the estimator.
func NewIDF(minDocFreq int) *IDF { return &IDF{MinDocFreq: minDocFreq} }

func (*IDF) Name() string { return "idf" }

// Fit computes log((m+1)/(df+1)) per slot. Slots seen in fewer than
// min_doc_freq documents get weight zero.
func (e *IDF) Fit(ctx context.Context, docs []pipeline.Document, params pipeline.ParamMap) (pipeline.Transformer, error) {
	minDF := params.Int(ParamMinDocFreq, e.MinDocFreq)
	if minDF < 0 {
		return nil, fmt.Errorf("%w: %s=%d", pipeline.ErrInvalidParam, ParamMinDocFreq, minDF)
	}
	size := 0
	for _, d := range docs {
		size = max(size, d.Features.Size)
	}
	df := make([]float64, size)
	for i, d := range docs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for k, j := range d.Features.Indices {
			if d.Features.Values[k] != 0 {
				df[j]++
			}
		}
	}
	m := float64(len(docs))
	weights := make([]float64, size)
	for j, n := range df {
		if int(n) >= minDF {
			weights[j] = math.Log((m + 1) / (n + 1))
		}
	}
	return &IDFModel{Weights: weights}, nil
}

// IDFModel rescales term frequencies by learned weights.
type IDFModel struct {
	Weights []float64 `json:"weights"`
}

func (*IDFModel) Name() string      { return "idf" }
func (*IDFModel) Kind() string      { return KindIDF }
func (*IDFModel) Columns() []string { return []string{pipeline.ColumnFeatures} }

// Transform multiplies every feature by its weight. Slots beyond the fitted
// size get weight zero.
func (m *IDFModel) Transform(ctx context.Context, docs []pipeline.Document) ([]pipeline.Document, error) {
	out := make([]pipeline.Document, len(docs))
	for i, d := range docs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		scaled := make(map[int]float64, d.Features.NNZ())
		for k, j := range d.Features.Indices {
			if j < len(m.Weights) {
				scaled[j] = d.Features.Values[k] * m.Weights[j]
			}
		}
		d.Features = pipeline.NewVector(d.Features.Size, scaled)
		out[i] = d
	}
	return out, nil
}
