package classifier

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/lyrics/internal/domain/pipeline"
)

// NearestCentroid assigns the class whose mean direction is closest by
// cosine similarity. It produces no probability vector.
type NearestCentroid struct{}

// NewNearestCentroid creates the estimator.
func NewNearestCentroid() *NearestCentroid { return &NearestCentroid{} }

func (*NearestCentroid) Name() string { return "nearest_centroid" }

// Fit averages the unit-normalized feature vectors of each class.
func (*NearestCentroid) Fit(ctx context.Context, docs []pipeline.Document, _ pipeline.ParamMap) (pipeline.Transformer, error) {
	labels, index, d, err := shape(docs)
	if err != nil {
		return nil, err
	}
	centroids := make([][]float64, len(labels))
	for c := range centroids {
		centroids[c] = make([]float64, d)
	}
	for i, doc := range docs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		norm := floats.Norm(doc.Features.Values, 2)
		if norm == 0 {
			continue
		}
		doc.Features.AddTo(centroids[index[doc.Record.Label]], 1/norm)
	}
	for _, c := range centroids {
		if norm := floats.Norm(c, 2); norm > 0 {
			floats.Scale(1/norm, c)
		}
	}
	return &NearestCentroidModel{Classes: Classes{Codes: labels}, Centroids: centroids}, nil
}

// NearestCentroidModel holds one unit-length centroid per class. A class
// whose documents all have empty features has a zero centroid and is never
// predicted unless every centroid is zero.
type NearestCentroidModel struct {
	Classes
	Centroids [][]float64 `json:"centroids"`
}

// Validate checks that there is one label per centroid.
func (m *NearestCentroidModel) Validate() error {
	return m.validate(len(m.Centroids))
}

func (*NearestCentroidModel) Name() string      { return "nearest_centroid" }
func (*NearestCentroidModel) Kind() string      { return KindNearestCentroid }
func (*NearestCentroidModel) Columns() []string { return predictionColumns }

// Transform predicts the class with the most similar centroid.
func (m *NearestCentroidModel) Transform(ctx context.Context, docs []pipeline.Document) ([]pipeline.Document, error) {
	return predictAll(ctx, docs, m.Codes, false, m.similarity)
}

func (m *NearestCentroidModel) similarity(x pipeline.Vector) []float64 {
	s := make([]float64, len(m.Centroids))
	norm := floats.Norm(x.Values, 2)
	for c, centroid := range m.Centroids {
		switch {
		case floats.Norm(centroid, 2) == 0:
			s[c] = math.Inf(-1)
		case norm == 0:
			s[c] = 0
		default:
			s[c] = x.Dot(centroid) / norm
		}
	}
	return s
}
