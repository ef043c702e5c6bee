// Package classifier holds the multiclass classifier stages. The classes of a
// fitted model are the distinct training labels in ascending order; class
// index i predicts the i-th label.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/lyrics/internal/domain/pipeline"
)

// Stage kinds.
const (
	KindNaiveBayes         = "naive_bayes"
	KindLogisticRegression = "logistic_regression"
	KindNearestCentroid    = "nearest_centroid"
)

// Names accepted by New.
const (
	NaiveBayesName         = "naive_bayes"
	LogisticRegressionName = "logistic_regression"
	NearestCentroidName    = "nearest_centroid"
)

var (
	probabilisticColumns = []string{"prediction", "probability"}
	predictionColumns    = []string{"prediction"}
)

// New returns the named classifier estimator with default parameters.
func New(name string) (pipeline.Estimator, error) {
	switch name {
	case "", NaiveBayesName:
		return NewNaiveBayes(DefaultSmoothing), nil
	case LogisticRegressionName:
		return NewLogisticRegression(), nil
	case NearestCentroidName:
		return NewNearestCentroid(), nil
	default:
		return nil, fmt.Errorf("unknown classifier %q", name)
	}
}

// Register adds the classifier decoders to c.
func Register(c *pipeline.Codec) {
	c.Register(KindNaiveBayes, pipeline.DecodeJSON[NaiveBayesModel])
	c.Register(KindLogisticRegression, pipeline.DecodeJSON[LogisticRegressionModel])
	c.Register(KindNearestCentroid, pipeline.DecodeJSON[NearestCentroidModel])
}

// Classes holds the labels a fitted classifier predicts, ascending.
type Classes struct {
	Codes []float64 `json:"labels"`
}

// Labels returns the class labels.
func (c Classes) Labels() []float64 { return c.Codes }

// validate checks that there is one strictly increasing label per class.
func (c Classes) validate(classes int) error {
	if classes == 0 {
		return errors.New("no classes")
	}
	if len(c.Codes) != classes {
		return fmt.Errorf("%d labels for %d classes", len(c.Codes), classes)
	}
	for i := 1; i < len(c.Codes); i++ {
		if c.Codes[i] <= c.Codes[i-1] {
			return fmt.Errorf("labels not strictly increasing at %d", i)
		}
	}
	return nil
}

// shape returns the sorted distinct labels of a training set, the class
// index of each label and the feature size.
func shape(docs []pipeline.Document) (labels []float64, index map[float64]int, size int, err error) {
	if len(docs) == 0 {
		return nil, nil, 0, ErrNoTrainingData
	}
	seen := make(map[float64]struct{})
	for _, d := range docs {
		l := d.Record.Label
		if l < 0 || l != math.Trunc(l) || math.IsInf(l, 0) {
			return nil, nil, 0, fmt.Errorf("%w: %v (record %s)", ErrInvalidLabel, l, d.Record.ID)
		}
		seen[l] = struct{}{}
		size = max(size, d.Features.Size)
	}
	labels = slices.Sorted(maps.Keys(seen))
	index = make(map[float64]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	return labels, index, max(size, 1), nil
}

// softmax turns log-scores into probabilities in place.
func softmax(scores []float64) {
	lse := floats.LogSumExp(scores)
	for i, s := range scores {
		scores[i] = math.Exp(s - lse)
	}
}

// predictAll applies score to every document. The best scoring class gives
// the predicted label; when withProb is set the scores are kept as the
// class probabilities.
func predictAll(ctx context.Context, docs []pipeline.Document, labels []float64, withProb bool, score func(pipeline.Vector) []float64) ([]pipeline.Document, error) {
	out := make([]pipeline.Document, len(docs))
	for i, d := range docs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		s := score(d.Features)
		d.Prediction = labels[floats.MaxIdx(s)]
		if withProb {
			d.Probability = s
		}
		out[i] = d
	}
	return out, nil
}
