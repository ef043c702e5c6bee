// Package pipeline chains feature stages and a classifier into a trainable
// pipeline, and defines the parameter maps used to tune it.
package pipeline

import (
	"context"

	"github.com/okian/lyrics/internal/domain/model"
)

// Column names produced by the built-in stages.
const (
	ColumnText        = "text"
	ColumnWords       = "words"
	ColumnRawFeatures = "raw_features"
	ColumnFeatures    = "features"
)

// Document is one record plus the columns derived from it so far.
type Document struct {
	Record      model.Record
	Text        string
	Tokens      []string
	Features    Vector
	Prediction  float64
	Probability []float64
}

// FromRecords starts documents from raw records.
func FromRecords(records []model.Record) []Document {
	docs := make([]Document, len(records))
	for i, r := range records {
		docs[i] = Document{Record: r, Text: r.Value}
	}
	return docs
}

// Stage is any pipeline element.
type Stage interface {
	Name() string
}

// Transformer maps documents to documents. Fitted stages are transformers.
type Transformer interface {
	Stage
	// Kind identifies the stage for persistence.
	Kind() string
	// Columns lists the columns this stage adds.
	Columns() []string
	Transform(ctx context.Context, docs []Document) ([]Document, error)
}

// Classifier is a fitted stage that predicts one of a fixed set of labels.
// Entry i of a document's Probability belongs to Labels()[i].
type Classifier interface {
	Transformer
	Labels() []float64
}

// Validator is implemented by stages whose decoded state can be checked
// before use.
type Validator interface {
	Validate() error
}

// Estimator learns a Transformer from documents and tuning parameters.
type Estimator interface {
	Stage
	Fit(ctx context.Context, docs []Document, params ParamMap) (Transformer, error)
}
