package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/okian/lyrics/internal/domain/model"
)

// Pipeline is an ordered list of unfitted stages.
type Pipeline struct {
	stages []Stage
}

// New creates a pipeline. The last stage is expected to be a classifier.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Stages returns the unfitted stages.
func (p *Pipeline) Stages() []Stage { return slices.Clone(p.stages) }

// Fit runs the stages in order over records. Estimators are fitted on the
// output of the stages before them and replaced by their fitted transformer.
func (p *Pipeline) Fit(ctx context.Context, records []model.Record, params ParamMap) (*Model, error) {
	if len(p.stages) == 0 {
		return nil, ErrNoStages
	}
	docs := FromRecords(records)
	fitted := make([]Transformer, 0, len(p.stages))
	for i, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var t Transformer
		switch st := s.(type) {
		case Estimator:
			ft, err := st.Fit(ctx, docs, params)
			if err != nil {
				return nil, fmt.Errorf("fit %s: %w", st.Name(), err)
			}
			t = ft
		case Transformer:
			t = st
		default:
			return nil, fmt.Errorf("stage %s is neither an estimator nor a transformer", s.Name())
		}
		fitted = append(fitted, t)
		if i == len(p.stages)-1 {
			break
		}
		var err error
		if docs, err = t.Transform(ctx, docs); err != nil {
			return nil, fmt.Errorf("transform %s: %w", t.Name(), err)
		}
	}
	return NewModel(fitted...), nil
}

// Model is a fitted pipeline.
type Model struct {
	stages []Transformer
}

// NewModel wraps fitted stages.
func NewModel(stages ...Transformer) *Model {
	return &Model{stages: stages}
}

// Stages returns the fitted stages.
func (m *Model) Stages() []Transformer { return slices.Clone(m.stages) }

// Transform runs records through every fitted stage.
func (m *Model) Transform(ctx context.Context, records []model.Record) (*Output, error) {
	docs := FromRecords(records)
	for _, t := range m.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		if docs, err = t.Transform(ctx, docs); err != nil {
			return nil, fmt.Errorf("transform %s: %w", t.Name(), err)
		}
	}
	return &Output{docs: docs, columns: m.Columns(), labels: m.Labels()}, nil
}

// Labels are the labels of the last classifier stage, nil without one.
func (m *Model) Labels() []float64 {
	for i := len(m.stages) - 1; i >= 0; i-- {
		if c, ok := m.stages[i].(Classifier); ok {
			return slices.Clone(c.Labels())
		}
	}
	return nil
}

// Columns lists the base record columns followed by each stage's columns.
func (m *Model) Columns() []string {
	cols := []string{model.ColumnID, model.ColumnValue, model.ColumnLabel}
	for _, t := range m.stages {
		cols = append(cols, t.Columns()...)
	}
	return cols
}

// Output is the result of Model.Transform.
type Output struct {
	docs    []Document
	columns []string
	labels  []float64
}

// Columns of the output.
func (o *Output) Columns() []string { return slices.Clone(o.columns) }

// HasColumn reports whether name is among the output columns.
func (o *Output) HasColumn(name string) bool { return slices.Contains(o.columns, name) }

// Labels are the classifier labels that probability entries refer to.
func (o *Output) Labels() []float64 { return slices.Clone(o.labels) }

// Len is the number of rows.
func (o *Output) Len() int { return len(o.docs) }

// Rows returns the transformed documents.
func (o *Output) Rows() []Document { return o.docs }

// First returns the first row, false if there is none.
func (o *Output) First() (Document, bool) {
	if len(o.docs) == 0 {
		return Document{}, false
	}
	return o.docs[0], true
}
