package features

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/okian/lyrics/internal/domain/pipeline"
)

// Tokenizer splits text into analyzed terms using a bleve analyzer. The
// default English analyzer lower-cases, removes stop words and stems.
type Tokenizer struct {
	Analyzer string `json:"analyzer"`

	mapping *mapping.IndexMappingImpl
}

// NewTokenizer creates a tokenizer for the named analyzer, "en" if empty.
func NewTokenizer(analyzer string) *Tokenizer {
	if analyzer == "" {
		analyzer = en.AnalyzerName
	}
	return &Tokenizer{Analyzer: analyzer, mapping: bleve.NewIndexMapping()}
}

func (*Tokenizer) Name() string      { return "tokenizer" }
func (*Tokenizer) Kind() string      { return KindTokenizer }
func (*Tokenizer) Columns() []string { return []string{pipeline.ColumnWords} }

// Tokens analyzes a single text.
func (t *Tokenizer) Tokens(text string) ([]string, error) {
	stream, err := t.mapping.AnalyzeText(t.Analyzer, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("analyze with %q: %w", t.Analyzer, err)
	}
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) > 0 {
			out = append(out, string(tok.Term))
		}
	}
	return out, nil
}

// Transform tokenizes every document's text.
func (t *Tokenizer) Transform(ctx context.Context, docs []pipeline.Document) ([]pipeline.Document, error) {
	out := make([]pipeline.Document, len(docs))
	for i, d := range docs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		toks, err := t.Tokens(d.Text)
		if err != nil {
			return nil, err
		}
		d.Tokens = toks
		out[i] = d
	}
	return out, nil
}

func decodeTokenizer(state []byte) (pipeline.Transformer, error) {
	var t Tokenizer
	if err := json.Unmarshal(state, &t); err != nil {
		return nil, err
	}
	return NewTokenizer(t.Analyzer), nil
}
