// Package features holds the text feature stages: cleansing, tokenizing,
// term hashing and inverse document frequency weighting.
package features

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/okian/lyrics/internal/domain/pipeline"
)

// Stage kinds.
const (
	KindCleanser  = "cleanser"
	KindTokenizer = "tokenizer"
	KindHashingTF = "hashing_tf"
	KindIDF       = "idf"
)

// Cleanser folds text to unaccented letters separated by single spaces.
type Cleanser struct{}

// NewCleanser creates a cleanser.
func NewCleanser() *Cleanser { return &Cleanser{} }

func (*Cleanser) Name() string      { return "cleanser" }
func (*Cleanser) Kind() string      { return KindCleanser }
func (*Cleanser) Columns() []string { return []string{pipeline.ColumnText} }

// Transform cleans every document's text.
func (c *Cleanser) Transform(ctx context.Context, docs []pipeline.Document) ([]pipeline.Document, error) {
	// transform.Chain keeps state, so one chain per call
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out := make([]pipeline.Document, len(docs))
	for i, d := range docs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		s, _, err := transform.String(t, d.Text)
		if err != nil {
			s = d.Text
		}
		d.Text = Clean(s)
		out[i] = d
	}
	return out, nil
}

// Clean replaces everything that is not a letter or an apostrophe with a
// space and collapses runs of spaces.
func Clean(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || r == '\'' {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
