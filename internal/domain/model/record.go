// Package model contains domain models passed between layers.
package model

import "strings"

// Well-known column names.
const (
	ColumnValue       = "value"
	ColumnLabel       = "label"
	ColumnID          = "id"
	ColumnPrediction  = "prediction"
	ColumnProbability = "probability"
)

// PredictionID is the synthetic id attached to unlabeled prediction input.
const PredictionID = "unknown.txt"

// Record is one lyric line. Raw records carry Value, ID and the source's
// other columns in Attributes; labeled records additionally carry Label.
// Records are values; transformations produce new records.
type Record struct {
	ID         string            // source file name or synthetic id
	Value      string            // lyric text
	Label      float64           // genre code, set after loading
	Attributes map[string]string // remaining source columns (genre tag, artist, ...)
}

// Attribute returns a source column value, "" if absent.
func (r Record) Attribute(name string) string {
	if r.Attributes == nil {
		return ""
	}
	return r.Attributes[name]
}

// WithLabel returns a copy of r labeled with code.
func (r Record) WithLabel(code float64) Record {
	r.Label = code
	return r
}

// IsSentence reports whether the text looks like a real lyric line: it must
// be non-empty and contain at least one space. Single words are dropped.
func IsSentence(text string) bool {
	return text != "" && strings.Contains(text, " ")
}
