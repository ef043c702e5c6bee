package features

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/lyrics/internal/domain/pipeline"
)

// Hashing parameters.
const (
	ParamNumFeatures   = "hashing.num_features"
	DefaultNumFeatures = 4096
)

// HashingTF maps tokens to term frequencies in a fixed-size vector.
type HashingTF struct {
	NumFeatures int
}

// NewHashingTF creates the estimator; numFeatures <= 0 means the default.
func NewHashingTF(numFeatures int) *HashingTF {
	if numFeatures <= 0 {
		numFeatures = DefaultNumFeatures
	}
	return &HashingTF{NumFeatures: numFeatures}
}

func (*HashingTF) Name() string { return "hashing_tf" }

// Fit resolves the vector size from params. It does not look at the data.
func (h *HashingTF) Fit(_ context.Context, _ []pipeline.Document, params pipeline.ParamMap) (pipeline.Transformer, error) {
	n := params.Int(ParamNumFeatures, h.NumFeatures)
	if n <= 0 {
		return nil, fmt.Errorf("%w: %s=%d", pipeline.ErrInvalidParam, ParamNumFeatures, n)
	}
	return &HashingTFModel{NumFeatures: n}, nil
}

// HashingTFModel is a HashingTF with its size fixed.
type HashingTFModel struct {
	NumFeatures int `json:"num_features"`
}

func (*HashingTFModel) Name() string      { return "hashing_tf" }
func (*HashingTFModel) Kind() string      { return KindHashingTF }
func (*HashingTFModel) Columns() []string { return []string{pipeline.ColumnRawFeatures} }

// Validate rejects a non-positive vector size.
func (m *HashingTFModel) Validate() error {
	if m.NumFeatures <= 0 {
		return fmt.Errorf("num_features must be positive, got %d", m.NumFeatures)
	}
	return nil
}

// Index is the vector slot of term.
func (m *HashingTFModel) Index(term string) int {
	return int(xxhash.Sum64String(term) % uint64(m.NumFeatures))
}

// Transform counts hashed terms per document.
func (m *HashingTFModel) Transform(ctx context.Context, docs []pipeline.Document) ([]pipeline.Document, error) {
	out := make([]pipeline.Document, len(docs))
	for i, d := range docs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		tf := make(map[int]float64, len(d.Tokens))
		for _, tok := range d.Tokens {
			tf[m.Index(tok)]++
		}
		d.Features = pipeline.NewVector(m.NumFeatures, tf)
		out[i] = d
	}
	return out, nil
}
