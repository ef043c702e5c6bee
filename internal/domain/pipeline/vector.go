package pipeline

import "sort"

// Vector is a sparse feature vector. Indices are strictly increasing.
type Vector struct {
	Size    int       `json:"size"`
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// NewVector builds a vector of the given size from an index->value map.
// Zero entries are dropped.
func NewVector(size int, entries map[int]float64) Vector {
	v := Vector{Size: size, Indices: make([]int, 0, len(entries))}
	for i, x := range entries {
		if x != 0 {
			v.Indices = append(v.Indices, i)
		}
	}
	sort.Ints(v.Indices)
	v.Values = make([]float64, len(v.Indices))
	for k, i := range v.Indices {
		v.Values[k] = entries[i]
	}
	return v
}

// NNZ is the number of stored entries.
func (v Vector) NNZ() int { return len(v.Indices) }

// Dot is the inner product with a dense vector. Entries past the end of
// dense contribute nothing.
func (v Vector) Dot(dense []float64) float64 {
	var s float64
	for k, i := range v.Indices {
		if i < len(dense) {
			s += v.Values[k] * dense[i]
		}
	}
	return s
}

// AddTo adds alpha*v into dense, ignoring entries past its end.
func (v Vector) AddTo(dense []float64, alpha float64) {
	for k, i := range v.Indices {
		if i < len(dense) {
			dense[i] += alpha * v.Values[k]
		}
	}
}

// Dense expands v.
func (v Vector) Dense() []float64 {
	out := make([]float64, v.Size)
	v.AddTo(out, 1)
	return out
}
