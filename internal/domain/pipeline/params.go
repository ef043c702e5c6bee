package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// ParamMap holds tuning parameters by name, e.g. "hashing.num_features".
type ParamMap map[string]float64

// Float returns the named parameter or def.
func (p ParamMap) Float(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Int returns the named parameter truncated to int, or def.
func (p ParamMap) Int(name string, def int) int {
	if v, ok := p[name]; ok {
		return int(v)
	}
	return def
}

// Clone returns a copy.
func (p ParamMap) Clone() ParamMap {
	out := make(ParamMap, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String renders the map with sorted keys.
func (p ParamMap) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ParamGridBuilder builds the cartesian product of parameter values.
type ParamGridBuilder struct {
	grid map[string][]float64
}

// NewParamGridBuilder creates an empty builder.
func NewParamGridBuilder() *ParamGridBuilder {
	return &ParamGridBuilder{grid: map[string][]float64{}}
}

// AddGrid sets the candidate values of a parameter. A parameter with no
// values is left out of the grid.
func (b *ParamGridBuilder) AddGrid(name string, values ...float64) *ParamGridBuilder {
	if len(values) == 0 {
		delete(b.grid, name)
		return b
	}
	b.grid[name] = append([]float64(nil), values...)
	return b
}

// Build enumerates every combination. Keys are iterated in sorted order with
// the first key varying slowest, so the enumeration is deterministic. An
// empty builder yields one empty combination.
func (b *ParamGridBuilder) Build() []ParamMap {
	keys := make([]string, 0, len(b.grid))
	for k := range b.grid {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []ParamMap{{}}
	for _, k := range keys {
		next := make([]ParamMap, 0, len(out)*len(b.grid[k]))
		for _, base := range out {
			for _, v := range b.grid[k] {
				pm := base.Clone()
				pm[k] = v
				next = append(next, pm)
			}
		}
		out = next
	}
	return out
}
