package genre

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidRegistry reports a registry that violates code or name invariants.
var ErrInvalidRegistry = errors.New("invalid genre registry")

// Preset names accepted by Preset.
const (
	PresetBasic    = "basic"
	PresetExtended = "extended"
)

// Registry is an immutable, ordered set of genres. Components that need the
// set of genres take a *Registry instead of hardcoding one.
type Registry struct {
	genres []Genre // sorted by code
}

// NewRegistry validates genres and returns a registry ordered by code.
func NewRegistry(genres ...Genre) (*Registry, error) {
	if len(genres) == 0 {
		return nil, fmt.Errorf("%w: no genres", ErrInvalidRegistry)
	}
	seenCodes := make(map[float64]struct{}, len(genres))
	seenDirs := make(map[string]struct{}, len(genres))
	out := make([]Genre, 0, len(genres))
	for _, g := range genres {
		name := strings.TrimSpace(g.Name)
		switch {
		case name == "":
			return nil, fmt.Errorf("%w: empty name for code %v", ErrInvalidRegistry, g.Code)
		case g.Code == UnknownCode:
			return nil, fmt.Errorf("%w: %q uses the reserved unknown code", ErrInvalidRegistry, name)
		case g.Code < 0 || g.Code != math.Trunc(g.Code):
			return nil, fmt.Errorf("%w: %q code %v is not a non-negative integer", ErrInvalidRegistry, name, g.Code)
		}
		if _, dup := seenCodes[g.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate code %v", ErrInvalidRegistry, g.Code)
		}
		g.Name = name
		if _, dup := seenDirs[g.Dir()]; dup {
			return nil, fmt.Errorf("%w: duplicate directory %q", ErrInvalidRegistry, g.Dir())
		}
		seenCodes[g.Code] = struct{}{}
		seenDirs[g.Dir()] = struct{}{}
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return &Registry{genres: out}, nil
}

// MustRegistry is NewRegistry that panics on invalid input.
func MustRegistry(genres ...Genre) *Registry {
	r, err := NewRegistry(genres...)
	if err != nil {
		panic(err)
	}
	return r
}

// Basic is the two-genre set: Pop and Country.
func Basic() *Registry {
	return MustRegistry(
		Genre{Code: 0, Name: "Pop"},
		Genre{Code: 1, Name: "Country"},
	)
}

// Extended is the seven-genre set.
func Extended() *Registry {
	return MustRegistry(
		Genre{Code: 0, Name: "Pop"},
		Genre{Code: 1, Name: "Country"},
		Genre{Code: 2, Name: "Blues"},
		Genre{Code: 3, Name: "Hip-Hop"},
		Genre{Code: 4, Name: "Jazz"},
		Genre{Code: 5, Name: "Reggae"},
		Genre{Code: 6, Name: "Rock"},
	)
}

// Preset resolves a preset registry by name.
func Preset(name string) (*Registry, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetBasic:
		return Basic(), nil
	case PresetExtended:
		return Extended(), nil
	default:
		return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidRegistry, name)
	}
}

// Genres returns the real genres ordered by code.
func (r *Registry) Genres() []Genre {
	out := make([]Genre, len(r.genres))
	copy(out, r.genres)
	return out
}

// Len is the number of real genres.
func (r *Registry) Len() int { return len(r.genres) }

// LookupByCode returns the genre whose code equals value exactly, or Unknown.
func (r *Registry) LookupByCode(value float64) Genre {
	for _, g := range r.genres {
		if g.Code == value {
			return g
		}
	}
	return Unknown
}

// NameOf returns the display name for code, Unknown's name if unmatched.
func (r *Registry) NameOf(code float64) string {
	return r.LookupByCode(code).Name
}

// CodeOf returns the code of g if it is registered, otherwise UnknownCode.
func (r *Registry) CodeOf(g Genre) float64 {
	for _, rg := range r.genres {
		if rg == g {
			return rg.Code
		}
	}
	return UnknownCode
}

// ByName finds a genre by case-insensitive name or directory slug.
func (r *Registry) ByName(name string) (Genre, bool) {
	slug := Slugify(name)
	for _, g := range r.genres {
		if strings.EqualFold(g.Name, strings.TrimSpace(name)) || g.Dir() == slug {
			return g, true
		}
	}
	return Unknown, false
}

// Names lists display names in code order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.genres))
	for i, g := range r.genres {
		names[i] = g.Name
	}
	return names
}
