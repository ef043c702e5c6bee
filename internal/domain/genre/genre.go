// Package genre defines the closed set of genre labels a model is trained on
// and the translation between numeric codes, display names and corpus
// directories.
package genre

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// UnknownCode is reserved for the sentinel and never assigned to a real genre.
const UnknownCode = -1.0

// Genre is a class label with a stable numeric code.
type Genre struct {
	Code float64 `json:"code" koanf:"code"`
	Name string  `json:"name" koanf:"name"`
}

// Unknown is returned whenever a code has no exact registry match.
var Unknown = Genre{Code: UnknownCode, Name: "Unknown"}

// IsUnknown reports whether g is the sentinel.
func (g Genre) IsUnknown() bool { return g.Code == UnknownCode }

// Dir is the corpus sub-directory holding this genre's lyrics.
func (g Genre) Dir() string { return Slugify(g.Name) }

// String implements fmt.Stringer.
func (g Genre) String() string { return g.Name }

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify lower-cases s and folds it to an ASCII directory name.
// "Hip-Hop" -> "hip-hop", "hip hop" -> "hip-hop", "Reggae" -> "reggae".
func Slugify(s string) string {
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
