package genre_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/lyrics/internal/domain/genre"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistryLookup(t *testing.T) {
	Convey("Given the preset registries", t, func() {
		presets := []*genre.Registry{genre.Basic(), genre.Extended()}

		Convey("Then every genre round-trips through its code", func() {
			for _, reg := range presets {
				for _, g := range reg.Genres() {
					So(reg.LookupByCode(reg.CodeOf(g)), ShouldResemble, g)
					So(reg.NameOf(g.Code), ShouldEqual, g.Name)
				}
			}
		})

		Convey("Then codes outside the registry resolve to Unknown", func() {
			for _, reg := range presets {
				for _, code := range []float64{-1, -2, 0.5, 99, math.NaN(), math.Inf(1)} {
					So(reg.LookupByCode(code), ShouldResemble, genre.Unknown)
				}
			}
		})
	})

	Convey("Given the basic registry", t, func() {
		reg := genre.Basic()

		Convey("When mapping raw prediction values", func() {
			So(reg.NameOf(0.0), ShouldEqual, "Pop")
			So(reg.NameOf(1.0), ShouldEqual, "Country")
			So(reg.NameOf(2.0), ShouldEqual, "Unknown")
			So(reg.NameOf(0.9999), ShouldEqual, "Unknown")
		})

		Convey("When asking for an unregistered genre's code", func() {
			So(reg.CodeOf(genre.Genre{Code: 4, Name: "Jazz"}), ShouldEqual, genre.UnknownCode)
			So(reg.CodeOf(genre.Unknown), ShouldEqual, genre.UnknownCode)
		})

		Convey("Then it has two real genres in code order", func() {
			So(reg.Len(), ShouldEqual, 2)
			So(reg.Names(), ShouldResemble, []string{"Pop", "Country"})
		})
	})

	Convey("Given the extended registry", t, func() {
		reg := genre.Extended()

		Convey("Then it has seven genres and Hip-Hop maps to hip-hop", func() {
			So(reg.Len(), ShouldEqual, 7)
			g, ok := reg.ByName("hip hop")
			So(ok, ShouldBeTrue)
			So(g.Code, ShouldEqual, 3)
			So(g.Dir(), ShouldEqual, "hip-hop")
		})

		Convey("Then Genres returns a copy", func() {
			gs := reg.Genres()
			gs[0].Name = "Changed"
			So(reg.NameOf(0), ShouldEqual, "Pop")
		})
	})
}

func TestNewRegistryValidation(t *testing.T) {
	Convey("Given invalid genre lists", t, func() {
		cases := map[string][]genre.Genre{
			"empty":         nil,
			"blank name":    {{Code: 0, Name: " "}},
			"reserved code": {{Code: -1, Name: "Pop"}},
			"negative code": {{Code: -3, Name: "Pop"}},
			"fractional":    {{Code: 0.5, Name: "Pop"}},
			"duplicate":     {{Code: 0, Name: "Pop"}, {Code: 0, Name: "Rock"}},
			"same dir":      {{Code: 0, Name: "Hip Hop"}, {Code: 1, Name: "hip-hop"}},
		}
		for _, gs := range cases {
			_, err := genre.NewRegistry(gs...)
			So(errors.Is(err, genre.ErrInvalidRegistry), ShouldBeTrue)
		}
	})

	Convey("Given genres out of code order", t, func() {
		reg, err := genre.NewRegistry(genre.Genre{Code: 2, Name: "Jazz"}, genre.Genre{Code: 0, Name: "Pop"})

		Convey("Then the registry sorts by code", func() {
			So(err, ShouldBeNil)
			So(reg.Names(), ShouldResemble, []string{"Pop", "Jazz"})
		})
	})

	Convey("Given preset names", t, func() {
		b, err := genre.Preset("BASIC")
		So(err, ShouldBeNil)
		So(b.Len(), ShouldEqual, 2)
		e, err := genre.Preset("extended")
		So(err, ShouldBeNil)
		So(e.Len(), ShouldEqual, 7)
		_, err = genre.Preset("eight")
		So(errors.Is(err, genre.ErrInvalidRegistry), ShouldBeTrue)
	})
}

func TestSlugify(t *testing.T) {
	Convey("Given genre names", t, func() {
		So(genre.Slugify("Hip-Hop"), ShouldEqual, "hip-hop")
		So(genre.Slugify("  Rock & Roll "), ShouldEqual, "rock-roll")
		So(genre.Slugify("Música"), ShouldEqual, "musica")
		So(genre.Slugify("pop"), ShouldEqual, "pop")
	})
}
