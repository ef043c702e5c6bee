package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/lyrics/internal/config"
	"github.com/okian/lyrics/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Folds, convey.ShouldEqual, 3)
			convey.So(cfg.Seed, convey.ShouldEqual, 42)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Classifier, convey.ShouldEqual, "naive_bayes")
			convey.So(cfg.MergedFile, convey.ShouldEqual, "Merged_dataset.csv")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the default registry is the basic preset", func() {
			reg, err := cfg.GenreRegistry()
			convey.So(err, convey.ShouldBeNil)
			convey.So(reg.Names(), convey.ShouldResemble, []string{"Pop", "Country"})

			mode, err := cfg.Mode()
			convey.So(err, convey.ShouldBeNil)
			convey.So(mode, convey.ShouldEqual, model.SaveOverwrite)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid fields", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":     func(c *config.Config) { c.Addr = "" },
			"one fold":       func(c *config.Config) { c.Folds = 1 },
			"no workers":     func(c *config.Config) { c.WorkerCount = 0 },
			"no parallelism": func(c *config.Config) { c.Parallelism = 0 },
			"log format":     func(c *config.Config) { c.LogFormat = "xml" },
			"save mode":      func(c *config.Config) { c.SaveMode = "append" },
			"preset":         func(c *config.Config) { c.Registry = "everything" },
			"empty grid":     func(c *config.Config) { c.Grid = map[string][]float64{"idf.min_doc_freq": nil} },
			"reserved code":  func(c *config.Config) { c.Genres = []config.GenreConfig{{Code: -1, Name: "Pop"}} },
			"empty model":    func(c *config.Config) { c.ModelDir = "" },
			"empty corpus":   func(c *config.Config) { c.CorpusDir = "" },
			"duplicate code": func(c *config.Config) { c.Genres = []config.GenreConfig{{Code: 0, Name: "A"}, {Code: 0, Name: "B"}} },
		}
		for _, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		}
	})

	convey.Convey("Given a custom genre list", t, func() {
		cfg := config.New()
		cfg.Registry = "extended"
		cfg.Genres = []config.GenreConfig{{Code: 1, Name: "Folk"}, {Code: 0, Name: "Metal"}}

		convey.Convey("Then it overrides the preset", func() {
			reg, err := cfg.GenreRegistry()
			convey.So(err, convey.ShouldBeNil)
			convey.So(reg.Names(), convey.ShouldResemble, []string{"Metal", "Folk"})
		})
	})
}
