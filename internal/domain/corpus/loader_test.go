package corpus_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/lyrics/internal/adapters/engine"
	"github.com/okian/lyrics/internal/domain/corpus"
	"github.com/okian/lyrics/internal/domain/genre"
	. "github.com/smartystreets/goconvey/convey"
)

const merged = `artist,genre,lyrics
a,pop,baby baby baby oh
b,pop,single
c,country,take me home country roads
d,Country,west virginia mountain mama
e,pop,
f,country,almost heaven
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestSplitMerged(t *testing.T) {
	ctx := context.Background()

	Convey("Given a corpus with a merged file", t, func() {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, corpus.DefaultMergedFile), merged)
		l := corpus.NewLoader(engine.NewLocal(), genre.Basic(), dir)

		Convey("When splitting it", func() {
			report, err := l.SplitMerged(ctx)

			Convey("Then one directory per distinct genre slug is written", func() {
				So(err, ShouldBeNil)
				So(report.Written, ShouldResemble, []string{"pop", "country"})
				// "Country" maps to the directory "country" already written in this pass
				So(report.Skipped, ShouldResemble, []string{"country"})
				So(l.Dir(), ShouldEqual, dir)
			})

			Convey("And splitting again", func() {
				again, err := l.SplitMerged(ctx)

				Convey("Then existing directories are left untouched", func() {
					So(err, ShouldBeNil)
					So(again.Written, ShouldBeEmpty)
					So(again.Skipped, ShouldResemble, []string{"pop", "country", "country"})
				})
			})

			Convey("And loading a genre", func() {
				pop, err := l.LoadGenreTable(ctx, genre.Genre{Code: 0, Name: "Pop"})

				Convey("Then the text column is the value and short rows are dropped", func() {
					So(err, ShouldBeNil)
					So(pop.Count(), ShouldEqual, 1)
					r := pop.Rows()[0]
					So(r.Value, ShouldEqual, "baby baby baby oh")
					So(r.Label, ShouldEqual, 0)
					So(r.ID, ShouldEqual, "part-00000.csv")
					So(r.Attribute("artist"), ShouldEqual, "a")
				})
			})
		})
	})

	Convey("Given a corpus without a merged file", t, func() {
		dir := t.TempDir()
		l := corpus.NewLoader(engine.NewLocal(), genre.Basic(), dir)

		Convey("Then splitting is a no-op", func() {
			report, err := l.SplitMerged(ctx)
			So(err, ShouldBeNil)
			So(report.Written, ShouldBeEmpty)
		})
	})

	Convey("Given a merged file without a genre column", t, func() {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, corpus.DefaultMergedFile), "lyrics\nla la la\n")
		l := corpus.NewLoader(engine.NewLocal(), genre.Basic(), dir)

		Convey("Then splitting fails", func() {
			_, err := l.SplitMerged(ctx)
			So(errors.Is(err, corpus.ErrMissingColumn), ShouldBeTrue)
		})
	})

	Convey("Given a missing corpus directory", t, func() {
		l := corpus.NewLoader(engine.NewLocal(), genre.Basic(), filepath.Join(t.TempDir(), "missing"))

		Convey("Then splitting fails with the path", func() {
			_, err := l.SplitMerged(ctx)
			So(errors.Is(err, corpus.ErrCorpusNotFound), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "missing")
		})
	})
}

func TestBuildTrainingTable(t *testing.T) {
	ctx := context.Background()

	Convey("Given per-genre directories", t, func() {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "pop", "a.csv"), "value\nbaby one more time\noops\n\nhit me baby\n")
		writeFile(t, filepath.Join(dir, "pop", "b.csv"), "value\nlike a virgin\n")
		writeFile(t, filepath.Join(dir, "country", "c.csv"), "lyrics,artist\njolene jolene jolene,x\nhome\n")
		reg := genre.Basic()
		l := corpus.NewLoader(engine.NewLocal(engine.WithParallelism(4)), reg, dir)

		Convey("When building the training table", func() {
			tb, err := l.BuildTrainingTable(ctx, reg.Genres())

			Convey("Then it holds the filtered union of every genre", func() {
				So(err, ShouldBeNil)
				So(tb.Count(), ShouldEqual, 4)
				So(tb.IsCached(), ShouldBeTrue)
				So(tb.Partitions(), ShouldEqual, 2)

				labels := map[float64]int{}
				for _, r := range tb.Rows() {
					labels[r.Label]++
				}
				So(labels[0], ShouldEqual, 3)
				So(labels[1], ShouldEqual, 1)
			})

			Convey("Then the row count equals the sum of per-genre counts", func() {
				sum := 0
				for _, g := range reg.Genres() {
					gt, err := l.LoadGenreTable(ctx, g)
					So(err, ShouldBeNil)
					sum += gt.Count()
				}
				So(tb.Count(), ShouldEqual, sum)
			})
		})

		Convey("When a genre is listed twice", func() {
			gs := append(reg.Genres(), reg.Genres()[0])
			tb, err := l.BuildTrainingTable(ctx, gs)

			Convey("Then it is loaded once", func() {
				So(err, ShouldBeNil)
				So(tb.Count(), ShouldEqual, 4)
			})
		})

		Convey("When a configured genre has no directory", func() {
			_, err := l.BuildTrainingTable(ctx, genre.Extended().Genres())

			Convey("Then the build fails", func() {
				So(errors.Is(err, corpus.ErrGenreNotFound), ShouldBeTrue)
			})
		})

		Convey("When a configured genre has an empty directory", func() {
			writeFile(t, filepath.Join(dir, "jazz", "notes.txt"), "not a csv\n")
			withJazz := append(reg.Genres(), genre.Genre{Code: 2, Name: "Jazz"})

			_, loadErr := l.LoadGenreTable(ctx, withJazz[2])
			_, buildErr := l.BuildTrainingTable(ctx, withJazz)

			Convey("Then the genre is reported missing and nothing is trained", func() {
				So(errors.Is(loadErr, corpus.ErrGenreNotFound), ShouldBeTrue)
				So(loadErr.Error(), ShouldContainSubstring, "jazz")
				So(errors.Is(buildErr, corpus.ErrGenreNotFound), ShouldBeTrue)
			})
		})

		Convey("When loading through Load", func() {
			tb, err := l.Load(ctx)
			So(err, ShouldBeNil)
			So(tb.Count(), ShouldEqual, 4)
		})
	})

	Convey("Given genre directories with no usable rows", t, func() {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "pop", "a.csv"), "value\nshort\n")
		writeFile(t, filepath.Join(dir, "country", "a.csv"), "value\n\n")
		l := corpus.NewLoader(engine.NewLocal(), genre.Basic(), dir)

		Convey("Then the build fails as empty", func() {
			_, err := l.BuildTrainingTable(ctx, genre.Basic().Genres())
			So(errors.Is(err, corpus.ErrEmptyTable), ShouldBeTrue)
		})
	})

	Convey("Given no genres", t, func() {
		l := corpus.NewLoader(engine.NewLocal(), genre.Basic(), t.TempDir())
		_, err := l.BuildTrainingTable(ctx, nil)
		So(errors.Is(err, corpus.ErrEmptyTable), ShouldBeTrue)
	})
}
