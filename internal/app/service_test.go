package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okian/lyrics/internal/adapters/engine"
	"github.com/okian/lyrics/internal/adapters/modelstore"
	service "github.com/okian/lyrics/internal/app"
	"github.com/okian/lyrics/internal/domain/classifier"
	"github.com/okian/lyrics/internal/domain/corpus"
	"github.com/okian/lyrics/internal/domain/features"
	"github.com/okian/lyrics/internal/domain/genre"
	"github.com/okian/lyrics/internal/domain/model"
	"github.com/okian/lyrics/internal/domain/pipeline"
	"github.com/okian/lyrics/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

const merged = `genre,lyrics
pop,baby dance all night
pop,dance with me baby
pop,party baby party tonight
pop,baby baby dance floor
pop,club lights and baby dance
pop,tonight we dance baby
country,whiskey and a pickup truck
country,dirt road pickup truck
country,country whiskey on the porch
country,old truck down the dirt road
country,whiskey river country home
country,pickup truck and whiskey
`

const mergedExtended = `genre,lyrics
pop,baby dance all night
pop,dance with me baby
pop,party baby dance tonight
pop,baby baby dance floor
country,whiskey and a pickup truck
country,dirt road pickup truck
country,pickup truck whiskey porch
country,whiskey river pickup home
blues,crossroads devil moan
blues,moan low crossroads train
blues,devil at the crossroads moan
blues,crossroads moan all day
hip-hop,mic rhymes beat drop
hip-hop,spitting rhymes on the mic
hip-hop,beat drop mic check
hip-hop,rhymes flow mic beat
jazz,saxophone swing smoky lounge
jazz,smoky lounge saxophone solo
jazz,swing saxophone smoky night
jazz,lounge swing saxophone blue
reggae,jah rasta island riddim
reggae,riddim rasta jah love
reggae,island riddim jah vibes
reggae,rasta island riddim sun
rock,guitar amplifier scream loud
rock,loud guitar amplifier riff
rock,scream guitar riff amplifier
rock,amplifier loud guitar solo
`

func corpusDir(t *testing.T) string {
	t.Helper()
	return corpusWith(t, merged)
}

func corpusWith(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, corpus.DefaultMergedFile), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func total(ps []model.Probability) float64 {
	s := 0.0
	for _, p := range ps {
		s += p.Value
	}
	return s
}

func store() *modelstore.Badger {
	return modelstore.NewBadger(
		pipeline.NewCodec(features.Register, classifier.Register),
		modelstore.WithSyncWrites(false),
		modelstore.WithValueLogFileSize(1<<20),
	)
}

func newService(t *testing.T, corpusDir, modelDir string, opts ...service.Option) *service.Service {
	t.Helper()
	base := []service.Option{
		service.WithCorpusDir(corpusDir),
		service.WithModelDir(modelDir),
		service.WithStore(store()),
		service.WithFolds(2),
		service.WithWorkerCount(2),
	}
	s, err := service.New(append(base, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNew(t *testing.T) {
	Convey("Given invalid options", t, func() {
		_, err := service.New(service.WithClassifier("random_forest"))
		So(errors.Is(err, service.ErrInvalidOption), ShouldBeTrue)
		_, err = service.New(service.WithMetric("auc"))
		So(errors.Is(err, service.ErrInvalidOption), ShouldBeTrue)
		_, err = service.New(service.WithSaveMode(model.SaveMode("append")))
		So(errors.Is(err, service.ErrInvalidOption), ShouldBeTrue)
	})

	Convey("Given the defaults", t, func() {
		s, err := service.New()
		So(err, ShouldBeNil)
		So(s.Registry().Names(), ShouldResemble, []string{"Pop", "Country"})
		So(s.ModelPath(), ShouldEqual, filepath.Join(service.DefaultModelDir, classifier.NaiveBayesName))
		So(s.Info()["training"], ShouldEqual, false)
	})
}

func TestClassifyAndPredict(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service over a two-genre corpus", t, func() {
		modelDir := filepath.Join(t.TempDir(), "model")
		s := newService(t, corpusDir(t), modelDir)

		Convey("When predicting before any training", func() {
			_, err := s.Predict(ctx, "baby dance all night")

			Convey("Then the missing model is reported", func() {
				So(errors.Is(err, modelstore.ErrModelNotFound), ShouldBeTrue)
			})
		})

		Convey("When training", func() {
			stats, err := s.Classify(ctx)
			So(err, ShouldBeNil)

			Convey("Then the best model metric is reported", func() {
				best, ok := stats[model.StatBestModelMetrics]
				So(ok, ShouldBeTrue)
				So(best, ShouldBeBetweenOrEqual, 0, 1)

				saved, err := s.Stats(ctx)
				So(err, ShouldBeNil)
				So(saved, ShouldResemble, stats)
			})

			Convey("Then a training lyric predicts its genre with probabilities", func() {
				pred, err := s.Predict(ctx, "baby dance all night")
				So(err, ShouldBeNil)
				So(pred.Genre, ShouldEqual, "Pop")
				So(pred.Probabilities, ShouldHaveLength, 2)
				So(pred.Probabilities[0].Genre, ShouldEqual, "Pop")
				So(pred.Probabilities[1].Genre, ShouldEqual, "Country")
				So(pred.Probabilities[0].Value+pred.Probabilities[1].Value, ShouldAlmostEqual, 1, 1e-9)
				So(pred.Probabilities[0].Value, ShouldBeGreaterThan, pred.Probabilities[1].Value)
			})

			Convey("Then only the first usable line decides", func() {
				pred, err := s.Predict(ctx, "single\r\n\nwhiskey pickup truck\nbaby dance all night")
				So(err, ShouldBeNil)
				So(pred.Genre, ShouldEqual, "Country")
			})

			Convey("Then degenerate input is Unknown without probabilities", func() {
				for _, text := range []string{"", "hello", "\n\n", "one\ntwo"} {
					pred, err := s.Predict(ctx, text)
					So(err, ShouldBeNil)
					So(pred.Genre, ShouldEqual, genre.Unknown.Name)
					So(pred.HasProbabilities(), ShouldBeFalse)
				}
			})

			Convey("Then another registry relabels the same model", func() {
				reg := genre.MustRegistry(genre.Genre{Code: 0, Name: "Dance"}, genre.Genre{Code: 1, Name: "Folk"})
				relabeled := newService(t, t.TempDir(), modelDir, service.WithRegistry(reg))
				pred, err := relabeled.Predict(ctx, "baby dance all night")
				So(err, ShouldBeNil)
				So(pred.Genre, ShouldEqual, "Dance")
				So(pred.Probabilities[1].Genre, ShouldEqual, "Folk")
			})
		})
	})

	Convey("Given a corpus missing a configured genre", t, func() {
		s := newService(t, corpusDir(t), t.TempDir(), service.WithRegistry(genre.Extended()))

		Convey("Then training fails", func() {
			_, err := s.Classify(ctx)
			So(errors.Is(err, corpus.ErrGenreNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a configured genre whose directory is empty", t, func() {
		dir := corpusDir(t)
		So(os.Mkdir(filepath.Join(dir, "jazz"), 0o755), ShouldBeNil)
		reg := genre.MustRegistry(genre.Genre{Code: 0, Name: "Pop"}, genre.Genre{Code: 1, Name: "Country"}, genre.Genre{Code: 2, Name: "Jazz"})
		modelDir := t.TempDir()
		s := newService(t, dir, modelDir, service.WithRegistry(reg))

		Convey("Then training fails and no model is saved", func() {
			_, err := s.Classify(ctx)
			So(errors.Is(err, corpus.ErrGenreNotFound), ShouldBeTrue)
			_, err = s.Stats(ctx)
			So(errors.Is(err, modelstore.ErrModelNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a registry whose codes have a gap", t, func() {
		reg := genre.MustRegistry(genre.Genre{Code: 0, Name: "Pop"}, genre.Genre{Code: 5, Name: "Country"})
		s := newService(t, corpusDir(t), t.TempDir(), service.WithRegistry(reg))
		_, err := s.Classify(ctx)
		So(err, ShouldBeNil)

		Convey("Then there is one probability per registered genre", func() {
			pred, err := s.Predict(ctx, "whiskey pickup truck")
			So(err, ShouldBeNil)
			So(pred.Genre, ShouldEqual, "Country")
			So(pred.Probabilities, ShouldHaveLength, 2)
			So(pred.Probabilities[0].Genre, ShouldEqual, "Pop")
			So(pred.Probabilities[1].Genre, ShouldEqual, "Country")
			So(total(pred.Probabilities), ShouldAlmostEqual, 1, 1e-9)
		})
	})

	Convey("Given the seven-genre registry", t, func() {
		reg := genre.Extended()
		s := newService(t, corpusWith(t, mergedExtended), t.TempDir(), service.WithRegistry(reg))
		_, err := s.Classify(ctx)
		So(err, ShouldBeNil)

		Convey("Then the probability list follows the registry in code order", func() {
			pred, err := s.Predict(ctx, "saxophone swing smoky lounge")
			So(err, ShouldBeNil)
			So(pred.Genre, ShouldEqual, "Jazz")
			So(pred.Probabilities, ShouldHaveLength, reg.Len())
			for i, name := range reg.Names() {
				So(pred.Probabilities[i].Genre, ShouldEqual, name)
			}
			So(total(pred.Probabilities), ShouldAlmostEqual, 1, 1e-9)
		})
	})

	Convey("Given a service without probabilities", t, func() {
		s := newService(t, corpusDir(t), t.TempDir(), service.WithClassifier(classifier.NearestCentroidName))
		_, err := s.Classify(ctx)
		So(err, ShouldBeNil)

		Convey("Then predictions carry only the genre", func() {
			pred, err := s.Predict(ctx, "whiskey pickup truck")
			So(err, ShouldBeNil)
			So(pred.Genre, ShouldEqual, "Country")
			So(pred.HasProbabilities(), ShouldBeFalse)
		})
	})
}

// blockingEngine holds ReadTable until released.
type blockingEngine struct {
	*engine.Local
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (b *blockingEngine) ReadTable(ctx context.Context, dir string) (*table.Table, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.Local.ReadTable(ctx, dir)
}

func TestClassifyExclusive(t *testing.T) {
	ctx := context.Background()

	Convey("Given a training run in progress", t, func() {
		eng := &blockingEngine{Local: engine.NewLocal(), entered: make(chan struct{}), release: make(chan struct{})}
		s := newService(t, corpusDir(t), t.TempDir(), service.WithEngine(eng))

		done := make(chan error, 1)
		go func() {
			_, err := s.Classify(ctx)
			done <- err
		}()
		<-eng.entered

		Convey("Then a second run is rejected", func() {
			_, err := s.Classify(ctx)
			So(errors.Is(err, service.ErrTrainingInProgress), ShouldBeTrue)
			So(s.Info()["training"], ShouldEqual, true)

			close(eng.release)
			So(<-done, ShouldBeNil)
			So(s.Info()["training"], ShouldEqual, false)
		})
	})
}
