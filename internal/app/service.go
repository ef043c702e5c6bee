// Package service implements the two operations behind the API: training a
// genre classifier from the corpus and predicting the genre of new lyrics.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/lyrics/internal/adapters/engine"
	"github.com/okian/lyrics/internal/adapters/modelstore"
	"github.com/okian/lyrics/internal/adapters/mq/worker"
	"github.com/okian/lyrics/internal/domain/classifier"
	"github.com/okian/lyrics/internal/domain/corpus"
	"github.com/okian/lyrics/internal/domain/evaluation"
	"github.com/okian/lyrics/internal/domain/features"
	"github.com/okian/lyrics/internal/domain/genre"
	"github.com/okian/lyrics/internal/domain/model"
	"github.com/okian/lyrics/internal/domain/pipeline"
	"github.com/okian/lyrics/internal/domain/tuning"
	"github.com/okian/lyrics/pkg/logger"
	"github.com/okian/lyrics/pkg/metrics"
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// ModelStore persists cross-validation results.
type ModelStore interface {
	Save(ctx context.Context, res *tuning.Result, dir string, mode model.SaveMode) (bool, error)
	Load(ctx context.Context, dir string) (*tuning.Result, error)
}

// Service trains and serves the lyrics genre classifier.
type Service struct {
	registry *genre.Registry
	engine   corpus.Engine
	store    ModelStore

	corpusDir   string
	mergedFile  string
	modelDir    string
	classifier  string
	metric      string
	folds       int
	seed        int64
	workerCount int
	grid        map[string][]float64
	saveMode    model.SaveMode

	training atomic.Bool
	logger   logger.Logger
}

// New constructs a Service. Without options it trains naive Bayes on the
// basic registry with weighted F1 and three folds.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		corpusDir:   DefaultCorpusDir,
		mergedFile:  corpus.DefaultMergedFile,
		modelDir:    DefaultModelDir,
		classifier:  classifier.NaiveBayesName,
		metric:      evaluation.MetricF1,
		folds:       tuning.DefaultFolds,
		seed:        tuning.DefaultSeed,
		workerCount: runtime.NumCPU(),
		saveMode:    model.SaveOverwrite,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.registry == nil {
		s.registry = genre.Basic()
	}
	if s.engine == nil {
		s.engine = engine.NewLocal(engine.WithParallelism(s.workerCount))
	}
	if s.store == nil {
		s.store = modelstore.NewBadger(pipeline.NewCodec(features.Register, classifier.Register))
	}

	if _, err := classifier.New(s.classifier); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	if _, err := evaluation.NewMulticlass(evaluation.WithMetric(s.metric)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	if !s.saveMode.Valid() {
		return nil, fmt.Errorf("%w: save mode %q", ErrInvalidOption, s.saveMode)
	}
	return s, nil
}

// Registry is the genre registry predictions are mapped through.
func (s *Service) Registry() *genre.Registry { return s.registry }

// ModelPath is the directory the current classifier's model lives in.
func (s *Service) ModelPath() string { return filepath.Join(s.modelDir, s.classifier) }

// Classify trains on the corpus, saves the selected model and returns its
// statistics. Only one training runs at a time; a concurrent call gets
// ErrTrainingInProgress.
func (s *Service) Classify(ctx context.Context) (map[string]float64, error) {
	if !s.training.CompareAndSwap(false, true) {
		return nil, ErrTrainingInProgress
	}
	defer s.training.Store(false)

	runID := uuid.NewString()
	start := time.Now()
	s.logger.Info(ctx, "training started", logger.String("run_id", runID), logger.String("classifier", s.classifier))

	stats, err := s.classify(ctx, runID)
	took := time.Since(start)
	if err != nil {
		metrics.RecordTrainingRun("error", took)
		metrics.RecordErrorByComponent("service", "training")
		s.logger.Error(ctx, "training failed", logger.String("run_id", runID), logger.Error(err), logger.Duration("took", took))
		return nil, err
	}
	metrics.RecordTrainingRun("success", took)
	s.logger.Info(ctx, "training finished",
		logger.String("run_id", runID),
		logger.Float64(model.StatBestModelMetrics, stats[model.StatBestModelMetrics]),
		logger.Duration("took", took),
	)
	return stats, nil
}

func (s *Service) classify(ctx context.Context, runID string) (map[string]float64, error) {
	loader := corpus.NewLoader(s.engine, s.registry, s.corpusDir,
		corpus.WithMergedFile(s.mergedFile),
		corpus.WithLogger(s.logger.Named("corpus")),
	)
	t, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	est, err := classifier.New(s.classifier)
	if err != nil {
		return nil, err
	}
	ev, err := evaluation.NewMulticlass(evaluation.WithMetric(s.metric))
	if err != nil {
		return nil, err
	}
	gb := pipeline.NewParamGridBuilder()
	for name, values := range s.grid {
		gb.AddGrid(name, values...)
	}
	cv, err := tuning.NewCrossValidator(pipeline.New(append(features.Default(), est)...), ev,
		tuning.WithGrid(gb.Build()),
		tuning.WithFolds(s.folds),
		tuning.WithSeed(s.seed),
		tuning.WithRunner(worker.NewRunner(s.workerCount)),
		tuning.WithRunID(runID),
		tuning.WithLogger(s.logger.Named("tuning")),
	)
	if err != nil {
		return nil, err
	}
	res, err := cv.Fit(ctx, t)
	if err != nil {
		return nil, err
	}

	written, err := s.store.Save(ctx, res, s.ModelPath(), s.saveMode)
	if err != nil {
		return nil, err
	}
	if !written {
		s.logger.Warn(ctx, "existing model kept", logger.String("dir", s.ModelPath()))
	}
	return res.Statistics(), nil
}

// Predict returns the genre of text. Each line is one row; rows that are
// empty or a single word are dropped. Probabilities follow the model's class
// labels in ascending code order. When no row is left the prediction is
// Unknown without probabilities. The model is loaded first, so a missing
// model is reported even for empty input.
func (s *Service) Predict(ctx context.Context, text string) (model.GenrePrediction, error) {
	start := time.Now()
	res, err := s.store.Load(ctx, s.ModelPath())
	if err != nil {
		return model.GenrePrediction{}, err
	}
	s.logger.Debug(ctx, "model statistics", logger.Any("statistics", res.Statistics()))

	var records []model.Record
	for _, line := range lineBreak.Split(text, -1) {
		if model.IsSentence(line) {
			records = append(records, model.Record{ID: model.PredictionID, Value: line, Label: genre.UnknownCode})
		}
	}
	if len(records) == 0 {
		metrics.RecordPrediction(genre.Unknown.Name, msSince(start))
		return model.GenrePrediction{Genre: genre.Unknown.Name}, nil
	}

	out, err := res.Transform(ctx, records)
	if err != nil {
		return model.GenrePrediction{}, err
	}
	first, ok := out.First()
	if !ok {
		return model.GenrePrediction{Genre: genre.Unknown.Name}, nil
	}

	pred := model.GenrePrediction{Genre: s.registry.NameOf(first.Prediction)}
	if out.HasColumn(model.ColumnProbability) {
		labels := out.Labels()
		if len(labels) != len(first.Probability) {
			return model.GenrePrediction{}, fmt.Errorf("%w: %s: %d probabilities for %d labels",
				modelstore.ErrCorruptModel, s.ModelPath(), len(first.Probability), len(labels))
		}
		pred.Probabilities = make([]model.Probability, len(labels))
		for i, p := range first.Probability {
			pred.Probabilities[i] = model.Probability{Genre: s.registry.NameOf(labels[i]), Value: p}
		}
	}
	metrics.RecordPrediction(pred.Genre, msSince(start))
	s.logger.Debug(ctx, "prediction",
		logger.String("genre", pred.Genre),
		logger.Float64("prediction", first.Prediction),
		logger.Int("rows", out.Len()),
	)
	return pred, nil
}

// Stats returns the statistics of the saved model.
func (s *Service) Stats(ctx context.Context) (map[string]float64, error) {
	res, err := s.store.Load(ctx, s.ModelPath())
	if err != nil {
		return nil, err
	}
	return res.Statistics(), nil
}

// Info describes the service configuration.
func (s *Service) Info() map[string]any {
	return map[string]any{
		"genres":     s.registry.Names(),
		"classifier": s.classifier,
		"metric":     s.metric,
		"folds":      s.folds,
		"workers":    s.workerCount,
		"training":   s.training.Load(),
		"model_dir":  s.ModelPath(),
	}
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
