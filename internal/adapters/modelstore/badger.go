// Package modelstore persists cross-validation results in a badger
// directory: one metadata key plus one key per fitted pipeline stage.
package modelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/okian/lyrics/internal/domain/model"
	"github.com/okian/lyrics/internal/domain/pipeline"
	"github.com/okian/lyrics/internal/domain/tuning"
	"github.com/okian/lyrics/pkg/logger"
	"github.com/okian/lyrics/pkg/metrics"
)

const (
	formatVersion = 2

	metaKey         = "meta"
	stageKeyPattern = "stage:%03d"

	defaultValueLogFileSize = 64 << 20
)

type metadata struct {
	Version    int                 `json:"version"`
	RunID      string              `json:"run_id,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	Metric     string              `json:"metric"`
	AvgMetrics []float64           `json:"avg_metrics"`
	BestIndex  int                 `json:"best_index"`
	Grid       []pipeline.ParamMap `json:"grid"`
	Folds      int                 `json:"folds"`
	Stages     int                 `json:"stages"`
}

// Badger stores one model per directory. Saves and loads are serialized
// since badger holds an exclusive lock on an open directory.
type Badger struct {
	mu               sync.Mutex
	codec            *pipeline.Codec
	syncWrites       bool
	valueLogFileSize int64
	logger           logger.Logger
}

// NewBadger creates a store that decodes stages with codec.
func NewBadger(codec *pipeline.Codec, opts ...Option) *Badger {
	b := &Badger{
		codec:            codec,
		syncWrites:       true,
		valueLogFileSize: defaultValueLogFileSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logger.Get().Named("modelstore")
	}
	return b
}

// Save writes res to dir. With model.SaveIgnore an existing model is kept
// and Save reports false; with model.SaveOverwrite the directory is dropped
// and rewritten.
func (b *Badger) Save(ctx context.Context, res *tuning.Result, dir string, mode model.SaveMode) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !mode.Valid() {
		return false, fmt.Errorf("%w: %q", model.ErrInvalidSaveMode, mode)
	}
	if res == nil || res.Best == nil {
		return false, errors.New("save: no fitted model")
	}
	stages, err := b.codec.EncodeModel(res.Best)
	if err != nil {
		return false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	exists, err := hasModel(dir)
	if err != nil {
		return false, err
	}
	if exists {
		if mode == model.SaveIgnore {
			b.logger.Info(ctx, "model exists, not overwriting", logger.String("dir", dir))
			return false, nil
		}
		if err := os.RemoveAll(dir); err != nil {
			return false, fmt.Errorf("drop model %s: %w", dir, err)
		}
	}

	meta := metadata{
		Version:    formatVersion,
		RunID:      res.RunID,
		CreatedAt:  time.Now().UTC(),
		Metric:     res.Metric,
		AvgMetrics: res.AvgMetrics,
		BestIndex:  res.BestIndex,
		Grid:       res.Grid,
		Folds:      res.Folds,
		Stages:     len(stages),
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return false, fmt.Errorf("encode metadata: %w", err)
	}

	db, err := b.open(dir, false)
	if err != nil {
		return false, err
	}
	defer b.close(ctx, db)

	err = db.Update(func(txn *badger.Txn) error {
		for i, s := range stages {
			data, err := json.Marshal(s)
			if err != nil {
				return fmt.Errorf("encode stage %d: %w", i, err)
			}
			if err := txn.Set(stageKey(i), data); err != nil {
				return err
			}
		}
		return txn.Set([]byte(metaKey), metaBytes)
	})
	if err != nil {
		return false, fmt.Errorf("save model %s: %w", dir, err)
	}
	b.logger.Info(ctx, "model saved",
		logger.String("dir", dir),
		logger.String("run_id", res.RunID),
		logger.Int("stages", len(stages)),
	)
	return true, nil
}

// Load reads the model in dir. A missing or empty directory is
// ErrModelNotFound. Content that does not decode, or decodes into stages
// that fail validation, is ErrCorruptModel.
func (b *Badger) Load(ctx context.Context, dir string) (*tuning.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := b.load(ctx, dir)
	switch {
	case err == nil:
		metrics.RecordModelLoad("success")
	case errors.Is(err, ErrModelNotFound):
		metrics.RecordModelLoad("not_found")
	default:
		metrics.RecordModelLoad("error")
	}
	return res, err
}

func (b *Badger) load(ctx context.Context, dir string) (*tuning.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	exists, err := hasModel(dir)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, dir)
	}

	db, err := b.open(dir, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptModel, dir, err)
	}
	defer b.close(ctx, db)

	var (
		meta   metadata
		stages []pipeline.StageRecord
	)
	err = db.View(func(txn *badger.Txn) error {
		if err := getJSON(txn, []byte(metaKey), &meta); err != nil {
			return fmt.Errorf("metadata: %w", err)
		}
		if meta.Version != formatVersion {
			return fmt.Errorf("unsupported format version %d", meta.Version)
		}
		stages = make([]pipeline.StageRecord, meta.Stages)
		for i := range stages {
			if err := getJSON(txn, stageKey(i), &stages[i]); err != nil {
				return fmt.Errorf("stage %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptModel, dir, err)
	}

	best, err := b.codec.DecodeModel(stages)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptModel, dir, err)
	}
	if len(meta.AvgMetrics) != len(meta.Grid) || meta.BestIndex < 0 || meta.BestIndex >= len(meta.Grid) {
		return nil, fmt.Errorf("%w: %s: best index %d outside grid of %d", ErrCorruptModel, dir, meta.BestIndex, len(meta.Grid))
	}
	b.logger.Debug(ctx, "model loaded", logger.String("dir", dir), logger.String("run_id", meta.RunID))
	return &tuning.Result{
		RunID:      meta.RunID,
		Best:       best,
		AvgMetrics: meta.AvgMetrics,
		BestIndex:  meta.BestIndex,
		Grid:       meta.Grid,
		Metric:     meta.Metric,
		Folds:      meta.Folds,
	}, nil
}

// open opens the badger directory. A read-only open never creates files, so
// loading a directory that is not a model leaves it untouched.
func (b *Badger) open(dir string, readOnly bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{lg: b.logger}).
		WithReadOnly(readOnly).
		WithSyncWrites(b.syncWrites).
		WithNumVersionsToKeep(1).
		WithValueLogFileSize(b.valueLogFileSize).
		WithCompactL0OnClose(!readOnly)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open model dir %s: %w", dir, err)
	}
	return db, nil
}

func (b *Badger) close(ctx context.Context, db *badger.DB) {
	if err := db.Close(); err != nil {
		b.logger.Warn(ctx, "close model dir", logger.Error(err))
	}
}

// hasModel reports whether dir exists and is non-empty.
func hasModel(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read model dir %s: %w", dir, err)
	}
	return len(entries) > 0, nil
}

func stageKey(i int) []byte { return fmt.Appendf(nil, stageKeyPattern, i) }

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error { return json.Unmarshal(val, v) })
}

// badgerLogger adapts logger.Logger to badger's printf-style logger.
type badgerLogger struct {
	lg logger.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.lg.Error(context.Background(), line(format, args))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.lg.Warn(context.Background(), line(format, args))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.lg.Debug(context.Background(), line(format, args))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.lg.Debug(context.Background(), line(format, args))
}

func line(format string, args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
