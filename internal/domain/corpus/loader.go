// Package corpus turns the on-disk lyric corpus into the labeled training table.
package corpus

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/okian/lyrics/internal/domain/dedupe"
	"github.com/okian/lyrics/internal/domain/genre"
	"github.com/okian/lyrics/internal/domain/model"
	"github.com/okian/lyrics/internal/domain/table"
	"github.com/okian/lyrics/pkg/logger"
	"github.com/okian/lyrics/pkg/metrics"
)

// Engine reads and writes tables.
type Engine interface {
	ReadTable(ctx context.Context, dir string) (*table.Table, error)
	ReadFile(ctx context.Context, path string) (*table.Table, error)
	WriteTable(ctx context.Context, t *table.Table, dir string, mode model.SaveMode) (bool, error)
	Exists(path string) bool
	DefaultMinPartitions() int
}

// SplitReport lists the genre directories a split wrote and skipped.
type SplitReport struct {
	Written []string
	Skipped []string
}

// Loader reads a corpus laid out as one sub-directory per genre under dir.
type Loader struct {
	engine      Engine
	registry    *genre.Registry
	dir         string
	mergedFile  string
	genreColumn string
	textColumn  string
	logger      logger.Logger
}

// NewLoader creates a loader for the corpus rooted at dir.
func NewLoader(eng Engine, reg *genre.Registry, dir string, opts ...Option) *Loader {
	l := &Loader{
		engine:      eng,
		registry:    reg,
		dir:         dir,
		mergedFile:  DefaultMergedFile,
		genreColumn: DefaultGenreColumn,
		textColumn:  DefaultTextColumn,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Get().Named("corpus")
	}
	return l
}

// Dir is the corpus root.
func (l *Loader) Dir() string { return l.dir }

// Load splits the merged file if present and builds the training table for
// every genre in the registry.
func (l *Loader) Load(ctx context.Context) (*table.Table, error) {
	if _, err := l.SplitMerged(ctx); err != nil {
		return nil, err
	}
	return l.BuildTrainingTable(ctx, l.registry.Genres())
}

// SplitMerged splits the merged CSV into one directory per distinct genre
// value, renaming the text column to "value". Directories that already exist
// are left untouched, so the split is idempotent. A missing merged file is
// not an error.
func (l *Loader) SplitMerged(ctx context.Context) (SplitReport, error) {
	var report SplitReport
	if !l.engine.Exists(l.dir) {
		return report, fmt.Errorf("%w: %s", ErrCorpusNotFound, l.dir)
	}
	merged := filepath.Join(l.dir, l.mergedFile)
	if !l.engine.Exists(merged) {
		l.logger.Debug(ctx, "no merged file, using per-genre layout", logger.String("path", merged))
		return report, nil
	}

	src, err := l.engine.ReadFile(ctx, merged)
	if err != nil {
		return report, fmt.Errorf("read merged file: %w", err)
	}
	if src.Count() > 0 {
		if _, ok := src.Rows()[0].Attributes[l.genreColumn]; !ok {
			return report, fmt.Errorf("%w: %q in %s", ErrMissingColumn, l.genreColumn, merged)
		}
	}

	values, groups := src.GroupBy(func(r model.Record) string {
		return strings.TrimSpace(r.Attribute(l.genreColumn))
	})
	seen := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(len(values)))
	for _, value := range values {
		dir := genre.Slugify(value)
		if dir == "" {
			l.logger.Warn(ctx, "skipping rows without a usable genre",
				logger.String("value", value),
				logger.Int("rows", groups[value].Count()),
			)
			continue
		}
		if seen.SeenAndRecord(ctx, dir) {
			// another spelling of the same genre already owns the directory
			l.logger.Warn(ctx, "genre directory already written in this pass",
				logger.String("value", value),
				logger.String("dir", dir),
				logger.Int("rows", groups[value].Count()),
			)
			report.Skipped = append(report.Skipped, dir)
			metrics.RecordCorpusSplit(false)
			continue
		}

		out := groups[value].RenameAttribute(l.textColumn)
		written, err := l.engine.WriteTable(ctx, out, filepath.Join(l.dir, dir), model.SaveIgnore)
		if err != nil {
			seen.Unrecord(ctx, dir)
			return report, fmt.Errorf("write genre %q: %w", value, err)
		}
		metrics.RecordCorpusSplit(written)
		if written {
			report.Written = append(report.Written, dir)
			l.logger.Info(ctx, "saved genre split",
				logger.String("dir", dir),
				logger.String("rows", humanize.Comma(int64(out.Count()))),
			)
		} else {
			report.Skipped = append(report.Skipped, dir)
		}
	}
	return report, nil
}

// LoadGenreTable reads one genre's directory, keeps only sentence-like rows
// and labels them with the genre's code. A directory without CSV files is
// ErrGenreNotFound, like a missing one.
func (l *Loader) LoadGenreTable(ctx context.Context, g genre.Genre) (*table.Table, error) {
	dir := filepath.Join(l.dir, g.Dir())
	if !l.engine.Exists(dir) {
		return nil, fmt.Errorf("%w: %s at %s", ErrGenreNotFound, g.Name, dir)
	}
	raw, err := l.engine.ReadTable(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("read genre %s: %w", g.Name, err)
	}
	if raw.Partitions() == 0 {
		return nil, fmt.Errorf("%w: %s has no csv files at %s", ErrGenreNotFound, g.Name, dir)
	}
	labeled := raw.
		RenameAttribute(l.textColumn).
		Filter(func(r model.Record) bool { return model.IsSentence(r.Value) }).
		WithLabel(g.Code)

	l.logger.Info(ctx, "genre sentences",
		logger.String("genre", g.Name),
		logger.String("rows", humanize.Comma(int64(labeled.Count()))),
		logger.Int("dropped", raw.Count()-labeled.Count()),
	)
	metrics.UpdateCorpusRows(g.Name, labeled.Count())
	return labeled, nil
}

// BuildTrainingTable loads genres concurrently, unions them in the given
// order, coalesces to the engine's minimum partition count and materializes
// the result. Any missing genre fails the whole build.
func (l *Loader) BuildTrainingTable(ctx context.Context, genres []genre.Genre) (*table.Table, error) {
	if !l.engine.Exists(l.dir) {
		return nil, fmt.Errorf("%w: %s", ErrCorpusNotFound, l.dir)
	}

	seen := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(len(genres)))
	unique := make([]genre.Genre, 0, len(genres))
	for _, g := range genres {
		if seen.SeenAndRecord(ctx, g.Dir()) {
			l.logger.Warn(ctx, "genre listed twice, loading once", logger.String("genre", g.Name))
			continue
		}
		unique = append(unique, g)
	}
	if len(unique) == 0 {
		return nil, fmt.Errorf("%w: no genres", ErrEmptyTable)
	}

	tables := make([]*table.Table, len(unique))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, g := range unique {
		eg.Go(func() error {
			t, err := l.LoadGenreTable(egCtx, g)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	input := tables[0].
		Union(tables[1:]...).
		Coalesce(l.engine.DefaultMinPartitions()).
		Cache()
	rows := input.Count()
	metrics.UpdateTrainingTableRows(rows)
	if rows == 0 {
		return nil, fmt.Errorf("%w: %d genres under %s", ErrEmptyTable, len(unique), l.dir)
	}
	l.logger.Info(ctx, "training table ready",
		logger.String("rows", humanize.Comma(int64(rows))),
		logger.Int("genres", len(unique)),
		logger.Int("partitions", input.Partitions()),
	)
	return input, nil
}
