// Package engine is the local table engine: it reads and writes record tables
// as directories of header CSV files, one partition per file.
package engine

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/okian/lyrics/internal/domain/model"
	"github.com/okian/lyrics/internal/domain/table"
	"github.com/okian/lyrics/pkg/logger"
)

const (
	partPattern     = "part-%05d.csv"
	csvExt          = ".csv"
	maxMinPartition = 2
)

// Local reads and writes tables on the local filesystem.
type Local struct {
	parallelism int
	logger      logger.Logger
}

// NewLocal creates a local engine. Parallelism defaults to the CPU count.
func NewLocal(opts ...Option) *Local {
	l := &Local{parallelism: runtime.NumCPU()}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Get().Named("engine")
	}
	return l
}

// DefaultMinPartitions is min(parallelism, 2).
func (l *Local) DefaultMinPartitions() int {
	return min(l.parallelism, maxMinPartition)
}

// Exists reports whether path exists.
func (l *Local) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadTable reads every CSV file in dir, in name order, one partition per file.
// A column named "value" becomes the record value; the others are kept as
// attributes. The record id is the file's base name.
func (l *Local) ReadTable(ctx context.Context, dir string) (*table.Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, dir)
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), csvExt) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	parts := make([][]model.Record, 0, len(files))
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := readCSV(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		parts = append(parts, recs)
	}
	t := table.New(parts...)
	l.logger.Debug(ctx, "read table",
		logger.String("dir", dir),
		logger.Int("files", len(files)),
		logger.Int("rows", t.Count()),
	)
	return t, nil
}

// ReadFile reads a single CSV file as a one-partition table.
func (l *Local) ReadFile(ctx context.Context, path string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recs, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	return table.New(recs), nil
}

// WriteTable writes t into dir as one CSV file per partition. With
// SaveIgnore an existing dir is left alone and false is returned.
func (l *Local) WriteTable(ctx context.Context, t *table.Table, dir string, mode model.SaveMode) (bool, error) {
	if !mode.Valid() {
		return false, fmt.Errorf("%w: %q", model.ErrInvalidSaveMode, mode)
	}
	if l.Exists(dir) {
		if mode == model.SaveIgnore {
			l.logger.Debug(ctx, "table exists, skipping write", logger.String("dir", dir))
			return false, nil
		}
		if err := os.RemoveAll(dir); err != nil {
			return false, fmt.Errorf("remove %s: %w", dir, err)
		}
	}

	// write into a sibling temp dir and rename so readers never see a partial table
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return false, fmt.Errorf("create %s: %w", parent, err)
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-*")
	if err != nil {
		return false, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	columns := attributeColumns(t)
	for i := 0; i < t.Partitions(); i++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		path := filepath.Join(tmp, fmt.Sprintf(partPattern, i))
		if err := writeCSV(path, columns, t.Partition(i)); err != nil {
			return false, err
		}
	}
	if err := os.Rename(tmp, dir); err != nil {
		return false, fmt.Errorf("rename %s: %w", dir, err)
	}
	l.logger.Debug(ctx, "wrote table",
		logger.String("dir", dir),
		logger.Int("partitions", t.Partitions()),
		logger.Int("rows", t.Count()),
	)
	return true, nil
}

func readCSV(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s has no header", ErrMalformedCSV, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedCSV, path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	id := filepath.Base(path)
	var out []model.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedCSV, path, err)
		}
		rec := model.Record{ID: id, Attributes: make(map[string]string, len(header))}
		for i, col := range header {
			if i >= len(row) {
				break
			}
			if col == model.ColumnValue {
				rec.Value = row[i]
				continue
			}
			rec.Attributes[col] = row[i]
		}
		out = append(out, rec)
	}
	return out, nil
}

func writeCSV(path string, columns []string, recs []model.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(append([]string{model.ColumnValue}, columns...)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	row := make([]string, len(columns)+1)
	for _, r := range recs {
		row[0] = r.Value
		for i, c := range columns {
			row[i+1] = r.Attribute(c)
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// attributeColumns is the sorted union of attribute names across t.
func attributeColumns(t *table.Table) []string {
	seen := map[string]struct{}{}
	for _, r := range t.Rows() {
		for k := range r.Attributes {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
