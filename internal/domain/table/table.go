// Package table holds the partitioned, immutable record collections that flow
// from the corpus loader into training.
package table

import (
	"github.com/okian/lyrics/internal/domain/model"
)

// Table is an immutable, partitioned collection of records. Every operation
// returns a new Table and leaves the receiver untouched.
type Table struct {
	parts  [][]model.Record
	cached bool
	count  int
}

// New builds a table with one partition per argument. Empty partitions are kept.
func New(parts ...[]model.Record) *Table {
	t := &Table{parts: make([][]model.Record, len(parts))}
	for i, p := range parts {
		t.parts[i] = append([]model.Record(nil), p...)
		t.count += len(p)
	}
	return t
}

// FromRecords spreads records over n partitions in contiguous chunks.
func FromRecords(records []model.Record, n int) *Table {
	if n < 1 {
		n = 1
	}
	if n > len(records) && len(records) > 0 {
		n = len(records)
	}
	parts := make([][]model.Record, n)
	for i := 0; i < n; i++ {
		lo, hi := i*len(records)/n, (i+1)*len(records)/n
		parts[i] = records[lo:hi]
	}
	return New(parts...)
}

// Empty is a table with no partitions.
func Empty() *Table { return &Table{} }

// Count is the number of records.
func (t *Table) Count() int { return t.count }

// Partitions is the number of partitions.
func (t *Table) Partitions() int { return len(t.parts) }

// Partition returns a copy of partition i.
func (t *Table) Partition(i int) []model.Record {
	return append([]model.Record(nil), t.parts[i]...)
}

// Rows returns all records, partition by partition.
func (t *Table) Rows() []model.Record {
	out := make([]model.Record, 0, t.count)
	for _, p := range t.parts {
		out = append(out, p...)
	}
	return out
}

// IsCached reports whether the table was materialized with Cache.
func (t *Table) IsCached() bool { return t.cached }

// Filter keeps the records for which keep returns true. Partitioning is preserved.
func (t *Table) Filter(keep func(model.Record) bool) *Table {
	return t.mapParts(func(p []model.Record) []model.Record {
		out := make([]model.Record, 0, len(p))
		for _, r := range p {
			if keep(r) {
				out = append(out, r)
			}
		}
		return out
	})
}

// Map applies fn to every record.
func (t *Table) Map(fn func(model.Record) model.Record) *Table {
	return t.mapParts(func(p []model.Record) []model.Record {
		out := make([]model.Record, len(p))
		for i, r := range p {
			out[i] = fn(r)
		}
		return out
	})
}

// WithLabel sets the label of every record to code.
func (t *Table) WithLabel(code float64) *Table {
	return t.Map(func(r model.Record) model.Record { return r.WithLabel(code) })
}

// RenameAttribute moves the attribute from into the record's Value and drops it.
func (t *Table) RenameAttribute(from string) *Table {
	return t.Map(func(r model.Record) model.Record {
		v, ok := r.Attributes[from]
		if !ok {
			return r
		}
		attrs := make(map[string]string, len(r.Attributes))
		for k, a := range r.Attributes {
			if k != from {
				attrs[k] = a
			}
		}
		r.Value = v
		r.Attributes = attrs
		return r
	})
}

// Union concatenates the partitions of t and others, in argument order.
// Records are not deduplicated and columns are not joined.
func (t *Table) Union(others ...*Table) *Table {
	parts := append([][]model.Record(nil), t.parts...)
	for _, o := range others {
		if o != nil {
			parts = append(parts, o.parts...)
		}
	}
	return &Table{parts: parts, count: countOf(parts)}
}

// Coalesce merges adjacent partitions down to n. It never increases the
// partition count and keeps record order.
func (t *Table) Coalesce(n int) *Table {
	if n < 1 {
		n = 1
	}
	if n >= len(t.parts) {
		return &Table{parts: t.parts, count: t.count, cached: t.cached}
	}
	parts := make([][]model.Record, n)
	for i := 0; i < n; i++ {
		lo, hi := i*len(t.parts)/n, (i+1)*len(t.parts)/n
		var merged []model.Record
		for _, p := range t.parts[lo:hi] {
			merged = append(merged, p...)
		}
		parts[i] = merged
	}
	return &Table{parts: parts, count: t.count}
}

// Cache materializes the table into owned partitions. Calling it on a cached
// table returns the same table.
func (t *Table) Cache() *Table {
	if t.cached {
		return t
	}
	c := New(t.parts...)
	c.cached = true
	return c
}

// GroupBy splits the table by key, returning keys in first-seen order.
func (t *Table) GroupBy(key func(model.Record) string) ([]string, map[string]*Table) {
	var keys []string
	groups := make(map[string][]model.Record)
	for _, p := range t.parts {
		for _, r := range p {
			k := key(r)
			if _, ok := groups[k]; !ok {
				keys = append(keys, k)
			}
			groups[k] = append(groups[k], r)
		}
	}
	out := make(map[string]*Table, len(groups))
	for k, rs := range groups {
		out[k] = New(rs)
	}
	return keys, out
}

func (t *Table) mapParts(fn func([]model.Record) []model.Record) *Table {
	parts := make([][]model.Record, len(t.parts))
	for i, p := range t.parts {
		parts[i] = fn(p)
	}
	return &Table{parts: parts, count: countOf(parts)}
}

func countOf(parts [][]model.Record) int {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	return n
}
