// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package rowspan maintains the vertically merged cells of a dataset as rows
// are appended and removed, and answers range and geometry queries over them.
//
// Spans are only meaningful while rows are in natural order. Callers check
// IsEnabled before relying on them.
package rowspan

import (
	"github.com/open-policy-agent/grid/data"
	"github.com/open-policy-agent/grid/logging"
	"github.com/open-policy-agent/grid/metrics"
)

// IsEnabled returns true if span behavior applies under sort.
func IsEnabled(sort data.SortState) bool {
	return sort.Natural()
}

// Updater re-links span maps after structural changes of the rows.
type Updater struct {
	logger  logging.Logger
	metrics metrics.Metrics
}

// Opt configures an Updater.
type Opt func(*Updater)

// WithLogger sets the logger of the updater.
func WithLogger(logger logging.Logger) Opt {
	return func(u *Updater) {
		u.logger = logger
	}
}

// WithMetrics sets the metrics the updater records to.
func WithMetrics(m metrics.Metrics) Opt {
	return func(u *Updater) {
		u.metrics = m
	}
}

// New returns a new Updater.
func New(opts ...Opt) *Updater {
	u := &Updater{
		logger:  logging.NewNoOpLogger(),
		metrics: metrics.NoOp(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UpdateWhenAppend grows the spans the new row was inserted into. rows already
// contains the new row, directly after prevRow. A row inserted after the last
// member of a span is left outside of it unless extend is set.
func (u *Updater) UpdateWhenAppend(rows []*data.RawRow, prevRow *data.RawRow, extend bool) error {
	if prevRow == nil || len(prevRow.RowSpanMap) == 0 {
		return nil
	}

	idx := newIndex(rows)

	for _, col := range prevRow.RowSpanMap.Columns() {
		span := prevRow.RowSpanMap[col]

		main := prevRow
		if !span.MainRow {
			var err error
			if main, err = idx.mainRow(span.MainRowKey, col); err != nil {
				u.logger.Error("Cannot grow span: %v", err)
				return err
			}
		}

		mainSpan := main.RowSpanMap[col]
		startOffset := span.Offset() + 1
		if span.MainRow || extend {
			startOffset = 1
		}

		if mainSpan.SpanCount <= startOffset {
			continue
		}

		u.relink(rows, idx, main, col, mainSpan.SpanCount+1)
	}

	return nil
}

// UpdateWhenInsert links the rows following row into the spans row declares
// as their main row. rows are in natural order and already contain row. A
// declared span stops at the last row and at the next row already merged on
// the same column; a span left with a single row is removed.
func (u *Updater) UpdateWhenInsert(rows []*data.RawRow, row *data.RawRow) {
	if len(row.RowSpanMap) == 0 {
		return
	}

	idx := newIndex(rows)
	start := idx.of(row.RowKey)
	if start < 0 {
		return
	}

	for _, col := range row.RowSpanMap.Columns() {
		span := row.RowSpanMap[col]
		if !span.MainRow || span.MainRowKey != row.RowKey {
			continue
		}

		count := 1
		for count < span.SpanCount && start+count < len(rows) {
			if _, ok := rows[start+count].RowSpanMap[col]; ok {
				break
			}
			count++
		}

		if count < span.SpanCount {
			u.logger.Warn("Row span of column %q at row %q shortened from %d to %d row(s).", col, row.RowKey, span.SpanCount, count)
		}
		if count < 2 {
			delete(row.RowSpanMap, col)
			continue
		}
		u.relink(rows, idx, row, col, count)
	}
}

// UpdateWhenRemove shrinks the spans removed participated in. rows no longer
// contains removed; next is the row that followed it. If removed was the main
// row of a span, next becomes the main row and, with keep set, takes over the
// value of the merged cell.
func (u *Updater) UpdateWhenRemove(rows []*data.RawRow, removed, next *data.RawRow, keep bool) error {
	if len(removed.RowSpanMap) == 0 {
		return nil
	}

	idx := newIndex(rows)

	for _, col := range removed.RowSpanMap.Columns() {
		span := removed.RowSpanMap[col]

		var main *data.RawRow
		var spanCount int

		if span.MainRow {
			if next == nil {
				return mainRowNotFoundError(span.MainRowKey, col)
			}
			main = next
			spanCount = span.SpanCount - 1
			if keep {
				next.SetValue(col, removed.Value(nil, col))
			}
		} else {
			var err error
			if main, err = idx.mainRow(span.MainRowKey, col); err != nil {
				u.logger.Error("Cannot shrink span: %v", err)
				return err
			}
			spanCount = main.RowSpanMap[col].SpanCount - 1
		}

		if spanCount > 1 {
			u.relink(rows, idx, main, col, spanCount)
			continue
		}

		delete(main.RowSpanMap, col)
		u.logger.Debug("Span of column %q collapsed at row %q.", col, main.RowKey)
	}

	return nil
}

// relink rewrites the span entries of every member of the span headed by main.
func (u *Updater) relink(rows []*data.RawRow, idx *index, main *data.RawRow, col string, spanCount int) {
	start := idx.of(main.RowKey)
	main.RowSpanMap[col] = data.MainRowSpan(main.RowKey, spanCount)
	for offset := 1; offset < spanCount && start+offset < len(rows); offset++ {
		rows[start+offset].RowSpanMap[col] = data.SubRowSpan(main.RowKey, offset, spanCount)
	}
	u.metrics.Counter(metrics.RowSpanRelink).Incr()
	u.logger.Debug("Re-linked span of column %q at row %q to %d row(s).", col, main.RowKey, spanCount)
}

// index resolves row keys to positions in a row slice.
type index struct {
	rows []*data.RawRow
	pos  map[data.RowKey]int
}

func newIndex(rows []*data.RawRow) *index {
	return &index{rows: rows}
}

func (x *index) of(key data.RowKey) int {
	if x.pos == nil {
		x.pos = make(map[data.RowKey]int, len(x.rows))
		for i, row := range x.rows {
			x.pos[row.RowKey] = i
		}
	}
	if i, ok := x.pos[key]; ok {
		return i
	}
	return -1
}

func (x *index) mainRow(key data.RowKey, col string) (*data.RawRow, error) {
	i := x.of(key)
	if i < 0 {
		return nil, mainRowNotFoundError(key, col)
	}
	return x.rows[i], nil
}
