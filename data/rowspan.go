// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package data

import (
	"slices"
)

// RowSpan describes the membership of one row in a vertically merged cell.
//
// The main row owns the merged block: MainRow is true and Count equals
// SpanCount. Sub rows carry the negative distance to the main row in Count.
// Every member, the main row included, refers to the main row by key.
type RowSpan struct {
	MainRow    bool   `json:"mainRow"`
	MainRowKey RowKey `json:"mainRowKey"`
	Count      int    `json:"count"`
	SpanCount  int    `json:"spanCount"`
}

// RowSpanMap maps column names to the span a row participates in. Columns
// without a merge have no entry.
type RowSpanMap map[string]RowSpan

// MainRowSpan returns the entry of the main row of a span of spanCount rows.
func MainRowSpan(key RowKey, spanCount int) RowSpan {
	return RowSpan{
		MainRow:    true,
		MainRowKey: key,
		Count:      spanCount,
		SpanCount:  spanCount,
	}
}

// SubRowSpan returns the entry of the row offset rows below the main row.
func SubRowSpan(mainKey RowKey, offset, spanCount int) RowSpan {
	return RowSpan{
		MainRow:    false,
		MainRowKey: mainKey,
		Count:      -offset,
		SpanCount:  spanCount,
	}
}

// Offset returns the distance of the row from the main row of its span.
func (s RowSpan) Offset() int {
	if s.MainRow {
		return 0
	}
	return -s.Count
}

// Next returns the entry of the row following this one, if the span extends
// past it.
func (s RowSpan) Next() (RowSpan, bool) {
	offset := s.Offset() + 1
	if offset >= s.SpanCount {
		return RowSpan{}, false
	}
	return SubRowSpan(s.MainRowKey, offset, s.SpanCount), true
}

// Columns returns the spanned column names in sorted order.
func (m RowSpanMap) Columns() []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// MaxSpanCount returns the largest span count in m, or 0 if m is empty.
func (m RowSpanMap) MaxSpanCount() int {
	n := 0
	for _, s := range m {
		n = max(n, s.SpanCount)
	}
	return n
}

// newRowSpanMap creates the span entries of a row from its explicit span
// declaration and the entries of the row preceding it. A span continuing from
// the previous row takes precedence over a declaration on the same column.
func newRowSpanMap(key RowKey, declared map[string]int, prev *RawRow) (RowSpanMap, error) {
	m := RowSpanMap{}

	for col, n := range declared {
		if n < 1 {
			return nil, invalidRowSpanError("row key %q: column %q: span count must be positive, got %d", key, col, n)
		}
		if n > 1 {
			m[col] = MainRowSpan(key, n)
		}
	}

	if prev != nil {
		for col, span := range prev.RowSpanMap {
			if sub, ok := span.Next(); ok {
				m[col] = sub
			}
		}
	}

	return m, nil
}

// clampTrailingSpans shrinks spans that were declared to run past the last row
// of rows so that every span covers exactly SpanCount existing rows. Spans
// left with a single row are removed.
func clampTrailingSpans(rows []*RawRow) []string {
	if len(rows) == 0 {
		return nil
	}

	var clamped []string
	last := len(rows) - 1

	for _, col := range rows[last].RowSpanMap.Columns() {
		span := rows[last].RowSpanMap[col]
		if _, ok := span.Next(); !ok {
			continue
		}
		actual := span.Offset() + 1
		mainIndex := last - span.Offset()
		clamped = append(clamped, col)

		if actual < 2 {
			delete(rows[mainIndex].RowSpanMap, col)
			continue
		}
		rows[mainIndex].RowSpanMap[col] = MainRowSpan(span.MainRowKey, actual)
		for offset := 1; offset < actual; offset++ {
			rows[mainIndex+offset].RowSpanMap[col] = SubRowSpan(span.MainRowKey, offset, actual)
		}
	}

	return clamped
}
