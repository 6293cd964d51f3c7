// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package rowspan

import (
	"github.com/open-policy-agent/grid/data"
)

// Range is an inclusive pair of row or column indices. The first index may
// be greater than the second.
type Range [2]int

func (r Range) sorted() (Range, bool) {
	if r[0] > r[1] {
		return Range{r[1], r[0]}, true
	}
	return r, false
}

// TopIndex returns the index of the main row of the span the row at index
// participates in on column, or index if the cell is not merged.
func TopIndex(rows []*data.RawRow, index int, column string) (int, error) {
	if err := checkIndex(rows, index); err != nil {
		return 0, err
	}
	span, ok := rows[index].RowSpanMap[column]
	if !ok {
		return index, nil
	}
	return newIndex(rows).mainIndex(span.MainRowKey, column)
}

// BottomIndex returns the index of the last row of the span the row at index
// participates in on column, or index if the cell is not merged.
func BottomIndex(rows []*data.RawRow, index int, column string) (int, error) {
	if err := checkIndex(rows, index); err != nil {
		return 0, err
	}
	span, ok := rows[index].RowSpanMap[column]
	if !ok {
		return index, nil
	}
	top, err := newIndex(rows).mainIndex(span.MainRowKey, column)
	if err != nil {
		return 0, err
	}
	return top + span.SpanCount - 1, nil
}

// MaxRowSpanCount returns the largest span count among the spans the row at
// index participates in, or 0.
func MaxRowSpanCount(rows []*data.RawRow, index int) int {
	if index < 0 || index >= len(rows) {
		return 0
	}
	return rows[index].RowSpanMap.MaxSpanCount()
}

// VerticalPos returns the top and bottom pixel positions of the cell at index
// on column. Merged cells cover every member row of their span.
func VerticalPos(rows []*data.RawRow, index int, column string, offsets, heights []int) (int, int, error) {
	if err := checkIndex(rows, index); err != nil {
		return 0, 0, err
	}
	top, count := index, 1
	if span, ok := rows[index].RowSpanMap[column]; ok {
		var err error
		if top, err = newIndex(rows).mainIndex(span.MainRowKey, column); err != nil {
			return 0, 0, err
		}
		count = span.SpanCount
	}

	bottom := offsets[top]
	for i := top; i < top+count && i < len(heights); i++ {
		bottom += heights[i]
	}
	return offsets[top], bottom, nil
}

// RangeWithRowSpan expands rowRange until no span on the columns in colRange
// crosses its boundary.
func RangeWithRowSpan(rowRange, colRange Range, columns []string, rows []*data.RawRow) (Range, error) {
	rowRange, reversed := rowRange.sorted()
	colRange, _ = colRange.sorted()
	for _, i := range rowRange {
		if err := checkIndex(rows, i); err != nil {
			return rowRange, err
		}
	}
	colRange[0] = max(colRange[0], 0)
	idx := newIndex(rows)

	for {
		start, end := rowRange[0], rowRange[1]

		for c := colRange[0]; c <= colRange[1] && c < len(columns); c++ {
			col := columns[c]

			if span, ok := rows[start].RowSpanMap[col]; ok {
				top, err := idx.mainIndex(span.MainRowKey, col)
				if err != nil {
					return rowRange, err
				}
				start = max(min(start, top), 0)
			}

			if span, ok := rows[end].RowSpanMap[col]; ok {
				top, err := idx.mainIndex(span.MainRowKey, col)
				if err != nil {
					return rowRange, err
				}
				end = min(max(end, top+span.SpanCount-1), len(rows)-1)
			}
		}

		if start == rowRange[0] && end == rowRange[1] {
			break
		}
		rowRange = Range{start, end}
	}

	if reversed {
		return Range{rowRange[1], rowRange[0]}, nil
	}
	return rowRange, nil
}

// MaxRowSpanRange is like RangeWithRowSpan but starts the selection at the
// focused row when it differs from the start of rowRange.
func MaxRowSpanRange(rowRange, colRange Range, columns []string, focusRowIndex int, rows []*data.RawRow) (Range, error) {
	if focusRowIndex >= 0 && focusRowIndex != rowRange[0] {
		rowRange[0] = focusRowIndex
	}
	return RangeWithRowSpan(rowRange, colRange, columns, rows)
}

// RowRangeWithRowSpan returns rowRange expanded to whole spans, or rowRange
// unchanged when span behavior is disabled by sort.
func RowRangeWithRowSpan(rowRange, colRange Range, columns []string, focusRowIndex int, rows []*data.RawRow, sort data.SortState) (Range, error) {
	if !IsEnabled(sort) {
		return rowRange, nil
	}
	return MaxRowSpanRange(rowRange, colRange, columns, focusRowIndex, rows)
}

func (x *index) mainIndex(key data.RowKey, col string) (int, error) {
	i := x.of(key)
	if i < 0 {
		return 0, mainRowNotFoundError(key, col)
	}
	return i, nil
}

func checkIndex(rows []*data.RawRow, index int) error {
	if index < 0 || index >= len(rows) {
		return indexOutOfRangeError(index, len(rows))
	}
	return nil
}
