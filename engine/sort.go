// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package engine

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/open-policy-agent/grid/data"
	"github.com/open-policy-agent/grid/metrics"
	"github.com/open-policy-agent/grid/util"
)

// Sort stably reorders rows by the values of columnName. Sorting by
// data.SortKeyColumn ascending restores natural order and re-enables spans.
func (e *Engine) Sort(columnName string, ascending bool) error {
	if columnName != data.SortKeyColumn {
		if _, ok := e.dataset.Columns().Get(columnName); !ok {
			return data.NewColumnNotFoundError(columnName)
		}
	}

	t := e.metrics.Timer(metrics.EngineSort)
	t.Start()
	defer t.Stop()

	compare := func(a, b *data.RawRow) int {
		return cmp.Compare(a.SortKey, b.SortKey)
	}
	if columnName != data.SortKeyColumn {
		compare = func(a, b *data.RawRow) int {
			return compareValues(sortValue(a, columnName), sortValue(b, columnName))
		}
	}

	e.store.Batch("sort", func() {
		e.dataset.Reorder(func(a, b *data.RawRow) int {
			if ascending {
				return compare(a, b)
			}
			return compare(b, a)
		})
		e.dataset.SetSortState(data.SortState{
			UseClient: true,
			Columns:   []data.SortColumn{{ColumnName: columnName, Ascending: ascending}},
		})
		e.renumber(0)
	})

	e.logger.Debug("Sorted rows by %q (ascending: %v).", columnName, ascending)
	return nil
}

// UnSort restores natural order.
func (e *Engine) UnSort() error {
	return e.Sort(data.SortKeyColumn, true)
}

func sortValue(row *data.RawRow, columnName string) any {
	switch columnName {
	case data.RowNumberColumn:
		return row.RowNum(nil)
	case data.CheckboxColumn:
		return row.Checked(nil)
	}
	return row.Value(nil, columnName)
}

// compareValues orders nil first, then booleans, numbers and strings. Values
// of other types compare by their printed form after every comparable value.
func compareValues(a, b any) int {
	ac, bc := util.Comparable(a), util.Comparable(b)
	switch {
	case ac && bc:
		return util.Compare(a, b)
	case ac:
		return -1
	case bc:
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
