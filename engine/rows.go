// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package engine

import (
	"cmp"
	"maps"
	"reflect"
	"slices"
	"strconv"

	"github.com/open-policy-agent/grid/data"
	"github.com/open-policy-agent/grid/event"
)

// AppendOptions controls AppendRow and InsertRow.
type AppendOptions struct {
	// ExtendPrevRowSpan grows spans ending at the previous row to include the
	// new row.
	ExtendPrevRowSpan bool
	// Focus moves focus to the new row.
	Focus bool
}

// RemoveOptions controls RemoveRow.
type RemoveOptions struct {
	// KeepRowSpanData moves the value of a removed main row to the row that
	// becomes the new main row of its span.
	KeepRowSpanData bool
}

// AppendRow adds a row built from source after the last row.
func (e *Engine) AppendRow(source map[string]any, opts AppendOptions) (data.RowKey, error) {
	return e.InsertRow(e.dataset.Len(), source, opts)
}

// InsertRow adds a row built from source at index. Without a key column the
// row key continues from the largest numeric key in the dataset.
func (e *Engine) InsertRow(index int, source map[string]any, opts AppendOptions) (data.RowKey, error) {
	index = max(0, min(index, e.dataset.Len()))
	source = maps.Clone(source)
	if source == nil {
		source = map[string]any{}
	}

	if e.dataset.KeyColumnName() == "" {
		if _, ok := source[data.RowKeyField]; !ok {
			source[data.RowKeyField] = e.nextRowKey()
		}
	}

	rows := e.dataset.RawData()
	sortKey := e.nextSortKey()
	var prev *data.RawRow
	if e.SpansEnabled() {
		natural := e.naturalRows()
		if index < len(natural) {
			sortKey = natural[index].SortKey
		}
		if index > 0 {
			prev = natural[index-1]
		}
	}
	source[data.SortKeyField] = sortKey

	row, err := e.dataset.NewRow(source, index, prev)
	if err != nil {
		return "", err
	}

	e.store.Batch("appendRow", func() {
		for _, r := range rows {
			if r.SortKey >= sortKey {
				r.SortKey++
			}
		}
		if err = e.dataset.Insert(index, row); err != nil {
			return
		}
		natural := e.naturalRows()
		if prev != nil {
			if err = e.spans.UpdateWhenAppend(natural, prev, opts.ExtendPrevRowSpan); err != nil {
				return
			}
		}
		e.spans.UpdateWhenInsert(natural, row)
		e.renumber(index)
	})
	if err != nil {
		return "", err
	}

	e.logger.Debug("Inserted row %q at %d.", row.RowKey, index)

	if opts.Focus {
		e.focus.ChangeFocus(row.RowKey, e.focusColumn())
	}
	return row.RowKey, nil
}

// RemoveRow removes the row with rowKey. Focus is reset if it was on the
// removed row. Spans are maintained over the natural order of rows even while
// a column sort is active.
func (e *Engine) RemoveRow(rowKey data.RowKey, opts RemoveOptions) error {
	index := e.dataset.IndexOf(rowKey)
	if index < 0 {
		return data.NewRowNotFoundError(rowKey)
	}

	target, _ := e.dataset.Row(index)
	natural := e.naturalRows()
	pos := slices.Index(natural, target)
	var next *data.RawRow
	if pos+1 < len(natural) {
		next = natural[pos+1]
	}
	natural = slices.Delete(natural, pos, pos+1)

	if next != nil && opts.KeepRowSpanData {
		if _, err := e.fullRow(next.RowKey); err != nil {
			return err
		}
	}

	var err error
	e.store.Batch("removeRow", func() {
		var removed *data.RawRow
		if removed, err = e.dataset.RemoveAt(index); err != nil {
			return
		}
		if err = e.spans.UpdateWhenRemove(natural, removed, next, opts.KeepRowSpanData); err != nil {
			return
		}
		for _, r := range natural {
			if r.SortKey > removed.SortKey {
				r.SortKey--
			}
		}
		e.renumber(index)
	})
	if err != nil {
		return err
	}

	if s := e.focus.State(nil); s.RowKey == rowKey {
		e.focus.InitFocus()
	}

	e.logger.Debug("Removed row %q at %d.", rowKey, index)
	return nil
}

// naturalRows returns a copy of the rows ordered by sort key.
func (e *Engine) naturalRows() []*data.RawRow {
	rows := slices.Clone(e.dataset.RawData())
	slices.SortStableFunc(rows, func(a, b *data.RawRow) int {
		return cmp.Compare(a.SortKey, b.SortKey)
	})
	return rows
}

// fullRow returns the row with rowKey promoted to the full tier, so that its
// view row follows the writes that come next.
func (e *Engine) fullRow(rowKey data.RowKey) (*data.RawRow, error) {
	index := e.dataset.IndexOf(rowKey)
	if index < 0 {
		return nil, data.NewRowNotFoundError(rowKey)
	}
	if _, err := e.dataset.Materialize(index); err != nil {
		return nil, err
	}
	row, _ := e.dataset.Row(index)
	return row, nil
}

// SetValue writes value to the cell at rowKey and columnName. While spans are
// enabled, writes to a sub row of a merged cell go to its main row. Listeners
// of BeforeChange may veto the write.
func (e *Engine) SetValue(rowKey data.RowKey, columnName string, value any) error {
	row, ok := e.dataset.RowByKey(rowKey)
	if !ok {
		return data.NewRowNotFoundError(rowKey)
	}
	if data.IsRowHeader(columnName) {
		return data.NewInvalidColumnError("column %q: row header values cannot be set", columnName)
	}
	if _, ok := e.dataset.Columns().Get(columnName); !ok {
		return data.NewColumnNotFoundError(columnName)
	}

	if span, ok := row.RowSpanMap[columnName]; ok && !span.MainRow && e.SpansEnabled() {
		if row, ok = e.dataset.RowByKey(span.MainRowKey); !ok {
			return data.NewRowNotFoundError(span.MainRowKey)
		}
	}

	if reflect.DeepEqual(row.Value(nil, columnName), value) {
		return nil
	}

	before := &event.Event{Type: event.BeforeChange, RowKey: row.RowKey, ColumnName: columnName, Value: value}
	if !e.bus.Trigger(before) {
		e.logger.Debug("Change of %v vetoed.", before)
		return nil
	}

	row, err := e.fullRow(row.RowKey)
	if err != nil {
		return err
	}
	row.SetValue(columnName, value)

	e.bus.Trigger(&event.Event{Type: event.AfterChange, RowKey: row.RowKey, ColumnName: columnName, Value: value})
	return nil
}

// renumber updates the row numbers of every row from index on.
func (e *Engine) renumber(index int) {
	for i, row := range e.dataset.RawData()[index:] {
		if n := index + i + 1; row.RowNum(nil) != n {
			row.SetRowNum(n)
			e.dataset.Refresh(index + i)
		}
	}
}

func (e *Engine) nextRowKey() string {
	next := 0
	for _, row := range e.dataset.RawData() {
		if n, err := strconv.Atoi(string(row.RowKey)); err == nil && n >= next {
			next = n + 1
		}
	}
	return strconv.Itoa(next)
}

func (e *Engine) nextSortKey() int {
	next := 0
	for _, row := range e.dataset.RawData() {
		next = max(next, row.SortKey+1)
	}
	return next
}

// focusColumn returns the focused column, or the first visible data column.
func (e *Engine) focusColumn() string {
	if s := e.focus.State(nil); s.ColumnName != "" {
		return s.ColumnName
	}
	for _, col := range e.dataset.Columns().Visible() {
		if !data.IsRowHeader(col.Name) {
			return col.Name
		}
	}
	return ""
}
