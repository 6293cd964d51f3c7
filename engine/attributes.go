// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package engine

import (
	"slices"

	"github.com/open-policy-agent/grid/data"
	"github.com/open-policy-agent/grid/event"
)

// Check checks the row with rowKey unless its checkbox is disabled.
func (e *Engine) Check(rowKey data.RowKey) error {
	return e.setChecked(rowKey, true)
}

// Uncheck unchecks the row with rowKey unless its checkbox is disabled.
func (e *Engine) Uncheck(rowKey data.RowKey) error {
	return e.setChecked(rowKey, false)
}

func (e *Engine) setChecked(rowKey data.RowKey, checked bool) error {
	row, ok := e.dataset.RowByKey(rowKey)
	if !ok {
		return data.NewRowNotFoundError(rowKey)
	}
	if row.CheckDisabled(nil) || row.Checked(nil) == checked {
		return nil
	}
	row, err := e.fullRow(rowKey)
	if err != nil {
		return err
	}
	row.SetChecked(checked)
	e.bus.Trigger(&event.Event{Type: checkEvent(checked), RowKey: rowKey})
	return nil
}

// CheckAll checks every row passing the active filters.
func (e *Engine) CheckAll() {
	e.setAllChecked(true)
}

// UncheckAll unchecks every row passing the active filters.
func (e *Engine) UncheckAll() {
	e.setAllChecked(false)
}

func (e *Engine) setAllChecked(checked bool) {
	e.store.Batch("checkAll", func() {
		for _, i := range e.dataset.FilteredIndex() {
			row, _ := e.dataset.Row(i)
			if !row.CheckDisabled(nil) && row.Checked(nil) != checked {
				row.SetChecked(checked)
				e.dataset.Refresh(i)
			}
		}
	})
	e.bus.Trigger(&event.Event{Type: checkEvent(checked)})
}

func checkEvent(checked bool) event.Type {
	if checked {
		return event.Check
	}
	return event.Uncheck
}

// CheckedRowKeys returns the keys of checked rows in display order.
func (e *Engine) CheckedRowKeys() []data.RowKey {
	var keys []data.RowKey
	for _, row := range e.dataset.RawData() {
		if row.Checked(nil) {
			keys = append(keys, row.RowKey)
		}
	}
	return keys
}

// DisableRow disables the cells of the row with rowKey, and its checkbox if
// withCheckbox is set. An edit open on the row is cancelled.
func (e *Engine) DisableRow(rowKey data.RowKey, withCheckbox bool) error {
	return e.setRowDisabled(rowKey, true, withCheckbox)
}

// EnableRow enables the cells of the row with rowKey, and its checkbox if
// withCheckbox is set.
func (e *Engine) EnableRow(rowKey data.RowKey, withCheckbox bool) error {
	return e.setRowDisabled(rowKey, false, withCheckbox)
}

func (e *Engine) setRowDisabled(rowKey data.RowKey, disabled, withCheckbox bool) error {
	row, err := e.fullRow(rowKey)
	if err != nil {
		return err
	}

	if addr := e.focus.State(nil).EditingAddress; disabled && addr != nil && addr.RowKey == rowKey {
		if _, err := e.focus.CancelEditing(addr.RowKey, addr.ColumnName); err != nil {
			return err
		}
	}

	e.store.Batch("setRowDisabled", func() {
		row.SetDisabled(disabled)
		if withCheckbox {
			row.SetCheckDisabled(disabled)
		}
	})
	return nil
}

// AddRowClassName attaches className to the row with rowKey.
func (e *Engine) AddRowClassName(rowKey data.RowKey, className string) error {
	return e.updateClassName(rowKey, func(c *data.ClassName) {
		if !slices.Contains(c.Row, className) {
			c.Row = append(c.Row, className)
		}
	})
}

// RemoveRowClassName detaches className from the row with rowKey.
func (e *Engine) RemoveRowClassName(rowKey data.RowKey, className string) error {
	return e.updateClassName(rowKey, func(c *data.ClassName) {
		c.Row = slices.DeleteFunc(c.Row, func(s string) bool { return s == className })
	})
}

// AddCellClassName attaches className to the cell at rowKey and columnName.
func (e *Engine) AddCellClassName(rowKey data.RowKey, columnName, className string) error {
	if _, ok := e.dataset.Columns().Get(columnName); !ok {
		return data.NewColumnNotFoundError(columnName)
	}
	return e.updateClassName(rowKey, func(c *data.ClassName) {
		if !slices.Contains(c.Column[columnName], className) {
			c.Column[columnName] = append(c.Column[columnName], className)
		}
	})
}

// RemoveCellClassName detaches className from the cell at rowKey and
// columnName.
func (e *Engine) RemoveCellClassName(rowKey data.RowKey, columnName, className string) error {
	if _, ok := e.dataset.Columns().Get(columnName); !ok {
		return data.NewColumnNotFoundError(columnName)
	}
	return e.updateClassName(rowKey, func(c *data.ClassName) {
		c.Column[columnName] = slices.DeleteFunc(c.Column[columnName], func(s string) bool { return s == className })
		if len(c.Column[columnName]) == 0 {
			delete(c.Column, columnName)
		}
	})
}

func (e *Engine) updateClassName(rowKey data.RowKey, fn func(*data.ClassName)) error {
	row, err := e.fullRow(rowKey)
	if err != nil {
		return err
	}
	c := row.ClassName(nil).Clone()
	fn(&c)
	row.SetClassName(c)
	return nil
}
