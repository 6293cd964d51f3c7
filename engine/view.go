// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package engine

import (
	"github.com/open-policy-agent/grid/data"
)

// AddFilter keeps only rows whose value of columnName satisfies predicate.
// Filters apply in the order they were added.
func (e *Engine) AddFilter(columnName string, predicate func(any) bool) error {
	return e.dataset.AddFilter(data.Filter{ColumnName: columnName, Predicate: predicate})
}

// RemoveFilter removes the filters on columnName.
func (e *Engine) RemoveFilter(columnName string) {
	e.dataset.RemoveFilter(columnName)
}

// ClearFilters removes every filter.
func (e *Engine) ClearFilters() {
	e.dataset.ClearFilters()
}

// SetPage shows page, counting from 1, under client-side paging.
func (e *Engine) SetPage(page int) {
	p := e.dataset.PageOptions()
	p.Page = page
	e.dataset.SetPageOptions(p)
}

// SetPerPage sets the number of rows per page and returns to the first page.
func (e *Engine) SetPerPage(perPage int) {
	p := e.dataset.PageOptions()
	p.PerPage = perPage
	p.Page = 1
	e.dataset.SetPageOptions(p)
}

// PageViewData returns the view rows visible on the current page.
func (e *Engine) PageViewData() []*data.ViewRow {
	start, end := e.dataset.PageRowRange()
	return e.dataset.FilteredViewData()[start:end]
}

// HideColumn hides columnName. Focus on the column is reset.
func (e *Engine) HideColumn(columnName string) error {
	if err := e.dataset.Columns().SetHidden(columnName, true); err != nil {
		return err
	}
	if e.focus.State(nil).ColumnName == columnName {
		e.focus.InitFocus()
	}
	return nil
}

// ShowColumn shows columnName.
func (e *Engine) ShowColumn(columnName string) error {
	return e.dataset.Columns().SetHidden(columnName, false)
}
