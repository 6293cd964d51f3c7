// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package focus sequences cell focus and editing transitions.
//
// At most one cell is focused and at most one is being edited; the edited
// cell is always the focused one. Every transition raises a cancelable event
// first and applies its state changes in a single batch, so observers see one
// consistent state per transition.
package focus

import (
	"github.com/open-policy-agent/grid/data"
	"github.com/open-policy-agent/grid/event"
	"github.com/open-policy-agent/grid/logging"
	"github.com/open-policy-agent/grid/metrics"
	"github.com/open-policy-agent/grid/reactive"
	"github.com/open-policy-agent/grid/rowspan"
)

const (
	fieldRowKey         = "rowKey"
	fieldColumnName     = "columnName"
	fieldPrevRowKey     = "prevRowKey"
	fieldPrevColumnName = "prevColumnName"
	fieldEditing        = "editingAddress"
	fieldNavigating     = "navigating"
	fieldForcedDestroy  = "forcedDestroyEditing"
)

// Address locates a cell.
type Address struct {
	RowKey     data.RowKey `json:"rowKey"`
	ColumnName string      `json:"columnName"`
}

// State is the focus state of the grid. An empty RowKey means no cell is
// focused.
type State struct {
	RowKey               data.RowKey `json:"rowKey"`
	ColumnName           string      `json:"columnName"`
	PrevRowKey           data.RowKey `json:"prevRowKey"`
	PrevColumnName       string      `json:"prevColumnName"`
	EditingAddress       *Address    `json:"editingAddress"`
	Navigating           bool        `json:"navigating"`
	ForcedDestroyEditing bool        `json:"forcedDestroyEditing"`
}

// Committer writes an edited value to the dataset.
type Committer func(rowKey data.RowKey, columnName string, value any) error

// Controller owns the focus state of a dataset.
type Controller struct {
	dataset *data.Dataset
	bus     *event.Bus
	state   *reactive.Object
	commit  Committer
	logger  logging.Logger
	metrics metrics.Metrics
}

// Opt configures a Controller.
type Opt func(*Controller)

// WithCommitter sets the function used to save edited values. By default the
// value is written to the raw row directly.
func WithCommitter(c Committer) Opt {
	return func(f *Controller) {
		f.commit = c
	}
}

// WithLogger sets the logger of the controller.
func WithLogger(logger logging.Logger) Opt {
	return func(f *Controller) {
		f.logger = logger
	}
}

// WithMetrics sets the metrics the controller records to.
func WithMetrics(m metrics.Metrics) Opt {
	return func(f *Controller) {
		f.metrics = m
	}
}

// New returns a Controller for dataset raising events on bus.
func New(dataset *data.Dataset, bus *event.Bus, opts ...Opt) *Controller {
	f := &Controller{
		dataset: dataset,
		bus:     bus,
		logger:  logging.NewNoOpLogger(),
		metrics: metrics.NoOp(),
	}
	f.commit = f.setValue
	for _, opt := range opts {
		opt(f)
	}
	f.state = dataset.Store().NewObject(emptyState())
	return f
}

func emptyState() map[string]any {
	return map[string]any{
		fieldRowKey:         data.RowKey(""),
		fieldColumnName:     "",
		fieldPrevRowKey:     data.RowKey(""),
		fieldPrevColumnName: "",
		fieldEditing:        (*Address)(nil),
		fieldNavigating:     false,
		fieldForcedDestroy:  false,
	}
}

// State returns the focus state. Reads through r are tracked.
func (f *Controller) State(r *reactive.Reader) State {
	s := State{}
	s.RowKey, _ = f.state.Get(r, fieldRowKey).(data.RowKey)
	s.ColumnName, _ = f.state.Get(r, fieldColumnName).(string)
	s.PrevRowKey, _ = f.state.Get(r, fieldPrevRowKey).(data.RowKey)
	s.PrevColumnName, _ = f.state.Get(r, fieldPrevColumnName).(string)
	s.EditingAddress, _ = f.state.Get(r, fieldEditing).(*Address)
	s.Navigating, _ = f.state.Get(r, fieldNavigating).(bool)
	s.ForcedDestroyEditing, _ = f.state.Get(r, fieldForcedDestroy).(bool)
	return s
}

// Observe registers fn to run with the focus state now and after every
// transition.
func (f *Controller) Observe(id string, fn func(State)) error {
	return f.dataset.Store().Register(id, func(r *reactive.Reader) {
		fn(f.State(r))
	})
}

// Unobserve removes the observer registered under id.
func (f *Controller) Unobserve(id string) error {
	return f.dataset.Store().Unregister(id)
}

// IsEditing returns true if the cell at rowKey and columnName is being edited.
func (f *Controller) IsEditing(rowKey data.RowKey, columnName string) bool {
	addr := f.State(nil).EditingAddress
	return addr != nil && addr.RowKey == rowKey && addr.ColumnName == columnName
}

// InitFocus resets the focus state. No events are raised.
func (f *Controller) InitFocus() {
	f.batch("initFocus", func() {
		for k, v := range emptyState() {
			f.state.Set(k, v)
		}
	})
}

// ChangeFocus moves focus to the cell at rowKey and columnName. An empty
// rowKey blurs the grid. It returns false without effect if the cell is
// already focused, hidden or unknown, or if a listener vetoes the change.
// While spans are enabled, focus on a merged cell lands on its main row.
func (f *Controller) ChangeFocus(rowKey data.RowKey, columnName string) bool {
	cur := f.State(nil)
	if cur.RowKey == rowKey && cur.ColumnName == columnName {
		return false
	}

	if rowKey != "" {
		if !f.visible(columnName) || f.dataset.IndexOf(rowKey) < 0 {
			return false
		}
	}

	e := &event.Event{
		Type:           event.FocusChange,
		RowKey:         rowKey,
		ColumnName:     columnName,
		PrevRowKey:     cur.RowKey,
		PrevColumnName: cur.ColumnName,
	}
	if !f.bus.Trigger(e) {
		f.vetoed(e)
		return false
	}

	rowKey = f.mainRowKey(rowKey, columnName)

	f.batch("changeFocus", func() {
		f.state.Set(fieldPrevRowKey, cur.RowKey)
		f.state.Set(fieldPrevColumnName, cur.ColumnName)
		f.state.Set(fieldRowKey, rowKey)
		f.state.Set(fieldColumnName, columnName)
	})

	f.metrics.Counter(metrics.FocusChange).Incr()
	return true
}

// StartEditing opens an edit on the cell at rowKey and columnName, focusing it
// first if needed. Lazy rows are materialized. It returns false without
// effect if the cell is not editable or a listener vetoes the transition.
func (f *Controller) StartEditing(rowKey data.RowKey, columnName string) (bool, error) {
	rowKey = f.mainRowKey(rowKey, columnName)

	vr, ok, err := f.editableCell(rowKey, columnName)
	if err != nil || !ok {
		return false, err
	}

	if s := f.State(nil); s.RowKey != rowKey || s.ColumnName != columnName {
		if !f.ChangeFocus(rowKey, columnName) {
			return false, nil
		}
	}

	e := &event.Event{
		Type:       event.EditingStart,
		RowKey:     rowKey,
		ColumnName: columnName,
		Value:      vr.Row().Value(nil, columnName),
	}
	if !f.bus.Trigger(e) {
		f.vetoed(e)
		return false, nil
	}

	f.batch("startEditing", func() {
		f.state.Set(fieldForcedDestroy, false)
		f.state.Set(fieldNavigating, false)
		f.state.Set(fieldEditing, &Address{RowKey: rowKey, ColumnName: columnName})
	})

	f.metrics.Counter(metrics.FocusEditingStart).Incr()
	return true, nil
}

// FinishEditing closes the edit on the cell at rowKey and columnName without
// saving. It returns false if a listener vetoes the transition or the cell is
// not being edited.
func (f *Controller) FinishEditing(rowKey data.RowKey, columnName string, value any) bool {
	e := &event.Event{
		Type:       event.EditingFinish,
		RowKey:     rowKey,
		ColumnName: columnName,
		Value:      value,
	}
	if !f.bus.Trigger(e) {
		f.vetoed(e)
		return false
	}

	if !f.IsEditing(rowKey, columnName) {
		return false
	}

	f.batch("finishEditing", func() {
		f.state.Set(fieldEditing, (*Address)(nil))
		f.state.Set(fieldNavigating, true)
	})

	f.metrics.Counter(metrics.FocusEditingFinish).Incr()
	return true
}

// SaveAndFinishEditing commits value to the cell being edited at rowKey and
// columnName and closes the edit.
func (f *Controller) SaveAndFinishEditing(rowKey data.RowKey, columnName string, value any) (bool, error) {
	if ok, err := f.checkEditing(rowKey, columnName); err != nil || !ok {
		return false, err
	}
	if err := f.commit(rowKey, columnName, value); err != nil {
		return false, err
	}
	return f.FinishEditing(rowKey, columnName, value), nil
}

// CancelEditing closes the edit on the cell at rowKey and columnName without
// committing, forcing the editor to be destroyed.
func (f *Controller) CancelEditing(rowKey data.RowKey, columnName string) (bool, error) {
	if ok, err := f.checkEditing(rowKey, columnName); err != nil || !ok {
		return false, err
	}

	f.batch("cancelEditing", func() {
		f.state.Set(fieldForcedDestroy, true)
		f.state.Set(fieldEditing, (*Address)(nil))
		f.state.Set(fieldNavigating, true)
	})
	return true, nil
}

func (f *Controller) checkEditing(rowKey data.RowKey, columnName string) (bool, error) {
	if !f.IsEditing(rowKey, columnName) {
		return false, nil
	}
	_, ok, err := f.editableCell(rowKey, columnName)
	return ok, err
}

// editableCell materializes the row at rowKey and returns its view row if
// the cell on columnName can be edited.
func (f *Controller) editableCell(rowKey data.RowKey, columnName string) (*data.ViewRow, bool, error) {
	index := f.dataset.IndexOf(rowKey)
	if index < 0 || !f.visible(columnName) {
		return nil, false, nil
	}

	if _, err := f.dataset.Materialize(index); err != nil {
		return nil, false, err
	}

	vr, _ := f.dataset.ViewRow(index)
	cell, ok := vr.Cell(nil, columnName)
	if !ok || !cell.Editable || cell.Disabled {
		return nil, false, nil
	}
	return vr, true, nil
}

func (f *Controller) visible(columnName string) bool {
	col, ok := f.dataset.Columns().Get(columnName)
	return ok && !col.Hidden
}

// mainRowKey returns the key of the main row of the span the cell at rowKey
// and columnName belongs to, or rowKey.
func (f *Controller) mainRowKey(rowKey data.RowKey, columnName string) data.RowKey {
	if !rowspan.IsEnabled(f.dataset.SortState()) {
		return rowKey
	}
	row, ok := f.dataset.RowByKey(rowKey)
	if !ok {
		return rowKey
	}
	if span, ok := row.RowSpanMap[columnName]; ok {
		return span.MainRowKey
	}
	return rowKey
}

func (f *Controller) setValue(rowKey data.RowKey, columnName string, value any) error {
	row, ok := f.dataset.RowByKey(rowKey)
	if !ok {
		return nil
	}
	row.SetValue(columnName, value)
	return nil
}

func (f *Controller) batch(name string, fn func()) {
	f.dataset.Store().Batch(name, fn)
}

func (f *Controller) vetoed(e *event.Event) {
	f.metrics.Counter(metrics.FocusTransitionVetoed).Incr()
	f.logger.Debug("Transition %v vetoed.", e)
}
