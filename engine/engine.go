// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package engine exposes the mutation API of a grid: loading, appending,
// removing and editing rows, sorting, filtering, paging, row attributes and
// column visibility. Every mutation keeps the span maps, the view rows and the
// focus state consistent before it returns.
package engine

import (
	"github.com/open-policy-agent/grid/data"
	"github.com/open-policy-agent/grid/event"
	"github.com/open-policy-agent/grid/focus"
	"github.com/open-policy-agent/grid/logging"
	"github.com/open-policy-agent/grid/metrics"
	"github.com/open-policy-agent/grid/reactive"
	"github.com/open-policy-agent/grid/rowspan"
)

// Engine owns a dataset and the state derived from it.
type Engine struct {
	store   *reactive.Store
	dataset *data.Dataset
	focus   *focus.Controller
	bus     *event.Bus
	spans   *rowspan.Updater
	logger  logging.Logger
	metrics metrics.Metrics
}

type options struct {
	logger   logging.Logger
	metrics  metrics.Metrics
	maxDepth int
	bus      *event.Bus
	dataOpts []data.Opt
}

// Opt configures an Engine.
type Opt func(*options)

// WithLogger sets the logger shared by every component of the engine.
func WithLogger(logger logging.Logger) Opt {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics shared by every component of the engine.
func WithMetrics(m metrics.Metrics) Opt {
	return func(o *options) {
		o.metrics = m
	}
}

// WithMaxRecursionDepth bounds how often one derivation may re-run while a
// single write propagates.
func WithMaxRecursionDepth(depth int) Opt {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithBus sets the bus events are raised on.
func WithBus(bus *event.Bus) Opt {
	return func(o *options) {
		o.bus = bus
	}
}

// WithDataOptions passes opts to the dataset.
func WithDataOptions(opts ...data.Opt) Opt {
	return func(o *options) {
		o.dataOpts = append(o.dataOpts, opts...)
	}
}

// New returns an engine over rows.
func New(columns *data.Columns, rows []map[string]any, opts ...Opt) (*Engine, error) {
	o := options{
		logger:   logging.NewNoOpLogger(),
		metrics:  metrics.NoOp(),
		maxDepth: reactive.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.bus == nil {
		o.bus = event.NewBus()
	}

	store := reactive.New(
		reactive.WithLogger(o.logger),
		reactive.WithMetrics(o.metrics),
		reactive.WithMaxDepth(o.maxDepth),
	)

	dataOpts := append([]data.Opt{
		data.WithLogger(o.logger),
		data.WithMetrics(o.metrics),
	}, o.dataOpts...)

	dataset, err := data.NewDataset(store, columns, rows, dataOpts...)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:   store,
		dataset: dataset,
		bus:     o.bus,
		logger:  o.logger,
		metrics: o.metrics,
		spans: rowspan.New(
			rowspan.WithLogger(o.logger),
			rowspan.WithMetrics(o.metrics),
		),
	}
	e.focus = focus.New(dataset, o.bus,
		focus.WithCommitter(e.SetValue),
		focus.WithLogger(o.logger),
		focus.WithMetrics(o.metrics),
	)
	return e, nil
}

// Dataset returns the dataset of the engine.
func (e *Engine) Dataset() *data.Dataset {
	return e.dataset
}

// Focus returns the focus controller of the engine.
func (e *Engine) Focus() *focus.Controller {
	return e.focus
}

// Bus returns the bus events are raised on.
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// Store returns the reactive store of the engine.
func (e *Engine) Store() *reactive.Store {
	return e.store
}

// SpansEnabled returns true if rows are in natural order.
func (e *Engine) SpansEnabled() bool {
	return rowspan.IsEnabled(e.dataset.SortState())
}

// ResetData replaces every row and resets focus.
func (e *Engine) ResetData(rows []map[string]any) error {
	if err := e.dataset.Reset(rows); err != nil {
		return err
	}
	e.focus.InitFocus()
	return nil
}

// ExpandSelection expands the selection given by row and visible column
// indices so that it covers whole merged cells.
func (e *Engine) ExpandSelection(rowRange, colRange rowspan.Range) (rowspan.Range, error) {
	visible := e.dataset.Columns().Visible()
	names := make([]string, len(visible))
	for i, col := range visible {
		names[i] = col.Name
	}

	focusIndex := -1
	if s := e.focus.State(nil); s.RowKey != "" {
		focusIndex = e.dataset.IndexOf(s.RowKey)
	}

	expanded, err := rowspan.RowRangeWithRowSpan(rowRange, colRange, names, focusIndex, e.dataset.RawData(), e.dataset.SortState())
	if err != nil {
		return rowRange, err
	}
	if expanded != rowRange {
		e.metrics.Counter(metrics.RowSpanRangeExpand).Incr()
	}
	return expanded, nil
}
