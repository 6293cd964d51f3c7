// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package data

import (
	"slices"

	"github.com/google/uuid"

	"github.com/open-policy-agent/grid/logging"
	"github.com/open-policy-agent/grid/metrics"
	"github.com/open-policy-agent/grid/reactive"
)

// SortKeyColumn is the synthetic column holding the natural order of rows.
const SortKeyColumn = SortKeyField

// SortColumn is one key of a sort.
type SortColumn struct {
	ColumnName string `json:"columnName"`
	Ascending  bool   `json:"ascending"`
}

// SortState describes the active sort of a dataset.
type SortState struct {
	UseClient bool         `json:"useClient"`
	Columns   []SortColumn `json:"columns"`
}

// DefaultSortState returns the state of a dataset in natural order.
func DefaultSortState() SortState {
	return SortState{
		UseClient: true,
		Columns:   []SortColumn{{ColumnName: SortKeyColumn, Ascending: true}},
	}
}

// Natural returns true if rows are ordered by ascending sort key.
func (s SortState) Natural() bool {
	return len(s.Columns) == 0 || (s.Columns[0].ColumnName == SortKeyColumn && s.Columns[0].Ascending)
}

// Filter keeps rows whose value of ColumnName satisfies Predicate.
type Filter struct {
	ColumnName string
	Predicate  func(value any) bool
}

// PageOptions controls client-side paging.
type PageOptions struct {
	UseClient bool `json:"useClient"`
	PerPage   int  `json:"perPage"`
	Page      int  `json:"page"`
}

// TreeBuilder builds the raw rows of a hierarchical dataset.
type TreeBuilder interface {
	BuildRows(sources []map[string]any, columns *Columns, opts RowOptions) ([]*RawRow, error)
}

// Dataset holds the raw rows of a grid and their view rows, in display order.
type Dataset struct {
	store   *reactive.Store
	columns *Columns
	logger  logging.Logger
	metrics metrics.Metrics

	keyColumnName string
	lazy          bool
	disabled      bool
	treeColumn    string
	tree          TreeBuilder

	generation string
	raw        []*RawRow
	view       []*ViewRow
	keyIndex   map[RowKey]int

	filters []Filter
	sort    SortState
	page    PageOptions
}

// Opt configures a Dataset.
type Opt func(*Dataset)

// WithKeyColumnName sets the column whose values become row keys.
func WithKeyColumnName(name string) Opt {
	return func(d *Dataset) {
		d.keyColumnName = name
	}
}

// WithLazyObservable builds rows in the lazy tier. Rows are promoted to the
// full tier by Materialize.
func WithLazyObservable(yes bool) Opt {
	return func(d *Dataset) {
		d.lazy = yes
	}
}

// WithDisabled disables every row by default.
func WithDisabled(yes bool) Opt {
	return func(d *Dataset) {
		d.disabled = yes
	}
}

// WithPageOptions sets the initial paging of the dataset.
func WithPageOptions(p PageOptions) Opt {
	return func(d *Dataset) {
		d.page = p
	}
}

// WithTreeBuilder delegates row construction to b when the tree column is
// declared.
func WithTreeBuilder(columnName string, b TreeBuilder) Opt {
	return func(d *Dataset) {
		d.treeColumn = columnName
		d.tree = b
	}
}

// WithLogger sets the logger of the dataset.
func WithLogger(logger logging.Logger) Opt {
	return func(d *Dataset) {
		d.logger = logger
	}
}

// WithMetrics sets the metrics the dataset records to.
func WithMetrics(m metrics.Metrics) Opt {
	return func(d *Dataset) {
		d.metrics = m
	}
}

// NewDataset builds a dataset from sources.
func NewDataset(store *reactive.Store, columns *Columns, sources []map[string]any, opts ...Opt) (*Dataset, error) {
	d := &Dataset{
		store:   store,
		columns: columns,
		logger:  logging.NewNoOpLogger(),
		metrics: metrics.NoOp(),
		sort:    DefaultSortState(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.Reset(sources); err != nil {
		return nil, err
	}
	return d, nil
}

// Reset replaces every row of the dataset with rows built from sources under a
// new generation. On error the dataset is left unchanged.
func (d *Dataset) Reset(sources []map[string]any) error {
	t := d.metrics.Timer(metrics.DataBuild)
	t.Start()
	defer t.Stop()

	generation := uuid.NewString()

	rows, err := d.buildRows(generation, sources)
	if err != nil {
		return err
	}

	views := make([]*ViewRow, 0, len(rows))
	for _, row := range rows {
		vr, err := NewViewRow(d.store, row, d.columns)
		if err != nil {
			releaseAll(views)
			return err
		}
		views = append(views, vr)
	}

	releaseAll(d.view)

	d.generation = generation
	d.raw = rows
	d.view = views
	d.keyIndex = nil
	d.sort = DefaultSortState()

	d.metrics.Counter(metrics.DataRowsBuilt).Add(uint64(len(rows)))
	d.logger.WithFields(map[string]any{
		"generation": generation,
		"rows":       len(rows),
	}).Info("Dataset built.")

	return nil
}

func (d *Dataset) buildRows(generation string, sources []map[string]any) ([]*RawRow, error) {
	if d.tree != nil {
		if _, ok := d.columns.Get(d.treeColumn); ok {
			return d.tree.BuildRows(sources, d.columns, d.rowOptions(generation, nil, d.lazy))
		}
	}

	rows := make([]*RawRow, 0, len(sources))
	seen := make(map[RowKey]struct{}, len(sources))
	defaults := d.columns.Defaults()

	var prev *RawRow
	for i, source := range sources {
		row, err := NewRawRow(source, i, defaults, d.rowOptions(generation, prev, d.lazy))
		if err != nil {
			return nil, err
		}
		if _, ok := seen[row.RowKey]; ok {
			return nil, duplicateKeyError(row.RowKey)
		}
		seen[row.RowKey] = struct{}{}
		rows = append(rows, row)
		prev = row
	}

	if clamped := clampTrailingSpans(rows); len(clamped) > 0 {
		d.logger.Warn("Row spans of column(s) %v run past the last row and were shortened.", clamped)
	}

	return rows, nil
}

func (d *Dataset) rowOptions(generation string, prev *RawRow, lazy bool) RowOptions {
	return RowOptions{
		Generation:    generation,
		KeyColumnName: d.keyColumnName,
		PrevRow:       prev,
		Store:         d.store,
		Lazy:          lazy,
		Disabled:      d.disabled,
	}
}

func releaseAll(views []*ViewRow) {
	for _, vr := range views {
		vr.Release()
	}
}

// Generation returns the key of the current dataset generation.
func (d *Dataset) Generation() string {
	return d.generation
}

// Store returns the store the dataset's full rows live in.
func (d *Dataset) Store() *reactive.Store {
	return d.store
}

// Columns returns the column set of the dataset.
func (d *Dataset) Columns() *Columns {
	return d.columns
}

// KeyColumnName returns the column whose values are row keys, if any.
func (d *Dataset) KeyColumnName() string {
	return d.keyColumnName
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.raw)
}

// RawData returns the raw rows in display order. The slice must not be
// modified.
func (d *Dataset) RawData() []*RawRow {
	return d.raw
}

// ViewData returns the view rows in display order. The slice must not be
// modified.
func (d *Dataset) ViewData() []*ViewRow {
	return d.view
}

// Row returns the raw row at index.
func (d *Dataset) Row(index int) (*RawRow, bool) {
	if index < 0 || index >= len(d.raw) {
		return nil, false
	}
	return d.raw[index], true
}

// ViewRow returns the view row at index.
func (d *Dataset) ViewRow(index int) (*ViewRow, bool) {
	if index < 0 || index >= len(d.view) {
		return nil, false
	}
	return d.view[index], true
}

// IndexOf returns the index of the row with key, or -1.
func (d *Dataset) IndexOf(key RowKey) int {
	if d.keyIndex == nil {
		d.keyIndex = make(map[RowKey]int, len(d.raw))
		for i, row := range d.raw {
			d.keyIndex[row.RowKey] = i
		}
	}
	if i, ok := d.keyIndex[key]; ok {
		return i
	}
	return -1
}

// RowByKey returns the raw row with key.
func (d *Dataset) RowByKey(key RowKey) (*RawRow, bool) {
	return d.Row(d.IndexOf(key))
}

// ViewRowByKey returns the view row with key.
func (d *Dataset) ViewRowByKey(key RowKey) (*ViewRow, bool) {
	return d.ViewRow(d.IndexOf(key))
}

// AddFilter appends f to the active filters.
func (d *Dataset) AddFilter(f Filter) error {
	if _, ok := d.columns.Get(f.ColumnName); !ok {
		return NewColumnNotFoundError(f.ColumnName)
	}
	d.filters = append(d.filters, f)
	return nil
}

// RemoveFilter removes every filter on columnName.
func (d *Dataset) RemoveFilter(columnName string) {
	d.filters = slices.DeleteFunc(d.filters, func(f Filter) bool {
		return f.ColumnName == columnName
	})
}

// ClearFilters removes every filter.
func (d *Dataset) ClearFilters() {
	d.filters = nil
}

// Filters returns the active filters in registration order.
func (d *Dataset) Filters() []Filter {
	return slices.Clone(d.filters)
}

// FilteredIndex returns the indices of the rows passing every filter.
func (d *Dataset) FilteredIndex() []int {
	index := make([]int, 0, len(d.raw))
	for i, row := range d.raw {
		if d.passes(row) {
			index = append(index, i)
		}
	}
	return index
}

func (d *Dataset) passes(row *RawRow) bool {
	for _, f := range d.filters {
		if !f.Predicate(row.Value(nil, f.ColumnName)) {
			return false
		}
	}
	return true
}

// FilteredRawData returns the raw rows passing every filter.
func (d *Dataset) FilteredRawData() []*RawRow {
	index := d.FilteredIndex()
	rows := make([]*RawRow, len(index))
	for i, j := range index {
		rows[i] = d.raw[j]
	}
	return rows
}

// FilteredViewData returns the view rows aligned with FilteredRawData.
func (d *Dataset) FilteredViewData() []*ViewRow {
	index := d.FilteredIndex()
	views := make([]*ViewRow, len(index))
	for i, j := range index {
		views[i] = d.view[j]
	}
	return views
}

// PageOptions returns the paging of the dataset.
func (d *Dataset) PageOptions() PageOptions {
	return d.page
}

// SetPageOptions sets the paging of the dataset.
func (d *Dataset) SetPageOptions(p PageOptions) {
	d.page = p
}

// PageRowRange returns the [start, end) window of filtered rows visible on the
// current page. Without client-side paging every filtered row is visible.
func (d *Dataset) PageRowRange() (int, int) {
	n := len(d.FilteredIndex())
	if !d.page.UseClient || d.page.PerPage <= 0 {
		return 0, n
	}
	page := max(d.page.Page, 1)
	start := min((page-1)*d.page.PerPage, n)
	end := min(start+d.page.PerPage, n)
	return start, end
}

// SortState returns the active sort.
func (d *Dataset) SortState() SortState {
	return d.sort
}

// SetSortState records the active sort. It does not reorder rows.
func (d *Dataset) SetSortState(s SortState) {
	d.sort = s
}

// Materialize promotes the row at index to the full tier and rebuilds its
// view row. It returns false if the row already was full.
func (d *Dataset) Materialize(index int) (bool, error) {
	row, ok := d.Row(index)
	if !ok {
		return false, invalidRowError("row index %d: out of range", index)
	}
	if !row.materialize(d.store) {
		return false, nil
	}

	vr, err := NewViewRow(d.store, row, d.columns)
	if err != nil {
		return false, err
	}
	d.view[index].Release()
	d.view[index] = vr
	d.metrics.Counter(metrics.DataMaterialize).Incr()
	return true, nil
}

// Refresh recomputes the cells of the lazy view row at index after its raw
// row was written. Observable view rows are left alone.
func (d *Dataset) Refresh(index int) {
	if vr, ok := d.ViewRow(index); ok {
		vr.refresh()
	}
}

// NewRow builds a full row of the current generation from source. prev is the
// row the new row will follow, used for span continuation.
func (d *Dataset) NewRow(source map[string]any, index int, prev *RawRow) (*RawRow, error) {
	row, err := NewRawRow(source, index, d.columns.Defaults(), d.rowOptions(d.generation, prev, false))
	if err != nil {
		return nil, err
	}
	if d.IndexOf(row.RowKey) >= 0 {
		return nil, duplicateKeyError(row.RowKey)
	}
	return row, nil
}

// Insert places row at index and builds its view row.
func (d *Dataset) Insert(index int, row *RawRow) error {
	if index < 0 || index > len(d.raw) {
		return invalidRowError("row index %d: out of range", index)
	}
	if d.IndexOf(row.RowKey) >= 0 {
		return duplicateKeyError(row.RowKey)
	}
	vr, err := NewViewRow(d.store, row, d.columns)
	if err != nil {
		return err
	}
	d.raw = slices.Insert(d.raw, index, row)
	d.view = slices.Insert(d.view, index, vr)
	d.keyIndex = nil
	return nil
}

// RemoveAt removes the row at index and releases its view row.
func (d *Dataset) RemoveAt(index int) (*RawRow, error) {
	row, ok := d.Row(index)
	if !ok {
		return nil, invalidRowError("row index %d: out of range", index)
	}
	d.view[index].Release()
	d.raw = slices.Delete(d.raw, index, index+1)
	d.view = slices.Delete(d.view, index, index+1)
	d.keyIndex = nil
	return row, nil
}

// Reorder stably sorts the rows by cmp. Raw and view rows stay aligned.
func (d *Dataset) Reorder(cmp func(a, b *RawRow) int) {
	order := make([]int, len(d.raw))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(i, j int) int {
		return cmp(d.raw[i], d.raw[j])
	})

	raw := make([]*RawRow, len(order))
	view := make([]*ViewRow, len(order))
	for i, j := range order {
		raw[i] = d.raw[j]
		view[i] = d.view[j]
	}
	d.raw = raw
	d.view = view
	d.keyIndex = nil
}
