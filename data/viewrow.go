// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package data

import (
	"html"
	"reflect"
	"slices"
	"strings"

	"github.com/open-policy-agent/grid/reactive"
	"github.com/open-policy-agent/grid/util"
)

// CellRenderData is the render-ready state of one cell.
type CellRenderData struct {
	Editable       bool             `json:"editable"`
	Disabled       bool             `json:"disabled"`
	ClassName      string           `json:"className"`
	InvalidStates  []ValidationCode `json:"invalidStates"`
	FormattedValue string           `json:"formattedValue"`
	Value          any              `json:"value"`
	ListItems      []ListItem       `json:"listItems,omitempty"`
}

// ViewRow is the derived projection of a RawRow. Cells of full rows are kept
// up to date by derivations registered with the store; cells of lazy rows are
// computed once.
type ViewRow struct {
	RowKey    RowKey
	UniqueKey string

	// RowSpanMap is the map of the raw row, not a copy.
	RowSpanMap RowSpanMap

	row     *RawRow
	columns *Columns
	store   *reactive.Store
	cells   *reactive.Object
	lazy    map[string]CellRenderData
	ids     []string
}

// relationState carries the constraints a relation places on a target cell.
type relationState struct {
	editable  bool
	disabled  bool
	matched   bool
	listItems []ListItem
}

var unconstrained = relationState{editable: true, matched: true}

// NewViewRow builds the view row of row. Full rows register one derivation
// per column not targeted by a relation and one per relation source column.
func NewViewRow(store *reactive.Store, row *RawRow, columns *Columns) (*ViewRow, error) {
	vr := &ViewRow{
		RowKey:     row.RowKey,
		UniqueKey:  row.UniqueKey,
		RowSpanMap: row.RowSpanMap,
		row:        row,
		columns:    columns,
		store:      store,
	}

	if row.Tier() == Lazy {
		vr.lazy = make(map[string]CellRenderData, len(columns.All()))
		vr.refresh()
		return vr, nil
	}

	vr.cells = store.NewObject(nil)

	for _, col := range columns.All() {
		if columns.IsRelated(col.Name) {
			continue
		}
		col := col
		if err := vr.register(col.Name, func(r *reactive.Reader) {
			vr.cells.Set(col.Name, vr.compute(r, col, unconstrained))
		}); err != nil {
			return nil, err
		}
	}

	for _, source := range columns.relationSources() {
		source := source
		if err := vr.register(source+"#relation", func(r *reactive.Reader) {
			vr.applyRelations(r, source)
		}); err != nil {
			return nil, err
		}
	}

	return vr, nil
}

// refresh recomputes every cell of a lazy view row.
func (vr *ViewRow) refresh() {
	if vr.lazy == nil {
		return
	}
	for _, col := range vr.columns.All() {
		if !vr.columns.IsRelated(col.Name) {
			vr.lazy[col.Name] = vr.compute(nil, col, unconstrained)
		}
	}
	for _, source := range vr.columns.relationSources() {
		vr.applyRelations(nil, source)
	}
}

func (vr *ViewRow) register(name string, fn reactive.Derivation) error {
	id := vr.UniqueKey + "/" + name
	if err := vr.store.Register(id, fn); err != nil {
		vr.Release()
		return err
	}
	vr.ids = append(vr.ids, id)
	return nil
}

// Release unregisters the derivations of the view row. The row's cells are
// no longer recomputed afterwards.
func (vr *ViewRow) Release() {
	for _, id := range vr.ids {
		_ = vr.store.Unregister(id)
	}
	vr.ids = nil
}

// Observable returns true if the cells of the view row are kept up to date.
func (vr *ViewRow) Observable() bool {
	return vr.cells != nil
}

// Row returns the raw row the view row derives from.
func (vr *ViewRow) Row() *RawRow {
	return vr.row
}

// SortKey returns the sort key of the raw row.
func (vr *ViewRow) SortKey() int {
	return vr.row.SortKey
}

// Cell returns the render data of column name. Reads through r are tracked on
// observable view rows.
func (vr *ViewRow) Cell(r *reactive.Reader, name string) (CellRenderData, bool) {
	if vr.cells == nil {
		c, ok := vr.lazy[name]
		return c, ok
	}
	v, ok := vr.cells.Lookup(r, name)
	if !ok {
		return CellRenderData{}, false
	}
	return v.(CellRenderData), true
}

// ValueMap returns the render data of every column.
func (vr *ViewRow) ValueMap() map[string]CellRenderData {
	out := make(map[string]CellRenderData, len(vr.columns.All()))
	for _, col := range vr.columns.All() {
		if c, ok := vr.Cell(nil, col.Name); ok {
			out[col.Name] = c
		}
	}
	return out
}

func (vr *ViewRow) setCell(name string, c CellRenderData) {
	if vr.cells == nil {
		vr.lazy[name] = c
		return
	}
	vr.cells.Set(name, c)
}

// applyRelations recomputes every target cell of the relations declared on
// source from the current state of the source cell.
func (vr *ViewRow) applyRelations(r *reactive.Reader, source string) {
	sourceCell, _ := vr.Cell(r, source)
	params := RelationParams{
		Value:    vr.row.Value(r, source),
		Editable: sourceCell.Editable,
		Disabled: sourceCell.Disabled,
		Row:      vr.row.Reader(r),
	}

	for _, target := range vr.columns.relations[source] {
		col, _ := vr.columns.Get(target.name)
		rel := target.relation
		state := unconstrained

		if rel.Editable != nil {
			state.editable = rel.Editable(params)
		}
		if rel.Disabled != nil {
			state.disabled = rel.Disabled(params)
		}
		if rel.ListItems != nil {
			state.listItems = rel.ListItems(params)
			if v := vr.row.Value(r, target.name); !isBlank(v) {
				state.matched = slices.ContainsFunc(state.listItems, func(item ListItem) bool {
					return sameCellValue(item.Value, v)
				})
			}
		}

		vr.setCell(target.name, vr.compute(r, col, state))
	}
}

func (vr *ViewRow) compute(r *reactive.Reader, col *Column, rel relationState) CellRenderData {
	row := vr.row

	var value any
	switch col.Name {
	case RowNumberColumn:
		value = row.RowNum(r)
	case CheckboxColumn:
		value = row.Checked(r)
	default:
		value = row.Value(r, col.Name)
	}
	if !rel.matched {
		value = ""
	}

	rowDisabled := row.Disabled(r)
	if col.Name == CheckboxColumn {
		rowDisabled = row.CheckDisabled(r)
	}
	disabled := rowDisabled || col.Disabled || rel.disabled

	editable := col.Editor != "" && rel.editable
	if col.Name == CheckboxColumn {
		editable = true
	}

	cell := CellRenderData{
		Editable:       editable,
		Disabled:       disabled,
		ClassName:      cellClassName(row.ClassName(r), col),
		FormattedValue: formatValue(value, col, row.Reader(r), rel.listItems),
		Value:          value,
		ListItems:      rel.listItems,
	}
	if !disabled && !IsRowHeader(col.Name) {
		cell.InvalidStates = col.Validation.Validate(value, row.Reader(r), col.Name)
	}
	return cell
}

func cellClassName(c ClassName, col *Column) string {
	classes := slices.Clone(c.Row)
	classes = append(classes, strings.Fields(col.ClassName)...)
	classes = append(classes, c.Column[col.Name]...)
	return strings.Join(classes, " ")
}

func formatValue(value any, col *Column, row RowValues, items []ListItem) string {
	var s string
	switch {
	case col.Formatter != nil:
		s = col.Formatter(FormatterProps{Value: value, Column: col, Row: row})
	case len(items) > 0:
		s = toString(value)
		for _, item := range items {
			if sameCellValue(item.Value, value) {
				s = item.Text
				break
			}
		}
	default:
		s = toString(value)
	}

	if col.EscapeHTML {
		return html.EscapeString(s)
	}
	return s
}

// sameCellValue compares list item values with cell values. Numbers compare
// by value regardless of their Go type.
func sameCellValue(a, b any) bool {
	af, aok := util.ToFloat64(a)
	bf, bok := util.ToFloat64(b)
	if aok && bok {
		return af == bf
	}
	_, as := a.(string)
	_, bs := b.(string)
	if aok || bok || as || bs {
		return toString(a) == toString(b)
	}
	return reflect.DeepEqual(a, b)
}
