// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package data

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/open-policy-agent/grid/reactive"
	"github.com/open-policy-agent/grid/util"
)

// Reserved keys of a source row.
const (
	RowKeyField     = "rowKey"
	SortKeyField    = "sortKey"
	AttributesField = "_attributes"
)

// Attribute field names.
const (
	attrRowNum        = "rowNum"
	attrChecked       = "checked"
	attrDisabled      = "disabled"
	attrCheckDisabled = "checkDisabled"
	attrClassName     = "className"
	attrRowSpan       = "rowSpan"
)

// RowKey identifies a row. It never changes once assigned.
type RowKey string

// IndexKey returns the row key assigned to the row at index when no key
// column is configured.
func IndexKey(index int) RowKey {
	return RowKey(strconv.Itoa(index))
}

// ClassName holds the CSS class names attached to a row and to its cells.
type ClassName struct {
	Row    []string            `json:"row"`
	Column map[string][]string `json:"column"`
}

// Clone returns a deep copy of c.
func (c ClassName) Clone() ClassName {
	cp := ClassName{
		Row:    slices.Clone(c.Row),
		Column: make(map[string][]string, len(c.Column)),
	}
	for k, v := range c.Column {
		cp.Column[k] = slices.Clone(v)
	}
	if cp.Row == nil {
		cp.Row = []string{}
	}
	return cp
}

// Attributes are the non-data properties of a row.
type Attributes struct {
	RowNum        int
	Checked       bool
	Disabled      bool
	CheckDisabled bool
	ClassName     ClassName
	RowSpan       map[string]int
}

// Tier is the representation of a raw row.
type Tier int

const (
	// Lazy rows hold plain values; reads are not tracked and their view rows
	// are computed once.
	Lazy Tier = iota

	// Full rows hold their values in the reactive store; their view rows
	// recompute when the values they read change.
	Full
)

func (t Tier) String() string {
	if t == Full {
		return "full"
	}
	return "lazy"
}

// RawRow is one record of the dataset and the source of truth for its view
// row.
type RawRow struct {
	RowKey     RowKey
	SortKey    int
	UniqueKey  string
	RowSpanMap RowSpanMap

	tier   Tier
	values map[string]any
	attrs  Attributes
	vals   *reactive.Object
	attr   *reactive.Object
}

// RowOptions controls how NewRawRow builds a row.
type RowOptions struct {
	// Generation is the key of the dataset generation the row belongs to.
	Generation string
	// KeyColumnName names the column whose value becomes the row key.
	KeyColumnName string
	// PrevRow is the row immediately preceding the new one. Spans running
	// through PrevRow continue into the new row.
	PrevRow *RawRow
	// Store holds the values of full rows. A nil store builds a lazy row.
	Store *reactive.Store
	// Lazy builds a lazy row even when Store is set.
	Lazy bool
	// Disabled is the default disabled state of the row.
	Disabled bool
}

// NewRawRow builds the raw row at index from source. The source map is not
// modified. Every declared column missing from source is set to its default.
func NewRawRow(source map[string]any, index int, defaults []DefaultValue, opts RowOptions) (*RawRow, error) {
	values := make(map[string]any, len(source)+len(defaults))
	for k, v := range source {
		switch k {
		case RowKeyField, SortKeyField, AttributesField:
		default:
			values[k] = v
		}
	}

	key, err := rowKeyOf(source, index, opts.KeyColumnName)
	if err != nil {
		return nil, err
	}

	sortKey := index
	if f, ok := util.ToFloat64(source[SortKeyField]); ok {
		sortKey = int(f)
	}

	attrs, err := parseAttributes(source[AttributesField], index, opts.Disabled)
	if err != nil {
		return nil, fmt.Errorf("row key %q: %w", key, err)
	}

	spans, err := newRowSpanMap(key, attrs.RowSpan, opts.PrevRow)
	if err != nil {
		return nil, err
	}

	for _, d := range defaults {
		if _, ok := values[d.Name]; !ok {
			values[d.Name] = d.Value
		}
	}

	row := &RawRow{
		RowKey:     key,
		SortKey:    sortKey,
		UniqueKey:  fmt.Sprintf("%s-%s", opts.Generation, key),
		RowSpanMap: spans,
		tier:       Lazy,
		values:     values,
		attrs:      attrs,
	}

	if opts.Store != nil && !opts.Lazy {
		row.materialize(opts.Store)
	}
	return row, nil
}

func rowKeyOf(source map[string]any, index int, keyColumnName string) (RowKey, error) {
	if keyColumnName != "" {
		v, ok := source[keyColumnName]
		if !ok || v == nil {
			return "", invalidRowError("row %d: key column %q is missing", index, keyColumnName)
		}
		return RowKey(fmt.Sprint(v)), nil
	}
	if v, ok := source[RowKeyField]; ok && v != nil {
		return RowKey(fmt.Sprint(v)), nil
	}
	return IndexKey(index), nil
}

// Tier returns the current representation of the row.
func (row *RawRow) Tier() Tier {
	return row.tier
}

// materialize promotes a lazy row to a full row. It returns false if the row
// already was full.
func (row *RawRow) materialize(store *reactive.Store) bool {
	if row.tier == Full {
		return false
	}
	row.vals = store.NewObject(row.values)
	row.attr = store.NewObject(map[string]any{
		attrRowNum:        row.attrs.RowNum,
		attrChecked:       row.attrs.Checked,
		attrDisabled:      row.attrs.Disabled,
		attrCheckDisabled: row.attrs.CheckDisabled,
		attrClassName:     row.attrs.ClassName,
		attrRowSpan:       row.attrs.RowSpan,
	})
	row.values = nil
	row.attrs = Attributes{}
	row.tier = Full
	return true
}

// Value returns the value of column name. Reads through r are tracked on
// full rows.
func (row *RawRow) Value(r *reactive.Reader, name string) any {
	if row.tier == Full {
		return row.vals.Get(r, name)
	}
	return row.values[name]
}

// SetValue assigns the value of column name.
func (row *RawRow) SetValue(name string, value any) {
	if row.tier == Full {
		row.vals.Set(name, value)
		return
	}
	row.values[name] = value
}

// Values returns a copy of the row's column values.
func (row *RawRow) Values() map[string]any {
	if row.tier == Full {
		return row.vals.Snapshot()
	}
	return maps.Clone(row.values)
}

// Reader returns a RowValues reading the row through r.
func (row *RawRow) Reader(r *reactive.Reader) RowValues {
	return func(name string) any {
		return row.Value(r, name)
	}
}

// RowNum returns the 1-based display number of the row.
func (row *RawRow) RowNum(r *reactive.Reader) int {
	if row.tier == Full {
		n, _ := row.attr.Get(r, attrRowNum).(int)
		return n
	}
	return row.attrs.RowNum
}

// SetRowNum sets the display number of the row.
func (row *RawRow) SetRowNum(n int) {
	row.setAttr(attrRowNum, n, func(a *Attributes) { a.RowNum = n })
}

// Checked returns the checked state of the row.
func (row *RawRow) Checked(r *reactive.Reader) bool {
	return row.boolAttr(r, attrChecked, row.attrs.Checked)
}

// SetChecked sets the checked state of the row.
func (row *RawRow) SetChecked(v bool) {
	row.setAttr(attrChecked, v, func(a *Attributes) { a.Checked = v })
}

// Disabled returns the disabled state of the row.
func (row *RawRow) Disabled(r *reactive.Reader) bool {
	return row.boolAttr(r, attrDisabled, row.attrs.Disabled)
}

// SetDisabled sets the disabled state of the row.
func (row *RawRow) SetDisabled(v bool) {
	row.setAttr(attrDisabled, v, func(a *Attributes) { a.Disabled = v })
}

// CheckDisabled returns whether the row's checkbox is disabled.
func (row *RawRow) CheckDisabled(r *reactive.Reader) bool {
	return row.boolAttr(r, attrCheckDisabled, row.attrs.CheckDisabled)
}

// SetCheckDisabled sets whether the row's checkbox is disabled.
func (row *RawRow) SetCheckDisabled(v bool) {
	row.setAttr(attrCheckDisabled, v, func(a *Attributes) { a.CheckDisabled = v })
}

// ClassName returns the class names attached to the row and its cells.
func (row *RawRow) ClassName(r *reactive.Reader) ClassName {
	if row.tier == Full {
		c, _ := row.attr.Get(r, attrClassName).(ClassName)
		return c
	}
	return row.attrs.ClassName
}

// SetClassName replaces the class names attached to the row and its cells.
func (row *RawRow) SetClassName(c ClassName) {
	c = c.Clone()
	row.setAttr(attrClassName, c, func(a *Attributes) { a.ClassName = c })
}

// Attributes returns all attributes of the row.
func (row *RawRow) Attributes(r *reactive.Reader) Attributes {
	if row.tier != Full {
		return row.attrs
	}
	spans, _ := row.attr.Get(r, attrRowSpan).(map[string]int)
	return Attributes{
		RowNum:        row.RowNum(r),
		Checked:       row.Checked(r),
		Disabled:      row.Disabled(r),
		CheckDisabled: row.CheckDisabled(r),
		ClassName:     row.ClassName(r),
		RowSpan:       spans,
	}
}

func (row *RawRow) boolAttr(r *reactive.Reader, name string, lazy bool) bool {
	if row.tier == Full {
		v, _ := row.attr.Get(r, name).(bool)
		return v
	}
	return lazy
}

func (row *RawRow) setAttr(name string, value any, lazy func(*Attributes)) {
	if row.tier == Full {
		row.attr.Set(name, value)
		return
	}
	lazy(&row.attrs)
}

func parseAttributes(raw any, index int, disabled bool) (Attributes, error) {
	attrs := Attributes{
		RowNum:        index + 1,
		Disabled:      disabled,
		CheckDisabled: disabled,
		ClassName:     ClassName{Row: []string{}, Column: map[string][]string{}},
	}
	if raw == nil {
		return attrs, nil
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return attrs, invalidRowError("%v must be an object, got %T", AttributesField, raw)
	}

	var err error
	if attrs.Checked, err = boolField(obj, attrChecked, false); err != nil {
		return attrs, err
	}
	if attrs.Disabled, err = boolField(obj, attrDisabled, disabled); err != nil {
		return attrs, err
	}
	// An explicit disabled state applies to the checkbox unless it is set on
	// its own.
	if attrs.CheckDisabled, err = boolField(obj, attrCheckDisabled, attrs.Disabled); err != nil {
		return attrs, err
	}

	if v, ok := obj[attrClassName]; ok && v != nil {
		cls, ok := v.(map[string]any)
		if !ok {
			return attrs, invalidRowError("%v.%v must be an object, got %T", AttributesField, attrClassName, v)
		}
		if attrs.ClassName.Row, err = stringList(cls["row"]); err != nil {
			return attrs, err
		}
		if cols, ok := cls["column"].(map[string]any); ok {
			for name, list := range cols {
				if attrs.ClassName.Column[name], err = stringList(list); err != nil {
					return attrs, err
				}
			}
		}
	}

	if v, ok := obj[attrRowSpan]; ok && v != nil {
		decl, ok := v.(map[string]any)
		if !ok {
			return attrs, invalidRowSpanError("%v.%v must be an object, got %T", AttributesField, attrRowSpan, v)
		}
		attrs.RowSpan = make(map[string]int, len(decl))
		for col, n := range decl {
			f, ok := util.ToFloat64(n)
			if !ok || f != float64(int(f)) {
				return attrs, invalidRowSpanError("column %q: span count must be an integer, got %v", col, n)
			}
			attrs.RowSpan[col] = int(f)
		}
	}

	return attrs, nil
}

func boolField(obj map[string]any, name string, def bool) (bool, error) {
	v, ok := obj[name]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return def, invalidRowError("%v.%v must be a boolean, got %T", AttributesField, name, v)
	}
	return b, nil
}

func stringList(v any) ([]string, error) {
	switch v := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return slices.Clone(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			s, ok := x.(string)
			if !ok {
				return nil, invalidRowError("class name must be a string, got %T", x)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		return []string{v}, nil
	}
	return nil, invalidRowError("class names must be a list, got %T", v)
}
