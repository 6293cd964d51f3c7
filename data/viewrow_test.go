// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package data

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/open-policy-agent/grid/metrics"
	"github.com/open-policy-agent/grid/reactive"
)

func newTestViewRow(t *testing.T, store *reactive.Store, defs []Column, source map[string]any, rowHeaders ...string) (*RawRow, *ViewRow) {
	t.Helper()
	columns, err := NewColumns(defs, rowHeaders...)
	if err != nil {
		t.Fatal(err)
	}
	row, err := NewRawRow(source, 0, columns.Defaults(), RowOptions{Generation: "g", Store: store})
	if err != nil {
		t.Fatal(err)
	}
	vr, err := NewViewRow(store, row, columns)
	if err != nil {
		t.Fatal(err)
	}
	return row, vr
}

func cell(t *testing.T, vr *ViewRow, name string) CellRenderData {
	t.Helper()
	c, ok := vr.Cell(nil, name)
	if !ok {
		t.Fatalf("cell %q not found", name)
	}
	return c
}

func TestViewRowCells(t *testing.T) {
	store := reactive.New()
	defs := []Column{
		{Name: "name", Editor: "text", ClassName: "bold wide", EscapeHTML: true},
		{Name: "age", Validation: &Validation{DataType: DataTypeNumber, Min: float(0)}},
		{Name: "note", DefaultValue: "n/a", Disabled: true, Validation: &Validation{Required: true}},
		{Name: "price", Formatter: func(p FormatterProps) string { return fmt.Sprintf("$%v", p.Value) }},
	}
	source := map[string]any{
		"name":  "<b>x</b>",
		"age":   -1,
		"price": 3,
		AttributesField: map[string]any{
			"checked":   true,
			"className": map[string]any{"row": []any{"r"}, "column": map[string]any{"name": []any{"c"}}},
		},
	}

	_, vr := newTestViewRow(t, store, defs, source, RowNumberColumn, CheckboxColumn)

	tests := []struct {
		column string
		exp    CellRenderData
	}{
		{
			column: RowNumberColumn,
			exp:    CellRenderData{ClassName: "r", FormattedValue: "1", Value: 1},
		},
		{
			column: CheckboxColumn,
			exp:    CellRenderData{Editable: true, ClassName: "r", FormattedValue: "true", Value: true},
		},
		{
			column: "name",
			exp:    CellRenderData{Editable: true, ClassName: "r bold wide c", FormattedValue: "&lt;b&gt;x&lt;/b&gt;", Value: "<b>x</b>"},
		},
		{
			column: "age",
			exp:    CellRenderData{ClassName: "r", FormattedValue: "-1", Value: -1, InvalidStates: []ValidationCode{Min}},
		},
		{
			column: "note",
			exp:    CellRenderData{Disabled: true, ClassName: "r", FormattedValue: "n/a", Value: "n/a"},
		},
		{
			column: "price",
			exp:    CellRenderData{ClassName: "r", FormattedValue: "$3", Value: 3},
		},
	}

	for _, tc := range tests {
		t.Run(tc.column, func(t *testing.T) {
			if diff := cmp.Diff(tc.exp, cell(t, vr, tc.column)); diff != "" {
				t.Fatalf("unexpected cell (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestViewRowRecomputesChangedCellOnly(t *testing.T) {
	m := metrics.New()
	store := reactive.New(reactive.WithMetrics(m))
	row, vr := newTestViewRow(t, store, []Column{{Name: "a"}, {Name: "b"}}, map[string]any{"a": 1, "b": 2})

	before := m.Counter(metrics.ReactiveDerivation).Int64()
	row.SetValue("a", 5)
	after := m.Counter(metrics.ReactiveDerivation).Int64()

	if after-before != 1 {
		t.Fatalf("expected exactly one recompute, got %d", after-before)
	}
	if c := cell(t, vr, "a"); c.Value != 5 {
		t.Fatalf("expected recomputed value 5, got %v", c.Value)
	}

	row.SetValue("a", 5)
	if n := m.Counter(metrics.ReactiveDerivation).Int64(); n != after {
		t.Fatalf("expected unchanged write to skip recompute, got %d runs", n-after)
	}
}

func TestViewRowAttributeChanges(t *testing.T) {
	store := reactive.New()
	row, vr := newTestViewRow(t, store, []Column{{Name: "a", Editor: "text", Validation: &Validation{Required: true}}}, map[string]any{}, CheckboxColumn)

	if c := cell(t, vr, "a"); len(c.InvalidStates) != 1 {
		t.Fatalf("expected required violation, got %v", c.InvalidStates)
	}

	row.SetDisabled(true)
	if c := cell(t, vr, "a"); !c.Disabled || c.InvalidStates != nil {
		t.Fatalf("expected disabled cell without validation, got %+v", c)
	}
	if c := cell(t, vr, CheckboxColumn); c.Disabled {
		t.Fatal("expected checkbox to follow checkDisabled only")
	}

	row.SetChecked(true)
	if c := cell(t, vr, CheckboxColumn); c.Value != true {
		t.Fatalf("expected checked, got %v", c.Value)
	}

	row.SetClassName(ClassName{Row: []string{"hl"}})
	if c := cell(t, vr, "a"); c.ClassName != "hl" {
		t.Fatalf("expected class name hl, got %q", c.ClassName)
	}
}

func TestViewRowRelations(t *testing.T) {
	cities := map[string][]ListItem{
		"us": {{Text: "New York", Value: "nyc"}, {Text: "Boston", Value: "bos"}},
		"fr": {{Text: "Paris", Value: "par"}},
	}
	defs := []Column{
		{
			Name:   "country",
			Editor: "select",
			Relations: []Relation{{
				TargetNames: []string{"city"},
				Editable:    func(p RelationParams) bool { return p.Value != nil },
				ListItems: func(p RelationParams) []ListItem {
					country, _ := p.Value.(string)
					return cities[country]
				},
			}},
		},
		{Name: "city", Editor: "select"},
	}

	store := reactive.New()
	row, vr := newTestViewRow(t, store, defs, map[string]any{"country": "us", "city": "bos"})

	exp := CellRenderData{Editable: true, FormattedValue: "Boston", Value: "bos", ListItems: cities["us"]}
	if diff := cmp.Diff(exp, cell(t, vr, "city")); diff != "" {
		t.Fatalf("unexpected city (-want, +got):\n%s", diff)
	}

	row.SetValue("country", "fr")
	exp = CellRenderData{Editable: true, FormattedValue: "", Value: "", ListItems: cities["fr"]}
	if diff := cmp.Diff(exp, cell(t, vr, "city")); diff != "" {
		t.Fatalf("expected relation mismatch to blank city (-want, +got):\n%s", diff)
	}
	if v := row.Value(nil, "city"); v != "bos" {
		t.Fatalf("expected raw value to be kept, got %v", v)
	}

	row.SetValue("city", "par")
	if c := cell(t, vr, "city"); c.FormattedValue != "Paris" {
		t.Fatalf("expected Paris, got %q", c.FormattedValue)
	}

	row.SetValue("country", nil)
	if c := cell(t, vr, "city"); c.Editable {
		t.Fatal("expected city to be read-only without a country")
	}
}

func TestViewRowChainedRelations(t *testing.T) {
	allow := func(items ...string) func(RelationParams) []ListItem {
		return func(RelationParams) []ListItem {
			out := make([]ListItem, len(items))
			for i, s := range items {
				out[i] = ListItem{Text: s, Value: s}
			}
			return out
		}
	}
	defs := []Column{
		{Name: "b", Relations: []Relation{{TargetNames: []string{"c"}, Disabled: func(p RelationParams) bool { return p.Disabled }}}},
		{Name: "a", Relations: []Relation{{TargetNames: []string{"b"}, Disabled: func(p RelationParams) bool { return p.Value == "off" }, ListItems: allow("x", "y")}}},
		{Name: "c"},
	}

	store := reactive.New()
	row, vr := newTestViewRow(t, store, defs, map[string]any{"a": "on", "b": "x", "c": 1})

	if c := cell(t, vr, "c"); c.Disabled {
		t.Fatal("expected c enabled")
	}
	row.SetValue("a", "off")
	if c := cell(t, vr, "b"); !c.Disabled {
		t.Fatal("expected b disabled")
	}
	if c := cell(t, vr, "c"); !c.Disabled {
		t.Fatal("expected c disabled through b")
	}
}

func TestViewRowRelease(t *testing.T) {
	store := reactive.New()
	row, vr := newTestViewRow(t, store, []Column{{Name: "a"}}, map[string]any{"a": 1})

	if store.Len() != 1 {
		t.Fatalf("expected one derivation, got %d", store.Len())
	}
	vr.Release()
	if store.Len() != 0 {
		t.Fatalf("expected derivations to be unregistered, got %d", store.Len())
	}

	row.SetValue("a", 2)
	if c := cell(t, vr, "a"); c.Value != 1 {
		t.Fatalf("expected released view row to keep its last value, got %v", c.Value)
	}
}

func TestLazyViewRow(t *testing.T) {
	store := reactive.New()
	columns, err := NewColumns([]Column{{Name: "a"}})
	if err != nil {
		t.Fatal(err)
	}
	row, err := NewRawRow(map[string]any{"a": 1}, 0, nil, RowOptions{Store: store, Lazy: true})
	if err != nil {
		t.Fatal(err)
	}
	vr, err := NewViewRow(store, row, columns)
	if err != nil {
		t.Fatal(err)
	}

	if row.Tier() != Lazy || vr.Observable() || store.Len() != 0 {
		t.Fatalf("expected lazy row without derivations, got tier %v and %d derivations", row.Tier(), store.Len())
	}
	if c := cell(t, vr, "a"); c.Value != 1 {
		t.Fatalf("expected value 1, got %v", c.Value)
	}

	row.SetValue("a", 2)
	if c := cell(t, vr, "a"); c.Value != 1 {
		t.Fatalf("expected lazy cell to keep 1 until refreshed, got %v", c.Value)
	}
	vr.refresh()
	if c := cell(t, vr, "a"); c.Value != 2 {
		t.Fatalf("expected refreshed value 2, got %v", c.Value)
	}

	if !row.materialize(store) {
		t.Fatal("expected row to be promoted")
	}
	if row.materialize(store) {
		t.Fatal("expected second promotion to be a no-op")
	}
	if v := row.Value(nil, "a"); v != 2 {
		t.Fatalf("expected value to survive promotion, got %v", v)
	}
}
