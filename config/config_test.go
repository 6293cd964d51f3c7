// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package config

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/open-policy-agent/grid/data"
)

func TestParseConfig(t *testing.T) {
	raw := []byte(`
keyColumnName: id
rowHeaders: [_number, _checked]
columns:
  - name: id
  - name: category
    editor: select
    relations:
      - targetNames: [item]
        listItems:
          fruit:
            - {text: Apple, value: apple}
  - name: item
    header: Item
    editor: select
  - name: price
    validation:
      required: true
      dataType: number
      min: 0
      max: 100.5
pageOptions:
  perPage: 20
lazyObservable: true
`)

	cfg, err := ParseConfig(raw)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.KeyColumnName != "id" {
		t.Fatalf("expected key column id but got %q", cfg.KeyColumnName)
	}
	if exp := []string{"_number", "_checked"}; !cmp.Equal(cfg.RowHeaders, exp) {
		t.Fatalf("unexpected row headers: %v", cmp.Diff(exp, cfg.RowHeaders))
	}
	if len(cfg.Columns) != 4 {
		t.Fatalf("expected 4 columns but got %d", len(cfg.Columns))
	}
	if cfg.MaxRecursionDepth == nil || *cfg.MaxRecursionDepth != 100 {
		t.Fatalf("expected default max recursion depth 100 but got %v", cfg.MaxRecursionDepth)
	}
	if exp := (data.PageOptions{PerPage: 20, Page: 1}); cfg.PageOptions == nil || *cfg.PageOptions != exp {
		t.Fatalf("expected page options %+v but got %+v", exp, cfg.PageOptions)
	}
	if !cfg.LazyObservable || cfg.Disabled {
		t.Fatalf("unexpected flags: lazy=%v disabled=%v", cfg.LazyObservable, cfg.Disabled)
	}

	v := cfg.Columns[3].Validation
	if v == nil || !v.Required || v.DataType != "number" || *v.Min != 0 || *v.Max != 100.5 {
		t.Fatalf("unexpected validation: %+v", v)
	}

	items := cfg.Columns[1].Relations[0].ListItems["fruit"]
	if len(items) != 1 || items[0].Text != "Apple" || items[0].Value != "apple" {
		t.Fatalf("unexpected list items: %+v", items)
	}
}

func TestParseConfigJSON(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"columns": [{"name": "a"}], "maxRecursionDepth": 7, "disabled": true}`))
	if err != nil {
		t.Fatal(err)
	}
	if *cfg.MaxRecursionDepth != 7 || !cfg.Disabled || cfg.PageOptions != nil {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		note    string
		raw     string
		wantErr string
	}{
		{
			note:    "unknown keys",
			raw:     `{"columns": [], "zeta": 1, "alpha": 2}`,
			wantErr: "unknown configuration keys: alpha, zeta",
		},
		{
			note:    "duplicate column",
			raw:     `{"columns": [{"name": "a"}, {"name": "a"}]}`,
			wantErr: `column "a": declared more than once`,
		},
		{
			note:    "missing column name",
			raw:     `{"columns": [{"header": "A"}]}`,
			wantErr: "column 0: missing name",
		},
		{
			note:    "bad row header",
			raw:     `{"rowHeaders": ["_tree"]}`,
			wantErr: `invalid row header "_tree"`,
		},
		{
			note:    "bad data type",
			raw:     `{"columns": [{"name": "a", "validation": {"dataType": "date"}}]}`,
			wantErr: `column "a": invalid dataType "date"`,
		},
		{
			note:    "min above max",
			raw:     `{"columns": [{"name": "a", "validation": {"min": 5, "max": 1}}]}`,
			wantErr: `column "a": min must not exceed max`,
		},
		{
			note:    "relation without targets",
			raw:     `{"columns": [{"name": "a", "relations": [{"listItems": {}}]}]}`,
			wantErr: `column "a": relation without targetNames`,
		},
		{
			note:    "unknown key column",
			raw:     `{"keyColumnName": "id", "columns": [{"name": "a"}]}`,
			wantErr: `keyColumnName "id": no such column`,
		},
		{
			note:    "zero per page",
			raw:     `{"pageOptions": {"perPage": 0}}`,
			wantErr: "pageOptions: perPage must be positive",
		},
		{
			note:    "zero recursion depth",
			raw:     `{"maxRecursionDepth": 0}`,
			wantErr: "maxRecursionDepth must be positive",
		},
		{
			note:    "wrong type",
			raw:     `{"disabled": "yes"}`,
			wantErr: "disabled:",
		},
		{
			note:    "malformed",
			raw:     `{"columns": [`,
			wantErr: "yaml",
		},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q but got %v", tc.wantErr, err)
			}
		})
	}
}

func TestNewEngineStaticRelations(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
keyColumnName: id
columns:
  - name: id
  - name: category
    editor: select
    relations:
      - targetNames: [item]
        listItems:
          fruit:
            - {text: Apple, value: apple}
            - {text: Pear, value: pear}
          veg:
            - {text: Carrot, value: carrot}
        disabledWhen: [none]
  - name: item
    editor: select
`))
	if err != nil {
		t.Fatal(err)
	}

	e, err := cfg.NewEngine([]map[string]any{
		{"id": "r1", "category": "fruit", "item": "apple"},
		{"id": "r2", "category": "veg", "item": "apple"},
		{"id": "r3", "category": "none", "item": "carrot"},
	})
	if err != nil {
		t.Fatal(err)
	}

	cell := func(key data.RowKey) data.CellRenderData {
		t.Helper()
		vr, ok := e.Dataset().ViewRowByKey(key)
		if !ok {
			t.Fatalf("row %v not found", key)
		}
		c, ok := vr.Cell(nil, "item")
		if !ok {
			t.Fatalf("cell item of row %v not found", key)
		}
		return c
	}

	if c := cell("r1"); c.Value != "apple" || c.FormattedValue != "Apple" || len(c.ListItems) != 2 {
		t.Fatalf("unexpected matched cell: %+v", c)
	}
	if c := cell("r2"); c.Value != "" {
		t.Fatalf("expected unmatched cell to be blank but got %+v", c)
	}
	if c := cell("r3"); !c.Disabled {
		t.Fatalf("expected disabled cell but got %+v", c)
	}

	if err := e.SetValue("r2", "category", "fruit"); err != nil {
		t.Fatal(err)
	}
	if c := cell("r2"); c.Value != "apple" || len(c.ListItems) != 2 {
		t.Fatalf("expected relation to follow the source cell but got %+v", c)
	}
}

func TestEngineOptions(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
keyColumnName: id
rowHeaders: [_number]
columns: [{name: id}, {name: a, hidden: true}]
pageOptions: {perPage: 1, page: 2}
`))
	if err != nil {
		t.Fatal(err)
	}

	e, err := cfg.NewEngine([]map[string]any{{"id": "x"}, {"id": "y"}})
	if err != nil {
		t.Fatal(err)
	}

	ds := e.Dataset()
	if ds.KeyColumnName() != "id" {
		t.Fatalf("expected key column id but got %q", ds.KeyColumnName())
	}
	if exp := (data.PageOptions{PerPage: 1, Page: 2}); ds.PageOptions() != exp {
		t.Fatalf("expected %+v but got %+v", exp, ds.PageOptions())
	}
	if _, ok := ds.RowByKey("y"); !ok {
		t.Fatal("expected row y")
	}
	if !ds.Columns().IsHidden("a") {
		t.Fatal("expected column a to be hidden")
	}
	if _, ok := ds.Columns().Get(data.RowNumberColumn); !ok {
		t.Fatal("expected row number header")
	}
}
