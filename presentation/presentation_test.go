// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package presentation

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/open-policy-agent/grid/data"
	"github.com/open-policy-agent/grid/metrics"
	"github.com/open-policy-agent/grid/reactive"
)

func newDataset(t *testing.T) *data.Dataset {
	t.Helper()
	columns, err := data.NewColumns([]data.Column{
		{Name: "id", Header: "ID"},
		{Name: "region", Header: "Region", Validation: &data.Validation{Required: true}},
		{Name: "city", Hidden: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	sources := []map[string]any{
		{"id": 1, "region": "north", data.AttributesField: map[string]any{"rowSpan": map[string]any{"region": 2}}},
		{"id": 2},
		{"id": 3},
	}
	ds, err := data.NewDataset(reactive.New(), columns, sources, data.WithKeyColumnName("id"))
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestNewViewResult(t *testing.T) {
	ds := newDataset(t)
	result := NewViewResult(ds, ds.ViewData())

	expCols := []ColumnResult{{Name: "id", Header: "ID"}, {Name: "region", Header: "Region"}}
	if diff := cmp.Diff(expCols, result.Columns); diff != "" {
		t.Fatalf("unexpected columns (-want, +got):\n%s", diff)
	}

	if len(result.Rows) != 3 {
		t.Fatalf("expected 3 rows but got %d", len(result.Rows))
	}
	if _, ok := result.Rows[1].Cells["region"]; ok {
		t.Fatal("expected sub row cell of merged region to be omitted")
	}
	if got := result.Rows[0].Cells["region"].FormattedValue; got != "north" {
		t.Fatalf("expected north but got %q", got)
	}
	if got := result.Rows[2].Cells["region"].InvalidStates; len(got) != 1 || got[0] != data.Required {
		t.Fatalf("expected REQUIRED but got %v", got)
	}
}

func TestNewSpanResults(t *testing.T) {
	ds := newDataset(t)
	spans, err := NewSpanResults(ds.RawData())
	if err != nil {
		t.Fatal(err)
	}
	exp := []SpanResult{{RowKey: "1", Column: "region", Top: 0, Bottom: 1}}
	if diff := cmp.Diff(exp, spans); diff != "" {
		t.Fatalf("unexpected spans (-want, +got):\n%s", diff)
	}
}

func TestPrintPretty(t *testing.T) {
	ds := newDataset(t)
	view := NewViewResult(ds, ds.ViewData())
	spans, err := NewSpanResults(ds.RawData())
	if err != nil {
		t.Fatal(err)
	}

	m := metrics.New()
	m.Counter(metrics.DataRowsBuilt).Add(3)

	var buf bytes.Buffer
	PrintPretty(&buf, Output{View: &view, Spans: spans, Metrics: m.All()}, 0)
	out := buf.String()

	for _, exp := range []string{"ID", "Region", "north", "(REQUIRED)", "[0,1]", "counter_data_rows_built", "3"} {
		if !strings.Contains(out, exp) {
			t.Errorf("expected output to contain %q:\n%s", exp, out)
		}
	}
	if strings.Contains(out, "city") {
		t.Errorf("expected hidden column to be omitted:\n%s", out)
	}
	if strings.Count(out, "north") != 1 {
		t.Errorf("expected merged cell to be printed once:\n%s", out)
	}
}

func TestPrintJSON(t *testing.T) {
	ds := newDataset(t)
	view := NewViewResult(ds, ds.ViewData())

	var buf bytes.Buffer
	if err := PrintJSON(&buf, Output{View: &view}); err != nil {
		t.Fatal(err)
	}

	var out struct {
		View struct {
			Rows []struct {
				RowKey string `json:"rowKey"`
			} `json:"rows"`
		} `json:"view"`
		Spans []any `json:"spans"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.View.Rows) != 3 || out.View.Rows[2].RowKey != "3" || out.Spans != nil {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestCheckStrLimit(t *testing.T) {
	if got := checkStrLimit("abcdef", 3); got != "abc..." {
		t.Fatalf("expected abc... but got %q", got)
	}
	if got := checkStrLimit("abcdef", 0); got != "abcdef" {
		t.Fatalf("expected abcdef but got %q", got)
	}
}
