// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package presentation prints grid view data, spans and metrics in json and
// tabular formats.
package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/open-policy-agent/grid/data"
	"github.com/open-policy-agent/grid/rowspan"
)

// ViewResult holds the rendered cells of a set of view rows.
type ViewResult struct {
	Columns []ColumnResult `json:"columns"`
	Rows    []RowResult    `json:"rows"`
}

// ColumnResult describes one printed column.
type ColumnResult struct {
	Name   string `json:"name"`
	Header string `json:"header"`
}

// RowResult holds the cells of one view row. Cells of sub rows of a merged
// cell are omitted.
type RowResult struct {
	RowKey data.RowKey                    `json:"rowKey"`
	Cells  map[string]data.CellRenderData `json:"cells"`
}

// SpanResult describes one merged cell.
type SpanResult struct {
	RowKey data.RowKey `json:"rowKey"`
	Column string      `json:"column"`
	Top    int         `json:"top"`
	Bottom int         `json:"bottom"`
}

// Output is the JSON document printed by the grid commands.
type Output struct {
	View    *ViewResult    `json:"view,omitempty"`
	Spans   []SpanResult   `json:"spans,omitempty"`
	Metrics map[string]any `json:"metrics,omitempty"`
}

// NewViewResult collects the cells of rows on the visible columns of ds.
func NewViewResult(ds *data.Dataset, rows []*data.ViewRow) ViewResult {
	var result ViewResult
	for _, col := range ds.Columns().Visible() {
		result.Columns = append(result.Columns, ColumnResult{Name: col.Name, Header: col.Header})
	}

	for _, vr := range rows {
		row := RowResult{RowKey: vr.RowKey, Cells: map[string]data.CellRenderData{}}
		for _, col := range result.Columns {
			if span, ok := vr.RowSpanMap[col.Name]; ok && !span.MainRow {
				continue
			}
			if cell, ok := vr.Cell(nil, col.Name); ok {
				row.Cells[col.Name] = cell
			}
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}

// NewSpanResults lists the merged cells of rows, top to bottom.
func NewSpanResults(rows []*data.RawRow) ([]SpanResult, error) {
	var result []SpanResult
	for i, row := range rows {
		for _, col := range row.RowSpanMap.Columns() {
			if !row.RowSpanMap[col].MainRow {
				continue
			}
			bottom, err := rowspan.BottomIndex(rows, i, col)
			if err != nil {
				return nil, err
			}
			result = append(result, SpanResult{RowKey: row.RowKey, Column: col, Top: i, Bottom: bottom})
		}
	}
	return result, nil
}

// PrintJSON prints indented json output.
func PrintJSON(writer io.Writer, x any) error {
	buf, err := json.MarshalIndent(x, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(writer, string(buf))
	return nil
}

// PrintPretty prints the view, spans and metrics of output in a tabular
// format.
func PrintPretty(writer io.Writer, output Output, prettyLimit int) {
	if output.View != nil {
		PrintPrettyView(writer, *output.View, prettyLimit)
	}
	if len(output.Spans) > 0 {
		PrintPrettySpans(writer, output.Spans)
	}
	PrintPrettyMetrics(writer, output.Metrics, prettyLimit)
}

// PrintPrettyView prints view cells in a tabular format. Invalid cells are
// suffixed with their validation codes.
func PrintPrettyView(writer io.Writer, result ViewResult, prettyLimit int) {
	table := tablewriter.NewWriter(writer)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	header := make([]string, len(result.Columns))
	alignment := make([]int, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col.Header
		if header[i] == "" {
			header[i] = col.Name
		}
		alignment[i] = tablewriter.ALIGN_LEFT
	}
	table.SetHeader(header)
	table.SetColumnAlignment(alignment)

	for _, row := range result.Rows {
		line := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			cell, ok := row.Cells[col.Name]
			if !ok {
				continue
			}
			line[i] = checkStrLimit(cellText(cell), prettyLimit)
		}
		table.Append(line)
	}

	if table.NumLines() > 0 {
		table.Render()
	}
}

// PrintPrettySpans prints merged cells in a tabular format.
func PrintPrettySpans(writer io.Writer, spans []SpanResult) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Row Key", "Column", "Rows"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	for _, s := range spans {
		table.Append([]string{string(s.RowKey), s.Column, fmt.Sprintf("[%d,%d]", s.Top, s.Bottom)})
	}
	if table.NumLines() > 0 {
		table.Render()
	}
}

// PrintPrettyMetrics prints metrics in a tabular format.
func PrintPrettyMetrics(writer io.Writer, metrics map[string]any, prettyLimit int) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Name", "Value"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	populateTableMetrics(metrics, table, prettyLimit)
	if table.NumLines() > 0 {
		fmt.Fprintln(writer)
		table.Render()
	}
}

func cellText(cell data.CellRenderData) string {
	s := cell.FormattedValue
	if len(cell.InvalidStates) > 0 {
		codes := make([]string, len(cell.InvalidStates))
		for i, code := range cell.InvalidStates {
			codes[i] = string(code)
		}
		s += " (" + strings.Join(codes, ",") + ")"
	}
	return s
}

func checkStrLimit(input string, limit int) string {
	if limit > 0 && len(input) > limit {
		input = input[:limit] + "..."
		return input
	}
	return input
}

func populateTableMetrics(m map[string]any, table *tablewriter.Table, prettyLimit int) {
	lines := [][]string{}
	for varName, varValueInterface := range m {
		val, ok := varValueInterface.(map[string]any)
		if !ok {
			varValue := checkStrLimit(fmt.Sprintf("%v", varValueInterface), prettyLimit)
			lines = append(lines, []string{varName, varValue})
		} else {
			for k, v := range val {
				newVarName := fmt.Sprintf("%v_%v", varName, k)
				value := checkStrLimit(fmt.Sprintf("%v", v), prettyLimit)
				lines = append(lines, []string{newVarName, value})
			}
		}
	}
	sortMetricRows(lines)
	table.AppendBulk(lines)
}

func sortMetricRows(data [][]string) {
	sort.Slice(data, func(i, j int) bool {
		return data[i][0] < data[j][0]
	})
}
