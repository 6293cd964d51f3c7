// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package data

import (
	"regexp"
	"slices"
)

// Row header pseudo-columns. Their cell values come from row attributes
// rather than from row data.
const (
	RowNumberColumn = "_number"
	CheckboxColumn  = "_checked"
)

// IsRowHeader returns true if name is one of the row header pseudo-columns.
func IsRowHeader(name string) bool {
	return name == RowNumberColumn || name == CheckboxColumn
}

// RowValues reads a value of the row being rendered. Reads made while a view
// cell is computed are tracked.
type RowValues func(name string) any

// FormatterProps is passed to a column Formatter.
type FormatterProps struct {
	Value  any
	Column *Column
	Row    RowValues
}

// Formatter turns a cell value into the text displayed for it.
type Formatter func(FormatterProps) string

// ListItem is one allowed value of a list-backed editor.
type ListItem struct {
	Text  string `json:"text"`
	Value any    `json:"value"`
}

// RelationParams is passed to relation callbacks. It describes the current
// state of the relation's source cell.
type RelationParams struct {
	Value    any
	Editable bool
	Disabled bool
	Row      RowValues
}

// Relation constrains target columns based on the value of the column that
// declares it.
type Relation struct {
	TargetNames []string
	Editable    func(RelationParams) bool
	Disabled    func(RelationParams) bool
	ListItems   func(RelationParams) []ListItem
}

// DefaultValue is the value a declared column takes on rows that do not carry
// it.
type DefaultValue struct {
	Name  string
	Value any
}

// Column describes one declared column of the grid.
type Column struct {
	Name         string
	Header       string
	Hidden       bool
	Disabled     bool
	EscapeHTML   bool
	Editor       string
	DefaultValue any
	ClassName    string
	Formatter    Formatter
	Validation   *Validation
	Relations    []Relation
}

// Columns is the validated set of column definitions of a grid, row headers
// first.
type Columns struct {
	all       []*Column
	byName    map[string]*Column
	related   map[string]bool
	relations map[string][]relationTarget
}

type relationTarget struct {
	name     string
	relation *Relation
}

// NewColumns validates defs and returns the column set. rowHeaders lists the
// row header pseudo-columns to prepend.
func NewColumns(defs []Column, rowHeaders ...string) (*Columns, error) {
	c := &Columns{
		byName:    map[string]*Column{},
		related:   map[string]bool{},
		relations: map[string][]relationTarget{},
	}

	for _, name := range rowHeaders {
		if !IsRowHeader(name) {
			return nil, NewInvalidColumnError("row header %q: unknown row header", name)
		}
		if err := c.add(&Column{Name: name}); err != nil {
			return nil, err
		}
	}

	for i := range defs {
		col := defs[i]
		if col.Name == "" {
			return nil, NewInvalidColumnError("column %d: name must be non-empty", i)
		}
		if IsRowHeader(col.Name) {
			return nil, NewInvalidColumnError("column %q: reserved for row headers", col.Name)
		}
		if v := col.Validation; v != nil && v.RegExp != "" {
			if _, err := regexp.Compile(v.RegExp); err != nil {
				return nil, NewInvalidColumnError("column %q: invalid regExp: %v", col.Name, err)
			}
		}
		if err := c.add(&col); err != nil {
			return nil, err
		}
	}

	for _, col := range c.all {
		for i := range col.Relations {
			rel := &col.Relations[i]
			for _, target := range rel.TargetNames {
				if target == col.Name {
					return nil, NewInvalidColumnError("column %q: relation targets itself", col.Name)
				}
				if _, ok := c.byName[target]; !ok || IsRowHeader(target) {
					return nil, NewInvalidColumnError("column %q: relation target %q does not exist", col.Name, target)
				}
				c.related[target] = true
				c.relations[col.Name] = append(c.relations[col.Name], relationTarget{name: target, relation: rel})
			}
		}
	}

	return c, nil
}

func (c *Columns) add(col *Column) error {
	if _, ok := c.byName[col.Name]; ok {
		return NewInvalidColumnError("column %q: duplicate column name", col.Name)
	}
	c.all = append(c.all, col)
	c.byName[col.Name] = col
	return nil
}

// Get returns the column named name.
func (c *Columns) Get(name string) (*Column, bool) {
	col, ok := c.byName[name]
	return col, ok
}

// All returns every column, row headers first.
func (c *Columns) All() []*Column {
	return c.all
}

// Names returns the names of the data columns, excluding row headers.
func (c *Columns) Names() []string {
	names := make([]string, 0, len(c.all))
	for _, col := range c.all {
		if !IsRowHeader(col.Name) {
			names = append(names, col.Name)
		}
	}
	return names
}

// Visible returns the columns that are not hidden, row headers included.
func (c *Columns) Visible() []*Column {
	return slices.DeleteFunc(slices.Clone(c.all), func(col *Column) bool {
		return col.Hidden
	})
}

// IsHidden returns true if name is declared and hidden.
func (c *Columns) IsHidden(name string) bool {
	col, ok := c.byName[name]
	return ok && col.Hidden
}

// SetHidden hides or shows the column named name.
func (c *Columns) SetHidden(name string, hidden bool) error {
	col, ok := c.byName[name]
	if !ok {
		return NewColumnNotFoundError(name)
	}
	col.Hidden = hidden
	return nil
}

// IsRelated returns true if name is the target of some relation. The cells of
// related columns are computed by the relation of their source column.
func (c *Columns) IsRelated(name string) bool {
	return c.related[name]
}

// Defaults returns the default value of every data column.
func (c *Columns) Defaults() []DefaultValue {
	defaults := make([]DefaultValue, 0, len(c.all))
	for _, col := range c.all {
		if !IsRowHeader(col.Name) {
			defaults = append(defaults, DefaultValue{Name: col.Name, Value: col.DefaultValue})
		}
	}
	return defaults
}

// relationSources returns the columns declaring relations, ordered so that a
// source which is itself a relation target follows the source it depends on.
func (c *Columns) relationSources() []string {
	var pending []string
	for _, col := range c.all {
		if len(c.relations[col.Name]) > 0 {
			pending = append(pending, col.Name)
		}
	}

	done := map[string]bool{}
	ordered := make([]string, 0, len(pending))
	for len(pending) > 0 {
		next := pending[:0:0]
		for _, name := range pending {
			if c.related[name] && c.waitsOn(name, pending, done) {
				next = append(next, name)
				continue
			}
			done[name] = true
			ordered = append(ordered, name)
		}
		if len(next) == len(pending) {
			// Relations form a cycle; fall back to declaration order.
			return append(ordered, next...)
		}
		pending = next
	}
	return ordered
}

// waitsOn returns true if a pending source other than name still has to
// compute the cell of name.
func (c *Columns) waitsOn(name string, pending []string, done map[string]bool) bool {
	for _, source := range pending {
		if source == name || done[source] {
			continue
		}
		for _, t := range c.relations[source] {
			if t.name == name {
				return true
			}
		}
	}
	return false
}
