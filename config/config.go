// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package config implements grid configuration file parsing and validation.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/open-policy-agent/grid/data"
	"github.com/open-policy-agent/grid/engine"
	"github.com/open-policy-agent/grid/reactive"
	"github.com/open-policy-agent/grid/util"
)

const defaultPage = 1

// Config represents the configuration file a grid is built from.
type Config struct {
	KeyColumnName     string                     `json:"keyColumnName,omitempty"`
	RowHeaders        []string                   `json:"rowHeaders,omitempty"`
	Columns           []Column                   `json:"columns,omitempty"`
	PageOptions       *data.PageOptions          `json:"pageOptions,omitempty"`
	Disabled          bool                       `json:"disabled,omitempty"`
	LazyObservable    bool                       `json:"lazyObservable,omitempty"`
	MaxRecursionDepth *int                       `json:"maxRecursionDepth,omitempty"`
	Extra             map[string]json.RawMessage `json:"-"`
}

// Column is the declaration of one grid column.
type Column struct {
	Name         string      `json:"name"`
	Header       string      `json:"header,omitempty"`
	Hidden       bool        `json:"hidden,omitempty"`
	Editor       string      `json:"editor,omitempty"`
	Disabled     bool        `json:"disabled,omitempty"`
	DefaultValue any         `json:"defaultValue,omitempty"`
	EscapeHTML   bool        `json:"escapeHTML,omitempty"`
	ClassName    string      `json:"className,omitempty"`
	Validation   *Validation `json:"validation,omitempty"`
	Relations    []Relation  `json:"relations,omitempty"`
}

// Validation holds the validation rules of a column.
type Validation struct {
	Required bool     `json:"required,omitempty"`
	DataType string   `json:"dataType,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	RegExp   string   `json:"regExp,omitempty"`
}

// Relation is a static relation between a source column and its targets. The
// allowed list items of the targets are looked up by the source cell value.
// Targets are disabled while the source value is one of DisabledWhen.
type Relation struct {
	TargetNames  []string                   `json:"targetNames"`
	ListItems    map[string][]data.ListItem `json:"listItems,omitempty"`
	DisabledWhen []any                      `json:"disabledWhen,omitempty"`
}

// ParseConfig returns a valid Config object with defaults injected.
func ParseConfig(raw []byte) (*Config, error) {
	var result Config
	objValue := reflect.ValueOf(&result).Elem()
	knownFields := map[string]reflect.Value{}
	for i := 0; i != objValue.NumField(); i++ {
		jsonName := strings.Split(objValue.Type().Field(i).Tag.Get("json"), ",")[0]
		if jsonName == "-" {
			continue
		}
		knownFields[jsonName] = objValue.Field(i)
	}

	if err := util.Unmarshal(raw, &result.Extra); err != nil {
		return nil, err
	}

	for key, chunk := range result.Extra {
		if field, found := knownFields[key]; found {
			if err := util.Unmarshal(chunk, field.Addr().Interface()); err != nil {
				return nil, fmt.Errorf("%v: %w", key, err)
			}
			delete(result.Extra, key)
		}
	}
	if len(result.Extra) == 0 {
		result.Extra = nil
	}
	return &result, result.validateAndInjectDefaults()
}

func (c *Config) validateAndInjectDefaults() error {
	if len(c.Extra) > 0 {
		keys := make([]string, 0, len(c.Extra))
		for k := range c.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown configuration keys: %v", strings.Join(keys, ", "))
	}

	for _, name := range c.RowHeaders {
		if !data.IsRowHeader(name) {
			return fmt.Errorf("invalid row header %q: must be one of %v, %v", name, data.RowNumberColumn, data.CheckboxColumn)
		}
	}

	seen := map[string]struct{}{}
	for i, col := range c.Columns {
		if col.Name == "" {
			return fmt.Errorf("column %d: missing name", i)
		}
		if _, ok := seen[col.Name]; ok {
			return fmt.Errorf("column %q: declared more than once", col.Name)
		}
		seen[col.Name] = struct{}{}

		if v := col.Validation; v != nil {
			switch v.DataType {
			case "", data.DataTypeString, data.DataTypeNumber:
			default:
				return fmt.Errorf("column %q: invalid dataType %q", col.Name, v.DataType)
			}
			if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
				return fmt.Errorf("column %q: min must not exceed max", col.Name)
			}
		}
		for _, rel := range col.Relations {
			if len(rel.TargetNames) == 0 {
				return fmt.Errorf("column %q: relation without targetNames", col.Name)
			}
		}
	}

	if c.KeyColumnName != "" {
		if _, ok := seen[c.KeyColumnName]; !ok {
			return fmt.Errorf("keyColumnName %q: no such column", c.KeyColumnName)
		}
	}

	if p := c.PageOptions; p != nil {
		if p.PerPage <= 0 {
			return errors.New("pageOptions: perPage must be positive")
		}
		if p.Page <= 0 {
			p.Page = defaultPage
		}
	}

	if c.MaxRecursionDepth == nil {
		depth := reactive.DefaultMaxDepth
		c.MaxRecursionDepth = &depth
	} else if *c.MaxRecursionDepth <= 0 {
		return errors.New("maxRecursionDepth must be positive")
	}

	return nil
}

// NewColumns returns the validated column set the configuration declares.
func (c *Config) NewColumns() (*data.Columns, error) {
	defs := make([]data.Column, 0, len(c.Columns))
	for _, col := range c.Columns {
		defs = append(defs, col.toColumn())
	}
	return data.NewColumns(defs, c.RowHeaders...)
}

// EngineOptions returns the engine options the configuration implies. Callers
// append their own logger and metrics options.
func (c *Config) EngineOptions() []engine.Opt {
	dataOpts := []data.Opt{
		data.WithKeyColumnName(c.KeyColumnName),
		data.WithLazyObservable(c.LazyObservable),
		data.WithDisabled(c.Disabled),
	}
	if c.PageOptions != nil {
		dataOpts = append(dataOpts, data.WithPageOptions(*c.PageOptions))
	}

	opts := []engine.Opt{engine.WithDataOptions(dataOpts...)}
	if c.MaxRecursionDepth != nil {
		opts = append(opts, engine.WithMaxRecursionDepth(*c.MaxRecursionDepth))
	}
	return opts
}

// NewEngine builds an engine over rows from the configuration.
func (c *Config) NewEngine(rows []map[string]any, opts ...engine.Opt) (*engine.Engine, error) {
	columns, err := c.NewColumns()
	if err != nil {
		return nil, err
	}
	return engine.New(columns, rows, append(c.EngineOptions(), opts...)...)
}

func (col Column) toColumn() data.Column {
	result := data.Column{
		Name:         col.Name,
		Header:       col.Header,
		Hidden:       col.Hidden,
		Disabled:     col.Disabled,
		EscapeHTML:   col.EscapeHTML,
		Editor:       col.Editor,
		DefaultValue: col.DefaultValue,
		ClassName:    col.ClassName,
	}
	if result.Header == "" {
		result.Header = col.Name
	}
	if v := col.Validation; v != nil {
		result.Validation = &data.Validation{
			Required: v.Required,
			DataType: v.DataType,
			Min:      v.Min,
			Max:      v.Max,
			RegExp:   v.RegExp,
		}
	}
	for _, rel := range col.Relations {
		result.Relations = append(result.Relations, rel.toRelation())
	}
	return result
}

func (rel Relation) toRelation() data.Relation {
	result := data.Relation{
		TargetNames: slices.Clone(rel.TargetNames),
	}
	if rel.ListItems != nil {
		items := rel.ListItems
		result.ListItems = func(p data.RelationParams) []data.ListItem {
			return items[valueKey(p.Value)]
		}
	}
	if len(rel.DisabledWhen) > 0 {
		when := make([]string, 0, len(rel.DisabledWhen))
		for _, v := range rel.DisabledWhen {
			when = append(when, valueKey(v))
		}
		result.Disabled = func(p data.RelationParams) bool {
			return slices.Contains(when, valueKey(p.Value))
		}
	}
	return result
}

// valueKey renders a cell value as a listItems lookup key. Numbers decoded
// from configuration and numbers set at runtime render the same.
func valueKey(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case json.Number:
		return v.String()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
