// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package data

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/open-policy-agent/grid/util"
)

// ValidationCode identifies one failed validation rule of a cell.
type ValidationCode string

// Validation codes in evaluation order.
const (
	Required    ValidationCode = "REQUIRED"
	TypeString  ValidationCode = "TYPE_STRING"
	TypeNumber  ValidationCode = "TYPE_NUMBER"
	Min         ValidationCode = "MIN"
	Max         ValidationCode = "MAX"
	RegExp      ValidationCode = "REGEXP"
	ValidatorFn ValidationCode = "VALIDATOR_FN"
)

// Declared data types.
const (
	DataTypeString = "string"
	DataTypeNumber = "number"
)

// Validator is a user predicate over a cell value. It returns false if the
// value is invalid.
type Validator func(value any, row RowValues, columnName string) bool

// Validation holds the validation rules of a column.
type Validation struct {
	Required  bool
	DataType  string
	Min       *float64
	Max       *float64
	RegExp    string
	Validator Validator
}

const regexpCacheSize = 128

var (
	regexpCacheOnce sync.Once
	regexpCache     *lru.Cache[string, *regexp.Regexp]
)

func compiledRegexp(pattern string) (*regexp.Regexp, error) {
	regexpCacheOnce.Do(func() {
		regexpCache, _ = lru.New[string, *regexp.Regexp](regexpCacheSize)
	})
	if re, ok := regexpCache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexpCache.Add(pattern, re)
	return re, nil
}

// Validate returns the codes of every rule value violates, in evaluation
// order. Blank values (nil or the empty string) only fail REQUIRED and
// VALIDATOR_FN.
func (v *Validation) Validate(value any, row RowValues, columnName string) []ValidationCode {
	if v == nil {
		return nil
	}

	var codes []ValidationCode
	blank := isBlank(value)

	if v.Required && blank {
		codes = append(codes, Required)
	}

	if !blank {
		switch v.DataType {
		case DataTypeString:
			if _, ok := value.(string); !ok {
				codes = append(codes, TypeString)
			}
		case DataTypeNumber:
			if _, ok := numericValue(value); !ok {
				codes = append(codes, TypeNumber)
			}
		}

		if n, ok := numericValue(value); ok {
			if v.Min != nil && n < *v.Min {
				codes = append(codes, Min)
			}
			if v.Max != nil && n > *v.Max {
				codes = append(codes, Max)
			}
		}

		if v.RegExp != "" {
			re, err := compiledRegexp(v.RegExp)
			if err != nil || !re.MatchString(toString(value)) {
				codes = append(codes, RegExp)
			}
		}
	}

	if v.Validator != nil && !v.Validator(value, row, columnName) {
		codes = append(codes, ValidatorFn)
	}

	return codes
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

// numericValue converts numbers and numeric strings to float64.
func numericValue(value any) (float64, bool) {
	if s, ok := value.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return util.ToFloat64(value)
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	return fmt.Sprint(value)
}
