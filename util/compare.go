// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Compare returns 0 if a equals b, -1 if a is less than b, and 1 if b is than a.
//
// For comparison between values of different types, the following ordering is used:
// nil < bool < number < string < []any < map[string]any. Slices and maps
// are compared recursively. If one slice or map is a subset of the other slice or map
// it is considered "less than". Nil is always equal to nil.
func Compare(a, b any) int {
	aSortOrder := sortOrder(a)
	bSortOrder := sortOrder(b)
	if aSortOrder < bSortOrder {
		return -1
	} else if bSortOrder < aSortOrder {
		return 1
	}
	switch a := a.(type) {
	case nil:
		return 0
	case bool:
		b := b.(bool)
		if a == b {
			return 0
		}
		if !a {
			return -1
		}
		return 1
	case string:
		return strings.Compare(a, b.(string))
	case []any:
		b := b.([]any)
		bLen := len(b)
		aLen := len(a)
		minLen := min(aLen, bLen)
		for i := 0; i < minLen; i++ {
			if cmp := Compare(a[i], b[i]); cmp != 0 {
				return cmp
			}
		}
		if aLen < bLen {
			return -1
		} else if bLen < aLen {
			return 1
		}
		return 0
	case map[string]any:
		b := b.(map[string]any)
		aKeys := sortedKeys(a)
		bKeys := sortedKeys(b)
		minLen := min(len(aKeys), len(bKeys))
		for i := 0; i < minLen; i++ {
			if cmp := strings.Compare(aKeys[i], bKeys[i]); cmp != 0 {
				return cmp
			}
			if cmp := Compare(a[aKeys[i]], b[bKeys[i]]); cmp != 0 {
				return cmp
			}
		}
		if len(aKeys) < len(bKeys) {
			return -1
		} else if len(bKeys) < len(aKeys) {
			return 1
		}
		return 0
	}

	if af, ok := ToFloat64(a); ok {
		bf, _ := ToFloat64(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}

	panic(fmt.Sprintf("illegal arguments of type %T and type %T", a, b))
}

// ToFloat64 converts the numeric value x into a float64. Strings are not
// considered numeric.
func ToFloat64(x any) (float64, bool) {
	switch x := x.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		return f, err == nil
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

const (
	nilSort    = iota
	boolSort   = iota
	numberSort = iota
	stringSort = iota
	arraySort  = iota
	objectSort = iota
)

// Comparable returns true if v can be passed to Compare.
func Comparable(v any) bool {
	switch v := v.(type) {
	case nil, bool, string:
		return true
	case []any:
		for _, x := range v {
			if !Comparable(x) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, x := range v {
			if !Comparable(x) {
				return false
			}
		}
		return true
	}
	_, ok := ToFloat64(v)
	return ok
}

func sortOrder(v any) int {
	switch v.(type) {
	case nil:
		return nilSort
	case bool:
		return boolSort
	case string:
		return stringSort
	case []any:
		return arraySort
	case map[string]any:
		return objectSort
	}
	if _, ok := ToFloat64(v); ok {
		return numberSort
	}
	panic(fmt.Sprintf("illegal argument of type %T", v))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
