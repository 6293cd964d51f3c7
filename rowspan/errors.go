// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package rowspan

import (
	"errors"
	"fmt"

	"github.com/open-policy-agent/grid/data"
)

// ErrCode represents the collection of errors returned by the span engine.
type ErrCode int

const (
	// InternalErr indicates an unknown, internal error has occurred.
	InternalErr ErrCode = iota

	// MainRowNotFoundErr indicates a span refers to a main row that is not
	// part of the rows. The span maps are corrupt.
	MainRowNotFoundErr

	// IndexOutOfRangeErr indicates a row index outside of the rows.
	IndexOutOfRangeErr
)

// Error is the error type returned by the span engine.
type Error struct {
	Code    ErrCode
	Key     data.RowKey
	Message string
}

func (err *Error) Error() string {
	return fmt.Sprintf("rowspan error (code: %d): %v", err.Code, err.Message)
}

// IsMainRowNotFound returns true if this error is a MainRowNotFoundErr.
func IsMainRowNotFound(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == MainRowNotFoundErr
	}
	return false
}

// IsIndexOutOfRange returns true if this error is a IndexOutOfRangeErr.
func IsIndexOutOfRange(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == IndexOutOfRangeErr
	}
	return false
}

func indexOutOfRangeError(index, n int) *Error {
	return &Error{
		Code:    IndexOutOfRangeErr,
		Message: fmt.Sprintf("row index %d: out of range [0, %d)", index, n),
	}
}

func mainRowNotFoundError(key data.RowKey, column string) *Error {
	return &Error{
		Code:    MainRowNotFoundErr,
		Key:     key,
		Message: fmt.Sprintf("column %q: main row %q does not exist", column, key),
	}
}
