// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package data

import (
	"errors"
	"fmt"
)

// ErrCode represents the collection of errors that may be returned by the
// data model.
type ErrCode int

const (
	// InternalErr indicates an unknown, internal error has occurred.
	InternalErr ErrCode = iota

	// NotFoundErr indicates a row key or column name does not locate
	// anything in the dataset.
	NotFoundErr

	// InvalidRowSpanErr indicates a row declared a malformed span.
	InvalidRowSpanErr

	// DuplicateKeyErr indicates two rows of one dataset generation share a
	// row key.
	DuplicateKeyErr

	// InvalidColumnErr indicates a column definition is malformed.
	InvalidColumnErr

	// InvalidRowErr indicates a source row cannot be turned into a raw row.
	InvalidRowErr
)

// Error is the error type returned by the data model.
type Error struct {
	Code    ErrCode
	Message string
}

func (err *Error) Error() string {
	return fmt.Sprintf("data error (code: %d): %v", err.Code, err.Message)
}

// IsNotFound returns true if this error is a NotFoundErr.
func IsNotFound(err error) bool {
	return hasCode(err, NotFoundErr)
}

// IsInvalidRowSpan returns true if this error is an InvalidRowSpanErr.
func IsInvalidRowSpan(err error) bool {
	return hasCode(err, InvalidRowSpanErr)
}

// IsDuplicateKey returns true if this error is a DuplicateKeyErr.
func IsDuplicateKey(err error) bool {
	return hasCode(err, DuplicateKeyErr)
}

// IsInvalidColumn returns true if this error is an InvalidColumnErr.
func IsInvalidColumn(err error) bool {
	return hasCode(err, InvalidColumnErr)
}

func hasCode(err error, code ErrCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// NewRowNotFoundError returns a NotFoundErr for the row key.
func NewRowNotFoundError(key RowKey) *Error {
	return &Error{
		Code:    NotFoundErr,
		Message: fmt.Sprintf("row key %q: row does not exist", key),
	}
}

// NewColumnNotFoundError returns a NotFoundErr for the column name.
func NewColumnNotFoundError(name string) *Error {
	return &Error{
		Code:    NotFoundErr,
		Message: fmt.Sprintf("column %q: column does not exist", name),
	}
}

func invalidRowSpanError(f string, a ...any) *Error {
	return &Error{
		Code:    InvalidRowSpanErr,
		Message: fmt.Sprintf(f, a...),
	}
}

func duplicateKeyError(key RowKey) *Error {
	return &Error{
		Code:    DuplicateKeyErr,
		Message: fmt.Sprintf("row key %q: duplicate row key", key),
	}
}

// NewInvalidColumnError returns an InvalidColumnErr with a formatted message.
func NewInvalidColumnError(f string, a ...any) *Error {
	return &Error{
		Code:    InvalidColumnErr,
		Message: fmt.Sprintf(f, a...),
	}
}

func invalidRowError(f string, a ...any) *Error {
	return &Error{
		Code:    InvalidRowErr,
		Message: fmt.Sprintf(f, a...),
	}
}
