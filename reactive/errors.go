// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package reactive

import (
	"errors"
	"fmt"
)

// ErrCode represents the collection of errors that may be returned by the
// reactive store.
type ErrCode int

const (
	// InternalErr indicates an unknown, internal error has occurred.
	InternalErr ErrCode = iota

	// ConflictErr indicates a derivation was registered under an id that is
	// already in use.
	ConflictErr

	// NotFoundErr indicates the caller referred to a derivation that is not
	// registered.
	NotFoundErr

	// RecursionErr indicates a derivation kept invalidating itself, directly
	// or through other derivations, past the configured maximum depth.
	RecursionErr
)

// Error is the error type returned by the reactive store.
type Error struct {
	Code    ErrCode
	Message string
}

func (err *Error) Error() string {
	return fmt.Sprintf("reactive error (code: %d): %v", err.Code, err.Message)
}

// IsConflict returns true if this error is a ConflictErr.
func IsConflict(err error) bool {
	return hasCode(err, ConflictErr)
}

// IsNotFound returns true if this error is a NotFoundErr.
func IsNotFound(err error) bool {
	return hasCode(err, NotFoundErr)
}

// IsRecursion returns true if this error is a RecursionErr.
func IsRecursion(err error) bool {
	return hasCode(err, RecursionErr)
}

func hasCode(err error, code ErrCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func conflictError(id string) *Error {
	return &Error{
		Code:    ConflictErr,
		Message: fmt.Sprintf("derivation %q already registered", id),
	}
}

func notFoundError(id string) *Error {
	return &Error{
		Code:    NotFoundErr,
		Message: fmt.Sprintf("derivation %q not registered", id),
	}
}

func recursionError(id string, depth int) *Error {
	return &Error{
		Code:    RecursionErr,
		Message: fmt.Sprintf("derivation %q re-triggered more than %d times in one propagation; it likely writes a field it reads", id, depth),
	}
}
