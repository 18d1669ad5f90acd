// Package errors augments the standard errors
// provided by fmt (https://golang.org/src/fmt/errors.go)
// with sentinel values that carry a wrapped cause without
// resorting to fmt.Errorf("%w", err).
package errors

import (
	stderr "errors"
)

var _ error = New("")

// New Error
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error is a sentinel-friendly error with a Wrap method.
//
// Wrap attaches a cause to a copy of the sentinel, leaving the
// package-level sentinel itself untouched, so sentinels remain safe to
// wrap from concurrent goroutines.
type Error struct {
	msg   string
	cause error
}

// Error message
func (e *Error) Error() string {
	return e.msg
}

// Unwrap nested error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Wrap returns a copy of this error with a nested cause
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, cause: err}
}

// Is of some error type? Wrapped copies of a sentinel compare equal to
// the sentinel they were derived from.
func (e *Error) Is(target error) bool {
	if e == target {
		return true
	}
	if t, ok := target.(*Error); ok && t != nil {
		return e.msg == t.msg
	}
	return false
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
// (a shortcut to standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to standard lib errors.Is)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
