// Package errstring defines a simple sentinel error type that can be wrapped with
// context while still matching errors.Is.
package errstring

import (
	"fmt"
)

// Error is the base type for installer errors
type Error struct {
	msg string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.msg
}

// New creates a new error
func New(msg string) *Error {
	return &Error{msg}
}

// Wrap wraps another error with this error
func (e *Error) Wrap(errB error) error {
	return &wrappedError{
		errA: e,
		errB: errB,
	}
}

// Wrapf is a shortcut for Wrap(fmt.Errorf("...", ...))
func (e *Error) Wrapf(msg string, args ...any) error {
	return &wrappedError{
		errA: e,
		errB: fmt.Errorf(msg, args...),
	}
}

type wrappedError struct {
	errA error
	errB error
}

func (e *wrappedError) Error() string {
	return e.errA.Error() + ": " + e.errB.Error()
}

func (e *wrappedError) Is(err error) bool {
	if err == nil {
		return false
	}
	return e.errA == err
}

func (e *wrappedError) Unwrap() error {
	return e.errB
}
