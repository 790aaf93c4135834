// Package configerr defines the error class for fatal configuration
// problems: a malformed AppDir, a broken desktop entry, missing required
// metadata. Builds failing with one of these abort before any external
// packaging tool runs, and nothing is retried.
package configerr

import "fmt"

type Error struct {
	err error
}

func Errorf(format string, args ...interface{}) *Error {
	return &Error{err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}
