package compute

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means a computation is missing or has conflicting settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrReference means a comparison list names a key that is not in the dataset.
	ErrReference = errors.New("reference error")
	// ErrKeyNotPrepared means Run was called for a key Prepare never saw.
	ErrKeyNotPrepared = errors.New("key not prepared")
	// ErrTypeMismatch means a computation returned a value of the wrong type.
	ErrTypeMismatch = errors.New("result type mismatch")
)

// Error wraps a sentinel error with additional context
type Error struct {
	Err     error  // The underlying sentinel error
	Context string // Additional error context
}

// Error satisfies the error interface
func (e *Error) Error() string {
	if e.Context == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Context)
}

// Unwrap implements the errors.Unwrap interface for compatibility with errors.Is/As
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(err error, format string, args ...interface{}) *Error {
	return &Error{
		Err:     err,
		Context: fmt.Sprintf(format, args...),
	}
}

// RowError reports the row and column whose computation failed.
type RowError struct {
	Column string
	Key    string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("compute column %s for row %q: %v", e.Column, e.Key, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
