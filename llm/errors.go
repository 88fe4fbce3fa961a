package llm

import (
	"errors"
)

// Completion failures split into two classes: transient ones worth
// retrying on the same endpoint, and fatal ones that should fail over to
// the next endpoint immediately.

// TransientError marks a failure that may clear up on retry, such as a
// rate limit or an overloaded backend.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps err as retryable.
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError marks a failure that retrying the same endpoint cannot fix,
// such as a rejected credential or a malformed request.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps err as non-retryable.
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient reports whether err is classified as retryable.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal reports whether err is classified as non-retryable.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
