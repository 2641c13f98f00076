package generation

import (
	"errors"
	"fmt"
)

// ServiceError reports a failed model call. Generation aborts and no fallback
// artifact is produced.
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation: %s call failed: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ParseError reports a well-formed model response that lacks the required
// artifact structure.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "generation: failed to parse contract generation response: " + e.Reason
}

// TransientError represents a temporary provider error that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }

func (e *TransientError) Unwrap() error { return e.err }

func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError represents a provider error that should not be retried.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }

func (e *FatalError) Unwrap() error { return e.err }

func NewFatalError(err error) error {
	return &FatalError{err: err}
}

func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
