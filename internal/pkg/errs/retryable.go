package errs

import (
	"errors"
	"fmt"
)

// ErrRetryable marks failures that may succeed when the whole operation is attempted again,
// such as lock wait timeouts, optimistic version conflicts or database serialization failures.
var ErrRetryable = errors.New("operation can be retried")

// RetryableError wraps a transient failure of the named operation.
//
// It unwraps to both ErrRetryable and the original cause, so callers can check
// errors.Is(err, errs.ErrRetryable) and still match the concrete failure.
//
// Example:
//
//	if result.RowsAffected == 0 {
//	    return errs.NewRetryableError("storage location update", ErrConcurrentModification)
//	}
type RetryableError struct {
	Operation string
	Cause     error
}

// NewRetryableError creates a RetryableError for the operation.
func NewRetryableError(operation string, cause error) *RetryableError {
	return &RetryableError{
		Operation: operation,
		Cause:     cause,
	}
}

func (e *RetryableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrRetryable, e.Operation, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrRetryable, e.Operation)
}

func (e *RetryableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrRetryable}
	}
	return []error{ErrRetryable, e.Cause}
}

// IsRetryable reports whether err or any error it wraps is marked retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}
