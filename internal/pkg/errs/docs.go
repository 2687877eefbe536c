// Package errs holds the error family shared by the domain, the use cases and the
// adapters.
//
// Every type pairs a struct carrying the offending parameter with an exported sentinel
// that Unwrap returns, so callers classify with errors.Is and read details with
// errors.As:
//
//	var notFound *errs.ObjectNotFoundError
//	if errors.As(err, &notFound) { ... }
//	if errors.Is(err, errs.ErrValueIsRequired) { ... }
//
// RetryableError is the exception: it unwraps to both ErrRetryable and its cause, and
// marks failures that a fresh attempt of the whole unit of work may not hit again.
package errs
