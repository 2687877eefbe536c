// Package pgerrors classifies PostgreSQL failures independently of the driver in use.
// Both the pgx driver (*pgconn.PgError) and lib/pq (*pq.Error) report a SQLSTATE code;
// transient codes are turned into errs.RetryableError so callers can retry the whole
// unit of work.
package pgerrors

import (
	"errors"

	"fulfillment/internal/pkg/errs"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Code returns the SQLSTATE of err, or "" if err did not come from PostgreSQL.
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsTransient reports serialization failures, deadlocks and lock timeouts.
func IsTransient(err error) bool {
	switch Code(err) {
	case pgerrcode.SerializationFailure,
		pgerrcode.DeadlockDetected,
		pgerrcode.LockNotAvailable:
		return true
	default:
		return false
	}
}

// IsUniqueViolation reports a violated unique constraint.
func IsUniqueViolation(err error) bool {
	return Code(err) == pgerrcode.UniqueViolation
}

// IsCheckViolation reports a violated check constraint, such as reserved exceeding total.
func IsCheckViolation(err error) bool {
	return Code(err) == pgerrcode.CheckViolation
}

// Classify wraps transient failures of operation in an errs.RetryableError and returns
// anything else unchanged. A nil err stays nil.
//
// Example:
//
//	if err := tx.Commit().Error; err != nil {
//	    return pgerrors.Classify("commit", err)
//	}
func Classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return errs.NewRetryableError(operation, err)
	}
	return err
}
