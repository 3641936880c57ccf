package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConflict         = errors.New("resource already exists")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrBadRequest       = errors.New("bad request")
	ErrInternalServer   = errors.New("internal server error")

	// ErrConcurrentUpdate means another transaction on the same rows won a
	// lock race; the operation had no effect and can be retried.
	ErrConcurrentUpdate = errors.New("concurrent update, retry the operation")

	// Login gate errors
	ErrAccountDeleted   = errors.New("account is deleted")
	ErrAccountBanned    = errors.New("account is banned")
	ErrAccountSuspended = errors.New("account is suspended")
	ErrAccountDisabled  = errors.New("account login is disabled")
)

// OperationError is a rejected precondition. Its message is safe to show to
// the calling administrator.
type OperationError struct {
	Message string
}

func (e *OperationError) Error() string { return e.Message }

func (e *OperationError) Unwrap() error { return ErrInvalidOperation }

// InvalidOperation builds an OperationError.
func InvalidOperation(format string, args ...any) error {
	return &OperationError{Message: fmt.Sprintf(format, args...)}
}

// NotFound wraps ErrNotFound with the kind and id of the missing entity.
func NotFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}
