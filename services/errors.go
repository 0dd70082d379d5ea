// Package services holds the business rules.
//
// Services take and return domain models, never HTTP types, and reach
// storage only through repository interfaces. Each service is an exported
// interface with an unexported implementation, built once in
// init_services.go and shared by every request; the tenant a call works on
// comes from its context, not from the service.
//
// Every failure leaving a service is a *pkg.AppError, so callers can rely on
// a stable Code and a client-safe Message:
//
//	KindValidation  malformed input, field errors in Fields
//	KindConflict    a unique key is taken (MENU_EXISTS, USER_EXISTS)
//	KindNotFound    the referenced record does not exist
//	KindAuth        bad credentials, sessions or reset tokens
//	KindInternal    anything unexpected; the cause is kept for the log
//
// Repository errors are converted at the service boundary. pkg.ErrNotFound
// becomes the entity's NOT_FOUND error and everything unexpected goes
// through internal, which leaves AppErrors produced further down alone.
//
// Checks that span several statements (change password, reset by token)
// run inside Transactor.InTx so a failure leaves nothing half written.
package services

import (
	"errors"
	"fmt"

	"github.com/akinalp/tenantgate/pkg"
	"github.com/akinalp/tenantgate/pkg/password"
)

// internal passes AppErrors through and wraps anything else as an internal
// failure with the given code.
func internal(code string, err error) error {
	var appErr *pkg.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return pkg.NewInternalError(code, err)
}

// businessError is a client mistake that is neither a malformed field nor
// a missing record, e.g. reusing the old password.
func businessError(code, message string) error {
	return &pkg.AppError{Kind: pkg.KindValidation, Code: code, Message: message}
}

// hashFailure reports an over-long password as a field error on field and
// anything else like internal.
func hashFailure(code, field string, err error) error {
	if errors.Is(err, password.ErrTooLong) {
		return pkg.NewValidationError([]pkg.FieldError{{
			Field:   field,
			Message: fmt.Sprintf("%s must be at most %d bytes", field, password.MaxBytes),
		}})
	}
	return internal(code, err)
}
