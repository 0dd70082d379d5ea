// Package pkg holds the pieces shared by every layer: the error taxonomy,
// the HTTP response envelope and request validation.
//
// Services never return raw driver errors to handlers. Everything that can
// go wrong is folded into an *AppError carrying a Kind (which decides the
// HTTP status) and a stable machine-readable Code such as USER_EXISTS.
// The sentinel errors below let lower layers signal a class of failure
// without building a full AppError:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by repositories and helpers.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrConfig        = errors.New("configuration error")
	ErrInternal      = errors.New("internal error")
)

// Kind classifies an AppError. The zero value is KindInternal so an
// uninitialised error is never reported as a client mistake.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindAuth
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindConfig:
		return "config"
	default:
		return "internal"
	}
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the structured failure every service returns.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	Err     error // underlying cause, never serialized
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is lets errors.Is match an AppError against the sentinel of its kind.
func (e *AppError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnauthorized:
		return e.Kind == KindAuth
	case ErrAlreadyExists:
		return e.Kind == KindConflict
	case ErrBadRequest:
		return e.Kind == KindValidation
	case ErrConfig:
		return e.Kind == KindConfig
	case ErrInternal:
		return e.Kind == KindInternal
	}
	return false
}

func NewValidationError(fields []FieldError) *AppError {
	return &AppError{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: "Validation failed.", Fields: fields}
}

func NewConflictError(code, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

func NewNotFoundError(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

func NewAuthError(code, message string) *AppError {
	return &AppError{Kind: KindAuth, Code: code, Message: message}
}

func NewConfigError(code, message string) *AppError {
	return &AppError{Kind: KindConfig, Code: code, Message: message}
}

// NewInternalError wraps an unexpected failure. The cause is kept for logs
// only; clients see the generic message.
func NewInternalError(code string, err error) *AppError {
	return &AppError{Kind: KindInternal, Code: code, Message: "Internal server error.", Err: err}
}

// AsAppError unwraps err into an *AppError. Plain errors are classified by
// the sentinel they wrap and anything else becomes KindInternal.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return &AppError{Kind: KindNotFound, Code: "NOT_FOUND", Message: "Resource not found.", Err: err}
	case errors.Is(err, ErrUnauthorized):
		return &AppError{Kind: KindAuth, Code: "UNAUTHORIZED", Message: "Unauthorized.", Err: err}
	case errors.Is(err, ErrAlreadyExists):
		return &AppError{Kind: KindConflict, Code: "ALREADY_EXISTS", Message: "Resource already exists.", Err: err}
	case errors.Is(err, ErrBadRequest):
		return &AppError{Kind: KindValidation, Code: "BAD_REQUEST", Message: "Bad request.", Err: err}
	case errors.Is(err, ErrConfig):
		return &AppError{Kind: KindConfig, Code: "CONFIG_ERROR", Message: "Configuration error.", Err: err}
	}
	return NewInternalError("SERVER_ERROR", err)
}
