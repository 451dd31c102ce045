package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInactive     = errors.New("inactive account")
	ErrForbidden    = errors.New("forbidden")
	ErrPayload      = errors.New("invalid payload")
	ErrPayment      = errors.New("payment provider error")
)

type AppError struct {
	Err     error  // sentinel category (one of the vars above)
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized returns an AppError for failed or missing authentication.
// Login uses a single fixed message for every credential failure so the
// response cannot be used to probe which emails have accounts.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Inactive returns an AppError for a disabled account. Distinct from
// Unauthorized: the credentials were correct, the account just can't log in.
func Inactive(message string) *AppError {
	return &AppError{
		Err:     ErrInactive,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks entitlement.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// InvalidPayload returns an AppError for webhook bodies that fail either
// parsing or signature verification.
func InvalidPayload(message string) *AppError {
	return &AppError{
		Err:     ErrPayload,
		Message: message,
	}
}

// PaymentFailed returns an AppError for faults inside the payment provider
// call. The message should be generic — the underlying provider error is
// logged server-side, never echoed to the client.
func PaymentFailed(message string) *AppError {
	return &AppError{
		Err:     ErrPayment,
		Message: message,
	}
}
