package apperror

import (
	"errors"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("password", "password too short"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("email already registered"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("incorrect email or password"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Inactive wraps ErrInactive",
			err:       Inactive("account is inactive"),
			target:    ErrInactive,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("active subscription required"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "InvalidPayload wraps ErrPayload",
			err:       InvalidPayload("bad signature"),
			target:    ErrPayload,
			wantMatch: true,
		},
		{
			name:      "PaymentFailed wraps ErrPayment",
			err:       PaymentFailed("failed to create checkout session"),
			target:    ErrPayment,
			wantMatch: true,
		},
		{
			name:      "Unauthorized does NOT match ErrForbidden",
			err:       Unauthorized("nope"),
			target:    ErrForbidden,
			wantMatch: false,
		},
		{
			name:      "Conflict does NOT match ErrValidation",
			err:       Conflict("email already registered"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorsIsThroughWrapping(t *testing.T) {
	// Service code wraps AppErrors with fmt.Errorf %w — errors.Is must walk
	// the whole chain.
	wrapped := wrap(Forbidden("active subscription required"))
	if !errors.Is(wrapped, ErrForbidden) {
		t.Error("errors.Is should find ErrForbidden through an extra wrap layer")
	}
}

func wrap(err error) error {
	return &wrapper{err}
}

type wrapper struct{ err error }

func (w *wrapper) Error() string { return "outer: " + w.err.Error() }
func (w *wrapper) Unwrap() error { return w.err }

func TestAppErrorMessage(t *testing.T) {
	err := ValidationFailed("password", "password must be at least 12 characters")
	if err.Error() != "password must be at least 12 characters" {
		t.Errorf("Error() = %q, want the human message", err.Error())
	}
	if err.Field != "password" {
		t.Errorf("Field = %q, want %q", err.Field, "password")
	}
}
