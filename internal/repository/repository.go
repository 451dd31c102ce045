package repository

import (
	"context"

	"github.com/sakif/toolkit-portal/internal/model"
)

// UserRepository is the credential store. Create returns an
// apperror.ErrConflict-wrapped error when the email (case-insensitive) is
// already registered; GetByEmail and GetByID return apperror.ErrNotFound when
// no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// SubscriptionRepository is the entitlement ledger. GetActiveByUser returns
// the most recently created active subscription for the user, or an
// apperror.ErrNotFound-wrapped error when none exists.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	GetActiveByUser(ctx context.Context, userID string) (*model.Subscription, error)
}
