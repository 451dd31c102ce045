package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/toolkit-portal/internal/apperror"
	"github.com/sakif/toolkit-portal/internal/model"
	"github.com/sakif/toolkit-portal/internal/repository"
)

// compile-time check that *SubscriptionStore implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*SubscriptionStore)(nil)

// SubscriptionStore is the entitlement ledger view of the database.
type SubscriptionStore struct {
	db *DB
}

// Subscriptions returns the entitlement ledger backed by this database.
func (db *DB) Subscriptions() *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// Create inserts a new subscription row, generating the ID and creation
// timestamp. Rows are append-only: the webhook handler and the test-mode
// entitlement path both add rows, nothing in the portal flips one back to
// inactive (cancellation is a future concern).
func (s *SubscriptionStore) Create(ctx context.Context, sub *model.Subscription) error {
	sub.ID = xid.New().String()
	sub.CreatedAt = time.Now().UTC()

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO subscriptions
		   (id, user_id, plan_type, is_active, stripe_customer_id, stripe_subscription_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID,
		sub.UserID,
		sub.PlanType,
		sub.IsActive,
		sub.StripeCustomerID,
		sub.StripeSubscriptionID,
		sub.Status,
		sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting subscription for user %s: %w", sub.UserID, err)
	}

	return nil
}

// GetActiveByUser returns the user's current entitlement: the most recently
// created subscription row with the active flag set. Multiple active rows can
// accumulate over time (re-purchases); ordering by created_at makes the
// newest one win. Returns apperror.ErrNotFound when the user has no active
// subscription at all.
func (s *SubscriptionStore) GetActiveByUser(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription

	err := s.db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, plan_type, is_active, stripe_customer_id, stripe_subscription_id, status, created_at
		 FROM subscriptions
		 WHERE user_id = ? AND is_active = 1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.PlanType,
		&sub.IsActive,
		&sub.StripeCustomerID,
		&sub.StripeSubscriptionID,
		&sub.Status,
		&sub.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("active subscription for user", userID)
		}
		return nil, fmt.Errorf("sqlite: getting active subscription for user %s: %w", userID, err)
	}

	return &sub, nil
}
