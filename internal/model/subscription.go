package model

import "time"

// Plan types accepted by the checkout endpoint. PlanTest is never purchasable:
// it only appears on rows synthesized by the entitlement gate when the Stripe
// key is a test-mode key.
const (
	PlanOneTime = "one_time"
	PlanMonthly = "monthly"
	PlanTest    = "test_subscription"
)

// Subscription is one entitlement row in the ledger.
//
// A user may accumulate multiple rows over time (re-purchases, historical
// records); entitlement checks read the most recent row with IsActive set.
// The Stripe customer/subscription IDs are opaque references into the payment
// provider — empty for one-time purchases and test rows that have no
// corresponding Stripe subscription object.
type Subscription struct {
	ID                   string    `json:"id"                     db:"id"`
	UserID               string    `json:"user_id"                db:"user_id"`
	PlanType             string    `json:"plan_type"              db:"plan_type"`
	IsActive             bool      `json:"is_active"              db:"is_active"`
	StripeCustomerID     string    `json:"stripe_customer_id"     db:"stripe_customer_id"`
	StripeSubscriptionID string    `json:"stripe_subscription_id" db:"stripe_subscription_id"`
	Status               string    `json:"status"                 db:"status"`
	CreatedAt            time.Time `json:"created_at"             db:"created_at"`
}
