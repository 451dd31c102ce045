// Package payment wraps the Stripe SDK behind a small portal-facing surface.
//
// WHY A WRAPPER PACKAGE?
// Stripe is an external collaborator: it creates checkout sessions and
// verifies its own webhook signatures. Keeping every stripe-go import inside
// this package means the handlers and services deal in portal types
// (plan names, CheckoutCompleted events) and never see SDK structs.
//
// SIGNATURE VERIFICATION BELONGS TO THE SDK:
// webhook.ConstructEvent checks the Stripe-Signature header (HMAC over the
// raw body plus a timestamp tolerance) before we look at a single byte of
// the payload. We never re-implement that check.
package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/sakif/toolkit-portal/internal/apperror"
	"github.com/sakif/toolkit-portal/internal/model"
)

// plan describes one purchasable checkout configuration.
// Prices are in cents, matching Stripe's unit_amount.
type plan struct {
	name       string
	unitAmount int64
	mode       stripe.CheckoutSessionMode
	recurring  bool
}

// plans maps the portal's plan types to their Stripe checkout shape.
// model.PlanTest is deliberately absent — it exists only as a ledger row
// synthesized in test mode, never as something money can buy.
var plans = map[string]plan{
	model.PlanOneTime: {
		name:       "Legal Toolkit - One Time Plan",
		unitAmount: 2900, // $29.00
		mode:       stripe.CheckoutSessionModePayment,
	},
	model.PlanMonthly: {
		name:       "Legal Toolkit - Monthly Plan",
		unitAmount: 900, // $9.00/month
		mode:       stripe.CheckoutSessionModeSubscription,
		recurring:  true,
	},
}

// CheckoutCompleted is the one webhook event kind the portal acts on. The
// user and plan ride in the session metadata we attach at checkout-creation
// time; the customer/subscription refs are Stripe's identifiers for the
// ledger row.
type CheckoutCompleted struct {
	UserID         string
	PlanType       string
	CustomerID     string
	SubscriptionID string
}

// Client talks to Stripe. Construct once at startup and share.
type Client struct {
	api           *client.API
	webhookSecret string
}

// New creates a Stripe client with the given secret key and webhook secret.
func New(secretKey, webhookSecret string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

// CreateCheckoutSession creates a Stripe checkout session for the given user
// and plan and returns the hosted checkout URL the client should redirect to.
//
// The user ID and plan type travel in the session metadata; the webhook
// handler reads them back when checkout.session.completed arrives. Success
// and cancel URLs come from the client because only it knows where its pages
// live.
func (c *Client) CreateCheckoutSession(ctx context.Context, userID, planType, successURL, cancelURL string) (string, error) {
	p, ok := plans[planType]
	if !ok {
		return "", apperror.ValidationFailed("plan_type",
			fmt.Sprintf("invalid plan type %q", planType))
	}

	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(p.name),
		},
		UnitAmount: stripe.Int64(p.unitAmount),
	}
	if p.recurring {
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(p.mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: priceData,
			Quantity:  stripe.Int64(1),
		}},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)
	params.AddMetadata("plan_type", planType)

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("payment: creating checkout session: %w", err)
	}

	return sess.URL, nil
}

// ParseWebhook verifies and decodes a webhook delivery.
//
// Returns (event, nil) for a verified checkout.session.completed event,
// (nil, nil) for any other verified event kind (acknowledged, no ledger
// change), and an apperror.ErrPayload-wrapped error when the signature or
// body fails verification — in which case the caller must not touch the
// ledger.
func (c *Client) ParseWebhook(payload []byte, sigHeader string) (*CheckoutCompleted, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return nil, apperror.InvalidPayload("webhook signature verification failed")
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, apperror.InvalidPayload("malformed checkout session payload")
	}

	userID := sess.Metadata["user_id"]
	planType := sess.Metadata["plan_type"]
	if userID == "" || planType == "" {
		return nil, apperror.InvalidPayload("checkout session missing user metadata")
	}

	completed := &CheckoutCompleted{
		UserID:   userID,
		PlanType: planType,
	}
	if sess.Customer != nil {
		completed.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		completed.SubscriptionID = sess.Subscription.ID
	}

	return completed, nil
}
