package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/toolkit-portal/internal/apperror"
	"github.com/sakif/toolkit-portal/internal/auth"
	"github.com/sakif/toolkit-portal/internal/model"
	"github.com/sakif/toolkit-portal/internal/payment"
	"github.com/sakif/toolkit-portal/internal/repository"
)

// maxWebhookBody bounds how much of a webhook delivery we'll read. Stripe
// events are a few KB; 64KB leaves generous headroom.
const maxWebhookBody = 64 << 10

// PaymentHandler exposes checkout creation and webhook ingestion.
//
// The handler writes to the subscription ledger directly: webhook processing
// is a single verified-event → one-row insert, thin enough that a service
// layer in between would only add indirection.
type PaymentHandler struct {
	payments *payment.Client
	subs     repository.SubscriptionRepository
	logger   *slog.Logger
}

// NewPaymentHandler creates a PaymentHandler.
func NewPaymentHandler(payments *payment.Client, subs repository.SubscriptionRepository, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		subs:     subs,
		logger:   logger,
	}
}

// CheckoutRequest is the POST /payment/create-checkout body.
type CheckoutRequest struct {
	PlanType   string `json:"plan_type"` // "one_time" or "monthly"
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

// CheckoutResponse carries the hosted checkout URL to redirect to.
type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// HandleCreateCheckout creates a Stripe checkout session for the current user.
//
// HTTP: POST /payment/create-checkout
// Auth: Required
//
// Provider faults come back as a generic 502 payment_error — the underlying
// Stripe error is logged here, never echoed to the client.
func (h *PaymentHandler) HandleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		writeError(w, apperror.ValidationFailed("success_url", "success_url and cancel_url are required"))
		return
	}

	url, err := h.payments.CreateCheckoutSession(r.Context(), userID, req.PlanType, req.SuccessURL, req.CancelURL)
	if err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			h.logger.Error("checkout session creation failed",
				slog.String("userID", userID),
				slog.String("planType", req.PlanType),
				slog.String("error", err.Error()),
			)
			err = apperror.PaymentFailed("failed to create checkout session")
		}
		writeError(w, err)
		return
	}

	h.logger.Info("checkout session created",
		slog.String("userID", userID),
		slog.String("planType", req.PlanType),
	)

	writeJSON(w, http.StatusOK, CheckoutResponse{CheckoutURL: url})
}

// HandleWebhook ingests Stripe event deliveries.
//
// HTTP: POST /webhook/stripe
// Auth: Stripe-Signature header, verified by the Stripe SDK inside
// payment.ParseWebhook. Unverifiable payloads are rejected with 400 before
// the ledger is touched.
//
// A verified checkout.session.completed event appends one active row to the
// subscription ledger. Every other verified event kind is acknowledged with
// 200 and ignored — returning an error would make Stripe retry events we
// will never act on.
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, apperror.InvalidPayload("unreadable webhook body"))
		return
	}

	completed, err := h.payments.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook rejected", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	if completed == nil {
		// Verified but not a checkout completion — acknowledge and move on.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	sub := &model.Subscription{
		UserID:               completed.UserID,
		PlanType:             completed.PlanType,
		IsActive:             true,
		StripeCustomerID:     completed.CustomerID,
		StripeSubscriptionID: completed.SubscriptionID,
		Status:               "active",
	}
	if err := h.subs.Create(r.Context(), sub); err != nil {
		h.logger.Error("webhook: recording subscription failed",
			slog.String("userID", completed.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	h.logger.Info("subscription activated",
		slog.String("userID", completed.UserID),
		slog.String("planType", completed.PlanType),
	)

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
