package handler_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/sakif/toolkit-portal/internal/auth"
	"github.com/sakif/toolkit-portal/internal/handler"
	"github.com/sakif/toolkit-portal/internal/model"
	"github.com/sakif/toolkit-portal/internal/payment"
	"github.com/sakif/toolkit-portal/internal/repository/sqlite"
)

const testWebhookSecret = "whsec_test_secret"

func newTestPaymentHandler(t *testing.T) (*handler.PaymentHandler, *sqlite.DB) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	payments := payment.New("sk_test_dummy", testWebhookSecret)
	return handler.NewPaymentHandler(payments, db.Subscriptions(), logger), db
}

// stripeSignature builds a valid Stripe-Signature header for payload, the
// same HMAC-SHA256 scheme the SDK verifies: sign "t=<ts>.<payload>", send
// "t=<ts>,v1=<hex mac>".
func stripeSignature(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

// Event payloads carry the SDK's pinned API version: ConstructEvent rejects
// events from any other version.
func checkoutCompletedEvent(userID, planType string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"api_version": %q,
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"customer": "cus_test_123",
				"subscription": "sub_test_456",
				"metadata": {"user_id": %q, "plan_type": %q}
			}
		}
	}`, stripe.APIVersion, userID, planType))
}

func postWebhook(t *testing.T, h *handler.PaymentHandler, payload []byte, sig string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", sig)
	rr := httptest.NewRecorder()
	h.HandleWebhook(rr, req)
	return rr
}

func createWebhookTestUser(t *testing.T, db *sqlite.DB) *model.User {
	t.Helper()
	user := &model.User{
		Email:        "buyer@example.com",
		PasswordHash: "hash",
		IsActive:     true,
	}
	require.NoError(t, db.Users().Create(context.Background(), user))
	return user
}

func TestWebhook_ValidCheckoutCompleted(t *testing.T) {
	h, db := newTestPaymentHandler(t)
	user := createWebhookTestUser(t, db)

	payload := checkoutCompletedEvent(user.ID, model.PlanMonthly)
	rr := postWebhook(t, h, payload, stripeSignature(payload, testWebhookSecret, time.Now()))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "success")

	// The ledger gained exactly the row the event described.
	sub, err := db.Subscriptions().GetActiveByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanMonthly, sub.PlanType)
	assert.Equal(t, "active", sub.Status)
	assert.True(t, sub.IsActive)
	assert.Equal(t, "cus_test_123", sub.StripeCustomerID)
	assert.Equal(t, "sub_test_456", sub.StripeSubscriptionID)
}

func TestWebhook_BadSignatureNeverTouchesLedger(t *testing.T) {
	h, db := newTestPaymentHandler(t)
	user := createWebhookTestUser(t, db)

	payload := checkoutCompletedEvent(user.ID, model.PlanMonthly)

	// Signed with the wrong secret.
	rr := postWebhook(t, h, payload, stripeSignature(payload, "whsec_wrong", time.Now()))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Garbage header.
	rr = postWebhook(t, h, payload, "t=notasignature")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// No header at all.
	rr = postWebhook(t, h, payload, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	_, err := db.Subscriptions().GetActiveByUser(context.Background(), user.ID)
	assert.Error(t, err, "rejected webhooks must not create subscriptions")
}

func TestWebhook_StaleTimestampRejected(t *testing.T) {
	h, db := newTestPaymentHandler(t)
	user := createWebhookTestUser(t, db)

	// Correct secret, but signed an hour ago — outside the SDK's replay
	// tolerance window.
	payload := checkoutCompletedEvent(user.ID, model.PlanMonthly)
	rr := postWebhook(t, h, payload, stripeSignature(payload, testWebhookSecret, time.Now().Add(-time.Hour)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebhook_OtherEventKindsAcknowledged(t *testing.T) {
	h, db := newTestPaymentHandler(t)
	user := createWebhookTestUser(t, db)

	payload := []byte(fmt.Sprintf(`{"id":"evt_test_2","api_version":%q,"type":"invoice.paid","data":{"object":{}}}`, stripe.APIVersion))
	rr := postWebhook(t, h, payload, stripeSignature(payload, testWebhookSecret, time.Now()))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ignored")

	_, err := db.Subscriptions().GetActiveByUser(context.Background(), user.ID)
	assert.Error(t, err, "unrelated events must not create subscriptions")
}

func TestWebhook_MissingMetadataRejected(t *testing.T) {
	h, db := newTestPaymentHandler(t)
	_ = db

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_test_3",
		"api_version": %q,
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_2", "metadata": {}}}
	}`, stripe.APIVersion))
	rr := postWebhook(t, h, payload, stripeSignature(payload, testWebhookSecret, time.Now()))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// postCheckout sends the request through the real RequireAuth middleware with
// a freshly issued access token, since the userID context key is private to
// the auth package.
func postCheckout(t *testing.T, h *handler.PaymentHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	token, err := tokens.Generate("user-1", auth.PurposeAccess, time.Hour)
	require.NoError(t, err)

	protected := auth.RequireAuth(tokens)(http.HandlerFunc(h.HandleCreateCheckout))

	req := httptest.NewRequest(http.MethodPost, "/payment/create-checkout", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	return rr
}

func TestCreateCheckout_InvalidPlanType(t *testing.T) {
	h, _ := newTestPaymentHandler(t)

	// Plan validation runs before any Stripe call, so no network is needed.
	rr := postCheckout(t, h, `{"plan_type":"lifetime","success_url":"http://x/s","cancel_url":"http://x/c"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid plan type")
}

func TestCreateCheckout_MissingURLs(t *testing.T) {
	h, _ := newTestPaymentHandler(t)

	rr := postCheckout(t, h, `{"plan_type":"monthly"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}
