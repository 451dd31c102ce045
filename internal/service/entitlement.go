// Package service — entitlement gating for the app download.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/toolkit-portal/internal/apperror"
	"github.com/sakif/toolkit-portal/internal/auth"
	"github.com/sakif/toolkit-portal/internal/model"
	"github.com/sakif/toolkit-portal/internal/repository"
)

// downloadTokenTTL is the fixed lifetime of download grants. One hour: long
// enough to finish a large download on a slow link, short enough that a
// leaked URL goes stale quickly.
const downloadTokenTTL = time.Hour

// DownloadGrant is what an entitled user gets back from the download
// endpoint: a purpose-scoped token, the URL it opens, and when it stops
// working.
type DownloadGrant struct {
	Token     string    `json:"download_token"`
	URL       string    `json:"download_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EntitlementService decides who may download the app.
//
// TEST MODE:
// stripeTestMode is derived (in config) from the Stripe key's "sk_test_"
// prefix. When set, a user with no subscription gets a placeholder
// test_subscription row on first download attempt so the whole flow is
// exercisable against Stripe's sandbox. With a live key the flag cannot be
// true and the gate is strict.
type EntitlementService struct {
	subs           repository.SubscriptionRepository
	tokens         *auth.TokenService
	stripeTestMode bool
	logger         *slog.Logger
}

// NewEntitlementService creates an EntitlementService.
func NewEntitlementService(
	subs repository.SubscriptionRepository,
	tokens *auth.TokenService,
	stripeTestMode bool,
	logger *slog.Logger,
) *EntitlementService {
	return &EntitlementService{
		subs:           subs,
		tokens:         tokens,
		stripeTestMode: stripeTestMode,
		logger:         logger,
	}
}

// RequestDownload checks the user's entitlement and, if it holds, issues a
// one-hour download grant.
//
// The grant token carries purpose "download": it opens the artifact URL and
// is rejected everywhere an access token is expected. The URL embeds the
// token so the desktop updater can fetch it with a plain GET, no headers.
func (s *EntitlementService) RequestDownload(ctx context.Context, userID string) (*DownloadGrant, error) {
	_, err := s.subs.GetActiveByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/entitlement: looking up subscription: %w", err)
		}

		if !s.stripeTestMode {
			return nil, apperror.Forbidden("active subscription required to download app")
		}

		// Sandbox convenience: synthesize an entitlement so the download
		// flow works end to end without a real payment.
		s.logger.Info("stripe test mode: creating test subscription",
			slog.String("userID", userID),
		)
		sub := &model.Subscription{
			UserID:               userID,
			PlanType:             model.PlanTest,
			IsActive:             true,
			StripeSubscriptionID: "test_sub_" + userID,
			Status:               "active",
		}
		if err := s.subs.Create(ctx, sub); err != nil {
			return nil, fmt.Errorf("service/entitlement: creating test subscription: %w", err)
		}
	}

	now := time.Now()
	token, err := s.tokens.Generate(userID, auth.PurposeDownload, downloadTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("service/entitlement: generating download token: %w", err)
	}

	return &DownloadGrant{
		Token:     token,
		URL:       "/download/app/file?token=" + token,
		ExpiresAt: now.Add(downloadTokenTTL).UTC(),
	}, nil
}

// ActiveSubscription returns the user's current active subscription, or nil
// (no error) when there is none. Used by the profile endpoint, which shows a
// subscription summary only when one exists.
func (s *EntitlementService) ActiveSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := s.subs.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("service/entitlement: looking up subscription: %w", err)
	}
	return sub, nil
}
