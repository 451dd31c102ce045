package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/toolkit-portal/internal/auth"
	"github.com/sakif/toolkit-portal/internal/service"
)

// UserHandler serves the authenticated user's profile.
type UserHandler struct {
	auth         *service.AuthService
	entitlements *service.EntitlementService
	logger       *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(authSvc *service.AuthService, entitlements *service.EntitlementService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		auth:         authSvc,
		entitlements: entitlements,
		logger:       logger,
	}
}

// HandleProfile returns the current user's profile, including a subscription
// summary when an active one exists.
//
// HTTP: GET /user/profile
// Auth: Required (RequireAuth middleware sets userID in context)
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("profile: user lookup failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	sub, err := h.entitlements.ActiveSubscription(r.Context(), userID)
	if err != nil {
		h.logger.Error("profile: subscription lookup failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse(user, sub))
}
