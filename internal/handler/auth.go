package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/toolkit-portal/internal/apperror"
	"github.com/sakif/toolkit-portal/internal/model"
	"github.com/sakif/toolkit-portal/internal/service"
)

// AuthHandler exposes registration and login over HTTP.
//
// HANDLER RESPONSIBILITIES:
//   - Decode/validate the JSON envelope (not the business rules — those live
//     in the service)
//   - Call the AuthService
//   - Translate the result to HTTP via the response helpers
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// RegisterRequest is the POST /auth/register body.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the successful login payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// SubscriptionSummary is the slice of subscription state the profile exposes.
type SubscriptionSummary struct {
	PlanType  string    `json:"plan_type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// UserResponse is the public projection of a user record. There is no field
// for the password hash — the projection can't leak what it doesn't carry.
type UserResponse struct {
	ID           string               `json:"id"`
	Email        string               `json:"email"`
	FullName     string               `json:"full_name"`
	IsActive     bool                 `json:"is_active"`
	CreatedAt    time.Time            `json:"created_at"`
	Subscription *SubscriptionSummary `json:"subscription,omitempty"`
}

// userResponse builds the public projection, optionally attaching the active
// subscription summary.
func userResponse(u *model.User, sub *model.Subscription) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
	if sub != nil {
		resp.Subscription = &SubscriptionSummary{
			PlanType:  sub.PlanType,
			Status:    sub.Status,
			CreatedAt: sub.CreatedAt,
		}
	}
	return resp
}

// HandleRegister creates a new account.
//
// HTTP: POST /auth/register
// Rate limit: 3/minute per IP (wired in server.go) — blunts both account
// enumeration and bulk signups.
//
// Responses: 200 UserResponse, 400 duplicate email, 422 validation failure.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	h.logger.Info("registration attempt", slog.String("email", req.Email))

	user, err := h.auth.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse(user, nil))
}

// HandleLogin verifies credentials and returns a bearer token.
//
// HTTP: POST /auth/login
// Rate limit: 5/minute per IP.
//
// Responses: 200 TokenResponse, 401 invalid credentials (one message for
// both unknown email and wrong password), 400 inactive account.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	h.logger.Info("login attempt", slog.String("email", req.Email))

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
