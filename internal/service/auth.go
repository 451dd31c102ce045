// Package service — authentication business logic.
//
// AuthService is the business logic layer for registration and login. It sits
// between the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt) ↘ TokenService (JWT)
//
// KEY RESPONSIBILITIES:
//   - Validate registrations (email shape, password policy) BEFORE touching
//     the database
//   - Keep credential failures uniform so login responses can't be used to
//     enumerate accounts
//   - Encapsulate all auth rules in one place, away from HTTP concerns
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/sakif/toolkit-portal/internal/apperror"
	"github.com/sakif/toolkit-portal/internal/auth"
	"github.com/sakif/toolkit-portal/internal/model"
	"github.com/sakif/toolkit-portal/internal/repository"
)

// minPasswordLength is the registration password policy. 12 characters is the
// floor — bcrypt makes each guess expensive, length makes the space large.
const minPasswordLength = 12

// accessTokenTTL is the lifetime of login tokens. There is no refresh-token
// surface, so this is how long a desktop session lasts before the user signs
// in again.
const accessTokenTTL = 24 * time.Hour

// invalidCredentialsMsg is returned verbatim for BOTH unknown emails and
// wrong passwords. Distinguishing the two would let an attacker probe which
// emails have accounts.
const invalidCredentialsMsg = "incorrect email or password"

// AuthService handles the authentication business logic.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a new active user account.
//
// VALIDATION ORDER MATTERS:
// Email shape and password length are checked before any repository call —
// a too-short password must never cost a database round trip, let alone a
// bcrypt computation.
//
// THE DUPLICATE PRE-CHECK IS NOT THE GUARD:
// The GetByEmail lookup exists to produce a friendly error on the common
// path. Two concurrent registrations with the same email can both pass it;
// the users table's UNIQUE index is what actually rejects the second insert,
// and Create surfaces that as the same conflict kind.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*model.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "email address is not valid")
	}
	if len(password) < minPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		s.logger.Warn("registration rejected: email already exists", slog.String("email", email))
		return nil, apperror.Conflict("email already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking existing email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login verifies credentials and issues a signed access token.
//
// UNIFORM FAILURE:
// Unknown email and wrong password return the identical error kind and
// message. Note that the unknown-email path skips the bcrypt comparison, so
// the two paths differ in timing — acceptable here because the per-IP rate
// limit on the login route bounds how fast anyone can sample it.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("failed login attempt", slog.String("email", email))
			return "", apperror.Unauthorized(invalidCredentialsMsg)
		}
		return "", fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Warn("failed login attempt", slog.String("email", email))
		return "", apperror.Unauthorized(invalidCredentialsMsg)
	}

	if !user.IsActive {
		return "", apperror.Inactive("account is inactive")
	}

	token, err := s.tokens.Generate(user.ID, auth.PurposeAccess, accessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return token, nil
}

// GetUserByID returns the user for the given internal ID.
//
// Used by the profile handler to look up the full record after the middleware
// validates the JWT and extracts the userID from the token's Subject claim.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}
