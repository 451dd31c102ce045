// Package auth provides JWT token generation/validation and password hashing
// for the portal API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User registers with email + password → bcrypt hash stored
// 2. User logs in → server issues a signed JWT access token
// 3. On subsequent API calls, middleware reads the Authorization header,
//    validates the JWT, and sets the userID in the request context
// 4. The download endpoint issues a second, short-lived JWT tagged with
//    purpose "download" — it opens the artifact URL and nothing else
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't need to store session
// data. All the information needed (subject, purpose, expiry) is inside the
// signed token. The signature ensures nobody can tamper with it without the
// secret key. The trade: a token cannot be revoked before its expiry short of
// rotating the secret, which invalidates every outstanding token at once.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. Every token carries exactly one; validation requires the
// caller to say which purpose it expects, so a download token can never be
// replayed as an API credential or vice versa.
const (
	PurposeAccess   = "access"
	PurposeDownload = "download"
)

// Validation failure kinds. Callers branch on these with errors.Is — the
// middleware maps all of them to 401, but tests and logs care which one fired.
var (
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenSignature = errors.New("auth: token signature invalid")
	ErrTokenMalformed = errors.New("auth: token malformed")
	ErrWrongPurpose   = errors.New("auth: token purpose mismatch")
)

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens.
// The same secret must be used for both operations — keep it safe, rotate it
// periodically in production.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims (Subject,
// ExpiresAt, IssuedAt, Issuer) and adds the portal's purpose tag.
//
// "sub" holds the internal user ID — the standard claim for identifying who
// the token belongs to.
type claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Generate creates and signs a JWT for the given subject with the given
// purpose and lifetime.
//
// Signing algorithm: HS256 (HMAC-SHA256)
// - Symmetric: same key for signing and verifying
// - Fast and simple — good for single-server deployments
func (s *TokenService) Generate(subject, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "toolkit-portal",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string, requiring the given purpose.
// Returns the subject (user ID) if the token is valid.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches "toolkit-portal" (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// ALGORITHM CONFUSION ATTACK:
// Without checking the algorithm, an attacker could send a token signed with
// "none" and the library might accept it. Passing jwt.WithValidMethods
// prevents this.
//
// The purpose check runs after the cryptographic checks: a genuine download
// token presented to an API route fails with ErrWrongPurpose, not with a
// signature error.
func (s *TokenService) Validate(tokenStr, wantPurpose string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer("toolkit-portal"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// Translate jwt library errors into our stable failure kinds
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrTokenSignature
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", ErrTokenMalformed
	}

	if c.Purpose != wantPurpose {
		return "", fmt.Errorf("%w: got %q, want %q", ErrWrongPurpose, c.Purpose, wantPurpose)
	}

	if c.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrTokenMalformed)
	}

	return c.Subject, nil
}
