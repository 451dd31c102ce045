// Package config loads the portal's startup configuration from the
// environment.
//
// WHY AN EXPLICIT CONFIG STRUCT?
// Secrets and connection strings are read ONCE here and passed by reference
// into each component. Business logic never calls os.Getenv — that keeps the
// components testable (construct a Config literal in tests) and makes the
// full configuration surface visible in one place.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the immutable startup configuration. Construct it with Load() at
// process start; after that it is only ever read.
type Config struct {
	Port int

	// DBPath is the SQLite database location. Required.
	DBPath string

	// JWTSecret signs every issued token. Required; startup fails without it
	// because a guessable default secret would make every token forgeable.
	JWTSecret string

	// AllowedOrigins is the CORS allowlist, defaulting to the local
	// development addresses the SPA runs on.
	AllowedOrigins []string

	// Stripe credentials. Optional — without them checkout returns errors
	// but auth and downloads still work (in production mode).
	StripeSecretKey     string
	StripeWebhookSecret string

	// StripeTestMode is DERIVED from the key prefix, never set directly.
	// Stripe test keys start with "sk_test_"; when one is configured the
	// download endpoint may synthesize a placeholder subscription so the
	// flow is exercisable without a real payment. A freestanding
	// "dev mode" boolean would be one misconfigured env var away from
	// giving away the product in production — deriving from the key makes
	// the relaxation impossible to enable alongside a live key.
	StripeTestMode bool

	// ArtifactPath is the file served to entitled users. Optional: without
	// it the file endpoint reports the artifact unavailable.
	ArtifactPath string

	LogLevel slog.Level
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present (ignored otherwise — production
// deployments set real env vars).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: 8080,
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:3001",
			"http://localhost:5173",
		},
		LogLevel: slog.LevelInfo,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	cfg.DBPath = os.Getenv("DB_PATH")
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("config: DB_PATH is required")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	cfg.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.StripeWebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	cfg.StripeTestMode = strings.HasPrefix(cfg.StripeSecretKey, "sk_test_")

	cfg.ArtifactPath = os.Getenv("APP_ARTIFACT_PATH")

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return nil, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", lvl, err)
		}
	}

	return cfg, nil
}
