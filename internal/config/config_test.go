package config

import (
	"testing"
)

// setRequired sets the minimum environment a successful Load needs.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PATH", "test.db")
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")
}

func TestLoad_MissingRequiredVars(t *testing.T) {
	t.Setenv("DB_PATH", "")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when DB_PATH is absent")
	}

	t.Setenv("DB_PATH", "test.db")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when JWT_SECRET is absent")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("STRIPE_SECRET_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 3 {
		t.Errorf("AllowedOrigins = %v, want the three localhost defaults", cfg.AllowedOrigins)
	}
	if cfg.StripeTestMode {
		t.Error("StripeTestMode should be false without a Stripe key")
	}
}

func TestLoad_TestModeDerivedFromKeyPrefix(t *testing.T) {
	setRequired(t)

	// Test key → relaxed mode.
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_abc123")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.StripeTestMode {
		t.Error("StripeTestMode should be true for an sk_test_ key")
	}

	// Live key → strict mode. There is no env var that can override this.
	t.Setenv("STRIPE_SECRET_KEY", "sk_live_abc123")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StripeTestMode {
		t.Error("StripeTestMode must be false for a live key")
	}
}

func TestLoad_ParsesOriginList(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", "https://portal.example.com, https://www.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"https://portal.example.com", "https://www.example.com"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a non-numeric PORT")
	}
}
