package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	t.Cleanup(os.Clearenv)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"AccessTokenExpiry", cfg.Auth.AccessTokenExpiry, 1 * time.Hour},
		{"RefreshTokenExpiry", cfg.Auth.RefreshTokenExpiry, 30 * 24 * time.Hour},
		{"ResetTokenExpiry", cfg.Auth.ResetTokenExpiry, 1 * time.Hour},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Database.Name != "verba" {
		t.Errorf("DB name: got %q, want %q", cfg.Database.Name, "verba")
	}
}

func TestLoad_CustomExpiries(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("ACCESS_TOKEN_EXPIRY", "15m")
	os.Setenv("REFRESH_TOKEN_EXPIRY", "168h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.AccessTokenExpiry != 15*time.Minute {
		t.Errorf("AccessTokenExpiry: got %v, want 15m", cfg.Auth.AccessTokenExpiry)
	}
	if cfg.Auth.RefreshTokenExpiry != 168*time.Hour {
		t.Errorf("RefreshTokenExpiry: got %v, want 168h", cfg.Auth.RefreshTokenExpiry)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	t.Cleanup(os.Clearenv)

	if _, err := Load(); err == nil {
		t.Fatal("Load() with missing JWT_SECRET should fail")
	}
}

func TestLoad_WeakJWTSecretRejected(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "short")
	os.Setenv("DB_PASSWORD", "test")
	t.Cleanup(os.Clearenv)

	if _, err := Load(); err == nil {
		t.Fatal("Load() with short JWT_SECRET should fail")
	}
}

func TestValidateJWTSecret_ProductionLength(t *testing.T) {
	if err := validateJWTSecret("sixteen-chars!!!", "production"); err == nil {
		t.Error("16-char secret should be rejected in production")
	}
	if err := validateJWTSecret("this-secret-is-at-least-32-chars!", "production"); err != nil {
		t.Errorf("32-char secret should pass in production: %v", err)
	}
}
