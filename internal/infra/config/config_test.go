package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSIONS_JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "foodjournal-sessions" {
		t.Fatalf("expected default app name, got %s", cfg.App.Name)
	}
	if cfg.JWT.Algorithm != "HS256" {
		t.Fatalf("expected default algorithm HS256, got %s", cfg.JWT.Algorithm)
	}
	if cfg.JWT.AccessTokenTTL != 24*time.Hour {
		t.Fatalf("expected default token ttl 24h, got %v", cfg.JWT.AccessTokenTTL)
	}
	if cfg.Sweep.Interval != time.Hour {
		t.Fatalf("expected default sweep interval 1h, got %v", cfg.Sweep.Interval)
	}
	if cfg.Redis.RevokedPrefix != "sessions:revoked" {
		t.Fatalf("expected default revoked prefix, got %s", cfg.Redis.RevokedPrefix)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Fatalf("expected no default kafka brokers, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SESSIONS_JWT_SECRET", "test-secret")
	t.Setenv("SESSIONS_JWT_ACCESS_TOKEN_TTL", "30m")
	t.Setenv("SESSIONS_SWEEP_INTERVAL", "5m")
	t.Setenv("SESSIONS_APP_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.JWT.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("expected token ttl 30m, got %v", cfg.JWT.AccessTokenTTL)
	}
	if cfg.Sweep.Interval != 5*time.Minute {
		t.Fatalf("expected sweep interval 5m, got %v", cfg.Sweep.Interval)
	}
	if cfg.App.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.App.Port)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("SESSIONS_JWT_SECRET", "")

	if _, err := Load(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	base := func() AppConfig {
		return AppConfig{
			JWT: JWTSettings{
				Secret:         "s3cret",
				Algorithm:      "HS256",
				AccessTokenTTL: time.Hour,
			},
			Sweep: SweepSettings{Interval: time.Hour},
		}
	}

	cases := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"blank secret", func(c *AppConfig) { c.JWT.Secret = "   " }},
		{"asymmetric algorithm", func(c *AppConfig) { c.JWT.Algorithm = "RS256" }},
		{"zero ttl", func(c *AppConfig) { c.JWT.AccessTokenTTL = 0 }},
		{"negative sweep interval", func(c *AppConfig) { c.Sweep.Interval = -time.Minute }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestValidateAcceptsAllHMACVariants(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512", "hs256"} {
		cfg := AppConfig{
			JWT: JWTSettings{
				Secret:         "s3cret",
				Algorithm:      alg,
				AccessTokenTTL: time.Hour,
			},
			Sweep: SweepSettings{Interval: time.Hour},
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("expected %s to validate, got %v", alg, err)
		}
	}
}
