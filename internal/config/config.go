// Package config loads and validates server configuration from the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the server needs at startup. The two JWT
// secrets are required and must be independent; everything else has a
// sensible default.
type Config struct {
	Port         string
	DatabasePath string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	RememberTTL   time.Duration

	BcryptCost      int
	RequestTimeout  time.Duration
	LoginRatePerMin float64
}

// Load reads configuration from environment variables, applying defaults
// and failing on invalid or missing values.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            envOrDefault("PORT", "8080"),
		DatabasePath:    envOrDefault("DATABASE_PATH", "taskdeck.db"),
		AccessSecret:    os.Getenv("JWT_SECRET"),
		RefreshSecret:   os.Getenv("JWT_REFRESH_SECRET"),
		BcryptCost:      12,
		LoginRatePerMin: 10,
	}

	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET environment variable is required")
	}
	if len(cfg.AccessSecret) < 32 || len(cfg.RefreshSecret) < 32 {
		return nil, fmt.Errorf("JWT secrets must be at least 32 characters for HMAC-SHA256 security")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}

	var err error
	if cfg.AccessTTL, err = durationOrDefault("ACCESS_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = durationOrDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RememberTTL, err = durationOrDefault("REMEMBER_ME_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = durationOrDefault("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		if cost < 4 || cost > 14 {
			return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", cost)
		}
		cfg.BcryptCost = cost
	}

	if v := os.Getenv("LOGIN_RATE_PER_MINUTE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid LOGIN_RATE_PER_MINUTE: %q", v)
		}
		cfg.LoginRatePerMin = rate
	}

	return cfg, nil
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func durationOrDefault(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
