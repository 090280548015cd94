package config

import (
	"fmt"
	"net/url"
	"slices"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Validate checks cfg and returns the first problem found.
func Validate(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}
	if err := validateAPI(&cfg.API); err != nil {
		return fmt.Errorf("api config: %w", err)
	}
	telemetry := cfg.Telemetry
	telemetry.ApplyDefaults()
	if err := telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry config: %w", err)
	}
	return nil
}

func validateApp(cfg *AppConfig) error {
	if cfg.Name == "" {
		return NewMissingFieldError("app.name", "APP_NAME")
	}
	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction}
	if !slices.Contains(validEnvs, cfg.Env) {
		return NewInvalidFieldError("app.env", fmt.Sprintf("unknown environment %q", cfg.Env), validEnvs)
	}
	return nil
}

func validateAPI(cfg *APIConfig) error {
	if cfg.URL == "" {
		return NewMissingFieldError("api.url", "API_URL")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return NewInvalidFieldError("api.url", fmt.Sprintf("not an absolute URL: %q", cfg.URL), nil)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewInvalidFieldError("api.url", fmt.Sprintf("unsupported scheme %q", u.Scheme), []string{"http", "https"})
	}
	if cfg.Timeout <= 0 {
		return NewInvalidFieldError("api.timeout", "must be positive", nil)
	}
	if cfg.Retry.Read.Attempts < 1 {
		return NewInvalidFieldError("api.retry.read.attempts", "must be at least 1", nil)
	}
	if cfg.Retry.Write.Attempts < 1 {
		return NewInvalidFieldError("api.retry.write.attempts", "must be at least 1", nil)
	}
	if cfg.Retry.Delay < 0 {
		return NewInvalidFieldError("api.retry.delay", "must not be negative", nil)
	}
	if cfg.Retry.MaxWait < 0 {
		return NewInvalidFieldError("api.retry.maxwait", "must not be negative", nil)
	}
	if cfg.Rate.Limit < 0 {
		return NewInvalidFieldError("api.rate.limit", "must not be negative", nil)
	}
	if cfg.Rate.Limit > 0 && cfg.Rate.Burst < 1 {
		return NewInvalidFieldError("api.rate.burst", "must be at least 1 when a rate limit is set", nil)
	}
	return nil
}
