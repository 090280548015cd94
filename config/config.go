// Package config loads the client configuration from defaults, YAML files and
// environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is the configuration file Load looks for in the working directory.
const DefaultFile = "config.yaml"

// DefaultBaseURL is used when api.url is not set anywhere.
const DefaultBaseURL = "http://localhost:5000/api"

// Load reads DefaultFile. See LoadFile.
func Load() (*Config, error) {
	return LoadFile(DefaultFile)
}

// LoadFile loads configuration with priority:
//  1. Environment variables (API_URL -> api.url)
//  2. config.<env>.yaml next to path, when app.env is set
//  3. path itself
//  4. Defaults
//
// Missing files are skipped.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadOptionalFile(k, path); err != nil {
		return nil, err
	}

	// app.env may come from the file or the environment
	env := k.String("app.env")
	if e := os.Getenv("APP_ENV"); e != "" {
		env = e
	}
	if env != "" && path != "" {
		envFile := filepath.Join(filepath.Dir(path), fmt.Sprintf("config.%s.yaml", env))
		if err := loadOptionalFile(k, envFile); err != nil {
			return nil, err
		}
	}

	if err := loadEnv(k); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return finish(k)
}

// Parse loads configuration from YAML bytes on top of the defaults. Environment variables
// are not consulted.
func Parse(data []byte) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(k)
}

func finish(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":    "skillgrid-client",
		"app.version": "v1.0.0",
		"app.env":     EnvDevelopment,

		"api.url":                  DefaultBaseURL,
		"api.timeout":              "10s",
		"api.retry.read.attempts":  3,
		"api.retry.write.attempts": 2,
		"api.retry.delay":          "1s",
		"api.retry.backoff":        true,
		"api.retry.maxwait":        "30s",
		"api.retry.ratelimited":    false,
		"api.rate.limit":           0,
		"api.rate.burst":           1,
		"api.log.payloads":         false,
		"api.log.maxpayloadbytes":  1024,

		"log.level":  "info",
		"log.pretty": false,

		"telemetry.enabled":      false,
		"telemetry.service.name": "skillgrid-client",
	}
	return k.Load(confmap.Provider(defaults, "."), nil)
}

func loadOptionalFile(k *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}
	err := k.Load(file.Provider(path), yaml.Parser())
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// loadEnv maps UPPER_CASE variables to lower.case keys. Only the sections this client
// understands are picked up.
func loadEnv(k *koanf.Koanf) error {
	return k.Load(envprovider.Provider(".", envprovider.Opt{
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ReplaceAll(strings.ToLower(key), "_", ".")
			if !hasKnownSection(key) {
				return "", nil
			}
			return key, value
		},
	}), nil)
}

func hasKnownSection(key string) bool {
	for _, prefix := range []string{"app.", "api.", "log.", "telemetry."} {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
