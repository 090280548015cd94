package config

import (
	"time"

	"github.com/skillgrid/skillgrid-client/observability"
)

// Config is the client application's configuration.
type Config struct {
	App AppConfig `koanf:"app" json:"app" yaml:"app"`
	API APIConfig `koanf:"api" json:"api" yaml:"api"`
	Log LogConfig `koanf:"log" json:"log" yaml:"log"`

	Telemetry observability.Config `koanf:"telemetry" json:"telemetry" yaml:"telemetry"`
}

// AppConfig identifies the running application.
type AppConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name"`
	Version string `koanf:"version" json:"version" yaml:"version"`
	Env     string `koanf:"env" json:"env" yaml:"env"`
}

// APIConfig describes the backend the client talks to.
type APIConfig struct {
	// URL is the base every request path is appended to. Env: API_URL.
	URL     string            `koanf:"url" json:"url" yaml:"url"`
	Timeout time.Duration     `koanf:"timeout" json:"timeout" yaml:"timeout"`
	Retry   RetryConfig       `koanf:"retry" json:"retry" yaml:"retry"`
	Rate    RateConfig        `koanf:"rate" json:"rate" yaml:"rate"`
	Log     APILogConfig      `koanf:"log" json:"log" yaml:"log"`
	Headers map[string]string `koanf:"headers" json:"headers" yaml:"headers"`
}

// RetryConfig holds the retry budgets per verb class.
type RetryConfig struct {
	Read  AttemptConfig `koanf:"read" json:"read" yaml:"read"`
	Write AttemptConfig `koanf:"write" json:"write" yaml:"write"`
	// Delay is the wait before the first retry.
	Delay   time.Duration `koanf:"delay" json:"delay" yaml:"delay"`
	Backoff bool          `koanf:"backoff" json:"backoff" yaml:"backoff"`
	// MaxWait caps every wait, Retry-After hints included.
	MaxWait time.Duration `koanf:"maxwait" json:"maxwait" yaml:"maxwait"`
	// RateLimited makes 429 responses retryable, honouring Retry-After.
	RateLimited bool `koanf:"ratelimited" json:"ratelimited" yaml:"ratelimited"`
}

// AttemptConfig is a total attempt budget, initial attempt included.
type AttemptConfig struct {
	Attempts int `koanf:"attempts" json:"attempts" yaml:"attempts"`
}

// RateConfig throttles outgoing requests on the client side. Limit 0 disables it.
type RateConfig struct {
	Limit float64 `koanf:"limit" json:"limit" yaml:"limit"`
	Burst int     `koanf:"burst" json:"burst" yaml:"burst"`
}

// APILogConfig controls request/response logging.
type APILogConfig struct {
	Payloads        bool `koanf:"payloads" json:"payloads" yaml:"payloads"`
	MaxPayloadBytes int  `koanf:"maxpayloadbytes" json:"maxpayloadbytes" yaml:"maxpayloadbytes"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}
