package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/skillgrid/skillgrid-client/retry"
	"github.com/skillgrid/skillgrid-client/trace"
)

const (
	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxPayloadLogBytes caps payload previews in debug logs.
	DefaultMaxPayloadLogBytes = 1024
	// ContentTypeJSON is sent on every request and recognized on responses.
	ContentTypeJSON = "application/json"
)

// RequestInterceptor can modify a request before it is sent. Returning an error aborts
// the attempt.
type RequestInterceptor func(ctx context.Context, req *http.Request) error

// RetryDefaults holds the attempt budget for a class of verbs.
type RetryDefaults struct {
	MaxAttempts int
}

// Config holds client configuration
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	DefaultHeaders map[string]string

	// Read applies to GET, Write to POST, PUT and DELETE.
	Read  RetryDefaults
	Write RetryDefaults

	RetryDelay time.Duration
	// Backoff enables exponential growth of RetryDelay. nil means enabled.
	Backoff *bool
	// MaxRetryWait caps any wait between attempts. Zero means retry.DefaultMaxWait.
	MaxRetryWait time.Duration
	// RetryOnRateLimit makes 429 responses retryable, honouring Retry-After up to MaxRetryWait.
	RetryOnRateLimit bool

	// RateLimit throttles attempts client-side, in requests per second. 0 disables it.
	RateLimit float64
	RateBurst int

	RequestInterceptors []RequestInterceptor

	// Logging
	LogPayloads        bool
	MaxPayloadLogBytes int

	// TraceIDHeader names the correlation header. Defaults to X-Request-ID.
	TraceIDHeader string
}

// withDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Read.MaxAttempts < 1 {
		c.Read.MaxAttempts = retry.ReadAttempts
	}
	if c.Write.MaxAttempts < 1 {
		c.Write.MaxAttempts = retry.WriteAttempts
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	} else if c.RetryDelay == 0 {
		c.RetryDelay = retry.DefaultDelay
	}
	if c.MaxPayloadLogBytes <= 0 {
		c.MaxPayloadLogBytes = DefaultMaxPayloadLogBytes
	}
	if c.TraceIDHeader == "" {
		c.TraceIDHeader = trace.HeaderXRequestID
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		c.RateBurst = 1
	}
	return c
}

func (c *Config) backoff() bool {
	return c.Backoff == nil || *c.Backoff
}

// BoolPtr is a helper for optional boolean settings such as Config.Backoff.
func BoolPtr(v bool) *bool {
	return &v
}
