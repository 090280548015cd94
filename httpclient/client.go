// Package httpclient is the request layer used to talk to the site backend: a single
// exchange executor with timeout, error classification and content negotiation, wrapped
// in a verb facade that applies a retry policy per call.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/skillgrid/skillgrid-client/config"
	"github.com/skillgrid/skillgrid-client/logger"
	"github.com/skillgrid/skillgrid-client/retry"
	"github.com/skillgrid/skillgrid-client/trace"
)

// Client defines the HTTP client interface
type Client interface {
	Get(ctx context.Context, path string, opts ...CallOption) (*Response, error)
	Post(ctx context.Context, path string, body any, opts ...CallOption) (*Response, error)
	Put(ctx context.Context, path string, body any, opts ...CallOption) (*Response, error)
	Delete(ctx context.Context, path string, opts ...CallOption) (*Response, error)
	// Do runs an arbitrary method under the given policy. Call options still apply on top.
	Do(ctx context.Context, method, path string, body any, policy retry.Policy, opts ...CallOption) (*Response, error)
}

type client struct {
	config  *Config
	baseURL string
	logger  logger.Logger
	doer    Doer
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error

	tracerProvider oteltrace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         oteltrace.Tracer
	metrics        *instruments
}

// New creates a client for cfg. log may be nil.
func New(cfg Config, log logger.Logger, opts ...Option) (Client, error) {
	base, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	resolved := cfg.withDefaults()
	c := &client{
		config:         &resolved,
		baseURL:        base,
		logger:         log,
		doer:           &http.Client{},
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if resolved.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(resolved.RateLimit), resolved.RateBurst)
	}
	c.tracer = c.tracerProvider.Tracer(instrumentationName)
	c.metrics = newInstruments(c.meterProvider)
	return c, nil
}

// NewFromConfig creates a client from the loaded application configuration.
func NewFromConfig(cfg *config.Config, log logger.Logger, opts ...Option) (Client, error) {
	if cfg == nil {
		return nil, errors.New("httpclient: nil configuration")
	}
	api := cfg.API

	delay := api.Retry.Delay
	if delay == 0 {
		// explicit zero in configuration means retry immediately
		delay = -1
	}

	return New(Config{
		BaseURL:            api.URL,
		Timeout:            api.Timeout,
		DefaultHeaders:     api.Headers,
		Read:               RetryDefaults{MaxAttempts: api.Retry.Read.Attempts},
		Write:              RetryDefaults{MaxAttempts: api.Retry.Write.Attempts},
		RetryDelay:         delay,
		Backoff:            BoolPtr(api.Retry.Backoff),
		MaxRetryWait:       api.Retry.MaxWait,
		RetryOnRateLimit:   api.Retry.RateLimited,
		RateLimit:          api.Rate.Limit,
		RateBurst:          api.Rate.Burst,
		LogPayloads:        api.Log.Payloads,
		MaxPayloadLogBytes: api.Log.MaxPayloadBytes,
	}, log, opts...)
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("httpclient: base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("httpclient: invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("httpclient: base URL %q must be absolute", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// Get issues a GET with the read retry budget.
func (c *client) Get(ctx context.Context, path string, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, c.policy(c.config.Read), opts...)
}

// Post issues a POST with the write retry budget.
func (c *client) Post(ctx context.Context, path string, body any, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, c.policy(c.config.Write), opts...)
}

// Put issues a PUT with the write retry budget.
func (c *client) Put(ctx context.Context, path string, body any, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, c.policy(c.config.Write), opts...)
}

// Delete issues a DELETE with the write retry budget.
func (c *client) Delete(ctx context.Context, path string, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, c.policy(c.config.Write), opts...)
}

func (c *client) Do(ctx context.Context, method, path string, body any, policy retry.Policy, opts ...CallOption) (*Response, error) {
	call := buildCallOptions(opts)
	if call.policy != nil {
		policy = *call.policy
	}
	for _, mutate := range call.mutate {
		mutate(&policy)
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	r := &request{
		method:  method,
		url:     c.baseURL + path,
		payload: payload,
		headers: call.headers,
		timeout: c.config.Timeout,
	}
	if call.timeout > 0 {
		r.timeout = call.timeout
	}

	onRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		c.logRetry(method, r.url, attempt, wait, err)
		c.metrics.recordRetry(ctx, method)
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}
	}
	if policy.Sleep == nil {
		policy.Sleep = c.sleep
	}

	// one correlation ID for every attempt of this call
	ctx = trace.WithRequestID(ctx, trace.EnsureRequestID(ctx))

	attempt := 0
	start := time.Now()
	resp, err := retry.DoValue(ctx, policy, func(ctx context.Context) (*Response, error) {
		attempt++
		return c.execute(ctx, r, attempt)
	})
	if err != nil {
		return nil, err
	}
	resp.Stats = Stats{Elapsed: time.Since(start), Attempts: attempt}
	return resp, nil
}

// policy builds the default policy for a verb class.
func (c *client) policy(d RetryDefaults) retry.Policy {
	var cond retry.Condition
	if c.config.RetryOnRateLimit {
		cond = retry.RateLimitAware(nil)
	}
	return retry.NewPolicy(d.MaxAttempts,
		retry.WithDelay(c.config.RetryDelay),
		retry.WithBackoff(c.config.backoff()),
		retry.WithMaxWait(c.config.MaxRetryWait),
		retry.WithRetryAfter(c.config.RetryOnRateLimit),
		retry.WithCondition(cond),
		retry.WithSleep(c.sleep),
	)
}
