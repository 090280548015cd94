package httpclient

import (
	"context"
	"maps"
	"time"

	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/skillgrid/skillgrid-client/retry"
)

// Option customizes a client built by New.
type Option func(*client)

// WithDoer replaces the transport. The default is a plain *http.Client.
func WithDoer(d Doer) Option {
	return func(c *client) {
		if d != nil {
			c.doer = d
		}
	}
}

// WithTracerProvider sets the provider for per-attempt spans. Defaults to the global one.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(c *client) {
		if tp != nil {
			c.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets the provider for request metrics. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *client) {
		if mp != nil {
			c.meterProvider = mp
		}
	}
}

// WithSleep replaces the wait between retries for every call.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *client) { c.sleep = fn }
}

// CallOption customizes a single call.
type CallOption func(*callOptions)

type callOptions struct {
	headers map[string]string
	timeout time.Duration
	policy  *retry.Policy
	mutate  []func(*retry.Policy)
}

// WithHeader sets one per-call header. Per-call headers win over configured defaults.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithHeaders merges headers into the per-call set.
func WithHeaders(headers map[string]string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}
		maps.Copy(o.headers, headers)
	}
}

// WithTimeout overrides the per-attempt time budget.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) { o.timeout = d }
}

// WithRetry adjusts the verb's default retry policy.
func WithRetry(fn func(*retry.Policy)) CallOption {
	return func(o *callOptions) {
		if fn != nil {
			o.mutate = append(o.mutate, fn)
		}
	}
}

// WithPolicy replaces the verb's default retry policy entirely.
func WithPolicy(p retry.Policy) CallOption {
	return func(o *callOptions) { o.policy = &p }
}

func buildCallOptions(opts []CallOption) *callOptions {
	o := &callOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
