// Package retry re-invokes a failable operation according to a Policy: a bounded number of
// sequential attempts, a predicate deciding whether a failure is worth another attempt, and
// a fixed or exponentially growing wait between attempts.
package retry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/skillgrid/skillgrid-client/apierror"
)

const (
	// DefaultDelay is the base wait before the first retry.
	DefaultDelay = time.Second
	// ReadAttempts is the default attempt budget for idempotent reads.
	ReadAttempts = 3
	// WriteAttempts is the default attempt budget for mutating calls.
	WriteAttempts = 2
	// DefaultMaxWait caps any single wait, backoff or server hint alike.
	DefaultMaxWait = 30 * time.Second

	maxBackoffShift = 20
)

// Condition decides whether a failure justifies another attempt.
type Condition func(err error) bool

// Policy configures a retry sequence. The zero value runs the operation once.
type Policy struct {
	// MaxAttempts is the total number of runs, initial attempt included. Values below 1 mean 1.
	MaxAttempts int
	// Delay is the wait before the first retry.
	Delay time.Duration
	// Backoff doubles the wait for every further retry.
	Backoff bool
	// MaxWait caps every wait. Zero means DefaultMaxWait.
	MaxWait time.Duration
	// HonorRetryAfter lets a 429's Retry-After hint lengthen the wait, up to MaxWait.
	// Hints on other statuses are ignored.
	HonorRetryAfter bool
	// Condition overrides DefaultCondition when set.
	Condition Condition
	// OnRetry is called before each wait with the 1-indexed attempt that just failed.
	OnRetry func(attempt int, wait time.Duration, err error)
	// Sleep replaces the default context-aware timer sleep. Used by tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Option mutates a Policy built by NewPolicy.
type Option func(*Policy)

// NewPolicy returns a policy with the default delay, backoff enabled and the default
// condition, adjusted by opts.
func NewPolicy(maxAttempts int, opts ...Option) Policy {
	p := Policy{
		MaxAttempts: maxAttempts,
		Delay:       DefaultDelay,
		Backoff:     true,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithMaxAttempts overrides the attempt budget.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) { p.MaxAttempts = n }
}

// WithDelay sets the base wait.
func WithDelay(d time.Duration) Option {
	return func(p *Policy) { p.Delay = d }
}

// WithBackoff toggles exponential backoff.
func WithBackoff(enabled bool) Option {
	return func(p *Policy) { p.Backoff = enabled }
}

// WithMaxWait caps every wait.
func WithMaxWait(d time.Duration) Option {
	return func(p *Policy) { p.MaxWait = d }
}

// WithRetryAfter toggles honouring Retry-After on 429 responses.
func WithRetryAfter(enabled bool) Option {
	return func(p *Policy) { p.HonorRetryAfter = enabled }
}

// WithCondition replaces the retry predicate.
func WithCondition(c Condition) Option {
	return func(p *Policy) { p.Condition = c }
}

// WithOnRetry installs a diagnostic hook.
func WithOnRetry(fn func(attempt int, wait time.Duration, err error)) Option {
	return func(p *Policy) { p.OnRetry = fn }
}

// WithSleep replaces the sleep function.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Policy) { p.Sleep = fn }
}

// Attempts returns the effective attempt budget.
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Wait returns the pause before the given 1-indexed retry:
// Delay without backoff, Delay × 2^(retry-1) with it, never more than the cap.
func (p Policy) Wait(retry int) time.Duration {
	if p.Delay <= 0 {
		return 0
	}
	wait := p.Delay
	if p.Backoff && retry > 1 {
		shift := min(retry-1, maxBackoffShift)
		if p.Delay > p.maxWait()>>shift {
			return p.maxWait()
		}
		wait = p.Delay << shift
	}
	return min(wait, p.maxWait())
}

func (p Policy) maxWait() time.Duration {
	if p.MaxWait > 0 {
		return p.MaxWait
	}
	return DefaultMaxWait
}

func (p Policy) condition() Condition {
	if p.Condition != nil {
		return p.Condition
	}
	return DefaultCondition
}

// DefaultCondition retries connectivity failures, timeouts and 5xx responses. Every 4xx,
// 429 included, is final, and so is anything that is not an *apierror.Error.
func DefaultCondition(err error) bool {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) || apiErr == nil {
		return false
	}
	switch apiErr.Code {
	case apierror.CodeNetwork, apierror.CodeTimeout:
		return true
	case apierror.CodeCanceled:
		return false
	}
	return apiErr.Status >= http.StatusInternalServerError
}

// RateLimitAware extends next so that 429 responses are retried too. Combine it with
// WithRetryAfter to wait for the server's hint.
func RateLimitAware(next Condition) Condition {
	if next == nil {
		next = DefaultCondition
	}
	return func(err error) bool {
		var apiErr *apierror.Error
		if errors.As(err, &apiErr) && apiErr != nil && apiErr.Status == http.StatusTooManyRequests {
			return true
		}
		return next(err)
	}
}
