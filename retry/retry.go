package retry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/skillgrid/skillgrid-client/apierror"
)

// Operation is a single attempt.
type Operation func(ctx context.Context) error

// OperationValue is a single attempt producing a value.
type OperationValue[T any] func(ctx context.Context) (T, error)

// Do runs op under policy. It returns nil on the first success, or the last failure
// unchanged once the budget is spent or the condition declines a retry.
func Do(ctx context.Context, policy Policy, op Operation) error {
	_, err := DoValue(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoValue is Do for operations that return a value.
//
// Attempts are strictly sequential. When ctx ends before an attempt or during a wait the
// sequence stops with an apierror CANCELED carrier wrapping the last failure.
func DoValue[T any](ctx context.Context, policy Policy, op OperationValue[T]) (T, error) {
	var zero T
	maxAttempts := policy.Attempts()
	shouldRetry := policy.condition()
	sleep := policy.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, canceled(err, lastErr)
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts || !shouldRetry(err) {
			return zero, err
		}

		wait := policy.Wait(attempt)
		if policy.HonorRetryAfter {
			if hint := retryAfter(err); hint > wait {
				wait = min(hint, policy.maxWait())
			}
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, wait, err)
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, canceled(err, lastErr)
		}
	}

	return zero, lastErr
}

func canceled(ctxErr, last error) error {
	if last == nil {
		return apierror.NewCanceled(ctxErr)
	}
	return apierror.NewCanceled(errors.Join(ctxErr, last))
}

// retryAfter returns the server hint carried by a 429 failure.
func retryAfter(err error) time.Duration {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) && apiErr != nil && apiErr.Status == http.StatusTooManyRequests {
		return apiErr.RetryAfter
	}
	return 0
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
