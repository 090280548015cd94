package httpclient

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/skillgrid/skillgrid-client/apierror"
)

const (
	instrumentationName = "skillgrid-client/httpclient"

	// Metric names following OpenTelemetry semantic conventions
	metricRequestDuration = "http.client.request.duration"
	metricAttempts        = "http.client.attempts"
	metricRetries         = "http.client.retries"

	attrHTTPRequestMethod  = "http.request.method"
	attrHTTPResponseStatus = "http.response.status_code"
	attrURLFull            = "url.full"
	attrErrorType          = "error.type"
	attrAttempt            = "http.request.resend_count"
)

var durationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
}

// instruments holds the metric instruments of one client. Nil instruments are skipped.
type instruments struct {
	duration metric.Float64Histogram
	attempts metric.Int64Counter
	retries  metric.Int64Counter
}

// logMetricError reports an instrument creation failure. Metrics never fail a call.
func logMetricError(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize HTTP client metric %s: %v\n", name, err)
	}
}

func newInstruments(mp metric.MeterProvider) *instruments {
	meter := mp.Meter(instrumentationName)
	in := &instruments{}

	var err error
	in.duration, err = meter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("Duration of HTTP client request attempts"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	logMetricError(metricRequestDuration, err)

	in.attempts, err = meter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of HTTP client request attempts"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricAttempts, err)

	in.retries, err = meter.Int64Counter(
		metricRetries,
		metric.WithDescription("Number of HTTP client retries"),
		metric.WithUnit("{retry}"),
	)
	logMetricError(metricRetries, err)

	return in
}

// recordAttempt records the outcome of one exchange. status is 0 when no response arrived.
func (in *instruments) recordAttempt(ctx context.Context, method string, status int, err error, elapsed time.Duration) {
	attrs := attemptAttributes(method, status, err)
	if in.duration != nil {
		in.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	}
	if in.attempts != nil {
		in.attempts.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (in *instruments) recordRetry(ctx context.Context, method string) {
	if in.retries != nil {
		in.retries.Add(ctx, 1, metric.WithAttributes(attribute.String(attrHTTPRequestMethod, method)))
	}
}

func attemptAttributes(method string, status int, err error) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(attrHTTPRequestMethod, method)}
	if status > 0 {
		attrs = append(attrs, attribute.Int(attrHTTPResponseStatus, status))
	}
	if errType := errorType(status, err); errType != "" {
		attrs = append(attrs, attribute.String(attrErrorType, errType))
	}
	return attrs
}

// errorType is the error.type attribute: the synthetic code when one was assigned,
// otherwise the status code for 4xx/5xx.
func errorType(status int, err error) string {
	if err == nil {
		return ""
	}
	if apiErr := apierror.Normalize(err); apiErr.HasCode() {
		return string(apiErr.Code)
	}
	if status >= 400 {
		return strconv.Itoa(status)
	}
	return "_OTHER"
}

// startSpan opens the client span for one attempt.
func (c *client) startSpan(ctx context.Context, method, url string, attempt int) (context.Context, oteltrace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String(attrHTTPRequestMethod, method),
		attribute.String(attrURLFull, url),
	}
	if attempt > 1 {
		attrs = append(attrs, attribute.Int(attrAttempt, attempt-1))
	}
	return c.tracer.Start(ctx, method,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(attrs...),
	)
}

func endSpan(span oteltrace.Span, status int, err error) {
	if status > 0 {
		span.SetAttributes(attribute.Int(attrHTTPResponseStatus, status))
	}
	if err != nil {
		span.SetAttributes(attribute.String(attrErrorType, errorType(status, err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, apierror.Normalize(err).Message)
	}
	span.End()
}
