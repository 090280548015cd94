// Package trace carries request correlation identifiers through a context and onto
// outbound HTTP headers.
package trace

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"

	// HeaderXRequestID is the default correlation header.
	HeaderXRequestID = "X-Request-ID"
	// HeaderTraceParent is the W3C trace context header name.
	HeaderTraceParent = "traceparent"
)

// WithRequestID stores a request ID in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureRequestID returns the request ID from ctx or a freshly generated UUID.
func EnsureRequestID(ctx context.Context) string {
	if id, ok := RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.New().String()
}

// Inject sets the correlation header (HeaderXRequestID when header is empty) unless h
// already carries one. The ID comes from ctx, then from a traceparent already on h, and
// is generated otherwise. The request ID that ends up on h is returned.
func Inject(ctx context.Context, h http.Header, header string) string {
	if header == "" {
		header = HeaderXRequestID
	}
	if existing := h.Get(header); existing != "" {
		return existing
	}
	id, ok := RequestIDFromContext(ctx)
	if !ok {
		id = idFromTraceParent(h.Get(HeaderTraceParent))
	}
	if id == "" {
		id = uuid.New().String()
	}
	h.Set(header, id)
	return id
}

// FromHeader returns the correlation ID of an inbound request: the header value (HeaderXRequestID
// when header is empty) or the trace-id of its traceparent. Empty when neither is usable.
func FromHeader(h http.Header, header string) string {
	if header == "" {
		header = HeaderXRequestID
	}
	if id := h.Get(header); id != "" {
		return id
	}
	return idFromTraceParent(h.Get(HeaderTraceParent))
}

// idFromTraceParent extracts the trace-id segment of a well-formed traceparent.
func idFromTraceParent(tp string) string {
	parts := strings.Split(tp, "-")
	if len(parts) != 4 || len(parts[1]) != 32 {
		return ""
	}
	return strings.ToLower(parts[1])
}
