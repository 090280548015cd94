package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/propagation"

	"github.com/skillgrid/skillgrid-client/apierror"
	"github.com/skillgrid/skillgrid-client/trace"
)

// request is one logical call, replayed unchanged on every attempt.
type request struct {
	method  string
	url     string
	payload []byte
	headers map[string]string
	timeout time.Duration
}

// encodeBody turns a call body into its wire form. A nil body sends no payload.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apierror.NewUnexpected(fmt.Errorf("encode request body: %w", err))
	}
	return payload, nil
}

// execute performs a single exchange and converts its outcome into a Response or an
// *apierror.Error.
func (c *client) execute(ctx context.Context, r *request, attempt int) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, apierror.NewCanceled(err)
			}
			return nil, apierror.NewUnexpected(fmt.Errorf("rate limit: %w", err))
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	spanCtx, span := c.startSpan(attemptCtx, r.method, r.url, attempt)

	var status int
	start := time.Now()
	resp, err := c.exchange(ctx, spanCtx, r, &status)
	elapsed := time.Since(start)

	c.metrics.recordAttempt(ctx, r.method, status, err, elapsed)
	endSpan(span, status, err)

	if resp != nil {
		resp.Stats = Stats{Elapsed: elapsed, Attempts: attempt}
	}
	return resp, err
}

func (c *client) exchange(parent, ctx context.Context, r *request, status *int) (*Response, error) {
	var body io.Reader = http.NoBody
	if r.payload != nil {
		body = bytes.NewReader(r.payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, apierror.NewUnexpected(fmt.Errorf("build request: %w", err))
	}
	c.applyHeaders(req, r.headers)

	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(req.Header))
	requestID := trace.Inject(ctx, req.Header, c.config.TraceIDHeader)

	for _, interceptor := range c.config.RequestInterceptors {
		if err := interceptor(ctx, req); err != nil {
			return nil, apierror.NewUnexpected(fmt.Errorf("request interceptor: %w", err))
		}
	}

	c.logRequest(req, r.payload, requestID)

	start := time.Now()
	httpResp, raw, err := c.roundTrip(ctx, req)
	if err != nil {
		failure := transportFailure(parent, ctx, err)
		c.logFailure(req, failure, time.Since(start), requestID)
		return nil, failure
	}
	*status = httpResp.StatusCode

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Raw:        raw,
		Stats:      Stats{Elapsed: time.Since(start), Attempts: 1},
	}
	c.logResponse(resp, requestID)

	if !IsSuccessStatus(httpResp.StatusCode) {
		return nil, errorFromResponse(httpResp, raw)
	}

	data, err := decodeData(httpResp.Header.Get("Content-Type"), raw)
	if err != nil {
		return nil, err
	}
	resp.Data = data
	return resp, nil
}

type roundTripResult struct {
	resp *http.Response
	raw  []byte
	err  error
}

// roundTrip sends req and reads the whole body, giving up when ctx ends even if the Doer
// ignores ctx. A late response is still drained and closed by its goroutine.
func (c *client) roundTrip(ctx context.Context, req *http.Request) (*http.Response, []byte, error) {
	done := make(chan roundTripResult, 1)
	go func() {
		resp, err := c.doer.Do(req)
		if err != nil {
			done <- roundTripResult{err: err}
			return
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		done <- roundTripResult{resp: resp, raw: raw, err: err}
	}()

	select {
	case r := <-done:
		return r.resp, r.raw, r.err
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// applyHeaders merges the JSON content type, configured defaults and per-call headers,
// later sources winning.
func (c *client) applyHeaders(req *http.Request, perCall map[string]string) {
	req.Header.Set("Content-Type", ContentTypeJSON)
	for k, v := range c.config.DefaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range perCall {
		req.Header.Set(k, v)
	}
}

// transportFailure classifies an error raised while no usable response was obtained.
// parent is the caller's context, attempt the per-attempt context derived from it.
func transportFailure(parent, attempt context.Context, err error) *apierror.Error {
	if parent.Err() != nil {
		return apierror.NewCanceled(errors.Join(parent.Err(), err))
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) {
		return apierror.NewTimeout(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierror.NewTimeout(err)
	}
	return apierror.NewNetwork(err)
}

// errorFromResponse builds the failure for a non-2xx response.
func errorFromResponse(resp *http.Response, raw []byte) *apierror.Error {
	var message string
	if gjson.ValidBytes(raw) {
		if m := gjson.GetBytes(raw, "message"); m.Exists() && m.String() != "" {
			message = m.String()
		}
	} else {
		message = statusText(resp)
	}

	apiErr := apierror.NewHTTP(message, resp.StatusCode, raw)
	apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	return apiErr
}

// statusText returns the reason phrase the server sent, then the standard one for the code.
// Empty when neither exists.
func statusText(resp *http.Response) string {
	reason := strings.TrimSpace(resp.Status)
	if code := strconv.Itoa(resp.StatusCode); strings.HasPrefix(reason, code) {
		reason = strings.TrimSpace(strings.TrimPrefix(reason, code))
	}
	if reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}

// parseRetryAfter accepts delay-seconds or an HTTP-date. Unparseable or past values yield 0.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// decodeData returns the parsed JSON value for JSON responses and the body text otherwise.
// An empty JSON body decodes to nil.
func decodeData(contentType string, raw []byte) (any, error) {
	if !strings.Contains(strings.ToLower(contentType), ContentTypeJSON) {
		return string(raw), nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, apierror.NewUnexpected(fmt.Errorf("decode response body: %w", err))
	}
	return data, nil
}
