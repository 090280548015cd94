package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillgrid/skillgrid-client/apierror"
	"github.com/skillgrid/skillgrid-client/config"
	"github.com/skillgrid/skillgrid-client/internal/testutil"
	"github.com/skillgrid/skillgrid-client/retry"
	"github.com/skillgrid/skillgrid-client/trace"
)

const testBaseURL = testutil.TestBaseURL

// fakeBackend scripts responses and records the requests a client sends.
type fakeBackend struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	handler  func(n int, req *http.Request) (*http.Response, error)
}

func (f *fakeBackend) Do(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, body)
	n := len(f.requests)
	f.mu.Unlock()
	return f.handler(n, req)
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func respond(status int, contentType, body string) (*http.Response, error) {
	h := http.Header{}
	if contentType != "" {
		h.Set(testContentTypeHeader, contentType)
	}
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

func connectionRefused(req *http.Request) error {
	return &url.Error{Op: req.Method, URL: req.URL.String(),
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connect: connection refused")}}
}

// unreachableFor fails the first n exchanges with a dial error, then answers with body.
func unreachableFor(n int, body string) func(int, *http.Request) (*http.Response, error) {
	return func(call int, req *http.Request) (*http.Response, error) {
		if call <= n {
			return nil, connectionRefused(req)
		}
		return respond(http.StatusOK, ContentTypeJSON, body)
	}
}

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newTestClient(t *testing.T, backend Doer, mutate func(*Config), opts ...Option) (*client, *sleepRecorder, *fakeLogger) {
	t.Helper()
	cfg := Config{BaseURL: testBaseURL}
	if mutate != nil {
		mutate(&cfg)
	}
	rec := &sleepRecorder{}
	log := &fakeLogger{}
	opts = append([]Option{WithDoer(backend), WithSleep(rec.sleep)}, opts...)

	c, err := New(cfg, log, opts...)
	require.NoError(t, err)
	return c.(*client), rec, log
}

func requireAPIError(t *testing.T, err error) *apierror.Error {
	t.Helper()
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	return apiErr
}

func TestNewValidatesBaseURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "/api", "localhost"} {
		_, err := New(Config{BaseURL: raw}, nil)
		assert.Error(t, err, "base URL %q", raw)
	}

	c, err := New(Config{BaseURL: testBaseURL + "/"}, nil)
	require.NoError(t, err)
	impl := c.(*client)
	assert.Equal(t, testBaseURL, impl.baseURL)
	assert.Equal(t, DefaultTimeout, impl.config.Timeout)
	assert.Equal(t, retry.ReadAttempts, impl.config.Read.MaxAttempts)
	assert.Equal(t, retry.WriteAttempts, impl.config.Write.MaxAttempts)
	assert.Equal(t, retry.DefaultDelay, impl.config.RetryDelay)
	assert.Equal(t, DefaultMaxPayloadLogBytes, impl.config.MaxPayloadLogBytes)
	assert.Equal(t, trace.HeaderXRequestID, impl.config.TraceIDHeader)
	assert.True(t, impl.config.backoff())
	assert.Nil(t, impl.limiter)
}

func TestNewFromConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(`
api:
  url: http://127.0.0.1:9000/api
  timeout: 2s
  retry:
    read:
      attempts: 4
    delay: 0s
    backoff: false
    ratelimited: true
  rate:
    limit: 10
    burst: 3
  headers:
    X-Client: cli
`))
	require.NoError(t, err)

	c, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)
	impl := c.(*client)

	assert.Equal(t, "http://127.0.0.1:9000/api", impl.baseURL)
	assert.Equal(t, 2*time.Second, impl.config.Timeout)
	assert.Equal(t, 4, impl.config.Read.MaxAttempts)
	assert.Equal(t, 2, impl.config.Write.MaxAttempts)
	assert.Equal(t, time.Duration(0), impl.config.RetryDelay)
	assert.False(t, impl.config.backoff())
	assert.True(t, impl.config.RetryOnRateLimit)
	assert.Equal(t, "cli", impl.config.DefaultHeaders["X-Client"])
	require.NotNil(t, impl.limiter)
	assert.Equal(t, 3, impl.limiter.Burst())

	_, err = NewFromConfig(nil, nil)
	assert.Error(t, err)
}

func TestHealthCheckSucceedsInOneCall(t *testing.T) {
	backend := &fakeBackend{handler: func(int, *http.Request) (*http.Response, error) {
		return respond(http.StatusOK, ContentTypeJSON, `{"status":"ok","timestamp":"2026-01-01T00:00:00Z"}`)
	}}
	c, rec, _ := newTestClient(t, backend, nil)

	resp, err := c.Get(context.Background(), "/health")
	require.NoError(t, err)

	assert.Equal(t, 1, backend.calls())
	assert.Empty(t, rec.waits)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, resp.Stats.Attempts)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])

	req := backend.requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, testBaseURL+"/health", req.URL.String())
	assert.Equal(t, ContentTypeJSON, req.Header.Get(testContentTypeHeader))
	assert.NotEmpty(t, req.Header.Get(trace.HeaderXRequestID))
	assert.Empty(t, backend.bodies[0])
}

func TestContactSubmissionSucceedsInOneCall(t *testing.T) {
	backend := &fakeBackend{handler: func(int, *http.Request) (*http.Response, error) {
		return respond(http.StatusOK, "application/json; charset=utf-8", `{"success":true,"message":"Thank you"}`)
	}}
	c, _, _ := newTestClient(t, backend, nil)

	form := map[string]string{"name": "Ada", "email": "ada@example.com", "service": "Notes", "message": "Please help me with notes"}
	resp, err := c.Post(context.Background(), "/contact", form)
	require.NoError(t, err)

	assert.Equal(t, 1, backend.calls())
	assert.Equal(t, http.MethodPost, backend.requests[0].Method)
	assert.JSONEq(t, `{"name":"Ada","email":"ada@example.com","service":"Notes","message":"Please help me with notes"}`, backend.bodies[0])

	type reply struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	got, err := Decode[reply](resp)
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, "Thank you", got.Message)
}

func TestUnreachableBackendRetryBudgets(t *testing.T) {
	t.Run("read retries up to three attempts", func(t *testing.T) {
		backend := &fakeBackend{handler: unreachableFor(2, `{"status":"ok"}`)}
		c, rec, log := newTestClient(t, backend, nil)

		resp, err := c.Get(context.Background(), "/health")
		require.NoError(t, err)

		assert.Equal(t, 3, backend.calls())
		assert.Equal(t, 3, resp.Stats.Attempts)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.waits)
		assert.Len(t, log.eventsByMessage(msgRetry), 2)
	})

	t.Run("write gives up after two attempts", func(t *testing.T) {
		backend := &fakeBackend{handler: unreachableFor(2, `{"success":true}`)}
		c, rec, _ := newTestClient(t, backend, nil)

		_, err := c.Post(context.Background(), "/contact", map[string]string{"name": "Ada"})
		require.Error(t, err)

		apiErr := requireAPIError(t, err)
		assert.Equal(t, apierror.CodeNetwork, apiErr.Code)
		assert.Equal(t, apierror.MsgNetwork, apiErr.Message)
		assert.False(t, apiErr.HasStatus())
		assert.Equal(t, 2, backend.calls())
		assert.Equal(t, []time.Duration{time.Second}, rec.waits)
		assert.True(t, apierror.IsTransientConnectivityFailure(err))
	})

	t.Run("retried writes resend the same payload", func(t *testing.T) {
		backend := &fakeBackend{handler: unreachableFor(1, `{"success":true}`)}
		c, _, _ := newTestClient(t, backend, nil)

		_, err := c.Put(context.Background(), "/contact/1", map[string]int{"n": 1})
		require.NoError(t, err)
		require.Len(t, backend.bodies, 2)
		assert.Equal(t, backend.bodies[0], backend.bodies[1])
	})
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	backend := &fakeBackend{handler: func(int, *http.Request) (*http.Response, error) {
		return respond(http.StatusNotFound, ContentTypeJSON, `{"message":"Resource not found"}`)
	}}
	c, rec, _ := newTestClient(t, backend, nil)

	_, err := c.Get(context.Background(), "/missing")
	apiErr := requireAPIError(t, err)

	assert.Equal(t, "Resource not found", apiErr.Message)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.False(t, apiErr.HasCode())
	assert.Equal(t, 1, backend.calls())
	assert.Empty(t, rec.waits)
	assert.Equal(t, apierror.UserMsgNotFound, apierror.UserMessage(err))
}

func TestServerErrorsExhaustReadBudget(t *testing.T) {
	backend := &fakeBackend{handler: func(int, *http.Request) (*http.Response, error) {
		return respond(http.StatusInternalServerError, "text/html", "<h1>boom</h1>")
	}}
	c, _, _ := newTestClient(t, backend, nil)

	_, err := c.Get(context.Background(), "/health")
	apiErr := requireAPIError(t, err)

	assert.Equal(t, "Internal Server Error", apiErr.Message)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, 3, backend.calls())
}

func TestDeleteUsesWriteBudget(t *testing.T) {
	backend := &fakeBackend{handler: func(int, *http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway, "", "")
	}}
	c, _, _ := newTestClient(t, backend, nil)

	_, err := c.Delete(context.Background(), "/contact/1")
	require.Error(t, err)
	assert.Equal(t, 2, backend.calls())
	assert.Equal(t, http.MethodDelete, backend.requests[0].Method)
}

func TestContentNegotiation(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        any
		wantErr     bool
	}{
		{name: "json object", contentType: ContentTypeJSON, body: `{"a":1}`, want: map[string]any{"a": float64(1)}},
		{name: "plain text", contentType: "text/plain", body: "hello", want: "hello"},
		{name: "empty text", contentType: "text/plain", body: "", want: ""},
		{name: "no content type", contentType: "", body: "raw", want: "raw"},
		{name: "malformed json", contentType: ContentTypeJSON, body: `{"a":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{handler: func(int, *http.Request) (*http.Response, error) {
				return respond(http.StatusOK, tt.contentType, tt.body)
			}}
			c, _, _ := newTestClient(t, backend, nil)

			resp, err := c.Get(context.Background(), "/thing")
			if tt.wantErr {
				apiErr := requireAPIError(t, err)
				assert.Equal(t, apierror.MsgUnexpected, apiErr.Message)
				assert.Equal(t, 1, backend.calls(), "decode failures are final")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Data)
			assert.Equal(t, tt.body, resp.Text())
		})
	}
}

func TestHeaderMerging(t *testing.T) {
	backend := &fakeBackend{handler: func(int, *http.Request) (*http.Response, error) {
		return respond(http.StatusOK, "", "")
	}}
	c, _, _ := newTestClient(t, backend, func(cfg *Config) {
		cfg.DefaultHeaders = map[string]string{"X-Client": "site", "Accept-Language": "en"}
	})

	_, err := c.Get(context.Background(), "/health",
		WithHeader("X-Client", "cli"),
		WithHeaders(map[string]string{testContentTypeHeader: "text/plain", "X-Request-ID": "fixed-id"}),
	)
	require.NoError(t, err)

	h := backend.requests[0].Header
	assert.Equal(t, "cli", h.Get("X-Client"))
	assert.Equal(t, "en", h.Get("Accept-Language"))
	assert.Equal(t, "text/plain", h.Get(testContentTypeHeader))
	assert.Equal(t, "fixed-id", h.Get("X-Request-ID"))
}

func TestRequestIDIsStableAcrossAttempts(t *testing.T) {
	backend := &fakeBackend{handler: unreachableFor(2, `{}`)}
	c, _, _ := newTestClient(t, backend, nil)

	ctx := trace.WithRequestID(context.Background(), "call-42")
	_, err := c.Get(ctx, "/health")
	require.NoError(t, err)

	for _, req := range backend.requests {
		assert.Equal(t, "call-42", req.Header.Get(trace.HeaderXRequestID))
	}

	backend = &fakeBackend{handler: unreachableFor(1, `{}`)}
	c, _, _ = newTestClient(t, backend, func(cfg *Config) { cfg.TraceIDHeader = "X-Correlation-ID" })
	_, err = c.Get(context.Background(), "/health")
	require.NoError(t, err)

	first := backend.requests[0].Header.Get("X-Correlation-ID")
	assert.NotEmpty(t, first)
	assert.Equal(t, first, backend.requests[1].Header.Get("X-Correlation-ID"))
}

func TestTimeout(t *testing.T) {
	backend := &fakeBackend{handler: func(_ int, req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	}}
	c, _, _ := newTestClient(t, backend, nil)

	_, err := c.Get(context.Background(), "/slow",
		WithTimeout(20*time.Millisecond),
		WithRetry(func(p *retry.Policy) { p.MaxAttempts = 2 }),
	)

	apiErr := requireAPIError(t, err)
	assert.Equal(t, apierror.MsgTimeout, apiErr.Message)
	assert.Equal(t, http.StatusRequestTimeout, apiErr.Status)
	assert.Equal(t, apierror.CodeTimeout, apiErr.Code)
	assert.Equal(t, 2, backend.calls(), "timeouts are retried")
}

// closeRecorder is a response body that reports when it is closed.
type closeRecorder struct {
	io.Reader
	closed chan struct{}
}

func (b *closeRecorder) Close() error {
	close(b.closed)
	return nil
}

func TestTimeoutWithContextBlindDoer(t *testing.T) {
	body := &closeRecorder{Reader: strings.NewReader(`{"status":"ok"}`), closed: make(chan struct{})}
	blind := DoerFunc(func(*http.Request) (*http.Response, error) {
		time.Sleep(300 * time.Millisecond)
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{testContentTypeHeader: []string{ContentTypeJSON}},
			Body:       body,
		}, nil
	})
	c, _, _ := newTestClient(t, blind, nil)

	start := time.Now()
	resp, err := c.Get(context.Background(), "/health",
		WithTimeout(20*time.Millisecond),
		WithRetry(func(p *retry.Policy) { p.MaxAttempts = 1 }),
	)
	elapsed := time.Since(start)

	assert.Nil(t, resp)
	apiErr := requireAPIError(t, err)
	assert.Equal(t, apierror.CodeTimeout, apiErr.Code)
	assert.Less(t, elapsed, 250*time.Millisecond)

	select {
	case <-body.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("late response body was not closed")
	}
}

func TestCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := &fakeBackend{handler: func(_ int, req *http.Request) (*http.Response, error) {
		cancel()
		return nil, req.Context().Err()
	}}
	c, rec, _ := newTestClient(t, backend, nil)

	_, err := c.Get(ctx, "/health")

	apiErr := requireAPIError(t, err)
	assert.Equal(t, apierror.CodeCanceled, apiErr.Code)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, backend.calls())
	assert.Empty(t, rec.waits)
}

func TestRateLimitedRetryHonoursRetryAfter(t *testing.T) {
	handler := func(n int, _ *http.Request) (*http.Response, error) {
		if n == 1 {
			resp, _ := respond(http.StatusTooManyRequests, ContentTypeJSON, `{"message":"slow down"}`)
			resp.Header.Set("Retry-After", "3")
			return resp, nil
		}
		return respond(http.StatusOK, ContentTypeJSON, `{}`)
	}

	t.Run("not retried by default", func(t *testing.T) {
		backend := &fakeBackend{handler: handler}
		c, _, _ := newTestClient(t, backend, nil)

		_, err := c.Get(context.Background(), "/health")
		apiErr := requireAPIError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
		assert.Equal(t, 3*time.Second, apiErr.RetryAfter)
		assert.Equal(t, 1, backend.calls())
	})

	t.Run("retried when enabled", func(t *testing.T) {
		backend := &fakeBackend{handler: handler}
		c, rec, _ := newTestClient(t, backend, func(cfg *Config) { cfg.RetryOnRateLimit = true })

		_, err := c.Get(context.Background(), "/health")
		require.NoError(t, err)
		assert.Equal(t, 2, backend.calls())
		assert.Equal(t, []time.Duration{3 * time.Second}, rec.waits)
	})
}

func TestRetryAfterIgnoredOnServerErrors(t *testing.T) {
	backend := &fakeBackend{handler: func(n int, _ *http.Request) (*http.Response, error) {
		if n == 1 {
			resp, _ := respond(http.StatusServiceUnavailable, "", "")
			resp.Header.Set("Retry-After", "86400")
			return resp, nil
		}
		return respond(http.StatusOK, ContentTypeJSON, `{}`)
	}}
	c, rec, _ := newTestClient(t, backend, func(cfg *Config) { cfg.RetryOnRateLimit = true })

	_, err := c.Get(context.Background(), "/health")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.calls())
	assert.Equal(t, []time.Duration{time.Second}, rec.waits)
}

func TestRateLimitedRetryAfterIsCapped(t *testing.T) {
	backend := &fakeBackend{handler: func(n int, _ *http.Request) (*http.Response, error) {
		if n == 1 {
			resp, _ := respond(http.StatusTooManyRequests, "", "")
			resp.Header.Set("Retry-After", "86400")
			return resp, nil
		}
		return respond(http.StatusOK, ContentTypeJSON, `{}`)
	}}
	c, rec, _ := newTestClient(t, backend, func(cfg *Config) {
		cfg.RetryOnRateLimit = true
		cfg.MaxRetryWait = 10 * time.Second
	})

	_, err := c.Get(context.Background(), "/health")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{10 * time.Second}, rec.waits)
}

func TestCallPolicyOverrides(t *testing.T) {
	t.Run("WithPolicy replaces the verb default", func(t *testing.T) {
		backend := &fakeBackend{handler: unreachableFor(10, `{}`)}
		c, _, _ := newTestClient(t, backend, nil)

		_, err := c.Post(context.Background(), "/contact", nil, WithPolicy(retry.NewPolicy(4, retry.WithDelay(0))))
		require.Error(t, err)
		assert.Equal(t, 4, backend.calls())
	})

	t.Run("WithRetry adjusts the verb default", func(t *testing.T) {
		backend := &fakeBackend{handler: unreachableFor(10, `{}`)}
		c, rec, _ := newTestClient(t, backend, nil)

		_, err := c.Get(context.Background(), "/health", WithRetry(func(p *retry.Policy) {
			p.MaxAttempts = 1
		}))
		require.Error(t, err)
		assert.Equal(t, 1, backend.calls())
		assert.Empty(t, rec.waits)
	})

	t.Run("constant delay without backoff", func(t *testing.T) {
		backend := &fakeBackend{handler: unreachableFor(10, `{}`)}
		c, rec, _ := newTestClient(t, backend, func(cfg *Config) {
			cfg.RetryDelay = 50 * time.Millisecond
			cfg.Backoff = BoolPtr(false)
		})

		_, err := c.Get(context.Background(), "/health")
		require.Error(t, err)
		assert.Equal(t, []time.Duration{50 * time.Millisecond, 50 * time.Millisecond}, rec.waits)
	})

	t.Run("Do with a caller policy and hook", func(t *testing.T) {
		backend := &fakeBackend{handler: unreachableFor(1, `{}`)}
		c, _, _ := newTestClient(t, backend, nil)

		var hooked []int
		policy := retry.NewPolicy(2, retry.WithOnRetry(func(attempt int, _ time.Duration, _ error) {
			hooked = append(hooked, attempt)
		}))
		_, err := c.Do(context.Background(), http.MethodPatch, "/contact/1", map[string]string{"a": "b"}, policy)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, hooked)
		assert.Equal(t, http.MethodPatch, backend.requests[1].Method)
	})
}

func TestInterceptors(t *testing.T) {
	t.Run("interceptor modifies request", func(t *testing.T) {
		backend := &fakeBackend{handler: func(int, *http.Request) (*http.Response, error) {
			return respond(http.StatusOK, "", "")
		}}
		c, _, _ := newTestClient(t, backend, func(cfg *Config) {
			cfg.RequestInterceptors = []RequestInterceptor{func(_ context.Context, req *http.Request) error {
				req.Header.Set("X-Intercepted", "yes")
				return nil
			}}
		})

		_, err := c.Get(context.Background(), "/health")
		require.NoError(t, err)
		assert.Equal(t, "yes", backend.requests[0].Header.Get("X-Intercepted"))
	})

	t.Run("interceptor failure aborts without sending", func(t *testing.T) {
		backend := &fakeBackend{handler: func(int, *http.Request) (*http.Response, error) {
			return respond(http.StatusOK, "", "")
		}}
		c, _, _ := newTestClient(t, backend, func(cfg *Config) {
			cfg.RequestInterceptors = []RequestInterceptor{func(context.Context, *http.Request) error {
				return errors.New("signing failed")
			}}
		})

		_, err := c.Get(context.Background(), "/health")
		apiErr := requireAPIError(t, err)
		assert.Equal(t, apierror.MsgUnexpected, apiErr.Message)
		assert.Contains(t, err.Error(), "signing failed")
		assert.Equal(t, 0, backend.calls())
	})
}

func TestEncodeFailureIsNotSent(t *testing.T) {
	backend := &fakeBackend{handler: unreachableFor(0, `{}`)}
	c, _, _ := newTestClient(t, backend, nil)

	_, err := c.Post(context.Background(), "/contact", map[string]any{"bad": make(chan int)})
	apiErr := requireAPIError(t, err)
	assert.Equal(t, apierror.MsgUnexpected, apiErr.Message)
	assert.Equal(t, 0, backend.calls())
}

func TestAgainstHTTPServer(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		n := hits
		mu.Unlock()

		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set(testContentTypeHeader, ContentTypeJSON)
		_, _ = io.WriteString(w, `{"status":"ok","path":"`+r.URL.Path+`"}`)
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	c, err := New(Config{BaseURL: srv.URL + "/api"}, nil, WithSleep(rec.sleep))
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/health")
	require.NoError(t, err)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "/api/health", data["path"])
	assert.Equal(t, 2, resp.Stats.Attempts)
	assert.Equal(t, 2, hits)
}

func TestUnreachableHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: addr}, nil, WithSleep((&sleepRecorder{}).sleep))
	require.NoError(t, err)

	_, err = c.Post(context.Background(), "/contact", map[string]string{"name": "Ada"})
	apiErr := requireAPIError(t, err)
	assert.Equal(t, apierror.CodeNetwork, apiErr.Code)
	assert.Equal(t, apierror.MsgNetwork, apierror.UserMessage(err))
}
