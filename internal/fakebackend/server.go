// Package fakebackend is an in-process stand-in for the site backend. It serves the health
// and contact endpoints with the real validation rules and can be told to fail on demand.
package fakebackend

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/skillgrid/skillgrid-client/contact"
	"github.com/skillgrid/skillgrid-client/logger"
)

const (
	// BasePath prefixes every route.
	BasePath = "/api"

	// ServiceName names the server in its spans.
	ServiceName = "skillgrid-fake-backend"

	msgThanks          = "Thank you for your inquiry! We will get back to you soon."
	msgValidation      = "Validation failed"
	msgInvalidBody     = "Invalid request body"
	msgDeliveryFailure = "Failed to send your message. Please try again later."
)

// Mailer delivers accepted submissions.
type Mailer interface {
	Send(ctx context.Context, form contact.Form) error
}

// Recorder is a Mailer that keeps submissions in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []contact.Form
}

// Send records form.
func (r *Recorder) Send(_ context.Context, form contact.Form) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, form)
	return nil
}

// Sent returns the recorded submissions.
func (r *Recorder) Sent() []contact.Form {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]contact.Form, len(r.sent))
	copy(out, r.sent)
	return out
}

type injectedFailure struct {
	status     int
	retryAfter time.Duration
}

// Server is the fake backend.
type Server struct {
	echo   *echo.Echo
	mailer Mailer
	logger logger.Logger
	now    func() time.Time
	tracer oteltrace.TracerProvider

	mu       sync.Mutex
	failures []injectedFailure
	calls    map[string]int
}

// Option customizes a Server.
type Option func(*Server)

// WithMailer replaces the default in-memory Recorder.
func WithMailer(m Mailer) Option {
	return func(s *Server) { s.mailer = m }
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock fixes the time reported by the health endpoint.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithTracerProvider sets where server spans go. Defaults to the global provider.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(s *Server) { s.tracer = tp }
}

// New creates a Server with routes registered.
func New(opts ...Option) *Server {
	s := &Server{
		mailer: &Recorder{},
		logger: logger.Nop(),
		now:    time.Now,
		tracer: otel.GetTracerProvider(),
		calls:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = contact.NewValidator()
	e.Use(otelecho.Middleware(ServiceName,
		otelecho.WithTracerProvider(s.tracer),
		otelecho.WithPropagators(propagation.TraceContext{}),
	))
	e.Use(s.track)

	api := e.Group(BasePath)
	api.GET("/health", s.health)
	api.POST("/contact", s.submit)

	s.echo = e
	return s
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Mailer returns the configured mailer.
func (s *Server) Mailer() Mailer {
	return s.mailer
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("address", addr).Msg("Starting fake backend")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// FailNext makes the next n requests answer status with a JSON message.
func (s *Server) FailNext(n, status int) {
	s.FailNextWithRetryAfter(n, status, 0)
}

// FailNextWithRetryAfter is FailNext with a Retry-After header on each failure.
func (s *Server) FailNextWithRetryAfter(n, status int, retryAfter time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for range n {
		s.failures = append(s.failures, injectedFailure{status: status, retryAfter: retryAfter})
	}
}

// Calls returns how many requests reached path, injected failures included.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// nextFailure counts the request and pops an injected failure, if any.
func (s *Server) nextFailure(path string) (injectedFailure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[path]++
	if len(s.failures) == 0 {
		return injectedFailure{}, false
	}
	f := s.failures[0]
	s.failures = s.failures[1:]
	return f, true
}
