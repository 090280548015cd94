package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/skillgrid/skillgrid-client/apierror"
	"github.com/skillgrid/skillgrid-client/httpclient"
	"github.com/skillgrid/skillgrid-client/logger"
)

const (
	// HealthPath and SubmitPath are relative to the client's base URL.
	HealthPath = "/health"
	SubmitPath = "/contact"

	// StatusOK is the health status of a working backend.
	StatusOK = "ok"
)

var (
	// ErrRejected is returned when the backend answers 2xx but reports success=false.
	ErrRejected = errors.New("contact: submission rejected")
	// ErrUnhealthy is returned when the health probe answers with a status other than ok.
	ErrUnhealthy = errors.New("contact: backend unhealthy")
)

// Reply is the backend's answer to a submission.
type Reply struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// Health is the backend's health probe answer.
type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Service submits contact forms through a request-layer client.
type Service struct {
	client    httpclient.Client
	validator *Validator
	logger    logger.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger used for submission outcomes.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a Service on top of c.
func NewService(c httpclient.Client, opts ...Option) *Service {
	s := &Service{
		client:    c,
		validator: NewValidator(),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Health probes the backend with the read retry budget.
func (s *Service) Health(ctx context.Context) (*Health, error) {
	resp, err := s.client.Get(ctx, HealthPath)
	if err != nil {
		return nil, err
	}

	health, err := httpclient.Decode[Health](resp)
	if err != nil {
		return nil, err
	}
	if health.Status != StatusOK {
		return &health, fmt.Errorf("%w: status %q", ErrUnhealthy, health.Status)
	}
	return &health, nil
}

// Submit normalizes and validates form, then posts it with the write retry budget.
// Local validation failures and backend 400s both surface as *ValidationError.
func (s *Service) Submit(ctx context.Context, form Form) (*Reply, error) {
	form.Normalize()
	if err := s.validator.Validate(form); err != nil {
		return nil, err
	}

	resp, err := s.client.Post(ctx, SubmitPath, form)
	if err != nil {
		if verr := rejectionFromBackend(err); verr != nil {
			return nil, verr
		}
		return nil, err
	}

	reply, err := httpclient.Decode[Reply](resp)
	if err != nil {
		return nil, err
	}
	if !reply.Success {
		return &reply, fmt.Errorf("%w: %s", ErrRejected, reply.Message)
	}

	s.logger.Info().
		Str("service", form.Service).
		Int("attempts", resp.Stats.Attempts).
		Dur("elapsed", resp.Stats.Elapsed).
		Msg("contact form submitted")
	return &reply, nil
}

// rejectionFromBackend turns a 400 carrying field errors into a *ValidationError that still
// unwraps to the *apierror.Error.
func rejectionFromBackend(err error) *ValidationError {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || len(apiErr.Body) == 0 {
		return nil
	}
	var reply Reply
	if json.Unmarshal(apiErr.Body, &reply) != nil || len(reply.Errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: reply.Errors, cause: err}
}
