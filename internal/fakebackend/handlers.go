package fakebackend

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skillgrid/skillgrid-client/contact"
	"github.com/skillgrid/skillgrid-client/trace"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// track counts requests, serves injected failures and logs each exchange. The caller's
// request ID (or its trace-id) is echoed back; a fresh one is minted when neither is sent.
func (s *Server) track(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		start := time.Now()

		requestID := trace.FromHeader(req.Header, trace.HeaderXRequestID)
		if requestID == "" {
			requestID = trace.EnsureRequestID(req.Context())
		}
		c.Response().Header().Set(trace.HeaderXRequestID, requestID)
		c.SetRequest(req.WithContext(trace.WithRequestID(req.Context(), requestID)))

		var err error
		if f, ok := s.nextFailure(req.URL.Path); ok {
			if f.retryAfter > 0 {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(f.retryAfter.Seconds())))
			}
			err = c.JSON(f.status, contact.Reply{Message: http.StatusText(f.status)})
		} else {
			err = next(c)
		}

		s.logger.Debug().
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", c.Response().Status).
			Dur("elapsed", time.Since(start)).
			Msg("fake backend request")
		return err
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:    contact.StatusOK,
		Timestamp: s.now().UTC(),
	})
}

func (s *Server) submit(c echo.Context) error {
	var form contact.Form
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, contact.Reply{Message: msgInvalidBody})
	}
	form.Normalize()

	if err := c.Validate(&form); err != nil {
		var verr *contact.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, contact.Reply{
				Message: msgValidation,
				Errors:  verr.Errors,
			})
		}
		return c.JSON(http.StatusBadRequest, contact.Reply{Message: msgValidation})
	}

	if err := s.mailer.Send(c.Request().Context(), form); err != nil {
		s.logger.Error().Err(err).Msg("contact delivery failed")
		return c.JSON(http.StatusInternalServerError, contact.Reply{Message: msgDeliveryFailure})
	}

	return c.JSON(http.StatusOK, contact.Reply{Success: true, Message: msgThanks})
}
