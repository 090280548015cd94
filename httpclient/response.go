package httpclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/skillgrid/skillgrid-client/apierror"
)

var errEmptyBody = errors.New("response body is empty")

// Response is a successful exchange.
type Response struct {
	StatusCode int
	Headers    http.Header
	// Raw holds the response body bytes as received.
	Raw []byte
	// Data is the decoded JSON value for application/json responses and the body
	// text otherwise.
	Data  any
	Stats Stats
}

// Stats describes how the response was obtained.
type Stats struct {
	Elapsed  time.Duration
	Attempts int
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	if len(r.Raw) == 0 {
		return apierror.NewUnexpected(errEmptyBody)
	}
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return apierror.NewUnexpected(err)
	}
	return nil
}

// Text returns the raw body as a string.
func (r *Response) Text() string {
	return string(r.Raw)
}

// Decode unmarshals the body of r into a T.
func Decode[T any](r *Response) (T, error) {
	var v T
	if r == nil {
		return v, apierror.NewUnexpected(errEmptyBody)
	}
	err := r.Decode(&v)
	return v, err
}

// IsSuccessStatus reports whether code is in the 2xx range.
func IsSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}
