// Package apierror defines the structured failure carried by every call made through
// the request layer, and the helpers that normalize arbitrary failures into it and turn
// it into text that can be shown to an end user.
package apierror

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Code is a synthetic, classifier-assigned failure code. It is only set when no HTTP
// response was available to describe the failure.
type Code string

const (
	// CodeNetwork marks a failure where no response could be obtained at all.
	CodeNetwork Code = "NETWORK_ERROR"
	// CodeTimeout marks a call that did not complete within its time budget.
	CodeTimeout Code = "TIMEOUT"
	// CodeCanceled marks a call or retry sequence abandoned because the caller's context ended.
	CodeCanceled Code = "CANCELED"
)

// Fixed messages used by the executor when it synthesizes a failure.
const (
	MsgTimeout    = "Request timeout"
	MsgNetwork    = "Network error. Please check your connection."
	MsgUnexpected = "An unexpected error occurred"
	MsgCanceled   = "Request cancelled"
)

// Error is the normalized failure carrier.
//
// Status is zero when no response status line was received. Code is empty when the
// failure is purely "the server answered with a bad status".
type Error struct {
	Message string
	Status  int
	Code    Code

	// RetryAfter holds the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
	// Body is the raw error response body, when one was read.
	Body []byte
	// Cause is the underlying failure, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	switch {
	case e.Status != 0 && e.Code != "":
		fmt.Fprintf(&b, " (status %d, %s)", e.Status, e.Code)
	case e.Status != 0:
		fmt.Fprintf(&b, " (status %d)", e.Status)
	case e.Code != "":
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying failure for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status, or 0 when none was received.
func (e *Error) StatusCode() int {
	return e.Status
}

// HasStatus reports whether a response status was received.
func (e *Error) HasStatus() bool { return e.Status != 0 }

// HasCode reports whether a synthetic code was assigned.
func (e *Error) HasCode() bool { return e.Code != "" }

// NewNetwork creates the connectivity failure carrier.
func NewNetwork(cause error) *Error {
	return &Error{Message: MsgNetwork, Code: CodeNetwork, Cause: cause}
}

// NewTimeout creates the timeout carrier. It carries status 408 alongside the TIMEOUT code.
func NewTimeout(cause error) *Error {
	return &Error{Message: MsgTimeout, Status: http.StatusRequestTimeout, Code: CodeTimeout, Cause: cause}
}

// NewHTTP creates an application-level rejection for a received response.
func NewHTTP(message string, status int, body []byte) *Error {
	if message == "" {
		message = fmt.Sprintf("HTTP %d", status)
	}
	return &Error{Message: message, Status: status, Body: body}
}

// NewUnexpected creates the carrier for failures that fit no other kind.
func NewUnexpected(cause error) *Error {
	return &Error{Message: MsgUnexpected, Cause: cause}
}

// NewCanceled creates the carrier for a call abandoned by its caller.
func NewCanceled(cause error) *Error {
	return &Error{Message: MsgCanceled, Code: CodeCanceled, Cause: cause}
}
