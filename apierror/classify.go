package apierror

import (
	"errors"
	"net"
	"net/http"
	"strings"
)

// User-facing messages.
const (
	UserMsgNotFound        = "The requested resource was not found"
	UserMsgServer          = "Server error. Please try again later"
	UserMsgTooManyRequests = "Too many requests. Please wait a moment and try again"
	UserMsgNetwork         = "Network error. Please check your connection and try again"
	UserMsgFallback        = "Something went wrong. Please try again"
)

// connectivityIndicators are lowercase message fragments that identify a failure to reach
// the server at all.
var connectivityIndicators = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"failed to fetch",
}

// Normalize converts any failure value into an *Error. The result is always a fresh value,
// so callers may modify it freely.
//
//   - an *Error anywhere in an error chain is copied as-is
//   - any other error yields {Message: err.Error()}
//   - a string yields {Message: s}
//   - anything else, nil included, yields {Message: MsgUnexpected}
func Normalize(v any) *Error {
	switch t := v.(type) {
	case *Error:
		if t == nil {
			return &Error{Message: MsgUnexpected}
		}
		c := *t
		return &c
	case error:
		var apiErr *Error
		if errors.As(t, &apiErr) && apiErr != nil {
			c := *apiErr
			return &c
		}
		return &Error{Message: t.Error(), Cause: t}
	case string:
		return &Error{Message: t}
	default:
		return &Error{Message: MsgUnexpected}
	}
}

// UserMessage derives the text to show an end user for a failure. Status codes and
// synthetic codes never leak through for the statuses it knows about.
func UserMessage(v any) string {
	e := Normalize(v)

	switch e.Status {
	case http.StatusNotFound:
		return UserMsgNotFound
	case http.StatusInternalServerError:
		return UserMsgServer
	case http.StatusTooManyRequests:
		return UserMsgTooManyRequests
	}

	if hasConnectivityIndicator(e.Message) {
		return UserMsgNetwork
	}
	if e.Message != "" {
		return e.Message
	}
	return UserMsgFallback
}

// IsTransientConnectivityFailure reports whether v describes a failure to reach the server:
// an *Error with CodeNetwork, or a plain error that is a non-timeout network error or whose
// message says so. Strings, nil and other values are never connectivity failures.
func IsTransientConnectivityFailure(v any) bool {
	err, ok := v.(error)
	if !ok || err == nil {
		return false
	}

	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Code == CodeNetwork
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && !opErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return true
	}

	return hasConnectivityIndicator(err.Error())
}

func hasConnectivityIndicator(msg string) bool {
	if msg == "" {
		return false
	}
	lower := strings.ToLower(msg)
	for _, ind := range connectivityIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}
