package httpclient

import (
	"net/http"
	"strconv"
	"time"

	"github.com/skillgrid/skillgrid-client/apierror"
	"github.com/skillgrid/skillgrid-client/logger"
)

const (
	msgRequest  = "REST client request"
	msgResponse = "REST client response"
	msgFailure  = "REST client request failed"
	msgRetry    = "retrying request"
)

// payloadFilter masks sensitive JSON keys before a preview is cut, since a truncated
// document can no longer be parsed. Non-JSON payloads are logged as they are.
var payloadFilter = logger.NewSensitiveDataFilter(nil)

// logRequest writes the outbound summary and, when enabled, a payload preview.
// Both are debug lines; only retries are reported above debug.
func (c *client) logRequest(req *http.Request, body []byte, requestID string) {
	event := c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", requestID)
	if n := len(req.Header); n > 0 {
		event = event.Int("header_count", n)
	}
	if len(body) > 0 {
		event = event.Int("body_size", len(body))
	}
	event.Msg(msgRequest)

	if !c.config.LogPayloads {
		return
	}
	preview, truncated := c.preview(body)
	c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("request_id", requestID).
		Interface("headers", req.Header).
		Int("body_size", len(body)).
		Str("body_truncated", strconv.FormatBool(truncated)).
		Bytes("body_preview", preview).
		Msg(msgRequest + " payload")
}

// logResponse writes the inbound summary and, when enabled, a payload preview.
func (c *client) logResponse(resp *Response, requestID string) {
	event := c.logger.Debug().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.Elapsed).
		Str("request_id", requestID)
	if len(resp.Raw) > 0 {
		event = event.Int("body_size", len(resp.Raw))
	}
	event.Msg(msgResponse)

	if !c.config.LogPayloads {
		return
	}
	preview, truncated := c.preview(resp.Raw)
	c.logger.Debug().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Interface("headers", resp.Headers).
		Int("body_size", len(resp.Raw)).
		Str("body_truncated", strconv.FormatBool(truncated)).
		Bytes("body_preview", preview).
		Msg(msgResponse + " payload")
}

func (c *client) logFailure(req *http.Request, err *apierror.Error, elapsed time.Duration, requestID string) {
	event := c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", requestID).
		Dur("elapsed", elapsed)
	if err.HasCode() {
		event = event.Str("code", string(err.Code))
	}
	event.Err(err).Msg(msgFailure)
}

// logRetry is the one diagnostic emitted above debug: a failed attempt about to be retried.
func (c *client) logRetry(method, url string, attempt int, wait time.Duration, err error) {
	c.logger.Warn().
		Str("method", method).
		Str("url", url).
		Int("attempt", attempt).
		Dur("wait", wait).
		Err(err).
		Msg(msgRetry)
}

func (c *client) preview(body []byte) (preview []byte, truncated bool) {
	body = payloadFilter.FilterJSON(body)
	limit := c.config.MaxPayloadLogBytes
	if limit <= 0 {
		limit = DefaultMaxPayloadLogBytes
	}
	if len(body) > limit {
		return body[:limit], true
	}
	return body, false
}
