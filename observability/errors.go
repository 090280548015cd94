package observability

import "errors"

// ErrMissingServiceName is returned when telemetry is enabled but no service name is configured.
var ErrMissingServiceName = errors.New("observability: service name is required when telemetry is enabled")

// ErrInvalidSampleRate is returned when the trace sample rate is outside [0.0, 1.0].
var ErrInvalidSampleRate = errors.New("observability: trace sample rate must be between 0.0 and 1.0")

// ErrInvalidProtocol is returned when a protocol is not "http" or "grpc".
var ErrInvalidProtocol = errors.New("observability: protocol must be either 'http' or 'grpc'")

// ErrInvalidEndpointFormat is returned when the endpoint format doesn't match the protocol.
// gRPC endpoints are "host:port"; HTTP endpoints are full URLs with a scheme.
var ErrInvalidEndpointFormat = errors.New("observability: invalid endpoint format for protocol")
