package observability

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

const (
	// EndpointStdout is a special endpoint value that writes telemetry to the provider's writer.
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// EnvironmentDevelopment is the default environment name.
	EnvironmentDevelopment = "development"

	// DefaultMetricInterval is how often metrics are exported.
	DefaultMetricInterval = 15 * time.Second
)

// Config defines the telemetry settings of the client.
type Config struct {
	// Enabled controls whether telemetry is exported at all.
	// When false, the provider hands out no-op tracers and meters.
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled"`

	Service     ServiceConfig `koanf:"service" json:"service" yaml:"service"`
	Environment string        `koanf:"environment" json:"environment" yaml:"environment"`

	Trace   TraceConfig   `koanf:"trace" json:"trace" yaml:"trace"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics" yaml:"metrics"`
}

// ServiceConfig identifies the client in traces and metrics.
type ServiceConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name"`
	Version string `koanf:"version" json:"version" yaml:"version"`
}

// ExporterConfig selects where one signal is sent.
type ExporterConfig struct {
	// Endpoint is "stdout", a URL for the http protocol or host:port for grpc.
	Endpoint string            `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	Protocol string            `koanf:"protocol" json:"protocol" yaml:"protocol"`
	Insecure bool              `koanf:"insecure" json:"insecure" yaml:"insecure"`
	Headers  map[string]string `koanf:"headers" json:"headers" yaml:"headers"`
}

// TraceConfig configures span export.
type TraceConfig struct {
	ExporterConfig `koanf:",squash" yaml:",inline"`

	// SampleRate is the fraction of traces kept. Zero means 1.0.
	SampleRate float64 `koanf:"samplerate" json:"samplerate" yaml:"samplerate"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	ExporterConfig `koanf:",squash" yaml:",inline"`

	Interval time.Duration `koanf:"interval" json:"interval" yaml:"interval"`
}

// ApplyDefaults fills unset fields. Header maps are copied so the result never aliases the caller's.
func (c *Config) ApplyDefaults() {
	if c.Service.Version == "" {
		c.Service.Version = "unknown"
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}

	c.Trace.ExporterConfig = c.Trace.withDefaults()
	if c.Trace.SampleRate == 0 {
		c.Trace.SampleRate = 1.0
	}

	c.Metrics.ExporterConfig = c.Metrics.withDefaults()
	if c.Metrics.Interval <= 0 {
		c.Metrics.Interval = DefaultMetricInterval
	}
}

func (e ExporterConfig) withDefaults() ExporterConfig {
	if e.Endpoint == "" {
		e.Endpoint = EndpointStdout
	}
	if e.Protocol == "" {
		e.Protocol = ProtocolHTTP
	}
	if e.Headers != nil {
		e.Headers = maps.Clone(e.Headers)
	}
	return e
}

// Validate checks the configuration. A disabled configuration is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Service.Name == "" {
		return ErrMissingServiceName
	}
	if c.Trace.SampleRate < 0 || c.Trace.SampleRate > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidSampleRate, c.Trace.SampleRate)
	}
	if err := c.Trace.validate(); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	if err := c.Metrics.validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

func (e ExporterConfig) validate() error {
	if e.Endpoint == EndpointStdout {
		return nil
	}

	hasScheme := strings.HasPrefix(e.Endpoint, "http://") || strings.HasPrefix(e.Endpoint, "https://")
	switch e.Protocol {
	case ProtocolHTTP:
		if !hasScheme {
			return fmt.Errorf("%w: http endpoint %q needs a scheme", ErrInvalidEndpointFormat, e.Endpoint)
		}
	case ProtocolGRPC:
		if hasScheme {
			return fmt.Errorf("%w: grpc endpoint %q must be host:port", ErrInvalidEndpointFormat, e.Endpoint)
		}
	default:
		return fmt.Errorf("protocol '%s': %w", e.Protocol, ErrInvalidProtocol)
	}
	return nil
}
