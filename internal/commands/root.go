// Package commands implements the skillgrid command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillgrid/skillgrid-client/apierror"
	"github.com/skillgrid/skillgrid-client/config"
	"github.com/skillgrid/skillgrid-client/contact"
	"github.com/skillgrid/skillgrid-client/httpclient"
	"github.com/skillgrid/skillgrid-client/logger"
	"github.com/skillgrid/skillgrid-client/observability"
)

const flushTimeout = 5 * time.Second

// GlobalOptions holds flags shared by every command.
type GlobalOptions struct {
	ConfigFile string
	BaseURL    string
	LogLevel   string
	// Telemetry set to true exports traces and metrics to stderr.
	Telemetry bool

	ClientOptions []httpclient.Option
}

// NewRootCommand assembles the command tree. clientOpts are applied to every client the
// commands build.
func NewRootCommand(version string, clientOpts ...httpclient.Option) *cobra.Command {
	opts := &GlobalOptions{ClientOptions: clientOpts}

	root := &cobra.Command{
		Use:   "skillgrid",
		Short: "Talk to the SkillGrid site backend",
		Long: `Client for the SkillGrid marketing site backend.

Requests go through the resilient request layer: per-attempt timeouts,
classified errors and bounded retries for transient failures.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", config.DefaultFile, "Configuration file")
	root.PersistentFlags().StringVar(&opts.BaseURL, "url", "", "Backend base URL (overrides configuration)")
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level (overrides configuration)")
	root.PersistentFlags().BoolVar(&opts.Telemetry, "telemetry", false, "Print traces and metrics to stderr")

	root.AddCommand(
		newHealthCommand(opts),
		newContactCommand(opts),
		newFakeBackendCommand(opts),
		NewVersionCommand(version),
	)
	return root
}

// session is what a command needs to talk to the backend.
type session struct {
	cfg       *config.Config
	log       logger.Logger
	telemetry observability.Provider
	service   *contact.Service
}

func (o *GlobalOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadFile(o.ConfigFile)
	if err != nil {
		return nil, err
	}
	if o.BaseURL != "" {
		cfg.API.URL = o.BaseURL
	}
	level := cfg.Log.Level
	if o.LogLevel != "" {
		level = o.LogLevel
	}
	log := logger.New(level, cfg.Log.Pretty)

	telemetryCfg := cfg.Telemetry
	if o.Telemetry {
		telemetryCfg.Enabled = true
		telemetryCfg.Trace.Endpoint = observability.EndpointStdout
		telemetryCfg.Metrics.Endpoint = observability.EndpointStdout
	}
	if telemetryCfg.Service.Version == "" {
		telemetryCfg.Service.Version = cmd.Root().Version
	}
	telemetry, err := observability.NewProvider(&telemetryCfg,
		observability.WithWriter(cmd.ErrOrStderr()),
		observability.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	clientOpts := append([]httpclient.Option{
		httpclient.WithTracerProvider(telemetry.TracerProvider()),
		httpclient.WithMeterProvider(telemetry.MeterProvider()),
	}, o.ClientOptions...)
	client, err := httpclient.NewFromConfig(cfg, log, clientOpts...)
	if err != nil {
		_ = telemetry.Shutdown(context.Background())
		return nil, err
	}
	return &session{
		cfg:       cfg,
		log:       log,
		telemetry: telemetry,
		service:   contact.NewService(client, contact.WithLogger(log)),
	}, nil
}

// close flushes telemetry. Export failures are logged, never returned.
func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.telemetry.Shutdown(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to flush telemetry")
	}
}

// userFacingError prints the end-user message while keeping the cause for errors.Is/As.
type userFacingError struct {
	err error
}

func (e userFacingError) Error() string { return apierror.UserMessage(e.err) }
func (e userFacingError) Unwrap() error { return e.err }

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
