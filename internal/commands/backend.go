package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/skillgrid/skillgrid-client/internal/fakebackend"
	"github.com/skillgrid/skillgrid-client/logger"
	"github.com/skillgrid/skillgrid-client/observability"
)

const shutdownTimeout = 5 * time.Second

// FakeBackendOptions holds options for the fake-backend command
type FakeBackendOptions struct {
	Addr     string
	FailNext int
	FailWith int
}

func newFakeBackendCommand(global *GlobalOptions) *cobra.Command {
	opts := &FakeBackendOptions{}

	cmd := &cobra.Command{
		Use:   "fake-backend",
		Short: "Run a local stand-in for the site backend",
		Long: `Serves GET /api/health and POST /api/contact with the real validation rules.
Accepted submissions are kept in memory. --fail-next makes the first requests fail,
which is handy for watching the client retry.`,
		Example: `  # Serve on the default address
  skillgrid fake-backend

  # First two requests answer 503
  skillgrid fake-backend --fail-next 2 --fail-status 503`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := global.LogLevel
			if level == "" {
				level = "debug"
			}
			log := logger.New(level, true)

			telemetry, err := observability.NewProvider(&observability.Config{
				Enabled: global.Telemetry,
				Service: observability.ServiceConfig{Name: fakebackend.ServiceName, Version: cmd.Root().Version},
			}, observability.WithWriter(cmd.ErrOrStderr()), observability.WithLogger(log))
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
				defer cancel()
				_ = telemetry.Shutdown(ctx)
			}()

			srv := fakebackend.New(
				fakebackend.WithLogger(log),
				fakebackend.WithTracerProvider(telemetry.TracerProvider()),
			)
			return runFakeBackend(cmd.Context(), srv, opts, log)
		},
	}

	cmd.Flags().StringVarP(&opts.Addr, "addr", "a", "127.0.0.1:5000", "Listen address")
	cmd.Flags().IntVar(&opts.FailNext, "fail-next", 0, "Number of leading requests to fail")
	cmd.Flags().IntVar(&opts.FailWith, "fail-status", 503, "Status code for failed requests")

	return cmd
}

// runFakeBackend serves until ctx is done or an interrupt arrives.
func runFakeBackend(ctx context.Context, srv *fakebackend.Server, opts *FakeBackendOptions, log logger.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.FailNext > 0 {
		srv.FailNext(opts.FailNext, opts.FailWith)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(opts.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("Shutting down fake backend")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
