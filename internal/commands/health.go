package commands

import (
	"time"

	"github.com/spf13/cobra"
)

func newHealthCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is up",
		Example: `  # Probe the configured backend
  skillgrid health

  # Probe a specific backend
  skillgrid health --url http://localhost:5000/api`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := global.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			health, err := s.service.Health(cmd.Context())
			if err != nil {
				return userFacingError{err}
			}
			printf(cmd.OutOrStdout(), "Backend status: %s (%s)\n", health.Status, health.Timestamp.Format(time.RFC3339))
			return nil
		},
	}
}
