package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillgrid/skillgrid-client/contact"
)

// ContactOptions holds the form fields for the contact command.
type ContactOptions struct {
	Form contact.Form
}

func newContactCommand(global *GlobalOptions) *cobra.Command {
	opts := &ContactOptions{}

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Submit the contact form",
		Long: `Submit a contact-form inquiry. The form is validated locally before it is sent.

Services: ` + strings.Join(contact.Services(), ", "),
		Example: `  skillgrid contact --name "Ada Lovelace" --email ada@example.com \
    --service Notes --message "I would like lecture notes for my course."`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := global.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			reply, err := s.service.Submit(cmd.Context(), opts.Form)
			if err != nil {
				var verr *contact.ValidationError
				if errors.As(err, &verr) {
					for _, fe := range verr.Errors {
						printf(cmd.ErrOrStderr(), "  %s: %s\n", fe.Field, fe.Message)
					}
				}
				return userFacingError{err}
			}
			printf(cmd.OutOrStdout(), "%s\n", reply.Message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Form.Name, "name", "n", "", "Your name")
	cmd.Flags().StringVarP(&opts.Form.Email, "email", "e", "", "Your email address")
	cmd.Flags().StringVarP(&opts.Form.Service, "service", "s", "", "Service of interest")
	cmd.Flags().StringVarP(&opts.Form.Message, "message", "m", "", "Your message")

	return cmd
}
