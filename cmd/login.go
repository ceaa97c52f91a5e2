package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var errPasswordAndStdin = errors.New("use either --password or --password-stdin")

func newLoginCmd(app *app) *cobra.Command {
	var (
		email         string
		password      string
		passwordStdin bool
		expired       bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if expired {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Your session has expired. Sign in again to continue.")
			}

			if passwordStdin {
				if password != "" {
					return errPasswordAndStdin
				}
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password from stdin: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			if err := app.service.Login(cmd.Context(), email, password); err != nil {
				return userFacing(err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", sanitizeForTerminal(email))
			if pending := app.queue.Len(); pending > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d changes are waiting to sync. Run `pm sync` to send them.\n", pending)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().BoolVar(&expired, "expired", false, "Explain that the previous session expired")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard changes waiting to sync",
		RunE: func(cmd *cobra.Command, _ []string) error {
			discarded := app.queue.Len()
			if err := app.service.Logout(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			if discarded > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Discarded %d pending actions.\n", discarded)
			}
			return nil
		},
	}
}

