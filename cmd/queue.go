package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newQueueCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect changes waiting to sync",
	}

	cmd.AddCommand(
		newQueueListCmd(app),
		newQueueClearCmd(app),
	)

	return cmd
}

func newQueueListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending actions, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			actions := app.queue.List()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), actions)
			}

			if len(actions) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No pending actions.")
				return nil
			}

			for _, action := range actions {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s %s\tattempts %d/%d\t%s\n",
					action.ID,
					action.Type,
					action.Method,
					sanitizeForTerminal(action.Endpoint),
					action.RetryCount,
					app.cfg.MaxRetries,
					action.EnqueuedAt().Format(time.RFC3339),
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print pending actions as JSON")

	return cmd
}

func newQueueClearCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard every pending action",
		RunE: func(cmd *cobra.Command, _ []string) error {
			discarded := app.queue.Len()
			if err := app.queue.Clear(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Discarded %d pending actions.\n", discarded)
			return err
		},
	}
}
