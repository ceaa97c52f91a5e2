package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/spf13/cobra"
)

type syncJSON struct {
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Exhausted []domain.PendingAction `json:"exhausted"`
	Remaining int                    `json:"remaining"`
}

func newSyncCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay changes made while offline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.queue.Len() == 0 {
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), syncJSON{Exhausted: []domain.PendingAction{}})
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), domain.SyncSummary{}.Message())
				return err
			}

			var summary domain.SyncSummary
			drain := func(ctx context.Context) error {
				var err error
				summary, err = app.reconciler.Drain(ctx)
				return err
			}

			var err error
			if asJSON {
				err = drain(cmd.Context())
			} else {
				err = runSyncSpinner(cmd.Context(), app.stderr, fmt.Sprintf("Syncing %d pending actions...", app.queue.Len()), drain)
			}
			if err != nil {
				return userFacing(err)
			}

			if asJSON {
				exhausted := summary.Exhausted
				if exhausted == nil {
					exhausted = []domain.PendingAction{}
				}
				return writeJSON(cmd.OutOrStdout(), syncJSON{
					Succeeded: summary.Succeeded,
					Failed:    summary.Failed,
					Exhausted: exhausted,
					Remaining: app.queue.Len(),
				})
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the sync summary as JSON")

	return cmd
}
