package cmd

import (
	"fmt"
	"time"

	statusadapter "github.com/bnema/propman-cli/internal/adapters/render/status"
	"github.com/bnema/propman-cli/internal/domain"
	"github.com/spf13/cobra"
)

type statusJSON struct {
	Authenticated    bool                   `json:"authenticated"`
	AccessTokenValid bool                   `json:"accessTokenValid"`
	TokenExpiresAt   *time.Time             `json:"tokenExpiresAt,omitempty"`
	Online           bool                   `json:"online"`
	MaxRetries       int                    `json:"maxRetries"`
	Pending          []domain.PendingAction `json:"pending"`
}

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show session, connectivity and pending changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status := app.service.Status()

			if asJSON {
				out := statusJSON{
					Authenticated:    status.Authenticated,
					AccessTokenValid: status.AccessTokenValid,
					Online:           status.Online,
					MaxRetries:       status.MaxRetries,
					Pending:          status.Pending,
				}
				if !status.TokenExpiresAt.IsZero() {
					out.TokenExpiresAt = &status.TokenExpiresAt
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			rendered, err := app.statusRenderer(status, statusadapter.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")

	return cmd
}
