package cmd

import (
	"github.com/bnema/propman-cli/internal/application"
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app := &app{}
	opts := wireOptions{}

	rootCmd := &cobra.Command{
		Use:           "pm",
		Short:         "Property manager CLI (pm): rooms, residents, invoices and more, online or offline",
		Long:          "pm talks to the property management API with an automatically refreshed session. Changes made while the API is unreachable are queued on disk and replayed when the connection returns.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.stderr = cmd.ErrOrStderr()
			wired, err := wireApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			*app = *wired
			return nil
		},
		// Runs only after a successful command, so a rejected mutation never
		// reaches the saved cache.
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if app.client == nil {
				return nil
			}
			if err := app.client.SaveCache(cmd.Context()); err != nil {
				app.logger.Warn().Err(err).Msg("save query cache")
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default ~/.propman/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&opts.offline, "offline", false, "Skip the connectivity check and queue every change")

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newStatusCmd(app),
		newRequestCmd(app),
		newQueueCmd(app),
		newSyncCmd(app),
		newWatchCmd(app),
	)
	for _, resource := range application.ResourceMutations() {
		rootCmd.AddCommand(newResourceCmd(app, resource))
	}

	return rootCmd
}
