package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd(app *app) *cobra.Command {
	var (
		interval time.Duration
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Monitor connectivity and sync pending changes when the API comes back",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			if interval <= 0 {
				interval = app.cfg.ProbeInterval
			}

			updates, unsubscribe := app.monitor.Subscribe()
			if !app.monitor.Online() {
				app.notifier.Connectivity(false)
			}

			var wg sync.WaitGroup
			wg.Add(3)
			go func() {
				defer wg.Done()
				for online := range updates {
					app.notifier.Connectivity(online)
				}
			}()
			go func() {
				defer wg.Done()
				_ = app.monitor.Watch(ctx, app.probe, interval)
			}()
			go func() {
				defer wg.Done()
				_ = app.reconciler.Run(ctx)
			}()

			<-ctx.Done()
			unsubscribe()
			wg.Wait()
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Connectivity probe interval (default from connectivity.probe_interval)")
	cmd.Flags().DurationVar(&duration, "for", 0, "Stop after this long (0 watches until interrupted)")

	return cmd
}
