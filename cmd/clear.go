package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kpialarm/bootstrap"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear recovered alarms",
	Long: `Walks every ACTIVE alarm and moves it to CLEARED when its resource
has a newer sample strictly inside the limits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap.NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		summary, err := app.Clear.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Processed %d alarms: %d cleared, %d failed\n",
			summary.Processed, summary.Cleared, summary.Failed)
		return nil
	},
}
