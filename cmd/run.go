package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kpialarm/bootstrap"
	"kpialarm/detect"
)

var runInterval time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute all active threshold rules",
	Long: `Compiles and executes the detection query for every active rule,
verifies occurrence counts and raises alarms. Runs once and exits unless an
interval is configured, in which case it loops until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap.NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.SetupSchema(); err != nil {
			return err
		}

		interval := runInterval
		if interval == 0 {
			interval = app.Config.CheckInterval()
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		driver := detect.NewDriver(app.Processor, interval, app.Logger)
		return driver.Run(ctx)
	},
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", 0,
		"run continuously at this interval (overrides CHECK_INTERVAL_SECONDS)")
}
