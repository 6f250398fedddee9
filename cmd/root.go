// Package cmd provides the command-line interface for the threshold engine.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kpialarm",
	Short: "Telecom KPI threshold rule evaluation engine",
	Long: `kpialarm evaluates threshold rules against KPI fact tables,
raises alarms on violations and clears them when metrics recover.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(clearCmd)
}
