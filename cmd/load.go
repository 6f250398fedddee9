package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kpialarm/bootstrap"
	"kpialarm/ingest"
)

var loadCmd = &cobra.Command{
	Use:   "load <definitions-file>",
	Short: "Flatten threshold definitions and load them as rules",
	Long: `Reads a threshold definition document (JSON or YAML), flattens each
evaluation into one rule per enabled (mode, category) pair and inserts the
rules into the database.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap.NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.SetupSchema(); err != nil {
			return err
		}

		rules, err := ingest.LoadDefinitions(args[0], app.Logger)
		if err != nil {
			return err
		}

		inserted, err := app.Rules.InsertRules(rules)
		if err != nil {
			return err
		}

		fmt.Printf("Loaded %d rules from %s\n", inserted, args[0])
		return nil
	},
}
