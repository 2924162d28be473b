package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/meridian-wealth/renewal-cli/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a recommendation run to an XLSX report",
	Long:  "Writes the run's ranked opportunities and its explanation summary to a spreadsheet for advisor review.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		out, _ := cmd.Flags().GetString("out")

		e, err := newEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		run, err := e.store.GetRecommendationRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "load run")
		}
		if run == nil {
			return eris.Errorf("run %s not found", args[0])
		}

		if err := export.WriteOpportunityReport(run, out); err != nil {
			return eris.Wrap(err, "export")
		}

		fmt.Printf("Wrote %d opportunities to %s\n", len(run.Opportunities), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "opportunities.xlsx", "output file path")
	rootCmd.AddCommand(exportCmd)
}
