package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/meridian-wealth/renewal-cli/internal/audit"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate run statistics over a time window",
	Long:  "Computes total runs, success rate, per-agent counts, explainability coverage, and guardrail triggers from the audit trail.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		from, to, err := statsWindowFromFlags(cmd)
		if err != nil {
			return err
		}

		e, err := newEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		stats, err := audit.NewAggregator(e.store).Stats(ctx, from, to)
		if err != nil {
			return eris.Wrap(err, "stats")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func statsWindowFromFlags(cmd *cobra.Command) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw, _ := cmd.Flags().GetString("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, eris.Wrap(err, "parse --from")
		}
		from = t
	}
	if raw, _ := cmd.Flags().GetString("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, eris.Wrap(err, "parse --to")
		}
		to = t
	}
	return from, to, nil
}

func init() {
	statsCmd.Flags().String("from", "", "window start, RFC3339 (default 30 days ago)")
	statsCmd.Flags().String("to", "", "window end, RFC3339 (default now)")
	rootCmd.AddCommand(statsCmd)
}
