package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/meridian-wealth/renewal-cli/internal/audit"
	"github.com/meridian-wealth/renewal-cli/internal/model"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the responsible-AI audit trail",
	Long:  "Commands for listing and viewing agent run events.",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agent run events",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := newEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		filter, err := eventsFilterFromFlags(cmd)
		if err != nil {
			return err
		}

		events, err := e.store.ListEvents(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "events list")
		}
		if len(events) == 0 {
			fmt.Fprintln(os.Stderr, "No events found.")
			return nil
		}

		formatEventsList(os.Stdout, events)
		return nil
	},
}

var eventsShowCmd = &cobra.Command{
	Use:   "show <event-id>",
	Short: "Show one event with its recommendation payload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := newEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		event, err := e.store.GetEvent(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "events show")
		}
		if event == nil {
			return eris.Errorf("event %s not found", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(event)
	},
}

func eventsFilterFromFlags(cmd *cobra.Command) (audit.EventFilter, error) {
	var filter audit.EventFilter

	agentID, _ := cmd.Flags().GetString("agent-id")
	if agentID != "" {
		id := model.AgentID(agentID)
		if !id.Valid() {
			return filter, eris.Errorf("unknown agent id %q", agentID)
		}
		filter.AgentID = id
	}
	if raw, _ := cmd.Flags().GetString("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, eris.Wrap(err, "parse --from")
		}
		filter.From = &t
	}
	if raw, _ := cmd.Flags().GetString("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, eris.Wrap(err, "parse --to")
		}
		filter.To = &t
	}
	if cmd.Flags().Changed("success") {
		ok, _ := cmd.Flags().GetBool("success")
		filter.Success = &ok
	}
	filter.ClientIDScope, _ = cmd.Flags().GetString("client-id")
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	filter.Offset, _ = cmd.Flags().GetInt("offset")

	return filter, nil
}

func formatEventsList(w *os.File, events []model.RunEvent) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENT\tTIME\tAGENT\tOK\tCLIENT\tSUMMARY")
	for _, ev := range events {
		summary := deref(ev.ExplanationSummary)
		if !ev.Success {
			summary = deref(ev.ErrorMessage)
		}
		if len(summary) > 60 {
			summary = summary[:57] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\n",
			ev.EventID,
			ev.Timestamp.Format(time.RFC3339),
			ev.AgentID,
			ev.Success,
			deref(ev.ClientIDScope),
			summary,
		)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	eventsListCmd.Flags().String("agent-id", "", "filter by agent (agent_one, agent_two, agent_three)")
	eventsListCmd.Flags().String("from", "", "events at or after this RFC3339 timestamp")
	eventsListCmd.Flags().String("to", "", "events before this RFC3339 timestamp")
	eventsListCmd.Flags().Bool("success", false, "filter by outcome")
	eventsListCmd.Flags().String("client-id", "", "filter by client scope")
	eventsListCmd.Flags().Int("limit", 50, "max number of events to display")
	eventsListCmd.Flags().Int("offset", 0, "number of events to skip")

	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsShowCmd)
	rootCmd.AddCommand(eventsCmd)
}
