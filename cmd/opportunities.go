package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-wealth/renewal-cli/internal/agent"
	"github.com/meridian-wealth/renewal-cli/internal/llm"
)

var opportunitiesCmd = &cobra.Command{
	Use:   "opportunities",
	Short: "Generate replacement opportunities for a client",
	Long:  "Merges advisor-supplied changes into the stored profile, matches the sellable catalog, and emits the ranked opportunities with best-interest documentation. Every run is audited.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		clientID, _ := cmd.Flags().GetString("client-id")
		alertID, _ := cmd.Flags().GetString("alert-id")
		changesPath, _ := cmd.Flags().GetString("changes")
		toolOnly, _ := cmd.Flags().GetBool("tool-only")

		if clientID == "" {
			return eris.New("--client-id is required")
		}

		var changes []byte
		if changesPath != "" {
			raw, err := os.ReadFile(changesPath)
			if err != nil {
				return eris.Wrapf(err, "read changes file %s", changesPath)
			}
			changes = raw
		}

		e, err := newEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		result, err := e.recommender().Recommend(ctx, agent.RecommendRequest{
			ClientID: clientID,
			AlertID:  alertID,
			Changes:  changes,
		})
		if err != nil {
			return eris.Wrap(err, "opportunities")
		}

		out := struct {
			Run       any `json:"run"`
			Narrative any `json:"bestInterestNarrative"`
		}{Run: result.Run, Narrative: result.Narrative}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return eris.Wrap(err, "encode result")
		}

		if toolOnly {
			return nil
		}

		// Narrated mode: summarize the deterministic output for the advisor.
		narration, err := narrateOpportunities(ctx, result)
		if err != nil {
			zap.L().Warn("narration failed, deterministic output stands", zap.Error(err))
			return nil
		}
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, narration)
		return nil
	},
}

const opportunitiesSystemPrompt = `You are an annuity renewal assistant summarizing replacement opportunities for a financial advisor.
Present each product as an opportunity, never a recommendation. Mention only products in the provided context; never invent products, rates, or features. Be concise.`

func narrateOpportunities(ctx context.Context, result *agent.RecommendResult) (string, error) {
	if cfg.Anthropic.Key == "" {
		return "", eris.New("anthropic key not configured")
	}

	contextJSON, err := json.Marshal(result.Run)
	if err != nil {
		return "", eris.Wrap(err, "marshal run")
	}

	gen := llm.NewAnthropic(cfg.Anthropic)
	return gen.Generate(ctx, llm.GenerateRequest{
		System:  opportunitiesSystemPrompt,
		Prompt:  "Summarize these opportunities for the advisor.",
		Context: string(contextJSON),
	})
}

func init() {
	opportunitiesCmd.Flags().String("client-id", "", "client identifier (required)")
	opportunitiesCmd.Flags().String("alert-id", "", "originating renewal alert identifier")
	opportunitiesCmd.Flags().String("changes", "", "path to a JSON file of advisor-supplied profile changes")
	opportunitiesCmd.Flags().Bool("tool-only", false, "emit only the deterministic pipeline output, no LLM narration")
	rootCmd.AddCommand(opportunitiesCmd)
}
