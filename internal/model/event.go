package model

import "time"

// Internal data source names recorded in explanation records and audit
// events. Advisor-facing text renders human labels for these, never the raw
// names.
const (
	SourceClients           = "db_clients"
	SourceSuitability       = "db_suitability"
	SourceProductsDB        = "db_products"
	SourceProductsAdminFeed = "policy_admin_products"
	SourceFrontEndChanges   = "frontend_changes"
)

// ExplanationRecord is the structured audit explanation for one
// recommendation run. Every entry in DataSourcesUsed and ChoiceCriteria
// names a source or criterion actually consulted during that run.
type ExplanationRecord struct {
	Summary               string   `json:"summary"`
	DataSourcesUsed       []string `json:"data_sources_used"`
	ChoiceCriteria        []string `json:"choice_criteria"`
	InputSectionsReceived []string `json:"input_sections_received,omitempty"`
}

// RecommendationRun is the full storable payload of one recommendation
// invocation. Written once, immutable thereafter.
type RecommendationRun struct {
	RunID           string             `json:"run_id"`
	CreatedAt       time.Time          `json:"created_at"`
	ClientID        string             `json:"client_id"`
	InputSummary    map[string]any     `json:"input_summary,omitempty"`
	Explanation     ExplanationRecord  `json:"explanation"`
	Opportunities   []Opportunity      `json:"opportunities"`
	ReasonsToSwitch *ReasonsToSwitch   `json:"reasons_to_switch,omitempty"`
	MergedProfile   *MergedProfile     `json:"merged_profile,omitempty"`
	Selection       *CustomerSelection `json:"customer_selection,omitempty"`
}

// RunEvent is one immutable audit record per agent invocation. Append-only;
// never updated or deleted. All explanation, validation, and guardrail
// fields are nullable.
type RunEvent struct {
	EventID               string         `json:"event_id"`
	Timestamp             time.Time      `json:"timestamp"`
	AgentID               AgentID        `json:"agent_id"`
	RunID                 *string        `json:"run_id,omitempty"`
	ClientIDScope         *string        `json:"client_id_scope,omitempty"`
	InputSummary          map[string]any `json:"input_summary,omitempty"`
	Success               bool           `json:"success"`
	ErrorMessage          *string        `json:"error_message,omitempty"`
	ExplanationSummary    *string        `json:"explanation_summary,omitempty"`
	DataSourcesUsed       []string       `json:"data_sources_used,omitempty"`
	ChoiceCriteria        []string       `json:"choice_criteria,omitempty"`
	InputValidationPassed *bool          `json:"input_validation_passed,omitempty"`
	GuardrailTriggered    *bool          `json:"guardrail_triggered,omitempty"`
	PayloadRef            *string        `json:"payload_ref,omitempty"`

	// Payload carries the referenced RecommendationRun on read paths that
	// request drill-down. Never persisted on the event row itself.
	Payload *RecommendationRun `json:"payload,omitempty"`
}

// RunStats is the compliance rollup for a [from, to] window.
type RunStats struct {
	FromDate                  time.Time `json:"from_date"`
	ToDate                    time.Time `json:"to_date"`
	TotalRuns                 int       `json:"total_runs"`
	SuccessCount              int       `json:"success_count"`
	SuccessRate               float64   `json:"success_rate"`
	AgentOneRuns              int       `json:"agent_one_runs"`
	AgentTwoRuns              int       `json:"agent_two_runs"`
	AgentThreeRuns            int       `json:"agent_three_runs"`
	AgentTwoWithExplanation   int       `json:"agent_two_with_explanation"`
	ExplainabilityCoveragePct float64   `json:"explainability_coverage_pct"`
	GuardrailTriggeredCount   int       `json:"guardrail_triggered_count"`
}
