package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-wealth/renewal-cli/internal/audit"
	"github.com/meridian-wealth/renewal-cli/internal/llm"
	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// ScreenState is where the user currently is in the advisor app.
type ScreenState string

const (
	ScreenDashboard         ScreenState = "dashboard"
	ScreenProductComparison ScreenState = "product_comparison"
	ScreenElsewhere         ScreenState = "elsewhere"
)

// ParseScreenState maps a raw string to a known screen state, defaulting to
// elsewhere.
func ParseScreenState(raw string) ScreenState {
	switch ScreenState(raw) {
	case ScreenDashboard, ScreenProductComparison, ScreenElsewhere:
		return ScreenState(raw)
	}
	return ScreenElsewhere
}

// ConversationTurn is one prior exchange in a chat session.
type ConversationTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is one agent-three invocation.
type ChatRequest struct {
	Screen   ScreenState
	Message  string
	ClientID string

	// Location is a finer-grained position hint, e.g. "viewing_alert_123".
	Location string

	// Opportunities supplies the current run's opportunity context when the
	// user is on the comparison screen, so explainability answers describe
	// what was actually shown rather than invented products.
	Opportunities *model.RecommendationRun

	History []ConversationTurn
}

// ChatResponse is the assistant's reply with its screen context.
type ChatResponse struct {
	Reply  string      `json:"reply"`
	Screen ScreenState `json:"screenState"`
}

const chatSystemPrompt = `You are a helpful chatbot for an insurance and annuity advisory app. Use the word "opportunity" (or "opportunities"), not "recommendation(s)", when speaking to the user. At the start of each turn you are told where the user is: dashboard, product_comparison, or elsewhere; tailor your tone and focus to that view. When opportunity context is supplied, explain the opportunities and why each product fits using only the supplied explanation and match reasons; never invent products or reasons. Be concise and friendly; do not dump raw JSON.`

// Chatter is the agent-three role: screen-context chat over the generator.
type Chatter struct {
	generator llm.Generator
	recorder  *audit.Recorder
}

// NewChatter creates the agent-three role.
func NewChatter(generator llm.Generator, recorder *audit.Recorder) *Chatter {
	return &Chatter{generator: generator, recorder: recorder}
}

// Chat answers one turn and records one audit event regardless of outcome.
func (c *Chatter) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	runID := uuid.New().String()
	inputSummary := map[string]any{
		"screen_state":    string(req.Screen),
		"client_id_scope": req.ClientID,
	}

	reply, err := c.generator.Generate(ctx, llm.GenerateRequest{
		System:  chatSystemPrompt,
		Prompt:  buildChatPrompt(req),
		Context: opportunityContext(req.Opportunities),
	})

	outcome := audit.RunOutcome{
		RunID:         &runID,
		ClientIDScope: &req.ClientID,
		InputSummary:  inputSummary,
		Err:           err,
	}
	if err == nil {
		outcome.Explanation = &model.ExplanationRecord{Summary: "Chat reply generated"}
	}
	c.recorder.Record(ctx, model.AgentThree, outcome)

	if err != nil {
		return nil, err
	}
	return &ChatResponse{Reply: reply, Screen: req.Screen}, nil
}

// buildChatPrompt assembles the turn the model sees: screen context, any
// prior history, the location hint, and the user's message.
func buildChatPrompt(req ChatRequest) string {
	var b strings.Builder
	if len(req.History) > 0 {
		b.WriteString("Previous conversation:\n\n")
		for _, turn := range req.History {
			prefix := "User"
			if turn.Role == "assistant" {
				prefix = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n\n", prefix, turn.Content)
		}
		b.WriteString("(Current turn below.)\n\n")
	}
	fmt.Fprintf(&b, "Current screen: %s.\nClient: %s.\n", req.Screen, req.ClientID)
	if loc := strings.TrimSpace(req.Location); loc != "" {
		fmt.Fprintf(&b, "Location in experience: %s.\n", loc)
	}
	fmt.Fprintf(&b, "\nUser: %s", req.Message)
	return b.String()
}

// opportunityContext renders the current run for the model: summary, then
// each opportunity with its match reason.
func opportunityContext(run *model.RecommendationRun) string {
	if run == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Current opportunities context:\n")
	fmt.Fprintf(&b, "Summary: %s\n", run.Explanation.Summary)
	for i := range run.Opportunities {
		o := &run.Opportunities[i]
		fmt.Fprintf(&b, "- %s (%s), score %d: %s\n",
			o.Product.Name, o.Product.Carrier, o.Score, o.MatchReason)
	}
	return b.String()
}
