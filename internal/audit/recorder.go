package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// RunOutcome describes how one agent invocation ended. Exactly one of the
// success and error paths applies: Err nil means the invocation succeeded.
type RunOutcome struct {
	RunID         *string
	ClientIDScope *string
	InputSummary  map[string]any

	// Explanation is set when the invocation produced an explanation
	// record (agent-two success path).
	Explanation *model.ExplanationRecord

	// PayloadRef names the persisted RecommendationRun, agent-two only.
	PayloadRef *string

	Err error

	// ValidationFailed marks a rejected changes payload. Implies Err.
	ValidationFailed bool

	// GuardrailTriggered flags an upstream safety check firing. Orthogonal
	// to success.
	GuardrailTriggered bool
}

// Recorder appends one immutable RunEvent per agent invocation.
// Persistence is best-effort: a store failure is logged and reported via the
// ok return, never raised into the caller's response path.
type Recorder struct {
	store EventStore
}

// NewRecorder creates a Recorder over the given store.
func NewRecorder(store EventStore) *Recorder {
	return &Recorder{store: store}
}

// Record builds and appends the audit event for one invocation. The built
// event is always returned; ok is false only when persistence failed.
func (r *Recorder) Record(ctx context.Context, agentID model.AgentID, outcome RunOutcome) (*model.RunEvent, bool) {
	event := buildEvent(agentID, outcome)

	if err := r.store.AppendEvent(ctx, event); err != nil {
		zap.L().Error("audit: event append failed, continuing without audit record",
			zap.String("event_id", event.EventID),
			zap.String("agent_id", string(agentID)),
			zap.Error(err),
		)
		return &event, false
	}
	return &event, true
}

func buildEvent(agentID model.AgentID, outcome RunOutcome) model.RunEvent {
	event := model.RunEvent{
		EventID:       uuid.New().String(),
		Timestamp:     time.Now().UTC(),
		AgentID:       agentID,
		RunID:         outcome.RunID,
		ClientIDScope: outcome.ClientIDScope,
		InputSummary:  outcome.InputSummary,
		Success:       outcome.Err == nil,
		PayloadRef:    outcome.PayloadRef,
	}

	if outcome.Err != nil {
		msg := outcome.Err.Error()
		event.ErrorMessage = &msg
	} else if outcome.Explanation != nil {
		summary := outcome.Explanation.Summary
		event.ExplanationSummary = &summary
		event.DataSourcesUsed = outcome.Explanation.DataSourcesUsed
		event.ChoiceCriteria = outcome.Explanation.ChoiceCriteria
	}

	if outcome.ValidationFailed {
		failed := false
		event.InputValidationPassed = &failed
	} else if outcome.Err == nil {
		passed := true
		event.InputValidationPassed = &passed
	}

	if outcome.GuardrailTriggered {
		triggered := true
		event.GuardrailTriggered = &triggered
	}

	return event
}
