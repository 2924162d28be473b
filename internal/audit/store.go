// Package audit persists the append-only agent invocation history and the
// recommendation run payloads, and computes compliance rollups over them.
package audit

import (
	"context"
	"time"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// EventFilter specifies criteria for listing run events.
type EventFilter struct {
	AgentID       model.AgentID `json:"agent_id,omitempty"`
	From          *time.Time    `json:"from_date,omitempty"`
	To            *time.Time    `json:"to_date,omitempty"`
	Success       *bool         `json:"success,omitempty"`
	ClientIDScope string        `json:"client_id_scope,omitempty"`
	Limit         int           `json:"limit,omitempty"`
	Offset        int           `json:"offset,omitempty"`

	// Ascending orders by ts oldest-first instead of the default newest-first.
	// Offset paging over a fixed window is only stable in this order: rows
	// appended mid-scan land after the cursor instead of shifting it.
	Ascending bool `json:"-"`
}

// EventStore defines the persistence interface for the audit trail. Events
// and recommendation runs are append-only: event_id and run_id are unique at
// the storage layer, and a duplicate insert leaves exactly one record.
type EventStore interface {
	// Events
	AppendEvent(ctx context.Context, event model.RunEvent) error
	ListEvents(ctx context.Context, filter EventFilter) ([]model.RunEvent, error)
	GetEvent(ctx context.Context, eventID string) (*model.RunEvent, error)

	// Recommendation runs
	SaveRecommendationRun(ctx context.Context, run model.RecommendationRun) error
	GetRecommendationRun(ctx context.Context, runID string) (*model.RecommendationRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
