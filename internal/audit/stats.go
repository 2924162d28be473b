package audit

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// statsPageSize bounds each event page fetched while aggregating.
const statsPageSize = 500

// Aggregator computes compliance rollups over the append-only event store.
// Pure read path; never writes.
type Aggregator struct {
	store EventStore
}

// NewAggregator creates an Aggregator over the given store.
func NewAggregator(store EventStore) *Aggregator {
	return &Aggregator{store: store}
}

// Stats aggregates all events in the inclusive [from, to] window. An empty
// window yields zero counts and zero rates, never a division error.
func (a *Aggregator) Stats(ctx context.Context, from, to time.Time) (*model.RunStats, error) {
	stats := &model.RunStats{
		FromDate: from,
		ToDate:   to,
	}

	// Oldest-first paging keeps offsets stable when events are appended to
	// the window while the scan is in flight.
	offset := 0
	for {
		page, err := a.store.ListEvents(ctx, EventFilter{
			From:      &from,
			To:        &to,
			Limit:     statsPageSize,
			Offset:    offset,
			Ascending: true,
		})
		if err != nil {
			return nil, eris.Wrap(err, "audit: stats list events")
		}
		for i := range page {
			accumulate(stats, &page[i])
		}
		if len(page) < statsPageSize {
			break
		}
		offset += statsPageSize
	}

	if stats.TotalRuns > 0 {
		stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.TotalRuns)
	}
	if stats.AgentTwoRuns > 0 {
		stats.ExplainabilityCoveragePct = float64(stats.AgentTwoWithExplanation) / float64(stats.AgentTwoRuns) * 100
	}
	return stats, nil
}

func accumulate(stats *model.RunStats, e *model.RunEvent) {
	stats.TotalRuns++
	if e.Success {
		stats.SuccessCount++
	}
	switch e.AgentID {
	case model.AgentOne:
		stats.AgentOneRuns++
	case model.AgentTwo:
		stats.AgentTwoRuns++
		if e.ExplanationSummary != nil && *e.ExplanationSummary != "" {
			stats.AgentTwoWithExplanation++
		}
	case model.AgentThree:
		stats.AgentThreeRuns++
	}
	if e.GuardrailTriggered != nil && *e.GuardrailTriggered {
		stats.GuardrailTriggeredCount++
	}
}
