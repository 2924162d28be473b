package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

func TestAggregator_EmptyWindow(t *testing.T) {
	agg := NewAggregator(NewMemory())
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	stats, err := agg.Stats(context.Background(), from, to)
	require.NoError(t, err)

	assert.Equal(t, from, stats.FromDate)
	assert.Equal(t, to, stats.ToDate)
	assert.Zero(t, stats.TotalRuns)
	assert.Zero(t, stats.SuccessRate)
	assert.Zero(t, stats.ExplainabilityCoveragePct)
}

func TestAggregator_Counts(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	summary := "2 opportunities"
	triggered := true
	fixtures := []model.RunEvent{
		{EventID: "e1", AgentID: model.AgentOne, Timestamp: base, Success: true},
		{EventID: "e2", AgentID: model.AgentTwo, Timestamp: base.Add(time.Minute), Success: true, ExplanationSummary: &summary},
		{EventID: "e3", AgentID: model.AgentTwo, Timestamp: base.Add(2 * time.Minute), Success: false},
		{EventID: "e4", AgentID: model.AgentThree, Timestamp: base.Add(3 * time.Minute), Success: true, GuardrailTriggered: &triggered},
		// Outside the window, must not count.
		{EventID: "e5", AgentID: model.AgentOne, Timestamp: base.AddDate(0, 2, 0), Success: true},
	}
	for _, e := range fixtures {
		require.NoError(t, store.AppendEvent(ctx, e))
	}

	stats, err := NewAggregator(store).Stats(ctx, base, base.AddDate(0, 1, 0))
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalRuns)
	assert.Equal(t, 3, stats.SuccessCount)
	assert.InDelta(t, 0.75, stats.SuccessRate, 1e-9)

	// Per-agent counts sum to the total.
	assert.Equal(t, 1, stats.AgentOneRuns)
	assert.Equal(t, 2, stats.AgentTwoRuns)
	assert.Equal(t, 1, stats.AgentThreeRuns)
	assert.Equal(t, stats.TotalRuns, stats.AgentOneRuns+stats.AgentTwoRuns+stats.AgentThreeRuns)

	assert.Equal(t, 1, stats.AgentTwoWithExplanation)
	assert.InDelta(t, 50.0, stats.ExplainabilityCoveragePct, 1e-9)
	assert.Equal(t, 1, stats.GuardrailTriggeredCount)
}

func TestAggregator_PagesThroughLargeWindows(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	total := statsPageSize + 25
	for i := 0; i < total; i++ {
		e := model.RunEvent{
			EventID:   fmt.Sprintf("ev-%d", i),
			AgentID:   model.AgentOne,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Success:   true,
		}
		require.NoError(t, store.AppendEvent(ctx, e))
	}

	stats, err := NewAggregator(store).Stats(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, total, stats.TotalRuns)
	assert.InDelta(t, 1.0, stats.SuccessRate, 1e-9)
}

// appendDuringScanStore appends a fresh in-window event after serving each
// page, simulating writers racing a stats scan.
type appendDuringScanStore struct {
	*MemoryStore
	pages int
	next  time.Time
}

func (s *appendDuringScanStore) ListEvents(ctx context.Context, filter EventFilter) ([]model.RunEvent, error) {
	page, err := s.MemoryStore.ListEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.pages++
	late := model.RunEvent{
		EventID:   fmt.Sprintf("late-%d", s.pages),
		AgentID:   model.AgentTwo,
		Timestamp: s.next,
		Success:   true,
	}
	s.next = s.next.Add(time.Millisecond)
	if err := s.MemoryStore.AppendEvent(ctx, late); err != nil {
		return nil, err
	}
	return page, nil
}

func TestAggregator_NoDoubleCountOnConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	total := statsPageSize + 10
	store := &appendDuringScanStore{MemoryStore: NewMemory(), next: base.Add(30 * time.Minute)}
	for i := 0; i < total; i++ {
		e := model.RunEvent{
			EventID:   fmt.Sprintf("ev-%d", i),
			AgentID:   model.AgentOne,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Success:   true,
		}
		require.NoError(t, store.MemoryStore.AppendEvent(ctx, e))
	}

	stats, err := NewAggregator(store).Stats(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)

	// Every pre-existing event counted exactly once; events appended
	// mid-scan land past the cursor instead of shifting earlier pages.
	assert.Equal(t, total, stats.AgentOneRuns)
	assert.Equal(t, stats.TotalRuns, stats.AgentOneRuns+stats.AgentTwoRuns+stats.AgentThreeRuns)
}
