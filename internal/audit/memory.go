package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// MemoryStore implements EventStore in process memory. Used for tests and
// for CLI runs without a configured database; events do not survive the
// process.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]model.RunEvent
	order  []string
	runs   map[string]model.RecommendationRun
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		events: make(map[string]model.RunEvent),
		runs:   make(map[string]model.RecommendationRun),
	}
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Close() error                  { return nil }

func (s *MemoryStore) AppendEvent(_ context.Context, event model.RunEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[event.EventID]; exists {
		return nil
	}
	s.events[event.EventID] = event
	s.order = append(s.order, event.EventID)
	return nil
}

func (s *MemoryStore) ListEvents(_ context.Context, filter EventFilter) ([]model.RunEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []model.RunEvent
	for _, id := range s.order {
		e := s.events[id]
		if filter.AgentID != "" && e.AgentID != filter.AgentID {
			continue
		}
		if filter.From != nil && e.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Timestamp.After(*filter.To) {
			continue
		}
		if filter.Success != nil && e.Success != *filter.Success {
			continue
		}
		if filter.ClientIDScope != "" && (e.ClientIDScope == nil || *e.ClientIDScope != filter.ClientIDScope) {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if filter.Ascending {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		}
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemoryStore) GetEvent(_ context.Context, eventID string) (*model.RunEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, nil
	}
	if e.PayloadRef != nil {
		if run, ok := s.runs[*e.PayloadRef]; ok {
			e.Payload = &run
		}
	}
	return &e, nil
}

func (s *MemoryStore) SaveRecommendationRun(_ context.Context, run model.RecommendationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.RunID]; exists {
		return nil
	}
	s.runs[run.RunID] = run
	return nil
}

func (s *MemoryStore) GetRecommendationRun(_ context.Context, runID string) (*model.RecommendationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, nil
	}
	return &run, nil
}
