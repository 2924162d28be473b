package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// newMockStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_AppendEvent(t *testing.T) {
	s, mock := newMockStore(t)
	ts := time.Now().UTC()

	event := model.RunEvent{
		EventID:      "ev-1",
		Timestamp:    ts,
		AgentID:      model.AgentTwo,
		Success:      true,
		InputSummary: map[string]any{"sections_present": []string{"suitability"}},
	}

	inputJSON, err := json.Marshal(event.InputSummary)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO agent_run_events`).
		WithArgs("ev-1", ts, "agent_two", (*string)(nil), (*string)(nil),
			inputJSON, true, (*string)(nil), (*string)(nil), nil, nil,
			(*bool)(nil), (*bool)(nil), (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.AppendEvent(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendEvent_DuplicateIsNoop(t *testing.T) {
	s, mock := newMockStore(t)
	ts := time.Now().UTC()

	// ON CONFLICT DO NOTHING reports zero rows affected; still no error.
	mock.ExpectExec(`INSERT INTO agent_run_events`).
		WithArgs("ev-1", ts, "agent_one", (*string)(nil), (*string)(nil),
			nil, true, (*string)(nil), (*string)(nil), nil, nil,
			(*bool)(nil), (*bool)(nil), (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	event := model.RunEvent{EventID: "ev-1", Timestamp: ts, AgentID: model.AgentOne, Success: true}
	require.NoError(t, s.AppendEvent(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEvents_Filters(t *testing.T) {
	s, mock := newMockStore(t)
	ts := time.Now().UTC()
	ok := true

	rows := pgxmock.NewRows([]string{
		"event_id", "ts", "agent_id", "run_id", "client_id_scope", "input_summary",
		"success", "error_message", "explanation_summary", "data_sources_used",
		"choice_criteria", "input_validation_passed", "guardrail_triggered", "payload_ref",
	}).AddRow(
		"ev-1", ts, "agent_two", (*string)(nil), (*string)(nil), []byte(nil),
		true, (*string)(nil), (*string)(nil), []byte(`["db_products"]`),
		[]byte(`["risk tolerance"]`), (*bool)(nil), (*bool)(nil), (*string)(nil),
	)

	mock.ExpectQuery(`(?s)SELECT .+ FROM agent_run_events WHERE true AND agent_id = \$1 AND success = \$2 ORDER BY ts DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("agent_two", true, 10, 5).
		WillReturnRows(rows)

	events, err := s.ListEvents(context.Background(), EventFilter{
		AgentID: model.AgentTwo,
		Success: &ok,
		Limit:   10,
		Offset:  5,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev-1", events[0].EventID)
	assert.Equal(t, []string{"db_products"}, events[0].DataSourcesUsed)
	assert.Equal(t, []string{"risk tolerance"}, events[0].ChoiceCriteria)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEvents_Ascending(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`(?s)SELECT .+ FROM agent_run_events WHERE true ORDER BY ts ASC LIMIT \$1`).
		WithArgs(100).
		WillReturnRows(pgxmock.NewRows([]string{
			"event_id", "ts", "agent_id", "run_id", "client_id_scope", "input_summary",
			"success", "error_message", "explanation_summary", "data_sources_used",
			"choice_criteria", "input_validation_passed", "guardrail_triggered", "payload_ref",
		}))

	_, err := s.ListEvents(context.Background(), EventFilter{Ascending: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetEvent_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`(?s)SELECT .+ FROM agent_run_events WHERE event_id = \$1`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"event_id"}))

	event, err := s.GetEvent(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, event)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetEvent_PopulatesPayload(t *testing.T) {
	s, mock := newMockStore(t)
	ts := time.Now().UTC()
	payloadRef := "run-1"

	eventRows := pgxmock.NewRows([]string{
		"event_id", "ts", "agent_id", "run_id", "client_id_scope", "input_summary",
		"success", "error_message", "explanation_summary", "data_sources_used",
		"choice_criteria", "input_validation_passed", "guardrail_triggered", "payload_ref",
	}).AddRow(
		"ev-1", ts, "agent_two", &payloadRef, (*string)(nil), []byte(nil),
		true, (*string)(nil), (*string)(nil), []byte(nil), []byte(nil),
		(*bool)(nil), (*bool)(nil), &payloadRef,
	)
	mock.ExpectQuery(`(?s)SELECT .+ FROM agent_run_events WHERE event_id = \$1`).
		WithArgs("ev-1").
		WillReturnRows(eventRows)

	runPayload := `{"run_id":"run-1","client_id":"C-1"}`
	mock.ExpectQuery(`SELECT payload FROM recommendation_runs WHERE run_id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow([]byte(runPayload)))

	event, err := s.GetEvent(context.Background(), "ev-1")
	require.NoError(t, err)
	require.NotNil(t, event)
	require.NotNil(t, event.Payload)
	assert.Equal(t, "C-1", event.Payload.ClientID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRecommendationRun(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Now().UTC()

	run := model.RecommendationRun{RunID: "run-1", CreatedAt: created, ClientID: "C-1"}
	payloadJSON, err := json.Marshal(run)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO recommendation_runs`).
		WithArgs("run-1", created, "C-1", payloadJSON).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveRecommendationRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecommendationRun_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT payload FROM recommendation_runs WHERE run_id = \$1`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}))

	run, err := s.GetRecommendationRun(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, run)
	assert.NoError(t, mock.ExpectationsWereMet())
}
