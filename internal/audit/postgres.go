package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/meridian-wealth/renewal-cli/internal/db"
	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// PostgresStore implements EventStore using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, maxConns, minConns int32) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "audit: parse pool config")
	}

	if maxConns <= 0 {
		maxConns = 10
	}
	if minConns <= 0 {
		minConns = 2
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "audit: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "audit: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests and by callers
// that share one pool across stores.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS agent_run_events (
	event_id                TEXT PRIMARY KEY,
	ts                      TIMESTAMPTZ NOT NULL DEFAULT now(),
	agent_id                TEXT NOT NULL,
	run_id                  TEXT,
	client_id_scope         TEXT,
	input_summary           JSONB,
	success                 BOOLEAN NOT NULL,
	error_message           TEXT,
	explanation_summary     TEXT,
	data_sources_used       JSONB,
	choice_criteria         JSONB,
	input_validation_passed BOOLEAN,
	guardrail_triggered     BOOLEAN,
	payload_ref             TEXT
);

CREATE INDEX IF NOT EXISTS idx_agent_run_events_ts ON agent_run_events(ts);
CREATE INDEX IF NOT EXISTS idx_agent_run_events_agent_id ON agent_run_events(agent_id);
CREATE INDEX IF NOT EXISTS idx_agent_run_events_client_scope ON agent_run_events(client_id_scope);

CREATE TABLE IF NOT EXISTS recommendation_runs (
	run_id     TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	client_id  TEXT NOT NULL,
	payload    JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recommendation_runs_client_id ON recommendation_runs(client_id);
`

// Migrate applies the audit schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "audit: migrate")
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Ping verifies store connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "audit: ping")
}

// AppendEvent inserts one immutable event row. A duplicate event_id is a
// no-op so idempotent retries never corrupt history.
func (s *PostgresStore) AppendEvent(ctx context.Context, event model.RunEvent) error {
	inputJSON, err := marshalNullable(event.InputSummary)
	if err != nil {
		return eris.Wrap(err, "audit: marshal input summary")
	}
	sourcesJSON, err := marshalNullable(event.DataSourcesUsed)
	if err != nil {
		return eris.Wrap(err, "audit: marshal data sources")
	}
	criteriaJSON, err := marshalNullable(event.ChoiceCriteria)
	if err != nil {
		return eris.Wrap(err, "audit: marshal choice criteria")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO agent_run_events
		 (event_id, ts, agent_id, run_id, client_id_scope, input_summary, success,
		  error_message, explanation_summary, data_sources_used, choice_criteria,
		  input_validation_passed, guardrail_triggered, payload_ref)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (event_id) DO NOTHING`,
		event.EventID, event.Timestamp, string(event.AgentID), event.RunID,
		event.ClientIDScope, inputJSON, event.Success, event.ErrorMessage,
		event.ExplanationSummary, sourcesJSON, criteriaJSON,
		event.InputValidationPassed, event.GuardrailTriggered, event.PayloadRef,
	)
	return eris.Wrap(err, "audit: append event")
}

const eventColumns = `event_id, ts, agent_id, run_id, client_id_scope, input_summary,
	success, error_message, explanation_summary, data_sources_used,
	choice_criteria, input_validation_passed, guardrail_triggered, payload_ref`

func (s *PostgresStore) ListEvents(ctx context.Context, filter EventFilter) ([]model.RunEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM agent_run_events WHERE true`
	args := []any{}
	argIdx := 1

	if filter.AgentID != "" {
		query += fmt.Sprintf(` AND agent_id = $%d`, argIdx)
		args = append(args, string(filter.AgentID))
		argIdx++
	}
	if filter.From != nil {
		query += fmt.Sprintf(` AND ts >= $%d`, argIdx)
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		query += fmt.Sprintf(` AND ts <= $%d`, argIdx)
		args = append(args, *filter.To)
		argIdx++
	}
	if filter.Success != nil {
		query += fmt.Sprintf(` AND success = $%d`, argIdx)
		args = append(args, *filter.Success)
		argIdx++
	}
	if filter.ClientIDScope != "" {
		query += fmt.Sprintf(` AND client_id_scope = $%d`, argIdx)
		args = append(args, filter.ClientIDScope)
		argIdx++
	}
	if filter.Ascending {
		query += ` ORDER BY ts ASC`
	} else {
		query += ` ORDER BY ts DESC`
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "audit: list events")
	}
	defer rows.Close()

	var events []model.RunEvent
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, eris.Wrap(rows.Err(), "audit: list events iterate")
}

// GetEvent fetches one event, populating Payload with the referenced
// RecommendationRun when payload_ref is set.
func (s *PostgresStore) GetEvent(ctx context.Context, eventID string) (*model.RunEvent, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM agent_run_events WHERE event_id = $1`,
		eventID,
	)
	e, err := scanEvent(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "audit: get event %s", eventID)
	}

	if e.PayloadRef != nil {
		run, err := s.GetRecommendationRun(ctx, *e.PayloadRef)
		if err != nil {
			return nil, err
		}
		e.Payload = run
	}
	return e, nil
}

// SaveRecommendationRun persists one immutable run payload. A duplicate
// run_id is a no-op.
func (s *PostgresStore) SaveRecommendationRun(ctx context.Context, run model.RecommendationRun) error {
	payloadJSON, err := json.Marshal(run)
	if err != nil {
		return eris.Wrap(err, "audit: marshal recommendation run")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO recommendation_runs (run_id, created_at, client_id, payload)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id) DO NOTHING`,
		run.RunID, run.CreatedAt, run.ClientID, payloadJSON,
	)
	return eris.Wrap(err, "audit: save recommendation run")
}

func (s *PostgresStore) GetRecommendationRun(ctx context.Context, runID string) (*model.RecommendationRun, error) {
	var payloadJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM recommendation_runs WHERE run_id = $1`,
		runID,
	).Scan(&payloadJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "audit: get recommendation run %s", runID)
	}

	var run model.RecommendationRun
	if err := json.Unmarshal(payloadJSON, &run); err != nil {
		return nil, eris.Wrap(err, "audit: unmarshal recommendation run")
	}
	return &run, nil
}

// scanEvent reads one event row through the given scan function, shared
// between QueryRow and Query iteration.
func scanEvent(scan func(dest ...any) error) (*model.RunEvent, error) {
	var e model.RunEvent
	var agentID string
	var inputJSON, sourcesJSON, criteriaJSON []byte

	err := scan(
		&e.EventID, &e.Timestamp, &agentID, &e.RunID, &e.ClientIDScope,
		&inputJSON, &e.Success, &e.ErrorMessage, &e.ExplanationSummary,
		&sourcesJSON, &criteriaJSON, &e.InputValidationPassed,
		&e.GuardrailTriggered, &e.PayloadRef,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "audit: scan event")
	}
	e.AgentID = model.AgentID(agentID)

	if len(inputJSON) > 0 {
		if err := json.Unmarshal(inputJSON, &e.InputSummary); err != nil {
			return nil, eris.Wrap(err, "audit: unmarshal input summary")
		}
	}
	if len(sourcesJSON) > 0 {
		if err := json.Unmarshal(sourcesJSON, &e.DataSourcesUsed); err != nil {
			return nil, eris.Wrap(err, "audit: unmarshal data sources")
		}
	}
	if len(criteriaJSON) > 0 {
		if err := json.Unmarshal(criteriaJSON, &e.ChoiceCriteria); err != nil {
			return nil, eris.Wrap(err, "audit: unmarshal choice criteria")
		}
	}
	return &e, nil
}

// marshalNullable serializes v, mapping empty collections to SQL NULL so the
// stored row distinguishes "not recorded" from "recorded empty".
func marshalNullable(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 0 {
			return nil, nil
		}
	case []string:
		if len(val) == 0 {
			return nil, nil
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
