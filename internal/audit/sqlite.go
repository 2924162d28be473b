package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// SQLiteStore implements EventStore using modernc.org/sqlite, for local
// single-machine deployments and CLI use without Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "audit: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "audit: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS agent_run_events (
	event_id                TEXT PRIMARY KEY,
	ts                      DATETIME NOT NULL DEFAULT (datetime('now')),
	agent_id                TEXT NOT NULL,
	run_id                  TEXT,
	client_id_scope         TEXT,
	input_summary           TEXT,
	success                 INTEGER NOT NULL,
	error_message           TEXT,
	explanation_summary     TEXT,
	data_sources_used       TEXT,
	choice_criteria         TEXT,
	input_validation_passed INTEGER,
	guardrail_triggered     INTEGER,
	payload_ref             TEXT
);

CREATE INDEX IF NOT EXISTS idx_agent_run_events_ts ON agent_run_events(ts);
CREATE INDEX IF NOT EXISTS idx_agent_run_events_agent_id ON agent_run_events(agent_id);

CREATE TABLE IF NOT EXISTS recommendation_runs (
	run_id     TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	client_id  TEXT NOT NULL,
	payload    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recommendation_runs_client_id ON recommendation_runs(client_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "audit: migrate sqlite")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, event model.RunEvent) error {
	inputJSON, err := marshalNullableText(event.InputSummary)
	if err != nil {
		return eris.Wrap(err, "audit: marshal input summary")
	}
	sourcesJSON, err := marshalNullableText(event.DataSourcesUsed)
	if err != nil {
		return eris.Wrap(err, "audit: marshal data sources")
	}
	criteriaJSON, err := marshalNullableText(event.ChoiceCriteria)
	if err != nil {
		return eris.Wrap(err, "audit: marshal choice criteria")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO agent_run_events
		 (event_id, ts, agent_id, run_id, client_id_scope, input_summary, success,
		  error_message, explanation_summary, data_sources_used, choice_criteria,
		  input_validation_passed, guardrail_triggered, payload_ref)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.EventID, event.Timestamp.UTC(), string(event.AgentID), event.RunID,
		event.ClientIDScope, inputJSON, event.Success, event.ErrorMessage,
		event.ExplanationSummary, sourcesJSON, criteriaJSON,
		boolPtrToInt(event.InputValidationPassed), boolPtrToInt(event.GuardrailTriggered),
		event.PayloadRef,
	)
	return eris.Wrap(err, "audit: append event")
}

func (s *SQLiteStore) ListEvents(ctx context.Context, filter EventFilter) ([]model.RunEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM agent_run_events WHERE true`
	args := []any{}

	if filter.AgentID != "" {
		query += ` AND agent_id = ?`
		args = append(args, string(filter.AgentID))
	}
	if filter.From != nil {
		query += ` AND ts >= ?`
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		query += ` AND ts <= ?`
		args = append(args, filter.To.UTC())
	}
	if filter.Success != nil {
		query += ` AND success = ?`
		args = append(args, *filter.Success)
	}
	if filter.ClientIDScope != "" {
		query += ` AND client_id_scope = ?`
		args = append(args, filter.ClientIDScope)
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
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "audit: list events")
	}
	defer rows.Close()

	var events []model.RunEvent
	for rows.Next() {
		e, err := scanSQLiteEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, eris.Wrap(rows.Err(), "audit: list events iterate")
}

func (s *SQLiteStore) GetEvent(ctx context.Context, eventID string) (*model.RunEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM agent_run_events WHERE event_id = ?`,
		eventID,
	)
	e, err := scanSQLiteEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

func (s *SQLiteStore) SaveRecommendationRun(ctx context.Context, run model.RecommendationRun) error {
	payloadJSON, err := json.Marshal(run)
	if err != nil {
		return eris.Wrap(err, "audit: marshal recommendation run")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO recommendation_runs (run_id, created_at, client_id, payload)
		 VALUES (?, ?, ?, ?)`,
		run.RunID, run.CreatedAt.UTC(), run.ClientID, string(payloadJSON),
	)
	return eris.Wrap(err, "audit: save recommendation run")
}

func (s *SQLiteStore) GetRecommendationRun(ctx context.Context, runID string) (*model.RecommendationRun, error) {
	var payloadJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM recommendation_runs WHERE run_id = ?`,
		runID,
	).Scan(&payloadJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "audit: get recommendation run %s", runID)
	}

	var run model.RecommendationRun
	if err := json.Unmarshal([]byte(payloadJSON), &run); err != nil {
		return nil, eris.Wrap(err, "audit: unmarshal recommendation run")
	}
	return &run, nil
}

func scanSQLiteEvent(scan func(dest ...any) error) (*model.RunEvent, error) {
	var e model.RunEvent
	var agentID string
	var ts time.Time
	var inputJSON, sourcesJSON, criteriaJSON *string
	var validationPassed, guardrailTriggered *int64

	err := scan(
		&e.EventID, &ts, &agentID, &e.RunID, &e.ClientIDScope,
		&inputJSON, &e.Success, &e.ErrorMessage, &e.ExplanationSummary,
		&sourcesJSON, &criteriaJSON, &validationPassed, &guardrailTriggered,
		&e.PayloadRef,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "audit: scan event")
	}
	e.Timestamp = ts.UTC()
	e.AgentID = model.AgentID(agentID)
	e.InputValidationPassed = intPtrToBool(validationPassed)
	e.GuardrailTriggered = intPtrToBool(guardrailTriggered)

	if inputJSON != nil {
		if err := json.Unmarshal([]byte(*inputJSON), &e.InputSummary); err != nil {
			return nil, eris.Wrap(err, "audit: unmarshal input summary")
		}
	}
	if sourcesJSON != nil {
		if err := json.Unmarshal([]byte(*sourcesJSON), &e.DataSourcesUsed); err != nil {
			return nil, eris.Wrap(err, "audit: unmarshal data sources")
		}
	}
	if criteriaJSON != nil {
		if err := json.Unmarshal([]byte(*criteriaJSON), &e.ChoiceCriteria); err != nil {
			return nil, eris.Wrap(err, "audit: unmarshal choice criteria")
		}
	}
	return &e, nil
}

func marshalNullableText(v any) (*string, error) {
	raw, err := marshalNullable(v)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	s := string(raw.([]byte))
	return &s, nil
}

func boolPtrToInt(b *bool) *int64 {
	if b == nil {
		return nil
	}
	var v int64
	if *b {
		v = 1
	}
	return &v
}

func intPtrToBool(v *int64) *bool {
	if v == nil {
		return nil
	}
	b := *v != 0
	return &b
}
