package profile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/meridian-wealth/renewal-cli/internal/db"
	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// PostgresRepository implements Repository over pgxpool.
//
// Read failures never propagate: an unreachable store degrades to nil/empty
// results with a warning, so matching proceeds against whatever partial state
// is available instead of failing the run.
type PostgresRepository struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresRepository with a connection pool.
func NewPostgres(ctx context.Context, connString string, maxConns, minConns int32) (*PostgresRepository, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "profile: parse pool config")
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
		return nil, eris.Wrap(err, "profile: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "profile: ping")
	}
	return &PostgresRepository{pool: pool, closeFn: pool.Close}, nil
}

const profileMigration = `
CREATE TABLE IF NOT EXISTS clients (
	client_id                     TEXT PRIMARY KEY,
	client_name                   TEXT NOT NULL DEFAULT '',
	state                         TEXT,
	gross_income                  TEXT,
	disposable_income             TEXT,
	tax_bracket                   TEXT,
	household_liquid_assets       TEXT,
	household_net_worth           TEXT,
	monthly_living_expenses       TEXT,
	total_annuity_value           TEXT,
	resides_in_nursing_home       TEXT,
	has_long_term_care_insurance  TEXT,
	notes                         TEXT,
	financial_objectives          TEXT,
	distribution_plan             TEXT,
	owned_assets                  TEXT,
	time_to_first_distribution    TEXT,
	expected_holding_period       TEXT,
	source_of_funds               TEXT,
	employment_status             TEXT
);

CREATE TABLE IF NOT EXISTS client_suitability_profiles (
	client_id           TEXT PRIMARY KEY REFERENCES clients(client_id),
	client_objectives   TEXT,
	risk_tolerance      TEXT,
	time_horizon        TEXT,
	liquidity_needs     TEXT,
	tax_considerations  TEXT,
	guaranteed_income   TEXT,
	rate_expectations   TEXT,
	surrender_timeline  TEXT,
	advisor_eligibility TEXT,
	suitability_score   INTEGER
);

CREATE TABLE IF NOT EXISTS products (
	product_id           TEXT PRIMARY KEY,
	name                 TEXT NOT NULL,
	carrier              TEXT NOT NULL DEFAULT '',
	product_type         TEXT NOT NULL DEFAULT '',
	current_rate         DOUBLE PRECISION,
	guaranteed_min_rate  DOUBLE PRECISION,
	rate_guarantee_years INTEGER,
	surrender_years      INTEGER,
	free_withdrawal_pct  DOUBLE PRECISION,
	risk_profile         TEXT,
	riders               JSONB,
	available_states     JSONB,
	can_sell             BOOLEAN NOT NULL DEFAULT true,
	suitable_for         TEXT,
	key_benefits         TEXT
);

CREATE INDEX IF NOT EXISTS idx_products_can_sell ON products(can_sell);
`

// Migrate applies the profile schema.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, profileMigration)
	return eris.Wrap(err, "profile: migrate")
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	if r.closeFn != nil {
		r.closeFn()
	}
	return nil
}

func (r *PostgresRepository) GetClient(ctx context.Context, clientID string) (*model.ClientProfile, error) {
	row := r.pool.QueryRow(ctx, `
SELECT client_id, client_name, state,
       gross_income, disposable_income, tax_bracket, household_liquid_assets,
       household_net_worth, monthly_living_expenses, total_annuity_value,
       resides_in_nursing_home, has_long_term_care_insurance, notes,
       financial_objectives, distribution_plan, owned_assets,
       time_to_first_distribution, expected_holding_period, source_of_funds,
       employment_status
FROM clients WHERE client_id = $1`, clientID)

	var c model.ClientProfile
	err := row.Scan(
		&c.ClientID, &c.Name, &c.State,
		&c.Profile.GrossIncome, &c.Profile.DisposableIncome, &c.Profile.TaxBracket,
		&c.Profile.HouseholdLiquidAssets, &c.Profile.HouseholdNetWorth,
		&c.Profile.MonthlyLivingExpenses, &c.Profile.TotalAnnuityValue,
		&c.Profile.ResidesInNursingHome, &c.Profile.HasLongTermCareInsurance,
		&c.Profile.Notes,
		&c.Goals.FinancialObjectives, &c.Goals.DistributionPlan, &c.Goals.OwnedAssets,
		&c.Goals.TimeToFirstDistribution, &c.Goals.ExpectedHoldingPeriod,
		&c.Goals.SourceOfFunds, &c.Goals.EmploymentStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Warn("profile: get client degraded to empty",
			zap.String("client_id", clientID),
			zap.Error(err),
		)
		return nil, nil
	}
	return &c, nil
}

func (r *PostgresRepository) GetSuitability(ctx context.Context, clientID string) (*model.SuitabilityProfile, error) {
	row := r.pool.QueryRow(ctx, `
SELECT client_id, client_objectives, risk_tolerance, time_horizon,
       liquidity_needs, tax_considerations, guaranteed_income,
       rate_expectations, surrender_timeline, advisor_eligibility,
       suitability_score
FROM client_suitability_profiles WHERE client_id = $1`, clientID)

	var s model.SuitabilityProfile
	err := row.Scan(
		&s.ClientID,
		&s.Suitability.ClientObjectives, &s.Suitability.RiskTolerance,
		&s.Suitability.TimeHorizon, &s.Suitability.LiquidityNeeds,
		&s.Suitability.TaxConsiderations, &s.Suitability.GuaranteedIncome,
		&s.Suitability.RateExpectations, &s.Suitability.SurrenderTimeline,
		&s.Suitability.AdvisorEligibility, &s.Suitability.Score,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Warn("profile: get suitability degraded to empty",
			zap.String("client_id", clientID),
			zap.Error(err),
		)
		return nil, nil
	}
	return &s, nil
}

func (r *PostgresRepository) GetProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, `
SELECT product_id, name, carrier, product_type, current_rate,
       guaranteed_min_rate, rate_guarantee_years, surrender_years,
       free_withdrawal_pct, risk_profile,
       COALESCE(riders, '[]'::jsonb), COALESCE(available_states, '[]'::jsonb),
       can_sell, suitable_for, key_benefits
FROM products
WHERE can_sell = true
ORDER BY current_rate DESC NULLS LAST, product_id`)
	if err != nil {
		zap.L().Warn("profile: get products degraded to empty", zap.Error(err))
		return nil, nil
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		var ridersJSON, statesJSON []byte
		err := rows.Scan(
			&p.ProductID, &p.Name, &p.Carrier, &p.ProductType, &p.CurrentRate,
			&p.GuaranteedMinRate, &p.RateGuaranteeYears, &p.SurrenderYears,
			&p.FreeWithdrawalPct, &p.RiskProfile,
			&ridersJSON, &statesJSON,
			&p.CanSell, &p.SuitableFor, &p.KeyBenefits,
		)
		if err != nil {
			zap.L().Warn("profile: scan product degraded to partial catalog", zap.Error(err))
			return products, nil
		}
		if err := json.Unmarshal(ridersJSON, &p.Riders); err != nil {
			return nil, eris.Wrap(err, "profile: unmarshal riders")
		}
		if err := json.Unmarshal(statesJSON, &p.AvailableStates); err != nil {
			return nil, eris.Wrap(err, "profile: unmarshal states")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		zap.L().Warn("profile: iterate products degraded to partial catalog", zap.Error(err))
	}
	return products, nil
}
