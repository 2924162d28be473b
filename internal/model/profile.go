package model

// Profile section types mirror the front-end contract: every field is
// optional, and a nil pointer means "unknown", never zero. The same structs
// serve as persisted state and as a partial patch from the front end, so the
// merge can treat both sides uniformly.

// SuitabilitySection holds the regulatory suitability answers for a client.
type SuitabilitySection struct {
	ClientObjectives   *string `json:"clientObjectives,omitempty" yaml:"client_objectives"`
	RiskTolerance      *string `json:"riskTolerance,omitempty" yaml:"risk_tolerance"`
	TimeHorizon        *string `json:"timeHorizon,omitempty" yaml:"time_horizon"`
	LiquidityNeeds     *string `json:"liquidityNeeds,omitempty" yaml:"liquidity_needs"`
	TaxConsiderations  *string `json:"taxConsiderations,omitempty" yaml:"tax_considerations"`
	GuaranteedIncome   *string `json:"guaranteedIncome,omitempty" yaml:"guaranteed_income"`
	RateExpectations   *string `json:"rateExpectations,omitempty" yaml:"rate_expectations"`
	SurrenderTimeline  *string `json:"surrenderTimeline,omitempty" yaml:"surrender_timeline"`
	AdvisorEligibility *string `json:"advisorEligibility,omitempty" yaml:"advisor_eligibility"`
	Score              *int    `json:"suitabilityScore,omitempty" yaml:"suitability_score"`
}

// GoalsSection holds the client's stated goals and plans.
type GoalsSection struct {
	FinancialObjectives     *string `json:"financialObjectives,omitempty" yaml:"financial_objectives"`
	DistributionPlan        *string `json:"distributionPlan,omitempty" yaml:"distribution_plan"`
	OwnedAssets             *string `json:"ownedAssets,omitempty" yaml:"owned_assets"`
	TimeToFirstDistribution *string `json:"timeToFirstDistribution,omitempty" yaml:"time_to_first_distribution"`
	ExpectedHoldingPeriod   *string `json:"expectedHoldingPeriod,omitempty" yaml:"expected_holding_period"`
	SourceOfFunds           *string `json:"sourceOfFunds,omitempty" yaml:"source_of_funds"`
	EmploymentStatus        *string `json:"employmentStatus,omitempty" yaml:"employment_status"`
}

// ProfileSection holds the client's financial situation.
type ProfileSection struct {
	GrossIncome              *string `json:"grossIncome,omitempty" yaml:"gross_income"`
	DisposableIncome         *string `json:"disposableIncome,omitempty" yaml:"disposable_income"`
	TaxBracket               *string `json:"taxBracket,omitempty" yaml:"tax_bracket"`
	HouseholdLiquidAssets    *string `json:"householdLiquidAssets,omitempty" yaml:"household_liquid_assets"`
	HouseholdNetWorth        *string `json:"householdNetWorth,omitempty" yaml:"household_net_worth"`
	MonthlyLivingExpenses    *string `json:"monthlyLivingExpenses,omitempty" yaml:"monthly_living_expenses"`
	TotalAnnuityValue        *string `json:"totalAnnuityValue,omitempty" yaml:"total_annuity_value"`
	ResidesInNursingHome     *string `json:"residesInNursingHome,omitempty" yaml:"resides_in_nursing_home"`
	HasLongTermCareInsurance *string `json:"hasLongTermCareInsurance,omitempty" yaml:"has_long_term_care_insurance"`
	Notes                    *string `json:"notes,omitempty" yaml:"notes"`
}

// ClientProfile is the persisted client record (profile plus goals).
type ClientProfile struct {
	ClientID string         `json:"clientId" yaml:"client_id"`
	Name     string         `json:"clientName" yaml:"client_name"`
	State    *string        `json:"state,omitempty" yaml:"state"`
	Profile  ProfileSection `json:"profile" yaml:"profile"`
	Goals    GoalsSection   `json:"goals" yaml:"goals"`
}

// SuitabilityProfile is the persisted suitability record for a client.
type SuitabilityProfile struct {
	ClientID    string             `json:"clientId" yaml:"client_id"`
	Suitability SuitabilitySection `json:"suitability" yaml:"suitability"`
}

// CustomerSelection records which opportunities the customer chose, supplied
// by the front end alongside changes.
type CustomerSelection struct {
	SelectedProductIDs []string `json:"selectedProductIds" yaml:"selected_product_ids"`
	Notes              string   `json:"notes,omitempty" yaml:"notes"`
	SelectedAt         *string  `json:"selectedAt,omitempty" yaml:"selected_at"`
}

// ChangesPayload is the partial, advisor-edited state sent by the front end.
// Each section is optional; a nil section contributes nothing to the merge.
type ChangesPayload struct {
	Suitability       *SuitabilitySection `json:"suitability,omitempty"`
	ClientGoals       *GoalsSection       `json:"clientGoals,omitempty"`
	ClientProfile     *ProfileSection     `json:"clientProfile,omitempty"`
	CustomerSelection *CustomerSelection  `json:"customerSelection,omitempty"`
}

// IsEmpty reports whether no section is present.
func (c *ChangesPayload) IsEmpty() bool {
	return c == nil ||
		(c.Suitability == nil && c.ClientGoals == nil && c.ClientProfile == nil && c.CustomerSelection == nil)
}

// SectionsPresent names the sections carried by the payload, in fixed order.
func (c *ChangesPayload) SectionsPresent() []string {
	if c == nil {
		return nil
	}
	var sections []string
	if c.Suitability != nil {
		sections = append(sections, "suitability")
	}
	if c.ClientGoals != nil {
		sections = append(sections, "clientGoals")
	}
	if c.ClientProfile != nil {
		sections = append(sections, "clientProfile")
	}
	if c.CustomerSelection != nil {
		sections = append(sections, "customerSelection")
	}
	return sections
}

// MergedProfile is the authoritative profile for one recommendation run:
// persisted state overlaid with front-end changes.
type MergedProfile struct {
	ClientID         string             `json:"clientId"`
	Suitability      SuitabilitySection `json:"suitability"`
	Goals            GoalsSection       `json:"goals"`
	Profile          ProfileSection     `json:"profile"`
	SectionsReceived []string           `json:"sectionsReceived,omitempty"`
}
