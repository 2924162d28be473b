package model

// Product is one sellable annuity product from the catalog. Optional rate
// and term fields are pointers so an absent value is "unknown" rather than
// zero; criteria that depend on an unknown field skip evaluation.
type Product struct {
	ProductID          string   `json:"productId" yaml:"product_id"`
	Name               string   `json:"name" yaml:"name"`
	Carrier            string   `json:"carrier" yaml:"carrier"`
	ProductType        string   `json:"productType" yaml:"product_type"`
	CurrentRate        *float64 `json:"currentRate,omitempty" yaml:"current_rate"`
	GuaranteedMinRate  *float64 `json:"guaranteedMinRate,omitempty" yaml:"guaranteed_min_rate"`
	RateGuaranteeYears *int     `json:"rateGuaranteeYears,omitempty" yaml:"rate_guarantee_years"`
	SurrenderYears     *int     `json:"surrenderPeriod,omitempty" yaml:"surrender_years"`
	FreeWithdrawalPct  *float64 `json:"freeWithdrawalPct,omitempty" yaml:"free_withdrawal_pct"`
	RiskProfile        *string  `json:"riskProfile,omitempty" yaml:"risk_profile"`
	Riders             []string `json:"riders,omitempty" yaml:"riders"`
	AvailableStates    []string `json:"availableStates,omitempty" yaml:"available_states"`
	CanSell            bool     `json:"canSell" yaml:"can_sell"`
	SuitableFor        *string  `json:"suitableFor,omitempty" yaml:"suitable_for"`
	KeyBenefits        *string  `json:"keyBenefits,omitempty" yaml:"key_benefits"`
}

// Rate returns the best known rate for display and tie-breaking: current
// rate when present, else the guaranteed minimum, else 0.
func (p *Product) Rate() float64 {
	if p.CurrentRate != nil {
		return *p.CurrentRate
	}
	if p.GuaranteedMinRate != nil {
		return *p.GuaranteedMinRate
	}
	return 0
}

// Opportunity is one ranked product recommendation with its rationale.
type Opportunity struct {
	Product         Product  `json:"product"`
	Score           int      `json:"score"`
	MatchReason     string   `json:"matchReason"`
	CriteriaMatched []string `json:"criteriaMatched,omitempty"`
}

// ReasonsToSwitch summarizes the trade-offs of replacing the client's
// current product, derived from the opportunity set.
type ReasonsToSwitch struct {
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`
}
