package model

// Policy is one in-force (or lapsed) contract in an advisor's book of
// business. Field coverage follows the policy administration feed; optional
// values are pointers.
type Policy struct {
	ID                string  `json:"id" yaml:"id"`
	PolicyNumber      string  `json:"policyNumber" yaml:"policy_number"`
	Carrier           string  `json:"carrier" yaml:"carrier"`
	ProductName       string  `json:"productName" yaml:"product_name"`
	ProductCode       string  `json:"productCode" yaml:"product_code"`
	ProductType       string  `json:"productType" yaml:"product_type"`
	Status            string  `json:"status" yaml:"status"`
	EffectiveDate     *string `json:"effectiveDate,omitempty" yaml:"effective_date"`
	RenewalDate       *string `json:"renewalDate,omitempty" yaml:"renewal_date"`
	MaturityDate      *string `json:"maturityDate,omitempty" yaml:"maturity_date"`
	NextPremiumDue    *string `json:"nextPremiumDueDate,omitempty" yaml:"next_premium_due"`
	CoveredUntilDate  *string `json:"coveredUntilDate,omitempty" yaml:"covered_until"`
	HasPayoutSchedule bool    `json:"hasPayoutSchedule" yaml:"has_payout_schedule"`
	CashValue         *string `json:"cashValue,omitempty" yaml:"cash_value"`
	HasRoles          bool    `json:"hasRoles" yaml:"has_roles"`
	HasContacts       bool    `json:"hasContacts" yaml:"has_contacts"`
}

// PolicyNotification is one alert attached to a policy.
type PolicyNotification struct {
	Type     string  `json:"notificationType" yaml:"type"`
	Message  string  `json:"message" yaml:"message"`
	PolicyID string  `json:"policyId,omitempty" yaml:"policy_id"`
	Severity *string `json:"severity,omitempty" yaml:"severity"`
}

// PolicyReview is one book-of-business policy annotated with notifications
// and the business rule outcomes.
type PolicyReview struct {
	Policy        Policy               `json:"policy"`
	Notifications []PolicyNotification `json:"notifications,omitempty"`

	RenewalDate      *string `json:"renewalDate,omitempty"`
	DaysUntilRenewal *int    `json:"daysUntilRenewal,omitempty"`

	ReplacementOpportunity bool    `json:"replacementOpportunity"`
	ReplacementReason      *string `json:"replacementReason,omitempty"`

	DataQualityIssues   []string `json:"dataQualityIssues,omitempty"`
	DataQualitySeverity *string  `json:"dataQualitySeverity,omitempty"`

	IncomeActivationEligible bool    `json:"incomeActivationEligible"`
	IncomeActivationReason   *string `json:"incomeActivationReason,omitempty"`

	ScheduleMeeting       bool    `json:"scheduleMeeting"`
	ScheduleMeetingReason *string `json:"scheduleMeetingReason,omitempty"`
}

// BookOfBusiness is the full annotated book for one customer identifier.
type BookOfBusiness struct {
	CustomerIdentifier string         `json:"customerIdentifier"`
	Policies           []PolicyReview `json:"policies"`
}
