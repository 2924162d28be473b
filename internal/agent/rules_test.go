package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

func strPtr(s string) *string { return &s }

var today = time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

func TestRenewalInfo(t *testing.T) {
	tests := []struct {
		name     string
		policy   model.Policy
		wantDate *string
		wantDays *int
	}{
		{
			name:     "iso renewal date in the future",
			policy:   model.Policy{RenewalDate: strPtr("2026-07-15")},
			wantDate: strPtr("2026-07-15"),
			wantDays: func() *int { d := 30; return &d }(),
		},
		{
			name:     "us-style date",
			policy:   model.Policy{RenewalDate: strPtr("07/15/2026")},
			wantDate: strPtr("2026-07-15"),
			wantDays: func() *int { d := 30; return &d }(),
		},
		{
			name:     "timestamp trimmed to date",
			policy:   model.Policy{RenewalDate: strPtr("2026-06-20T00:00:00Z")},
			wantDate: strPtr("2026-06-20"),
			wantDays: func() *int { d := 5; return &d }(),
		},
		{
			name:     "past date has no day count",
			policy:   model.Policy{RenewalDate: strPtr("2026-01-01")},
			wantDate: strPtr("2026-01-01"),
			wantDays: nil,
		},
		{
			name:     "maturity date as fallback",
			policy:   model.Policy{MaturityDate: strPtr("2026-06-16")},
			wantDate: strPtr("2026-06-16"),
			wantDays: func() *int { d := 1; return &d }(),
		},
		{
			name:     "unparseable text passes through",
			policy:   model.Policy{RenewalDate: strPtr("TBD")},
			wantDate: strPtr("TBD"),
			wantDays: nil,
		},
		{
			name:     "no dates at all",
			policy:   model.Policy{},
			wantDate: nil,
			wantDays: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, days := renewalInfo(&tt.policy, today)
			if tt.wantDate == nil {
				assert.Nil(t, date)
			} else {
				require.NotNil(t, date)
				assert.Equal(t, *tt.wantDate, *date)
			}
			if tt.wantDays == nil {
				assert.Nil(t, days)
			} else {
				require.NotNil(t, days)
				assert.Equal(t, *tt.wantDays, *days)
			}
		})
	}
}

func TestCheckReplacement(t *testing.T) {
	days := func(n int) *int { return &n }

	tests := []struct {
		name       string
		policy     model.Policy
		days       *int
		want       bool
		wantReason string
	}{
		{
			name:       "renewal within window",
			policy:     model.Policy{Status: "INFORCE", ProductName: "Indexed Annuity"},
			days:       days(15),
			want:       true,
			wantReason: "Policy maturing in next 30 days; consider replacement options",
		},
		{
			name:   "renewal outside window, no heuristic",
			policy: model.Policy{Status: "inforce", ProductName: "Indexed Annuity"},
			days:   days(90),
			want:   false,
		},
		{
			name:       "fixed product heuristic",
			policy:     model.Policy{Status: "inforce", ProductName: "Fixed Annuity 5"},
			want:       true,
			wantReason: "Fixed/term product may have replacement options for better value",
		},
		{
			name:       "term product code prefix",
			policy:     model.Policy{Status: "inforce", ProductName: "Life Shield", ProductCode: "T100"},
			want:       true,
			wantReason: "Term policy; conversion or replacement may be beneficial",
		},
		{
			name:   "lapsed policy never qualifies",
			policy: model.Policy{Status: "lapsed", ProductName: "Fixed Annuity 5"},
			days:   days(10),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := checkReplacement(&tt.policy, tt.days)
			assert.Equal(t, tt.want, got)
			if tt.wantReason != "" {
				require.NotNil(t, reason)
				assert.Equal(t, tt.wantReason, *reason)
			} else {
				assert.Nil(t, reason)
			}
		})
	}
}

func TestCheckDataQuality(t *testing.T) {
	t.Run("complete policy has no issues", func(t *testing.T) {
		p := model.Policy{
			ID:            "p-1",
			PolicyNumber:  "PN-1",
			Carrier:       "Atlas Life",
			EffectiveDate: strPtr("2020-01-01"),
			HasRoles:      true,
		}
		issues, severity := checkDataQuality(&p)
		assert.Nil(t, issues)
		assert.Nil(t, severity)
	})

	t.Run("single issue grades medium", func(t *testing.T) {
		p := model.Policy{ID: "p-1", Carrier: "Atlas Life", EffectiveDate: strPtr("2020-01-01"), HasContacts: true}
		issues, severity := checkDataQuality(&p)
		require.Len(t, issues, 1)
		require.NotNil(t, severity)
		assert.Equal(t, "medium", *severity)
	})

	t.Run("three or more issues grade high", func(t *testing.T) {
		p := model.Policy{ID: "p-1"}
		issues, severity := checkDataQuality(&p)
		require.Len(t, issues, 4)
		require.NotNil(t, severity)
		assert.Equal(t, "high", *severity)
	})

	t.Run("roles check needs an id", func(t *testing.T) {
		p := model.Policy{PolicyNumber: "PN-1", Carrier: "C", EffectiveDate: strPtr("2020-01-01")}
		issues, _ := checkDataQuality(&p)
		assert.NotContains(t, issues, "Missing roles/contacts")
	})
}

func TestCheckIncomeActivation(t *testing.T) {
	t.Run("accumulation phase annuity", func(t *testing.T) {
		p := model.Policy{Status: "inforce", ProductType: "Fixed Annuity"}
		eligible, reason := checkIncomeActivation(&p)
		assert.True(t, eligible)
		require.NotNil(t, reason)
		assert.Contains(t, *reason, "accumulation phase")
	})

	t.Run("annuity already paying out", func(t *testing.T) {
		p := model.Policy{Status: "inforce", ProductType: "Variable Annuity", HasPayoutSchedule: true}
		eligible, reason := checkIncomeActivation(&p)
		assert.True(t, eligible)
		require.NotNil(t, reason)
		assert.Contains(t, *reason, "payout")
	})

	t.Run("non-annuity not eligible", func(t *testing.T) {
		p := model.Policy{Status: "inforce", ProductType: "Term Life"}
		eligible, reason := checkIncomeActivation(&p)
		assert.False(t, eligible)
		assert.Nil(t, reason)
	})

	t.Run("lapsed annuity not eligible", func(t *testing.T) {
		p := model.Policy{Status: "lapsed", ProductType: "Fixed Annuity"}
		eligible, _ := checkIncomeActivation(&p)
		assert.False(t, eligible)
	})
}

func TestRecommendMeeting(t *testing.T) {
	schedule, reason := recommendMeeting(true, []string{"Missing carrier"}, true)
	assert.True(t, schedule)
	require.NotNil(t, reason)
	assert.Equal(t, "Replacement opportunity; Data quality issues to resolve; Income activation eligible", *reason)

	schedule, reason = recommendMeeting(false, nil, false)
	assert.False(t, schedule)
	assert.Nil(t, reason)
}

func TestReviewPolicy_Composes(t *testing.T) {
	p := model.Policy{
		ID:            "p-1",
		PolicyNumber:  "PN-1",
		Carrier:       "Atlas Life",
		ProductName:   "Fixed Annuity 5",
		ProductType:   "Fixed Annuity",
		Status:        "inforce",
		EffectiveDate: strPtr("2021-06-15"),
		RenewalDate:   strPtr("2026-06-25"),
		HasRoles:      true,
	}
	notifications := []model.PolicyNotification{{Type: "renewal", Message: "Renewal approaching"}}

	review := reviewPolicy(p, notifications, today)

	require.NotNil(t, review.DaysUntilRenewal)
	assert.Equal(t, 10, *review.DaysUntilRenewal)
	assert.True(t, review.ReplacementOpportunity)
	assert.True(t, review.IncomeActivationEligible)
	assert.Empty(t, review.DataQualityIssues)
	assert.True(t, review.ScheduleMeeting)
	require.NotNil(t, review.ScheduleMeetingReason)
	assert.Equal(t, "Replacement opportunity; Income activation eligible", *review.ScheduleMeetingReason)
	assert.Equal(t, notifications, review.Notifications)
}
