// Package agent implements the three agent roles over the shared pipeline:
// agent-one reviews a book of business, agent-two generates ranked product
// opportunities, agent-three answers screen-context chat. Every invocation
// of any role appends exactly one audit event through audit.Recorder.
package agent

import (
	"strings"
	"time"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// Policies renewing within this many days get a replacement notification.
const renewalNotificationDays = 30

var renewalDateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
}

// renewalInfo extracts the renewal or maturity date and the days remaining
// until it. Checks renewal, maturity, next-premium-due, and covered-until in
// that order. Past dates yield the date with no day count.
func renewalInfo(p *model.Policy, today time.Time) (*string, *int) {
	raw := firstNonEmpty(p.RenewalDate, p.MaturityDate, p.NextPremiumDue, p.CoveredUntilDate)
	if raw == nil {
		return nil, nil
	}

	trimmed := strings.TrimSpace(*raw)
	if len(trimmed) > 10 {
		trimmed = trimmed[:10]
	}
	for _, format := range renewalDateFormats {
		d, err := time.Parse(format, trimmed)
		if err != nil {
			continue
		}
		iso := d.Format("2006-01-02")
		days := int(d.Sub(today.Truncate(24*time.Hour)).Hours() / 24)
		if days < 0 {
			return &iso, nil
		}
		return &iso, &days
	}
	return raw, nil
}

// checkReplacement decides whether a replacement opportunity exists: renewal
// within the notification window, or a fixed/term product heuristic. Only
// in-force policies qualify.
func checkReplacement(p *model.Policy, daysUntilRenewal *int) (bool, *string) {
	if !strings.EqualFold(p.Status, "inforce") {
		return false, nil
	}

	if daysUntilRenewal != nil && *daysUntilRenewal >= 1 && *daysUntilRenewal <= renewalNotificationDays {
		reason := "Policy maturing in next 30 days; consider replacement options"
		return true, &reason
	}

	name := strings.ToLower(p.ProductName)
	if strings.Contains(name, "fixed") || strings.Contains(name, "term") {
		reason := "Fixed/term product may have replacement options for better value"
		return true, &reason
	}
	if strings.HasPrefix(p.ProductCode, "T") {
		reason := "Term policy; conversion or replacement may be beneficial"
		return true, &reason
	}

	return false, nil
}

// checkDataQuality flags missing required fields and grades severity by
// issue count.
func checkDataQuality(p *model.Policy) ([]string, *string) {
	var issues []string
	if p.PolicyNumber == "" {
		issues = append(issues, "Missing policy number")
	}
	if p.Carrier == "" {
		issues = append(issues, "Missing carrier")
	}
	if p.EffectiveDate == nil || strings.TrimSpace(*p.EffectiveDate) == "" {
		issues = append(issues, "Missing effective date")
	}
	if p.ID != "" && !p.HasRoles && !p.HasContacts {
		issues = append(issues, "Missing roles/contacts")
	}

	if len(issues) == 0 {
		return nil, nil
	}
	severity := "medium"
	if len(issues) >= 3 {
		severity = "high"
	}
	return issues, &severity
}

// checkIncomeActivation reports whether the policy is eligible for income
// activation: an in-force annuity, with the reason depending on whether a
// payout schedule already exists.
func checkIncomeActivation(p *model.Policy) (bool, *string) {
	if !strings.EqualFold(p.Status, "inforce") {
		return false, nil
	}
	productType := strings.ToLower(p.ProductType)
	if !strings.Contains(productType, "annuity") {
		return false, nil
	}
	if !p.HasPayoutSchedule {
		reason := "Annuity in accumulation phase; eligible for income activation or RMD"
		return true, &reason
	}
	reason := "Annuity with payout; income options may apply"
	return true, &reason
}

// recommendMeeting folds the rule outcomes into a schedule-meeting
// recommendation with a combined reason.
func recommendMeeting(replacement bool, dataQualityIssues []string, incomeEligible bool) (bool, *string) {
	var reasons []string
	if replacement {
		reasons = append(reasons, "Replacement opportunity")
	}
	if len(dataQualityIssues) > 0 {
		reasons = append(reasons, "Data quality issues to resolve")
	}
	if incomeEligible {
		reasons = append(reasons, "Income activation eligible")
	}
	if len(reasons) == 0 {
		return false, nil
	}
	reason := strings.Join(reasons, "; ")
	return true, &reason
}

// reviewPolicy applies all business rules to one policy.
func reviewPolicy(p model.Policy, notifications []model.PolicyNotification, today time.Time) model.PolicyReview {
	renewalDate, daysUntil := renewalInfo(&p, today)
	replacement, replacementReason := checkReplacement(&p, daysUntil)
	dqIssues, dqSeverity := checkDataQuality(&p)
	incomeEligible, incomeReason := checkIncomeActivation(&p)
	schedule, scheduleReason := recommendMeeting(replacement, dqIssues, incomeEligible)

	return model.PolicyReview{
		Policy:                   p,
		Notifications:            notifications,
		RenewalDate:              renewalDate,
		DaysUntilRenewal:         daysUntil,
		ReplacementOpportunity:   replacement,
		ReplacementReason:        replacementReason,
		DataQualityIssues:        dqIssues,
		DataQualitySeverity:      dqSeverity,
		IncomeActivationEligible: incomeEligible,
		IncomeActivationReason:   incomeReason,
		ScheduleMeeting:          schedule,
		ScheduleMeetingReason:    scheduleReason,
	}
}

func firstNonEmpty(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil && strings.TrimSpace(*c) != "" {
			return c
		}
	}
	return nil
}
