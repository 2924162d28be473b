package matcher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// Criterion names as they appear in choice_criteria and audit events.
const (
	CriterionRiskTolerance  = "risk tolerance"
	CriterionTimeHorizon    = "time horizon"
	CriterionLiquidityNeeds = "liquidity needs"
	CriterionObjectives     = "financial objectives"
	CriterionHoldingPeriod  = "expected holding period"
)

// criterion is one named suitability check. evaluate reports whether the
// check could run at all (both profile and product carry the needed fields),
// whether it matched, and a human-readable reason when it did.
type criterion struct {
	name string
	// gate marks a hard suitability requirement: an evaluated mismatch
	// disqualifies the product instead of merely lowering its score.
	gate     bool
	evaluate func(p *model.Product, m *model.MergedProfile) (evaluated, matched bool, reason string)
}

// criteria is the fixed, ordered set of checks applied to every product.
var criteria = []criterion{
	{name: CriterionRiskTolerance, gate: true, evaluate: evalRiskTolerance},
	{name: CriterionTimeHorizon, gate: true, evaluate: evalTimeHorizon},
	{name: CriterionLiquidityNeeds, evaluate: evalLiquidityNeeds},
	{name: CriterionObjectives, evaluate: evalObjectives},
	{name: CriterionHoldingPeriod, evaluate: evalHoldingPeriod},
}

// riskLevel maps tolerance phrasing to an ordinal scale. 0 means unknown.
func riskLevel(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return 0
	case strings.Contains(s, "conservative"), strings.Contains(s, "low"):
		return 1
	case strings.Contains(s, "moderate"), strings.Contains(s, "balanced"), strings.Contains(s, "medium"):
		return 2
	case strings.Contains(s, "aggressive"), strings.Contains(s, "high"), strings.Contains(s, "growth"):
		return 3
	default:
		return 0
	}
}

func evalRiskTolerance(p *model.Product, m *model.MergedProfile) (bool, bool, string) {
	if m.Suitability.RiskTolerance == nil || p.RiskProfile == nil {
		return false, false, ""
	}
	clientLevel := riskLevel(*m.Suitability.RiskTolerance)
	productLevel := riskLevel(*p.RiskProfile)
	if clientLevel == 0 || productLevel == 0 {
		// Unrecognized phrasing: fall back to substring compatibility.
		cr := strings.ToLower(*m.Suitability.RiskTolerance)
		pr := strings.ToLower(*p.RiskProfile)
		if strings.Contains(pr, cr) || strings.Contains(cr, pr) {
			return true, true, fmt.Sprintf("product risk profile %q aligns with the client's %s risk tolerance", *p.RiskProfile, *m.Suitability.RiskTolerance)
		}
		return true, false, ""
	}
	// A product must not carry more risk than the client tolerates.
	if productLevel <= clientLevel {
		return true, true, fmt.Sprintf("product risk profile %q is within the client's %s risk tolerance", *p.RiskProfile, *m.Suitability.RiskTolerance)
	}
	return true, false, ""
}

// horizonYears maps a stated time horizon to the minimum and maximum
// surrender commitment it supports, in years.
func horizonYears(s string) (minYears, maxYears int, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return 0, 0, false
	case strings.Contains(s, "short"):
		return 0, 3, true
	case strings.Contains(s, "medium"), strings.Contains(s, "intermediate"), strings.Contains(s, "mid"):
		return 3, 7, true
	case strings.Contains(s, "long"):
		return 5, 100, true
	}
	// Numeric horizons like "10 years" or "5+ years".
	if years, parsed := leadingYears(s); parsed {
		switch {
		case years <= 3:
			return 0, 3, true
		case years <= 7:
			return 3, 7, true
		default:
			return 5, 100, true
		}
	}
	return 0, 0, false
}

func evalTimeHorizon(p *model.Product, m *model.MergedProfile) (bool, bool, string) {
	if m.Suitability.TimeHorizon == nil || p.SurrenderYears == nil {
		return false, false, ""
	}
	minY, maxY, ok := horizonYears(*m.Suitability.TimeHorizon)
	if !ok {
		return false, false, ""
	}
	surrender := *p.SurrenderYears
	if surrender >= minY && surrender <= maxY {
		return true, true, fmt.Sprintf("%d-year surrender schedule fits the client's %s time horizon", surrender, *m.Suitability.TimeHorizon)
	}
	return true, false, ""
}

func evalLiquidityNeeds(p *model.Product, m *model.MergedProfile) (bool, bool, string) {
	if m.Suitability.LiquidityNeeds == nil || p.FreeWithdrawalPct == nil {
		return false, false, ""
	}
	needs := strings.ToLower(*m.Suitability.LiquidityNeeds)
	free := *p.FreeWithdrawalPct
	var required float64
	switch {
	case strings.Contains(needs, "high"), strings.Contains(needs, "immediate"):
		required = 10
	case strings.Contains(needs, "moderate"), strings.Contains(needs, "medium"), strings.Contains(needs, "some"):
		required = 5
	default:
		// Low or no stated liquidity need: any free-withdrawal provision fits.
		required = 0
	}
	if free >= required {
		return true, true, fmt.Sprintf("%.0f%% free withdrawal covers the client's %s liquidity needs", free, *m.Suitability.LiquidityNeeds)
	}
	return true, false, ""
}

// objectiveKeywords maps objective phrasing to product-type keywords.
var objectiveKeywords = []struct {
	objective []string
	product   []string
}{
	{[]string{"growth", "accumulation", "appreciation"}, []string{"indexed", "variable", "growth"}},
	{[]string{"income", "guaranteed"}, []string{"income", "fixed", "spia", "annuity"}},
	{[]string{"preservation", "safety", "protect"}, []string{"fixed", "myga", "guaranteed"}},
}

func evalObjectives(p *model.Product, m *model.MergedProfile) (bool, bool, string) {
	objective := ""
	if m.Goals.FinancialObjectives != nil {
		objective = *m.Goals.FinancialObjectives
	} else if m.Suitability.ClientObjectives != nil {
		objective = *m.Suitability.ClientObjectives
	}
	if strings.TrimSpace(objective) == "" || p.ProductType == "" {
		return false, false, ""
	}
	obj := strings.ToLower(objective)
	ptype := strings.ToLower(p.ProductType)
	for _, mapping := range objectiveKeywords {
		for _, ok := range mapping.objective {
			if !strings.Contains(obj, ok) {
				continue
			}
			for _, pk := range mapping.product {
				if strings.Contains(ptype, pk) {
					return true, true, fmt.Sprintf("%s product type supports the client's objective of %s", p.ProductType, objective)
				}
			}
		}
	}
	return true, false, ""
}

func evalHoldingPeriod(p *model.Product, m *model.MergedProfile) (bool, bool, string) {
	if m.Goals.ExpectedHoldingPeriod == nil || p.RateGuaranteeYears == nil {
		return false, false, ""
	}
	years, ok := leadingYears(*m.Goals.ExpectedHoldingPeriod)
	if !ok {
		return false, false, ""
	}
	guarantee := *p.RateGuaranteeYears
	if guarantee >= years {
		return true, true, fmt.Sprintf("%d-year rate guarantee covers the expected %s holding period", guarantee, *m.Goals.ExpectedHoldingPeriod)
	}
	return true, false, ""
}

// leadingYears extracts the first integer in a free-text duration such as
// "5 years", "10+ years", or "3-5 years" (the minimum of a range).
func leadingYears(s string) (int, bool) {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, err := strconv.Atoi(s[start:i])
			return n, err == nil
		}
	}
	if start >= 0 {
		n, err := strconv.Atoi(s[start:])
		return n, err == nil
	}
	return 0, false
}
