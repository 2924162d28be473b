package explain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// BestInterestNarrative is the advisor-facing compliance narrative, organized
// into the five fixed best-interest sections. Pure template interpolation
// over the explanation record and merged profile; renders human-readable
// labels only.
type BestInterestNarrative struct {
	DiligencePerformed string `json:"diligence_performed"`
	ConflictDisclosure string `json:"conflict_of_interest_disclosure"`
	Transparency       string `json:"transparency"`
	Documentation      string `json:"documentation"`
	OngoingDuty        string `json:"ongoing_duty"`
}

var titleCaser = cases.Title(language.AmericanEnglish)

// BuildNarrative renders the compliance narrative for one recommendation run.
// When a customer selection is supplied, each section opens by stating which
// opportunity the customer selected.
func BuildNarrative(rec model.ExplanationRecord, merged model.MergedProfile, opps []model.Opportunity, sel *model.CustomerSelection) BestInterestNarrative {
	chars := profileCharacteristics(merged)
	charsPhrase := "suitability and goals"
	if len(chars) > 0 {
		charsPhrase = strings.Join(chars, "; ")
	}

	var sourceNames []string
	for _, s := range rec.DataSourcesUsed {
		sourceNames = append(sourceNames, SourceLabel(s))
	}
	sourcesPhrase := "product catalog and client profile"
	if len(sourceNames) > 0 {
		sourcesPhrase = strings.Join(sourceNames, ", ")
	}

	criteriaPhrase := "product match"
	if len(rec.ChoiceCriteria) > 0 {
		criteriaPhrase = strings.Join(rec.ChoiceCriteria, ", ")
	}

	selection := selectionSentence(opps, sel)
	prefix := ""
	if selection != "" {
		prefix = selection + " "
	}

	diligence := prefix + fmt.Sprintf(
		"Reasonable diligence was applied to the customer's financial situation, needs, and objectives. "+
			"Client profile characteristics used to justify the assessment: %s. "+
			"Available products were investigated from the %s. "+
			"Explicit comparative analysis was performed using criteria: %s. Summary: %s",
		charsPhrase, sourcesPhrase, criteriaPhrase, rec.Summary,
	)

	conflict := prefix +
		"Material conflicts of interest are identified in firm disclosures. " +
		"Compensation structures (commission, fee) are disclosed; conflicts are eliminated where possible or disclosed in writing. " +
		"The opportunities presented were generated from the client profile characteristics above and product data; no conflict incentivized the selection of a particular product."

	transparency := prefix + fmt.Sprintf(
		"Conflicts of interest and compensation are disclosed in writing before the transaction. "+
			"Product alternatives considered are reflected in the opportunities presented and the reasons to switch. "+
			"The client profile characteristics that justify the assessment (%s) are documented with the run. "+
			"Product risks and features (rate, surrender period, free withdrawal, guaranteed minimum) are included for each opportunity with a match reason explaining fit.",
		truncateList(chars, 6, charsPhrase),
	)

	documentation := prefix + fmt.Sprintf(
		"Customer information gathered and analysis performed are documented with the run, including the characteristics that justify the assessment: %s. "+
			"The basis for the opportunities presented is documented in the explanation (summary, data sources, choice criteria) and in each opportunity's match reason. ",
		charsPhrase,
	)
	if selection != "" {
		documentation += "The customer's selection from the opportunities presented is documented in this summary. "
	}
	documentation += "Records supporting compliance (run id, timestamp, payload) are retained; minimum 6-year retention applies per firm policy."

	ongoing := "Firm will monitor customer accounts and the opportunities presented for continued suitability; " +
		"review changing circumstances and market conditions; refresh the opportunities presented when customer profile characteristics change; " +
		"and conduct periodic compliance reviews of firm-wide practices."

	return BestInterestNarrative{
		DiligencePerformed: diligence,
		ConflictDisclosure: conflict,
		Transparency:       transparency,
		Documentation:      documentation,
		OngoingDuty:        ongoing,
	}
}

// selectionSentence names the opportunities the customer selected, or ""
// when no selection was supplied.
func selectionSentence(opps []model.Opportunity, sel *model.CustomerSelection) string {
	if sel == nil || len(sel.SelectedProductIDs) == 0 {
		return ""
	}
	selected := make(map[string]bool, len(sel.SelectedProductIDs))
	for _, id := range sel.SelectedProductIDs {
		selected[id] = true
	}
	var names []string
	for i := range opps {
		p := &opps[i].Product
		if !selected[p.ProductID] {
			continue
		}
		name := p.Name
		if p.Carrier != "" {
			name = fmt.Sprintf("%s (%s)", p.Name, titleCaser.String(p.Carrier))
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return ""
	}
	phrase := strings.Join(names, ", ")
	if len(names) > 3 {
		phrase = strings.Join(names[:2], ", ") + fmt.Sprintf(", and %d other(s)", len(names)-2)
	}
	sentence := "The customer selected " + phrase + " from the opportunities presented."
	if notes := strings.TrimSpace(sel.Notes); notes != "" {
		sentence += " Notes: " + notes
	}
	return sentence
}

// profileCharacteristics lists the merged-profile facts, in a fixed order,
// that participated in the assessment.
func profileCharacteristics(m model.MergedProfile) []string {
	var parts []string
	add := func(label string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			parts = append(parts, label+": "+*v)
		}
	}
	add("risk tolerance", m.Suitability.RiskTolerance)
	add("time horizon", m.Suitability.TimeHorizon)
	add("liquidity needs", m.Suitability.LiquidityNeeds)
	add("objectives", m.Suitability.ClientObjectives)
	add("financial objectives", m.Goals.FinancialObjectives)
	add("distribution plan", m.Goals.DistributionPlan)
	add("expected holding period", m.Goals.ExpectedHoldingPeriod)
	add("gross income", m.Profile.GrossIncome)
	add("household net worth", m.Profile.HouseholdNetWorth)
	add("household liquid assets", m.Profile.HouseholdLiquidAssets)
	add("tax bracket", m.Profile.TaxBracket)
	return parts
}

func truncateList(items []string, max int, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:max], ", ") + "..."
}
