// Package explain assembles the structured explanation record and the
// best-interest compliance narrative for a recommendation run.
package explain

import (
	"fmt"
	"strings"

	"github.com/meridian-wealth/renewal-cli/internal/matcher"
	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// Inputs captures what one recommendation run actually consulted. Only
// sources and criteria present here may appear in the explanation record;
// the builder never invents entries.
type Inputs struct {
	Merged model.MergedProfile
	Match  matcher.Result

	// CatalogSource is model.SourceProductsDB or SourceProductsAdminFeed,
	// or empty when the catalog read came back empty.
	CatalogSource string

	ClientRecordUsed      bool
	SuitabilityRecordUsed bool
}

// BuildRecord produces the ExplanationRecord for a run. Every entry in
// DataSourcesUsed and ChoiceCriteria corresponds to a source or criterion
// consulted during this run.
func BuildRecord(in Inputs) model.ExplanationRecord {
	var sources []string
	if in.CatalogSource != "" {
		sources = append(sources, in.CatalogSource)
	}
	if in.ClientRecordUsed {
		sources = append(sources, model.SourceClients)
	}
	if in.SuitabilityRecordUsed {
		sources = append(sources, model.SourceSuitability)
	}
	if len(in.Merged.SectionsReceived) > 0 {
		sources = append(sources, model.SourceFrontEndChanges)
	}

	criteria := in.Match.CriteriaEvaluated
	if len(criteria) == 0 && len(in.Match.Opportunities) > 0 {
		// Profile carried no criterion fields: the catalog itself was the
		// only selection basis.
		criteria = []string{"product catalog match"}
	}

	return model.ExplanationRecord{
		Summary:               summarize(in, criteria),
		DataSourcesUsed:       sources,
		ChoiceCriteria:        criteria,
		InputSectionsReceived: in.Merged.SectionsReceived,
	}
}

func summarize(in Inputs, criteria []string) string {
	catalog := SourceLabel(in.CatalogSource)
	if in.CatalogSource == "" {
		catalog = "an empty product catalog"
	}
	sections := "none"
	if len(in.Merged.SectionsReceived) > 0 {
		sections = strings.Join(in.Merged.SectionsReceived, ", ")
	}
	criteriaPhrase := "no profile criteria"
	if len(criteria) > 0 {
		criteriaPhrase = strings.Join(criteria, ", ")
	}
	return fmt.Sprintf(
		"Opportunity Generator produced %d opportunities from the %s, contextualized using: %s. Input sections received: %s.",
		len(in.Match.Opportunities), catalog, criteriaPhrase, sections,
	)
}

// sourceLabels maps internal data source names to the human-readable labels
// used in advisor-facing text. Raw source identifiers never appear in the
// narrative.
var sourceLabels = map[string]string{
	model.SourceProductsDB:        "product catalog",
	model.SourceProductsAdminFeed: "available product catalog",
	model.SourceSuitability:       "client suitability profile",
	model.SourceClients:           "client profile record",
	model.SourceFrontEndChanges:   "advisor-supplied updates",
}

// SourceLabel returns the display label for an internal data source name.
func SourceLabel(source string) string {
	if label, ok := sourceLabels[source]; ok {
		return label
	}
	return "product catalog and client profile"
}

// ReasonsToSwitch derives pros and cons of replacing the current product
// from the rate spread of the opportunity set.
func ReasonsToSwitch(opps []model.Opportunity) *model.ReasonsToSwitch {
	out := &model.ReasonsToSwitch{
		Pros: []string{
			"No new paperwork or underwriting",
			"Maintains existing carrier relationship",
			"Surrender period already expired or minimal remaining",
		},
	}

	var rates []float64
	for i := range opps {
		if r := opps[i].Product.Rate(); r > 0 {
			rates = append(rates, r)
		}
	}
	if len(rates) > 0 {
		minRate, maxRate := rates[0], rates[0]
		for _, r := range rates[1:] {
			if r < minRate {
				minRate = r
			}
			if r > maxRate {
				maxRate = r
			}
		}
		if minRate < maxRate {
			out.Cons = append(out.Cons, fmt.Sprintf("Significant rate drop to guaranteed minimum %.2f%%", minRate))
		}
		out.Cons = append(out.Cons, fmt.Sprintf("Missing opportunity to capture higher market rates (%.2f%% available)", maxRate))
	} else if len(opps) > 0 {
		out.Cons = append(out.Cons, "Missing opportunity to capture higher market rates (check current product rates)")
	}

	return out
}
