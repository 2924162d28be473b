// Package matcher scores the product catalog against a merged client profile
// to produce ranked opportunities with per-product rationale.
package matcher

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// Result is one matching run over a catalog: the ranked opportunities plus
// the names of the criteria that were actually evaluated (consulted, whether
// or not they matched), for the explanation record.
type Result struct {
	Opportunities     []model.Opportunity
	CriteriaEvaluated []string
	ProductsExcluded  int
}

// Matcher ranks catalog products for a merged profile. Matching is
// deterministic: identical input always yields the same ordered output.
type Matcher struct {
	maxOpportunities int
}

// New creates a Matcher. maxOpportunities <= 0 means no cap.
func New(maxOpportunities int) *Matcher {
	return &Matcher{maxOpportunities: maxOpportunities}
}

// Match evaluates the fixed criteria set for every product. Risk-tolerance
// and time-horizon mismatches are disqualifying; the remaining criteria are
// soft-scored. A product's score is the count of satisfied criteria.
func (m *Matcher) Match(merged model.MergedProfile, products []model.Product) Result {
	var res Result
	evaluatedSet := make(map[string]bool, len(criteria))

	for i := range products {
		p := products[i]

		score := 0
		disqualified := false
		var matchedNames []string
		var reasons []string

		for _, c := range criteria {
			evaluated, matched, reason := c.evaluate(&p, &merged)
			if !evaluated {
				continue
			}
			evaluatedSet[c.name] = true
			if matched {
				score++
				matchedNames = append(matchedNames, c.name)
				reasons = append(reasons, reason)
				continue
			}
			if c.gate {
				disqualified = true
				break
			}
		}

		if disqualified {
			res.ProductsExcluded++
			continue
		}

		res.Opportunities = append(res.Opportunities, model.Opportunity{
			Product:         p,
			Score:           score,
			MatchReason:     matchReason(reasons),
			CriteriaMatched: matchedNames,
		})
	}

	sortOpportunities(res.Opportunities)
	if m.maxOpportunities > 0 && len(res.Opportunities) > m.maxOpportunities {
		res.Opportunities = res.Opportunities[:m.maxOpportunities]
	}

	// Preserve the fixed criteria order for the explanation record.
	for _, c := range criteria {
		if evaluatedSet[c.name] {
			res.CriteriaEvaluated = append(res.CriteriaEvaluated, c.name)
		}
	}

	zap.L().Debug("matcher: run complete",
		zap.Int("catalog_size", len(products)),
		zap.Int("opportunities", len(res.Opportunities)),
		zap.Int("excluded", res.ProductsExcluded),
		zap.Strings("criteria_evaluated", res.CriteriaEvaluated),
	)

	return res
}

func matchReason(reasons []string) string {
	if len(reasons) == 0 {
		return "Recommended from the product catalog based on the client profile."
	}
	return "Matched on: " + strings.Join(reasons, "; ") + "."
}

// sortOpportunities orders by descending score; ties break by ascending
// surrender period (shorter commitment preferred), then descending rate,
// then product id for stability.
func sortOpportunities(opps []model.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		a, b := &opps[i], &opps[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		as, bs := surrenderOrInf(&a.Product), surrenderOrInf(&b.Product)
		if as != bs {
			return as < bs
		}
		ar, br := a.Product.Rate(), b.Product.Rate()
		if ar != br {
			return ar > br
		}
		return a.Product.ProductID < b.Product.ProductID
	})
}

func surrenderOrInf(p *model.Product) int {
	if p.SurrenderYears == nil {
		// Unknown surrender schedule sorts after any known one.
		return 1 << 30
	}
	return *p.SurrenderYears
}
