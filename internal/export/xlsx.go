// Package export writes advisor-facing opportunity reports.
package export

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/meridian-wealth/renewal-cli/internal/explain"
	"github.com/meridian-wealth/renewal-cli/internal/model"
)

var opportunityHeader = []string{
	"Rank", "Product ID", "Product", "Carrier", "Type", "Rate %",
	"Guaranteed Min %", "Surrender Years", "Free Withdrawal %", "Score",
	"Match Reason",
}

// WriteOpportunityReport writes one recommendation run as an XLSX workbook:
// an Opportunities sheet with one row per opportunity, and a Summary sheet
// with the explanation facts rendered with human-readable source labels.
func WriteOpportunityReport(run *model.RecommendationRun, path string) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("Opportunities")
	if err != nil {
		return eris.Wrap(err, "export: add opportunities sheet")
	}

	header := sheet.AddRow()
	for _, h := range opportunityHeader {
		header.AddCell().SetString(h)
	}

	for i := range run.Opportunities {
		o := &run.Opportunities[i]
		row := sheet.AddRow()
		row.AddCell().SetInt(i + 1)
		row.AddCell().SetString(o.Product.ProductID)
		row.AddCell().SetString(o.Product.Name)
		row.AddCell().SetString(o.Product.Carrier)
		row.AddCell().SetString(o.Product.ProductType)
		setOptionalFloat(row.AddCell(), o.Product.CurrentRate)
		setOptionalFloat(row.AddCell(), o.Product.GuaranteedMinRate)
		setOptionalInt(row.AddCell(), o.Product.SurrenderYears)
		setOptionalFloat(row.AddCell(), o.Product.FreeWithdrawalPct)
		row.AddCell().SetInt(o.Score)
		row.AddCell().SetString(o.MatchReason)
	}

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	addKeyValue(summary, "Run ID", run.RunID)
	addKeyValue(summary, "Created", run.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
	addKeyValue(summary, "Client", run.ClientID)
	addKeyValue(summary, "Opportunities", fmt.Sprintf("%d", len(run.Opportunities)))
	addKeyValue(summary, "Summary", run.Explanation.Summary)
	for _, source := range run.Explanation.DataSourcesUsed {
		addKeyValue(summary, "Data source", explain.SourceLabel(source))
	}
	for _, criterion := range run.Explanation.ChoiceCriteria {
		addKeyValue(summary, "Criterion", criterion)
	}
	if run.ReasonsToSwitch != nil {
		for _, pro := range run.ReasonsToSwitch.Pros {
			addKeyValue(summary, "Pro", pro)
		}
		for _, con := range run.ReasonsToSwitch.Cons {
			addKeyValue(summary, "Con", con)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addKeyValue(sheet *xlsx.Sheet, key, value string) {
	row := sheet.AddRow()
	row.AddCell().SetString(key)
	row.AddCell().SetString(value)
}

func setOptionalFloat(cell *xlsx.Cell, v *float64) {
	if v == nil {
		cell.SetString("")
		return
	}
	cell.SetFloat(*v)
}

func setOptionalInt(cell *xlsx.Cell, v *int) {
	if v == nil {
		cell.SetString("")
		return
	}
	cell.SetInt(*v)
}
