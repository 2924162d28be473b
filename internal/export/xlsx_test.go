package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

func f64Ptr(f float64) *float64 { return &f }

func intPtr(n int) *int { return &n }

func TestWriteOpportunityReport(t *testing.T) {
	run := &model.RecommendationRun{
		RunID:     "run-1",
		CreatedAt: time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC),
		ClientID:  "C-1",
		Explanation: model.ExplanationRecord{
			Summary:         "2 opportunities from the catalog",
			DataSourcesUsed: []string{model.SourceProductsDB},
			ChoiceCriteria:  []string{"risk tolerance"},
		},
		Opportunities: []model.Opportunity{
			{
				Product: model.Product{
					ProductID:      "P-1",
					Name:           "SecureGrowth 5",
					Carrier:        "Atlas Life",
					ProductType:    "Fixed Annuity",
					CurrentRate:    f64Ptr(5.25),
					SurrenderYears: intPtr(5),
				},
				Score:       3,
				MatchReason: "Matched on: risk.",
			},
			{
				Product: model.Product{ProductID: "P-2", Name: "MarketMax"},
				Score:   1,
			},
		},
		ReasonsToSwitch: &model.ReasonsToSwitch{
			Pros: []string{"No new paperwork or underwriting"},
			Cons: []string{"Missing opportunity to capture higher market rates (5.25% available)"},
		},
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteOpportunityReport(run, path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	opps := f.Sheet["Opportunities"]
	require.NotNil(t, opps)
	// Header plus one row per opportunity.
	require.Len(t, opps.Rows, 3)
	assert.Equal(t, "Rank", opps.Rows[0].Cells[0].String())
	assert.Equal(t, "P-1", opps.Rows[1].Cells[1].String())
	assert.Equal(t, "SecureGrowth 5", opps.Rows[1].Cells[2].String())
	assert.Equal(t, "P-2", opps.Rows[2].Cells[1].String())

	summary := f.Sheet["Summary"]
	require.NotNil(t, summary)
	assert.Equal(t, "Run ID", summary.Rows[0].Cells[0].String())
	assert.Equal(t, "run-1", summary.Rows[0].Cells[1].String())

	// Internal source names never leak into the report.
	for _, row := range summary.Rows {
		for _, cell := range row.Cells {
			assert.NotEqual(t, model.SourceProductsDB, cell.String())
		}
	}
}

func TestWriteOpportunityReport_EmptyRun(t *testing.T) {
	run := &model.RecommendationRun{RunID: "run-empty", CreatedAt: time.Now().UTC()}

	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteOpportunityReport(run, path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	opps := f.Sheet["Opportunities"]
	require.NotNil(t, opps)
	assert.Len(t, opps.Rows, 1)
}
