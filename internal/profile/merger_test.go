package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

func strPtr(s string) *string { return &s }

func TestParseChanges_Empty(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte(""), []byte("   \n")} {
		changes, err := ParseChanges(raw)
		require.NoError(t, err)
		assert.True(t, changes.IsEmpty())
	}
}

func TestParseChanges_ValidSections(t *testing.T) {
	raw := []byte(`{
		"suitability": {"riskTolerance": "conservative"},
		"clientGoals": {"financialObjectives": "income"},
		"customerSelection": {"selectedProductIds": ["PROD-1"], "notes": "prefers carrier A"}
	}`)

	changes, err := ParseChanges(raw)
	require.NoError(t, err)
	require.NotNil(t, changes.Suitability)
	assert.Equal(t, "conservative", *changes.Suitability.RiskTolerance)
	require.NotNil(t, changes.CustomerSelection)
	assert.Equal(t, []string{"PROD-1"}, changes.CustomerSelection.SelectedProductIDs)
	assert.Equal(t, []string{"suitability", "clientGoals", "customerSelection"}, changes.SectionsPresent())
}

func TestParseChanges_UnknownFieldsIgnored(t *testing.T) {
	raw := []byte(`{"suitability": {"riskTolerance": "moderate", "someFutureField": 42}}`)

	changes, err := ParseChanges(raw)
	require.NoError(t, err)
	require.NotNil(t, changes.Suitability)
	assert.Equal(t, "moderate", *changes.Suitability.RiskTolerance)
}

func TestParseChanges_TypeMismatch(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"string field given object", `{"suitability": {"riskTolerance": {"level": "high"}}}`},
		{"section given array", `{"suitability": ["conservative"]}`},
		{"unparseable", `{"suitability":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChanges([]byte(tt.raw))
			require.Error(t, err)
			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestMerge_EmptyPayloadIsIdentity(t *testing.T) {
	client := &model.ClientProfile{
		ClientID: "C-1",
		Goals:    model.GoalsSection{FinancialObjectives: strPtr("growth")},
		Profile:  model.ProfileSection{TaxBracket: strPtr("24%")},
	}
	suit := &model.SuitabilityProfile{
		ClientID:    "C-1",
		Suitability: model.SuitabilitySection{RiskTolerance: strPtr("moderate")},
	}

	merged := Merge(client, suit, &model.ChangesPayload{})

	assert.Equal(t, "C-1", merged.ClientID)
	assert.Equal(t, "moderate", *merged.Suitability.RiskTolerance)
	assert.Equal(t, "growth", *merged.Goals.FinancialObjectives)
	assert.Equal(t, "24%", *merged.Profile.TaxBracket)
	assert.Empty(t, merged.SectionsReceived)
}

func TestMerge_PresentFieldsOverride(t *testing.T) {
	suit := &model.SuitabilityProfile{
		ClientID: "C-2",
		Suitability: model.SuitabilitySection{
			RiskTolerance: strPtr("moderate"),
			TimeHorizon:   strPtr("long-term"),
		},
	}
	changes := &model.ChangesPayload{
		Suitability: &model.SuitabilitySection{RiskTolerance: strPtr("conservative")},
	}

	merged := Merge(nil, suit, changes)

	// Overridden field takes the new value; absent fields keep persisted state.
	assert.Equal(t, "conservative", *merged.Suitability.RiskTolerance)
	assert.Equal(t, "long-term", *merged.Suitability.TimeHorizon)
	assert.Equal(t, []string{"suitability"}, merged.SectionsReceived)
}

func TestMerge_NoPersistedRecords(t *testing.T) {
	changes := &model.ChangesPayload{
		ClientGoals: &model.GoalsSection{FinancialObjectives: strPtr("income")},
	}

	merged := Merge(nil, nil, changes)

	assert.Empty(t, merged.ClientID)
	assert.Equal(t, "income", *merged.Goals.FinancialObjectives)
	assert.Nil(t, merged.Suitability.RiskTolerance)
}

func TestMerge_ClientIDFallsBackToSuitability(t *testing.T) {
	suit := &model.SuitabilityProfile{ClientID: "C-3"}
	merged := Merge(nil, suit, nil)
	assert.Equal(t, "C-3", merged.ClientID)
}
