package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-wealth/renewal-cli/internal/audit"
	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// staticPolicySource serves a fixed set of policies and notifications.
type staticPolicySource struct {
	policies      []model.Policy
	notifications map[string][]model.PolicyNotification
	err           error
}

func (s *staticPolicySource) GetPolicies(context.Context, string) ([]model.Policy, error) {
	return s.policies, s.err
}

func (s *staticPolicySource) GetNotifications(_ context.Context, ids []string) (map[string][]model.PolicyNotification, error) {
	return s.notifications, nil
}

func TestBookReviewer_AnnotatesPolicies(t *testing.T) {
	ctx := context.Background()
	store := audit.NewMemory()
	source := &staticPolicySource{
		policies: []model.Policy{
			{
				ID:            "p-1",
				PolicyNumber:  "PN-1",
				Carrier:       "Atlas Life",
				ProductName:   "Fixed Annuity 5",
				ProductType:   "Fixed Annuity",
				Status:        "inforce",
				EffectiveDate: strPtr("2021-01-01"),
				RenewalDate:   strPtr("2026-06-25"),
				HasRoles:      true,
			},
			{ID: "p-2", PolicyNumber: "PN-2", Status: "lapsed", ProductName: "Term Life"},
		},
		notifications: map[string][]model.PolicyNotification{
			"p-1": {{Type: "renewal", Message: "Renewal approaching"}},
		},
	}
	reviewer := NewBookReviewer(source, audit.NewRecorder(store))
	reviewer.now = func() time.Time { return time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC) }

	book, err := reviewer.Review(ctx, "advisor-1")
	require.NoError(t, err)
	require.Len(t, book.Policies, 2)

	first := book.Policies[0]
	assert.True(t, first.ReplacementOpportunity)
	assert.True(t, first.IncomeActivationEligible)
	assert.True(t, first.ScheduleMeeting)
	require.Len(t, first.Notifications, 1)

	second := book.Policies[1]
	assert.False(t, second.ReplacementOpportunity)
	assert.NotEmpty(t, second.DataQualityIssues)

	// One agent-one event, success, with the customer scope.
	events, err := store.ListEvents(ctx, audit.EventFilter{AgentID: model.AgentOne})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Success)
	require.NotNil(t, events[0].ClientIDScope)
	assert.Equal(t, "advisor-1", *events[0].ClientIDScope)
}

func TestBookReviewer_EmptyBook(t *testing.T) {
	store := audit.NewMemory()
	reviewer := NewBookReviewer(&staticPolicySource{}, audit.NewRecorder(store))

	book, err := reviewer.Review(context.Background(), "advisor-1")
	require.NoError(t, err)
	assert.Empty(t, book.Policies)
	assert.Equal(t, "advisor-1", book.CustomerIdentifier)
}

func TestBookReviewer_SourceFailureAudited(t *testing.T) {
	ctx := context.Background()
	store := audit.NewMemory()
	reviewer := NewBookReviewer(&staticPolicySource{err: errors.New("feed unavailable")}, audit.NewRecorder(store))

	_, err := reviewer.Review(ctx, "advisor-1")
	require.Error(t, err)

	events, listErr := store.ListEvents(ctx, audit.EventFilter{})
	require.NoError(t, listErr)
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	require.NotNil(t, events[0].ErrorMessage)
	assert.Contains(t, *events[0].ErrorMessage, "feed unavailable")
}

func TestFixturePolicySource_RoundTrip(t *testing.T) {
	doc := `
customer_identifier: advisor-1
policies:
  - id: p-1
    policy_number: PN-1
    carrier: Atlas Life
    product_name: SecureGrowth 5
    product_type: Fixed Annuity
    status: inforce
    effective_date: "2021-01-01"
    renewal_date: "2026-06-25"
    has_roles: true
notifications:
  p-1:
    - type: renewal
      message: Renewal approaching
`
	path := filepath.Join(t.TempDir(), "book.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	source, err := NewFixturePolicySource(path)
	require.NoError(t, err)

	policies, err := source.GetPolicies(context.Background(), "advisor-1")
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, "PN-1", policies[0].PolicyNumber)

	// Scope mismatch yields no policies.
	policies, err = source.GetPolicies(context.Background(), "someone-else")
	require.NoError(t, err)
	assert.Empty(t, policies)

	notifs, err := source.GetNotifications(context.Background(), []string{"p-1", "p-2"})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, "Renewal approaching", notifs["p-1"][0].Message)
}
