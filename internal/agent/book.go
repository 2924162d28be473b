package agent

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/meridian-wealth/renewal-cli/internal/audit"
	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// PolicySource provides the advisor's policies and their notifications.
type PolicySource interface {
	GetPolicies(ctx context.Context, customerIdentifier string) ([]model.Policy, error)
	GetNotifications(ctx context.Context, policyIDs []string) (map[string][]model.PolicyNotification, error)
}

// BookReviewer is the agent-one role: it annotates every policy in a
// customer's book of business with replacement, data quality, income
// activation, and schedule-meeting outcomes.
type BookReviewer struct {
	source   PolicySource
	recorder *audit.Recorder

	// now is replaceable in tests.
	now func() time.Time
}

// NewBookReviewer creates the agent-one role.
func NewBookReviewer(source PolicySource, recorder *audit.Recorder) *BookReviewer {
	return &BookReviewer{source: source, recorder: recorder, now: time.Now}
}

// Review produces the annotated book of business and records one audit
// event regardless of outcome.
func (r *BookReviewer) Review(ctx context.Context, customerIdentifier string) (*model.BookOfBusiness, error) {
	runID := uuid.New().String()
	inputSummary := map[string]any{
		"customer_identifier_scope": customerIdentifier,
		"tools_used":                []string{"book_of_business_review"},
	}

	book, err := r.review(ctx, customerIdentifier)

	outcome := audit.RunOutcome{
		RunID:         &runID,
		ClientIDScope: &customerIdentifier,
		InputSummary:  inputSummary,
		Err:           err,
	}
	if err == nil {
		outcome.Explanation = &model.ExplanationRecord{
			Summary: "Book of business produced with notifications and flags",
		}
	}
	r.recorder.Record(ctx, model.AgentOne, outcome)

	if err != nil {
		return nil, err
	}
	return book, nil
}

func (r *BookReviewer) review(ctx context.Context, customerIdentifier string) (*model.BookOfBusiness, error) {
	policies, err := r.source.GetPolicies(ctx, customerIdentifier)
	if err != nil {
		return nil, eris.Wrap(err, "agent: get policies")
	}
	book := &model.BookOfBusiness{CustomerIdentifier: customerIdentifier}
	if len(policies) == 0 {
		zap.L().Warn("agent: no policies found", zap.String("customer", customerIdentifier))
		return book, nil
	}

	ids := make([]string, 0, len(policies))
	for _, p := range policies {
		if id := policyID(&p); id != "" {
			ids = append(ids, id)
		}
	}
	notifications, err := r.source.GetNotifications(ctx, ids)
	if err != nil {
		return nil, eris.Wrap(err, "agent: get notifications")
	}

	today := r.now().UTC()
	for _, p := range policies {
		book.Policies = append(book.Policies, reviewPolicy(p, notifications[policyID(&p)], today))
	}
	return book, nil
}

func policyID(p *model.Policy) string {
	if p.ID != "" {
		return p.ID
	}
	return p.PolicyNumber
}

// fixtureBookDoc is the on-disk shape of a policy fixture file.
type fixtureBookDoc struct {
	CustomerIdentifier string                                `yaml:"customer_identifier"`
	Policies           []model.Policy                        `yaml:"policies"`
	Notifications      map[string][]model.PolicyNotification `yaml:"notifications"`
}

// FixturePolicySource implements PolicySource over a YAML fixture, for dev
// and CLI runs without a policy administration connection.
type FixturePolicySource struct {
	doc fixtureBookDoc
}

// NewFixturePolicySource loads a policy fixture YAML file.
func NewFixturePolicySource(path string) (*FixturePolicySource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "agent: read policy fixture %s", path)
	}
	var doc fixtureBookDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrapf(err, "agent: parse policy fixture %s", path)
	}
	return &FixturePolicySource{doc: doc}, nil
}

func (s *FixturePolicySource) GetPolicies(_ context.Context, customerIdentifier string) ([]model.Policy, error) {
	if s.doc.CustomerIdentifier != "" && s.doc.CustomerIdentifier != customerIdentifier {
		return nil, nil
	}
	return s.doc.Policies, nil
}

func (s *FixturePolicySource) GetNotifications(_ context.Context, policyIDs []string) (map[string][]model.PolicyNotification, error) {
	out := make(map[string][]model.PolicyNotification, len(policyIDs))
	for _, id := range policyIDs {
		if notifs, ok := s.doc.Notifications[id]; ok {
			out[id] = notifs
		}
	}
	return out, nil
}
