package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-wealth/renewal-cli/internal/audit"
	"github.com/meridian-wealth/renewal-cli/internal/explain"
	"github.com/meridian-wealth/renewal-cli/internal/matcher"
	"github.com/meridian-wealth/renewal-cli/internal/model"
	"github.com/meridian-wealth/renewal-cli/internal/profile"
)

// Catalog provides the sellable product set for matching. Implemented by
// the profile repository (db_products) and by the policy admin passthrough
// client (policy_admin_products).
type Catalog interface {
	GetProducts(ctx context.Context) ([]model.Product, error)
}

// RecommendRequest is one agent-two invocation.
type RecommendRequest struct {
	ClientID string
	AlertID  string

	// RunID allows idempotent retries; a retried call carrying the same
	// RunID results in one stored run. Empty generates a fresh id.
	RunID string

	// Changes is the raw front-end JSON (suitability, clientGoals,
	// clientProfile, customerSelection). Empty means no changes.
	Changes []byte
}

// RecommendResult carries the persisted run plus the compliance narrative.
type RecommendResult struct {
	Run       *model.RecommendationRun
	Narrative explain.BestInterestNarrative
	Event     *model.RunEvent
}

// Recommender is the agent-two role: merge persisted state with front-end
// changes, match the catalog, explain, persist, and record.
type Recommender struct {
	repo     profile.Repository
	catalog  Catalog
	source   string // model.SourceProductsDB or SourceProductsAdminFeed
	match    *matcher.Matcher
	store    audit.EventStore
	recorder *audit.Recorder
}

// NewRecommender creates the agent-two role. catalog may equal the
// repository; catalogSource names where the catalog comes from.
func NewRecommender(repo profile.Repository, catalog Catalog, catalogSource string, match *matcher.Matcher, store audit.EventStore, recorder *audit.Recorder) *Recommender {
	return &Recommender{
		repo:     repo,
		catalog:  catalog,
		source:   catalogSource,
		match:    match,
		store:    store,
		recorder: recorder,
	}
}

// Recommend runs the full pipeline for one invocation. Exactly one audit
// event is appended regardless of outcome. A malformed changes payload is
// rejected before any merge and recorded with input validation failed; a
// persistence failure on the run payload is logged and swallowed so the
// caller still receives the computed result.
func (r *Recommender) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResult, error) {
	runID := req.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	clientID := req.ClientID

	changes, err := profile.ParseChanges(req.Changes)
	if err != nil {
		event, _ := r.recorder.Record(ctx, model.AgentTwo, audit.RunOutcome{
			RunID:            &runID,
			ClientIDScope:    &clientID,
			InputSummary:     map[string]any{},
			Err:              err,
			ValidationFailed: true,
		})
		return &RecommendResult{Event: event}, err
	}

	inputSummary := map[string]any{
		"sections_present": changes.SectionsPresent(),
	}
	if req.AlertID != "" {
		inputSummary["alert_id"] = req.AlertID
	}

	// The three reads are independent; each degrades to nil/empty on its
	// own rather than failing the run.
	var client *model.ClientProfile
	var suit *model.SuitabilityProfile
	var products []model.Product

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		client, err = r.repo.GetClient(gctx, clientID)
		return err
	})
	g.Go(func() error {
		var err error
		suit, err = r.repo.GetSuitability(gctx, clientID)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = r.catalog.GetProducts(gctx)
		if err != nil {
			zap.L().Warn("agent: catalog read degraded to empty", zap.Error(err))
			products, err = nil, nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		// Repository impls degrade internally; an error here is a context
		// cancellation from the caller's deadline.
		event, _ := r.recorder.Record(ctx, model.AgentTwo, audit.RunOutcome{
			RunID:         &runID,
			ClientIDScope: &clientID,
			InputSummary:  inputSummary,
			Err:           err,
		})
		return &RecommendResult{Event: event}, err
	}

	merged := profile.Merge(client, suit, changes)
	if merged.ClientID == "" {
		merged.ClientID = clientID
	}

	matchRun := r.match.Match(merged, products)

	catalogSource := r.source
	if len(products) == 0 {
		catalogSource = ""
	}
	record := explain.BuildRecord(explain.Inputs{
		Merged:                merged,
		Match:                 matchRun,
		CatalogSource:         catalogSource,
		ClientRecordUsed:      client != nil,
		SuitabilityRecordUsed: suit != nil,
	})

	reasons := explain.ReasonsToSwitch(matchRun.Opportunities)
	narrative := explain.BuildNarrative(record, merged, matchRun.Opportunities, changes.CustomerSelection)

	run := &model.RecommendationRun{
		RunID:           runID,
		CreatedAt:       time.Now().UTC(),
		ClientID:        clientID,
		InputSummary:    inputSummary,
		Explanation:     record,
		Opportunities:   matchRun.Opportunities,
		ReasonsToSwitch: reasons,
		MergedProfile:   &merged,
		Selection:       changes.CustomerSelection,
	}

	// Audit persistence is best-effort: the caller still gets their result
	// when the store is unreachable.
	outcome := audit.RunOutcome{
		RunID:         &runID,
		ClientIDScope: &clientID,
		InputSummary:  inputSummary,
		Explanation:   &record,
	}
	if err := r.store.SaveRecommendationRun(ctx, *run); err != nil {
		zap.L().Error("agent: recommendation run persistence failed",
			zap.String("run_id", runID),
			zap.Error(err),
		)
	} else {
		outcome.PayloadRef = &runID
	}
	event, _ := r.recorder.Record(ctx, model.AgentTwo, outcome)

	return &RecommendResult{Run: run, Narrative: narrative, Event: event}, nil
}
