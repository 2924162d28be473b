package main

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/meridian-wealth/renewal-cli/internal/agent"
	"github.com/meridian-wealth/renewal-cli/internal/audit"
	"github.com/meridian-wealth/renewal-cli/internal/matcher"
	"github.com/meridian-wealth/renewal-cli/internal/model"
	"github.com/meridian-wealth/renewal-cli/internal/policyadmin"
	"github.com/meridian-wealth/renewal-cli/internal/profile"
)

const (
	profileFixtureFile = "profiles.yaml"
	bookFixtureFile    = "book.yaml"
)

// env holds the wired dependencies shared by the commands. Construction is
// driven by store.driver: "postgres" and "sqlite" back the audit trail with a
// database, "memory" keeps it in-process (dev only). The profile repository
// uses Postgres when a database URL is set and the YAML fixtures otherwise.
type env struct {
	store    audit.EventStore
	repo     profile.Repository
	recorder *audit.Recorder

	closers []func() error
}

func newEnv(ctx context.Context) (*env, error) {
	e := &env{}

	store, err := e.openStore(ctx)
	if err != nil {
		return nil, err
	}
	e.store = store
	e.recorder = audit.NewRecorder(store)

	repo, err := e.openRepository(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.repo = repo

	return e, nil
}

func (e *env) openStore(ctx context.Context) (audit.EventStore, error) {
	switch cfg.Store.Driver {
	case "postgres":
		store, err := audit.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns, cfg.Store.MinConns)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, store.Close)
		return store, nil
	case "sqlite":
		store, err := audit.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, store.Close)
		return store, nil
	case "memory":
		return audit.NewMemory(), nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (e *env) openRepository(ctx context.Context) (profile.Repository, error) {
	if cfg.Store.Driver == "postgres" && cfg.Store.DatabaseURL != "" {
		repo, err := profile.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns, cfg.Store.MinConns)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, repo.Close)
		return repo, nil
	}

	path := filepath.Join(cfg.Fixtures.Dir, profileFixtureFile)
	zap.L().Info("using fixture repository", zap.String("path", path))
	return profile.NewFixtureRepository(path)
}

// catalog picks the product source: the policy-administration feed when its
// base URL is configured, otherwise the repository's product table.
func (e *env) catalog() (agent.Catalog, string) {
	if cfg.PolicyAdmin.BaseURL != "" {
		return policyadmin.New(cfg.PolicyAdmin), model.SourceProductsAdminFeed
	}
	return e.repo, model.SourceProductsDB
}

func (e *env) recommender() *agent.Recommender {
	catalog, source := e.catalog()
	match := matcher.New(cfg.Matcher.MaxOpportunities)
	return agent.NewRecommender(e.repo, catalog, source, match, e.store, e.recorder)
}

func (e *env) bookReviewer() (*agent.BookReviewer, error) {
	path := filepath.Join(cfg.Fixtures.Dir, bookFixtureFile)
	source, err := agent.NewFixturePolicySource(path)
	if err != nil {
		return nil, err
	}
	return agent.NewBookReviewer(source, e.recorder), nil
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			zap.L().Warn("close failed", zap.Error(err))
		}
	}
}
