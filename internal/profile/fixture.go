package profile

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// FixtureDoc is the on-disk shape of a fixture file.
type FixtureDoc struct {
	Clients             []model.ClientProfile      `yaml:"clients"`
	SuitabilityProfiles []model.SuitabilityProfile `yaml:"suitability_profiles"`
	Products            []model.Product            `yaml:"products"`
}

// FixtureRepository implements Repository over an in-memory data set loaded
// from YAML. Used for tests and for CLI runs without a configured database;
// selected by constructor injection, never a global flag.
type FixtureRepository struct {
	clients     map[string]model.ClientProfile
	suitability map[string]model.SuitabilityProfile
	products    []model.Product
}

// NewFixtureRepository loads a fixture YAML file.
func NewFixtureRepository(path string) (*FixtureRepository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "profile: read fixture %s", path)
	}
	var doc FixtureDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrapf(err, "profile: parse fixture %s", path)
	}
	return NewFixtureRepositoryFromDoc(doc), nil
}

// NewFixtureRepositoryFromDoc builds a FixtureRepository from parsed data.
func NewFixtureRepositoryFromDoc(doc FixtureDoc) *FixtureRepository {
	r := &FixtureRepository{
		clients:     make(map[string]model.ClientProfile, len(doc.Clients)),
		suitability: make(map[string]model.SuitabilityProfile, len(doc.SuitabilityProfiles)),
		products:    doc.Products,
	}
	for _, c := range doc.Clients {
		r.clients[c.ClientID] = c
	}
	for _, s := range doc.SuitabilityProfiles {
		r.suitability[s.ClientID] = s
	}
	return r
}

func (r *FixtureRepository) GetClient(_ context.Context, clientID string) (*model.ClientProfile, error) {
	c, ok := r.clients[clientID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *FixtureRepository) GetSuitability(_ context.Context, clientID string) (*model.SuitabilityProfile, error) {
	s, ok := r.suitability[clientID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *FixtureRepository) GetProducts(_ context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		if p.CanSell {
			out = append(out, p)
		}
	}
	return out, nil
}
