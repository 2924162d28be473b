package profile

import (
	"context"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// Repository provides read-only access to persisted client, suitability, and
// product records. Implementations return nil (not an error) when a row is
// absent, and degrade to empty results when the backing store is unreachable;
// the pipeline treats missing data as "unknown", never as zero.
type Repository interface {
	GetClient(ctx context.Context, clientID string) (*model.ClientProfile, error)
	GetSuitability(ctx context.Context, clientID string) (*model.SuitabilityProfile, error)
	GetProducts(ctx context.Context) ([]model.Product, error)
}
