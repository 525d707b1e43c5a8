package driven

import (
	"context"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

// RecipeProvider is an external recipe API.
//
// Failures never surface as panics: a failed call returns an empty result
// together with a *domain.ProviderError so callers can log and continue.
type RecipeProvider interface {
	// Name identifies the provider; it is used as the provider tag on results
	Name() string

	// GetEntities searches by ingredient names and an optional type filter
	GetEntities(ctx context.Context, ingredients []string, entityType string) ([]domain.RatedEntity, error)

	// GetEntityDetails fetches a full record. Returns (nil, nil) when the provider does not know id.
	GetEntityDetails(ctx context.Context, id string) (*domain.DetailedEntity, error)
}
