package driving

import (
	"context"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

// AggregationService searches dishes or meals across the local store and
// external providers. One instance serves one entity kind.
type AggregationService interface {
	// Kind returns the entity kind served
	Kind() domain.EntityKind

	// GetEntities returns entities ranked by ingredient overlap, best first.
	// Unknown ingredients are dropped; nothing valid left is a bad request.
	GetEntities(ctx context.Context, ingredients []string, entityType string) ([]domain.RatedEntity, error)

	// GetEntityDetails returns the full record for id from cache, the local store, or a provider
	GetEntityDetails(ctx context.Context, id string) (*domain.DetailedEntity, error)

	// HasEntity reports whether id resolves to a publicly visible entity
	HasEntity(ctx context.Context, id string) (bool, error)

	// GetProposal builds a personalized feed from the user's recent searches
	GetProposal(ctx context.Context, userID string) ([]domain.ProposedEntity, error)

	// AddProposal records a search for later proposals
	AddProposal(ctx context.Context, userID string, ingredients []string) error
}
