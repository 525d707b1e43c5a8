package driven

import (
	"context"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

// EntityStore handles local dish or meal persistence (MongoDB).
// Each store instance serves exactly one entity kind.
type EntityStore interface {
	// Kind returns the entity kind this store holds
	Kind() domain.EntityKind

	// IsValidID reports whether id is a syntactically valid store identifier
	IsValidID(id string) bool

	// FindByIngredients returns publicly visible entities that contain at least
	// one of the given ingredient names. An empty entityType matches every type.
	FindByIngredients(ctx context.Context, ingredients []string, entityType string) ([]*domain.LocalEntity, error)

	// Get retrieves an entity by ID regardless of lifecycle state.
	// Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, id string) (*domain.LocalEntity, error)

	// Create inserts a new entity and assigns its ID
	Create(ctx context.Context, entity *domain.LocalEntity) error

	// Update replaces the stored entity
	Update(ctx context.Context, entity *domain.LocalEntity) error

	// Delete removes an entity permanently
	Delete(ctx context.Context, id string) error

	// ListByState returns entities in any of the given lifecycle states, oldest first
	ListByState(ctx context.Context, states ...domain.LifecycleState) ([]*domain.LocalEntity, error)

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error
}
