package driving

import (
	"context"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

// LifecycleService runs the two-step create/edit/delete review workflow for
// locally stored entities of one kind.
type LifecycleService interface {
	// Create stores a new entity pending review
	Create(ctx context.Context, actor *domain.AuthContext, draft domain.EntityDraft) (*domain.LocalEntity, error)

	// ConfirmCreate publishes a pending entity
	ConfirmCreate(ctx context.Context, reviewer *domain.AuthContext, id string) (*domain.LocalEntity, error)

	// Edit attaches a proposed diff to an active entity
	Edit(ctx context.Context, actor *domain.AuthContext, id string, diff domain.EntityDiff) (*domain.LocalEntity, error)

	// ConfirmEdit applies the pending diff
	ConfirmEdit(ctx context.Context, reviewer *domain.AuthContext, id string) (*domain.LocalEntity, error)

	// Delete hides an active entity pending review
	Delete(ctx context.Context, actor *domain.AuthContext, id string) (*domain.LocalEntity, error)

	// ConfirmDelete removes the entity and its comments and ratings
	ConfirmDelete(ctx context.Context, reviewer *domain.AuthContext, id string) error

	// ListPending returns the review queue
	ListPending(ctx context.Context, reviewer *domain.AuthContext) ([]*domain.LocalEntity, error)
}
