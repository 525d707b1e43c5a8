package driven

import (
	"context"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

// CommentStore handles comment persistence (MongoDB)
type CommentStore interface {
	// Create inserts a comment
	Create(ctx context.Context, comment *domain.Comment) error

	// Get retrieves a comment by ID
	Get(ctx context.Context, id string) (*domain.Comment, error)

	// ListByEntity returns comments for an entity, newest first
	ListByEntity(ctx context.Context, kind domain.EntityKind, entityID string, offset, limit int) ([]*domain.Comment, error)

	// Delete removes a comment
	Delete(ctx context.Context, id string) error

	// DeleteByEntity removes every comment of an entity
	DeleteByEntity(ctx context.Context, kind domain.EntityKind, entityID string) (int64, error)
}

// RatingStore handles rating persistence (MongoDB)
type RatingStore interface {
	// GetByUser returns the user's rating of an entity, or domain.ErrNotFound
	GetByUser(ctx context.Context, kind domain.EntityKind, entityID, userID string) (*domain.Rating, error)

	// Save inserts or replaces a rating by ID
	Save(ctx context.Context, rating *domain.Rating) error

	// Values returns every rating value recorded for an entity
	Values(ctx context.Context, kind domain.EntityKind, entityID string) ([]int, error)

	// DeleteByEntity removes every rating of an entity
	DeleteByEntity(ctx context.Context, kind domain.EntityKind, entityID string) (int64, error)
}
