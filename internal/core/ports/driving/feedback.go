package driving

import (
	"context"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

// CommentService manages comments on dishes and meals
type CommentService interface {
	// AddComment attaches a comment to an existing entity
	AddComment(ctx context.Context, actor *domain.AuthContext, kind domain.EntityKind, entityID, content string) (*domain.Comment, error)

	// ListComments returns a page of comments, newest first. page starts at 1.
	ListComments(ctx context.Context, kind domain.EntityKind, entityID string, page, limit int) ([]*domain.Comment, error)

	// DeleteComment removes a comment. Only the author or an admin may delete.
	DeleteComment(ctx context.Context, actor *domain.AuthContext, commentID string) error
}

// RatingService manages one-per-user ratings of dishes and meals
type RatingService interface {
	// AddRating creates or updates the actor's rating of an entity
	AddRating(ctx context.Context, actor *domain.AuthContext, kind domain.EntityKind, entityID string, value int) (*domain.Rating, error)

	// CalculateRating summarizes the ratings of an entity
	CalculateRating(ctx context.Context, kind domain.EntityKind, entityID string) (*domain.RatingSummary, error)
}
