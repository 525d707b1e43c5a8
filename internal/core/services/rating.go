package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
	"github.com/pantrylab/pantry-core/internal/core/ports/driving"
)

// Ensure ratingService implements RatingService
var _ driving.RatingService = (*ratingService)(nil)

// ratingService implements the RatingService interface
type ratingService struct {
	store    driven.RatingStore
	catalogs Catalogs
	clock    driven.Clock
}

// NewRatingService creates a new RatingService
func NewRatingService(store driven.RatingStore, catalogs Catalogs, clock driven.Clock) driving.RatingService {
	if clock == nil {
		clock = driven.SystemClock
	}
	return &ratingService{
		store:    store,
		catalogs: catalogs,
		clock:    clock,
	}
}

// AddRating upserts the actor's rating; a second call updates the same row
func (s *ratingService) AddRating(ctx context.Context, actor *domain.AuthContext, kind domain.EntityKind, entityID string, value int) (*domain.Rating, error) {
	const op = "addRating"

	if actor == nil || actor.UserID == "" {
		return nil, domain.Unauthorized(op, "login required")
	}
	if value < domain.MinRating || value > domain.MaxRating {
		return nil, domain.BadRequest(op, fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	if err := s.catalogs.requireEntity(ctx, op, kind, entityID); err != nil {
		return nil, err
	}

	now := s.clock()
	rating, err := s.store.GetByUser(ctx, kind, entityID, actor.UserID)
	switch {
	case err == nil:
		rating.Value = value
		rating.UpdatedAt = now
	case errors.Is(err, domain.ErrNotFound):
		rating = &domain.Rating{
			ID:        uuid.NewString(),
			EntityID:  entityID,
			Kind:      kind,
			UserID:    actor.UserID,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		}
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.Save(ctx, rating); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rating, nil
}

// CalculateRating averages an entity's ratings; no ratings yields {0, 0}
func (s *ratingService) CalculateRating(ctx context.Context, kind domain.EntityKind, entityID string) (*domain.RatingSummary, error) {
	const op = "calculateRating"

	if !kind.Valid() {
		return nil, domain.BadRequest(op, fmt.Sprintf("unknown kind %q", kind))
	}
	values, err := s.store.Values(ctx, kind, entityID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	summary := domain.SummarizeRatings(entityID, values)
	return &summary, nil
}
