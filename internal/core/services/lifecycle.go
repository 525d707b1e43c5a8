package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
	"github.com/pantrylab/pantry-core/internal/core/ports/driving"
)

// Ensure lifecycleService implements LifecycleService
var _ driving.LifecycleService = (*lifecycleService)(nil)

// LifecycleConfig holds the collaborators of a lifecycle service.
type LifecycleConfig struct {
	Kind        domain.EntityKind
	Store       driven.EntityStore
	Cache       driven.Cache
	Comments    driven.CommentStore
	Ratings     driven.RatingStore
	Clock       driven.Clock
	Logger      *slog.Logger
	Vocabulary  domain.IngredientVocabulary
	SnapshotTTL time.Duration // default: 24h
}

// lifecycleService implements the review workflow for one entity kind
type lifecycleService struct {
	kind        domain.EntityKind
	store       driven.EntityStore
	cache       cacheAside
	comments    driven.CommentStore
	ratings     driven.RatingStore
	clock       driven.Clock
	logger      *slog.Logger
	vocabulary  domain.IngredientVocabulary
	snapshotTTL time.Duration
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(cfg LifecycleConfig) driving.LifecycleService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("kind", string(cfg.Kind))

	clock := cfg.Clock
	if clock == nil {
		clock = driven.SystemClock
	}
	vocabulary := cfg.Vocabulary
	if vocabulary == nil {
		vocabulary = domain.Vocabulary
	}
	ttl := cfg.SnapshotTTL
	if ttl == 0 {
		ttl = DefaultSnapshotTTL
	}

	return &lifecycleService{
		kind:        cfg.Kind,
		store:       cfg.Store,
		cache:       newCacheAside(cfg.Cache, logger),
		comments:    cfg.Comments,
		ratings:     cfg.Ratings,
		clock:       clock,
		logger:      logger,
		vocabulary:  vocabulary,
		snapshotTTL: ttl,
	}
}

// Create stores a new entity in the pending-add state
func (s *lifecycleService) Create(ctx context.Context, actor *domain.AuthContext, draft domain.EntityDraft) (*domain.LocalEntity, error) {
	const op = "create"

	if err := authorize(op, actor, domain.CapabilityAdd); err != nil {
		return nil, err
	}

	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return nil, domain.BadRequest(op, "title is required")
	}
	draft.Ingredients = s.vocabulary.FilterIngredients(draft.Ingredients)
	if len(draft.Ingredients) == 0 {
		return nil, domain.BadRequest(op, "at least one known ingredient is required")
	}
	if draft.PrepTime < 0 {
		return nil, domain.BadRequest(op, "prepTime must not be negative")
	}

	now := s.clock()
	entity := &domain.LocalEntity{
		EntityDraft: draft,
		Kind:        s.kind,
		State:       domain.StatePendingAdd,
		Author:      actor.Login,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, entity); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("entity submitted for review", "id", entity.ID, "author", actor.Login)
	return entity, nil
}

// ConfirmCreate publishes a pending entity and caches its snapshot
func (s *lifecycleService) ConfirmCreate(ctx context.Context, reviewer *domain.AuthContext, id string) (*domain.LocalEntity, error) {
	entity, err := s.transition(ctx, "confirmCreate", reviewer, id, domain.EventConfirmCreate)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, "confirmCreate", entity); err != nil {
		return nil, err
	}
	s.cache.set(ctx, SnapshotKey(s.kind, entity.ID), entity.Detail(), s.snapshotTTL)
	s.cache.bumpGeneration(ctx, s.kind)
	return entity, nil
}

// Edit attaches diff to an active entity without applying it
func (s *lifecycleService) Edit(ctx context.Context, actor *domain.AuthContext, id string, diff domain.EntityDiff) (*domain.LocalEntity, error) {
	const op = "edit"

	if err := authorize(op, actor, domain.CapabilityEdit); err != nil {
		return nil, err
	}
	if diff.IsEmpty() {
		return nil, domain.BadRequest(op, "nothing to change")
	}
	if diff.Title != nil && strings.TrimSpace(*diff.Title) == "" {
		return nil, domain.BadRequest(op, "title must not be empty")
	}
	if diff.Ingredients != nil {
		diff.Ingredients = s.vocabulary.FilterIngredients(diff.Ingredients)
		if len(diff.Ingredients) == 0 {
			return nil, domain.BadRequest(op, "at least one known ingredient is required")
		}
	}

	entity, err := s.transition(ctx, op, actor, id, domain.EventEdit)
	if err != nil {
		return nil, err
	}
	entity.PendingEdit = &diff
	if err := s.save(ctx, op, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// ConfirmEdit merges the pending diff and refreshes the snapshot
func (s *lifecycleService) ConfirmEdit(ctx context.Context, reviewer *domain.AuthContext, id string) (*domain.LocalEntity, error) {
	const op = "confirmEdit"

	entity, err := s.transition(ctx, op, reviewer, id, domain.EventConfirmEdit)
	if err != nil {
		return nil, err
	}
	entity.PendingEdit.Apply(&entity.EntityDraft)
	entity.PendingEdit = nil
	if err := s.save(ctx, op, entity); err != nil {
		return nil, err
	}
	s.cache.set(ctx, SnapshotKey(s.kind, entity.ID), entity.Detail(), s.snapshotTTL)
	s.cache.bumpGeneration(ctx, s.kind)
	return entity, nil
}

// Delete hides an active entity and evicts its snapshot and every merged
// search result that could list it
func (s *lifecycleService) Delete(ctx context.Context, actor *domain.AuthContext, id string) (*domain.LocalEntity, error) {
	const op = "delete"

	entity, err := s.transition(ctx, op, actor, id, domain.EventDelete)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, op, entity); err != nil {
		return nil, err
	}
	s.cache.del(ctx, SnapshotKey(s.kind, entity.ID))
	s.cache.bumpGeneration(ctx, s.kind)
	return entity, nil
}

// ConfirmDelete cascades to the entity's comments and ratings, then removes it.
// A failed cascade leaves the entity pending so the confirm can be retried.
func (s *lifecycleService) ConfirmDelete(ctx context.Context, reviewer *domain.AuthContext, id string) error {
	const op = "confirmDelete"

	entity, err := s.transition(ctx, op, reviewer, id, domain.EventConfirmDelete)
	if err != nil {
		return err
	}

	var comments, ratings int64
	if s.comments != nil {
		if comments, err = s.comments.DeleteByEntity(ctx, s.kind, entity.ID); err != nil {
			return fmt.Errorf("%s: delete comments: %w", op, err)
		}
	}
	if s.ratings != nil {
		if ratings, err = s.ratings.DeleteByEntity(ctx, s.kind, entity.ID); err != nil {
			return fmt.Errorf("%s: delete ratings: %w", op, err)
		}
	}

	if err := s.store.Delete(ctx, entity.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.cache.del(ctx, SnapshotKey(s.kind, entity.ID))
	s.cache.bumpGeneration(ctx, s.kind)

	s.logger.Info("entity deleted", "id", entity.ID, "reviewer", reviewer.Login,
		"comments_removed", comments, "ratings_removed", ratings)
	return nil
}

// ListPending returns every entity awaiting review, oldest first
func (s *lifecycleService) ListPending(ctx context.Context, reviewer *domain.AuthContext) ([]*domain.LocalEntity, error) {
	const op = "listPending"

	if err := authorize(op, reviewer, domain.CapabilityReview); err != nil {
		return nil, err
	}
	pending, err := s.store.ListByState(ctx, domain.StatePendingAdd, domain.StatePendingEdit, domain.StatePendingDelete)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pending, nil
}

// transition authorizes actor for ev, loads id and moves it to the next state.
// The caller persists the result.
func (s *lifecycleService) transition(ctx context.Context, op string, actor *domain.AuthContext, id string, ev domain.LifecycleEvent) (*domain.LocalEntity, error) {
	if err := authorize(op, actor, ev.Capability()); err != nil {
		return nil, err
	}

	entity, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}

	next, err := entity.State.Transition(ev)
	if err != nil {
		return nil, domain.E(domain.ErrInvalidTransition, op,
			fmt.Sprintf("%s %s is %s", s.kind, entity.ID, entity.State))
	}
	entity.State = next
	entity.UpdatedAt = s.clock()
	return entity, nil
}

func (s *lifecycleService) load(ctx context.Context, op, id string) (*domain.LocalEntity, error) {
	id = strings.TrimSpace(id)
	if !s.store.IsValidID(id) {
		return nil, domain.BadRequest(op, fmt.Sprintf("malformed %s id %q", s.kind, id))
	}
	entity, err := s.store.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(op, fmt.Sprintf("%s %s not found", s.kind, id))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entity, nil
}

func (s *lifecycleService) save(ctx context.Context, op string, entity *domain.LocalEntity) error {
	if err := s.store.Update(ctx, entity); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info("entity transitioned", "op", op, "id", entity.ID, "state", string(entity.State))
	return nil
}

// authorize checks that actor is signed in and holds want.
func authorize(op string, actor *domain.AuthContext, want domain.Capability) error {
	if actor == nil || actor.UserID == "" {
		return domain.Unauthorized(op, "login required")
	}
	if !domain.HasCapability(actor, want) {
		return domain.Forbidden(op, fmt.Sprintf("%s capability required", want))
	}
	return nil
}
