package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
	"github.com/pantrylab/pantry-core/internal/core/ports/driving"
)

// Ensure commentService implements CommentService
var _ driving.CommentService = (*commentService)(nil)

const (
	maxCommentLength   = 2000
	defaultCommentPage = 20
	maxCommentPage     = 100
)

// Catalogs maps each entity kind to the engine that can resolve its IDs.
type Catalogs map[domain.EntityKind]driving.AggregationService

// requireEntity fails with NotFound unless kind/id resolves to a visible entity.
func (c Catalogs) requireEntity(ctx context.Context, op string, kind domain.EntityKind, id string) error {
	catalog, ok := c[kind]
	if !ok {
		return domain.BadRequest(op, fmt.Sprintf("unknown kind %q", kind))
	}
	if strings.TrimSpace(id) == "" {
		return domain.BadRequest(op, "missing id")
	}
	exists, err := catalog.HasEntity(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NotFound(op, fmt.Sprintf("%s %s not found", kind, id))
	}
	return nil
}

// commentService implements the CommentService interface
type commentService struct {
	store    driven.CommentStore
	catalogs Catalogs
	clock    driven.Clock
	logger   *slog.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(store driven.CommentStore, catalogs Catalogs, clock driven.Clock, logger *slog.Logger) driving.CommentService {
	if clock == nil {
		clock = driven.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &commentService{
		store:    store,
		catalogs: catalogs,
		clock:    clock,
		logger:   logger,
	}
}

// AddComment attaches a comment to an existing entity
func (s *commentService) AddComment(ctx context.Context, actor *domain.AuthContext, kind domain.EntityKind, entityID, content string) (*domain.Comment, error) {
	const op = "addComment"

	if actor == nil || actor.UserID == "" {
		return nil, domain.Unauthorized(op, "login required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.BadRequest(op, "content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, domain.BadRequest(op, fmt.Sprintf("content exceeds %d characters", maxCommentLength))
	}
	if err := s.catalogs.requireEntity(ctx, op, kind, entityID); err != nil {
		return nil, err
	}

	now := s.clock()
	comment := &domain.Comment{
		ID:        uuid.NewString(),
		EntityID:  entityID,
		Kind:      kind,
		UserID:    actor.UserID,
		Login:     actor.Login,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return comment, nil
}

// ListComments returns a page of comments, newest first
func (s *commentService) ListComments(ctx context.Context, kind domain.EntityKind, entityID string, page, limit int) ([]*domain.Comment, error) {
	const op = "listComments"

	if !kind.Valid() {
		return nil, domain.BadRequest(op, fmt.Sprintf("unknown kind %q", kind))
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultCommentPage
	}
	if limit > maxCommentPage {
		limit = maxCommentPage
	}

	comments, err := s.store.ListByEntity(ctx, kind, entityID, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return comments, nil
}

// DeleteComment removes a comment owned by actor, or any comment for admins
func (s *commentService) DeleteComment(ctx context.Context, actor *domain.AuthContext, commentID string) error {
	const op = "deleteComment"

	if actor == nil || actor.UserID == "" {
		return domain.Unauthorized(op, "login required")
	}
	comment, err := s.store.Get(ctx, commentID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound(op, "comment not found")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if comment.UserID != actor.UserID && !actor.IsAdmin() {
		return domain.Forbidden(op, "only the author or an admin may delete a comment")
	}
	if err := s.store.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info("comment deleted", "id", commentID, "by", actor.Login)
	return nil
}
