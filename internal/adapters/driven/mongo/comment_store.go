package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CommentStore = (*CommentStore)(nil)

// CommentStore implements driven.CommentStore
type CommentStore struct {
	coll *mongo.Collection
}

// NewCommentStore creates a new CommentStore
func NewCommentStore(db *DB) *CommentStore {
	return &CommentStore{coll: db.Collection(CommentsCollection)}
}

func entityFilter(kind domain.EntityKind, entityID string) bson.M {
	return bson.M{"kind": string(kind), "entityId": entityID}
}

// pageOptions sorts newest first and applies offset/limit. A zero limit returns everything.
func pageOptions(offset, limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func (s *CommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	if _, err := s.coll.InsertOne(ctx, comment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (s *CommentStore) Get(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

func (s *CommentStore) ListByEntity(ctx context.Context, kind domain.EntityKind, entityID string, offset, limit int) ([]*domain.Comment, error) {
	cursor, err := s.coll.Find(ctx, entityFilter(kind, entityID), pageOptions(offset, limit))
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := make([]*domain.Comment, 0)
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return comments, nil
}

func (s *CommentStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *CommentStore) DeleteByEntity(ctx context.Context, kind domain.EntityKind, entityID string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, entityFilter(kind, entityID))
	if err != nil {
		return 0, fmt.Errorf("delete comments: %w", err)
	}
	return res.DeletedCount, nil
}
