package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.QueryLogStore = (*QueryLogStore)(nil)

// QueryLogStore implements driven.QueryLogStore
type QueryLogStore struct {
	coll *mongo.Collection
}

// NewQueryLogStore creates a new QueryLogStore
func NewQueryLogStore(db *DB) *QueryLogStore {
	return &QueryLogStore{coll: db.Collection(QueryLogsCollection)}
}

func (s *QueryLogStore) Append(ctx context.Context, log *domain.SearchQueryLog) error {
	if _, err := s.coll.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("append query log: %w", err)
	}
	return nil
}

func sinceFilter(userID string, kind domain.EntityKind, since time.Time) bson.M {
	return bson.M{
		"userId":    userID,
		"kind":      string(kind),
		"createdAt": bson.M{"$gte": since},
	}
}

func (s *QueryLogStore) ListSince(ctx context.Context, userID string, kind domain.EntityKind, since time.Time) ([]*domain.SearchQueryLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.coll.Find(ctx, sinceFilter(userID, kind, since), opts)
	if err != nil {
		return nil, fmt.Errorf("list query logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []*domain.SearchQueryLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decode query logs: %w", err)
	}
	return logs, nil
}

func (s *QueryLogStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("purge query logs: %w", err)
	}
	return res.DeletedCount, nil
}
