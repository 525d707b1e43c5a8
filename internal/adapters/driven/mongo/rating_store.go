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
var _ driven.RatingStore = (*RatingStore)(nil)

// RatingStore implements driven.RatingStore.
// A unique index on (kind, entityId, userId) keeps one rating per user.
type RatingStore struct {
	coll *mongo.Collection
}

// NewRatingStore creates a new RatingStore
func NewRatingStore(db *DB) *RatingStore {
	return &RatingStore{coll: db.Collection(RatingsCollection)}
}

func (s *RatingStore) GetByUser(ctx context.Context, kind domain.EntityKind, entityID, userID string) (*domain.Rating, error) {
	filter := entityFilter(kind, entityID)
	filter["userId"] = userID

	var rating domain.Rating
	err := s.coll.FindOne(ctx, filter).Decode(&rating)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rating: %w", err)
	}
	return &rating, nil
}

func (s *RatingStore) Save(ctx context.Context, rating *domain.Rating) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rating.ID}, rating, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("save rating: %w", err)
	}
	return nil
}

func (s *RatingStore) Values(ctx context.Context, kind domain.EntityKind, entityID string) ([]int, error) {
	opts := options.Find().SetProjection(bson.M{"value": 1})
	cursor, err := s.coll.Find(ctx, entityFilter(kind, entityID), opts)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var values []int
	for cursor.Next(ctx) {
		var row struct {
			Value int `bson:"value"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode rating: %w", err)
		}
		values = append(values, row.Value)
	}
	return values, cursor.Err()
}

func (s *RatingStore) DeleteByEntity(ctx context.Context, kind domain.EntityKind, entityID string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, entityFilter(kind, entityID))
	if err != nil {
		return 0, fmt.Errorf("delete ratings: %w", err)
	}
	return res.DeletedCount, nil
}
