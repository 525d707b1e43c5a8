package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EntityStore = (*EntityStore)(nil)

// entityDoc is the stored shape of a dish or meal.
type entityDoc struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	domain.EntityDraft `bson:",inline"`
	State              domain.LifecycleState `bson:"state"`
	PendingEdit        *domain.EntityDiff    `bson:"pendingEdit,omitempty"`
	Author             string                `bson:"author"`
	CreatedAt          time.Time             `bson:"createdAt"`
	UpdatedAt          time.Time             `bson:"updatedAt"`
}

func toEntityDoc(e *domain.LocalEntity) (*entityDoc, error) {
	doc := &entityDoc{
		EntityDraft: e.EntityDraft,
		State:       e.State,
		PendingEdit: e.PendingEdit,
		Author:      e.Author,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.ID != "" {
		oid, err := primitive.ObjectIDFromHex(e.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed id %q", domain.ErrInvalidInput, e.ID)
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d *entityDoc) toDomain(kind domain.EntityKind) *domain.LocalEntity {
	return &domain.LocalEntity{
		EntityDraft: d.EntityDraft,
		ID:          d.ID.Hex(),
		Kind:        kind,
		State:       d.State,
		PendingEdit: d.PendingEdit,
		Author:      d.Author,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// EntityStore implements driven.EntityStore for one entity kind.
type EntityStore struct {
	k    domain.EntityKind
	coll *mongo.Collection
}

// NewEntityStore creates an EntityStore over the collection that holds kind.
func NewEntityStore(db *DB, kind domain.EntityKind) *EntityStore {
	return &EntityStore{k: kind, coll: db.EntityCollection(kind)}
}

func (s *EntityStore) Kind() domain.EntityKind {
	return s.k
}

func (s *EntityStore) IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// visibleStates are the states public lookups may serve.
var visibleStates = bson.A{string(domain.StateActive), string(domain.StatePendingEdit)}

// ingredientFilter matches visible entities containing any of ingredients.
func ingredientFilter(ingredients []string, entityType string) bson.M {
	filter := bson.M{
		"ingredients.name": bson.M{"$in": ingredients},
		"state":            bson.M{"$in": visibleStates},
	}
	if entityType != "" {
		filter["type"] = entityType
	}
	return filter
}

func stateFilter(states []domain.LifecycleState) bson.M {
	values := make(bson.A, len(states))
	for i, st := range states {
		values[i] = string(st)
	}
	return bson.M{"state": bson.M{"$in": values}}
}

func (s *EntityStore) FindByIngredients(ctx context.Context, ingredients []string, entityType string) ([]*domain.LocalEntity, error) {
	if len(ingredients) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return s.find(ctx, ingredientFilter(ingredients, entityType), opts)
}

func (s *EntityStore) Get(ctx context.Context, id string) (*domain.LocalEntity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc entityDoc
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.k, err)
	}
	return doc.toDomain(s.k), nil
}

func (s *EntityStore) Create(ctx context.Context, entity *domain.LocalEntity) error {
	doc, err := toEntityDoc(entity)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create %s: %w", s.k, err)
	}
	entity.ID = doc.ID.Hex()
	entity.Kind = s.k
	return nil
}

func (s *EntityStore) Update(ctx context.Context, entity *domain.LocalEntity) error {
	doc, err := toEntityDoc(entity)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		return domain.ErrNotFound
	}

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return fmt.Errorf("update %s: %w", s.k, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *EntityStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.k, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *EntityStore) ListByState(ctx context.Context, states ...domain.LifecycleState) ([]*domain.LocalEntity, error) {
	if len(states) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, stateFilter(states), opts)
}

func (s *EntityStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

func (s *EntityStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.LocalEntity, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.k, err)
	}
	defer cursor.Close(ctx)

	var docs []entityDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.k, err)
	}

	entities := make([]*domain.LocalEntity, len(docs))
	for i := range docs {
		entities[i] = docs[i].toDomain(s.k)
	}
	return entities, nil
}
