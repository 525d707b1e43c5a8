package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

func TestIngredientFilter(t *testing.T) {
	filter := ingredientFilter([]string{"carrot", "tomato"}, "")
	assert.Equal(t, bson.M{"$in": []string{"carrot", "tomato"}}, filter["ingredients.name"])
	assert.Equal(t, bson.M{"$in": bson.A{"active", "pending_edit"}}, filter["state"])
	_, typed := filter["type"]
	assert.False(t, typed, "empty type must not filter")

	filter = ingredientFilter([]string{"egg"}, "breakfast")
	assert.Equal(t, "breakfast", filter["type"])
}

func TestStateFilter(t *testing.T) {
	filter := stateFilter([]domain.LifecycleState{domain.StatePendingAdd, domain.StatePendingDelete})
	assert.Equal(t, bson.M{"state": bson.M{"$in": bson.A{"pending_add", "pending_delete"}}}, filter)
}

func TestSinceFilter(t *testing.T) {
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	filter := sinceFilter("u1", domain.KindMeal, since)
	assert.Equal(t, "u1", filter["userId"])
	assert.Equal(t, "meal", filter["kind"])
	assert.Equal(t, bson.M{"$gte": since}, filter["createdAt"])
}

func TestPageOptions(t *testing.T) {
	opts := pageOptions(4, 2)
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(4), *opts.Skip)
	assert.Equal(t, int64(2), *opts.Limit)

	all := pageOptions(0, 0)
	assert.Nil(t, all.Skip)
	assert.Nil(t, all.Limit)
}

func TestEntityDocRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	title := "Better Ratatouille"
	entity := &domain.LocalEntity{
		EntityDraft: domain.EntityDraft{
			Title:       "Ratatouille",
			PrepTime:    45,
			Ingredients: []domain.Ingredient{{Name: "carrot"}, {Name: "tomato"}},
			Type:        "main",
		},
		ID:          "65f0c0ffee000000000000a1",
		Kind:        domain.KindDish,
		State:       domain.StatePendingEdit,
		PendingEdit: &domain.EntityDiff{Title: &title},
		Author:      "cook",
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	doc, err := toEntityDoc(entity)
	require.NoError(t, err)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var flat bson.M
	require.NoError(t, bson.Unmarshal(raw, &flat))
	assert.Equal(t, "Ratatouille", flat["title"], "draft fields are stored at the top level")
	assert.Equal(t, "pending_edit", flat["state"])
	assert.IsType(t, primitive.ObjectID{}, flat["_id"])

	var decoded entityDoc
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	got := decoded.toDomain(domain.KindDish)
	assert.Equal(t, entity.ID, got.ID)
	assert.Equal(t, entity.EntityDraft, got.EntityDraft)
	assert.Equal(t, title, *got.PendingEdit.Title)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestToEntityDocRejectsMalformedID(t *testing.T) {
	_, err := toEntityDoc(&domain.LocalEntity{ID: "not-an-object-id"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	doc, err := toEntityDoc(&domain.LocalEntity{})
	require.NoError(t, err)
	assert.True(t, doc.ID.IsZero())
}

func TestIndexModels(t *testing.T) {
	models := indexModels()
	for _, name := range []string{DishesCollection, MealsCollection, CommentsCollection, RatingsCollection, QueryLogsCollection} {
		assert.NotEmpty(t, models[name], name)
	}

	ratings := models[RatingsCollection]
	require.Len(t, ratings, 1)
	require.NotNil(t, ratings[0].Options.Unique)
	assert.True(t, *ratings[0].Options.Unique)
}
