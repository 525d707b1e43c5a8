package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven/mocks"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	ratatouilleID = "65f0c0ffee000000000000a1"
	omeletteID    = "65f0c0ffee000000000000a2"
	stewID        = "65f0c0ffee000000000000a3"
)

func fixedClock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type aggregationFixture struct {
	store    *mocks.MockEntityStore
	cache    *mocks.MockCache
	provider *mocks.MockRecipeProvider
	logs     *mocks.MockQueryLogStore
}

func newAggregationFixture() *aggregationFixture {
	return &aggregationFixture{
		store:    mocks.NewMockEntityStore(domain.KindDish),
		cache:    mocks.NewMockCache(),
		provider: mocks.NewMockRecipeProvider("spoonacular"),
		logs:     mocks.NewMockQueryLogStore(),
	}
}

func (f *aggregationFixture) service(mutate ...func(*AggregationConfig)) *aggregationService {
	cfg := AggregationConfig{
		Kind:      domain.KindDish,
		Store:     f.store,
		Cache:     f.cache,
		Providers: []driven.RecipeProvider{f.provider},
		QueryLogs: f.logs,
		Clock:     fixedClock,
		Logger:    discardLogger(),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewAggregationService(cfg).(*aggregationService)
}

func localDish(id, title string, state domain.LifecycleState, ingredients ...string) *domain.LocalEntity {
	ings := make([]domain.Ingredient, len(ingredients))
	for i, n := range ingredients {
		ings[i] = domain.Ingredient{Name: n}
	}
	return &domain.LocalEntity{
		ID:    id,
		State: state,
		EntityDraft: domain.EntityDraft{
			Title:       title,
			Ingredients: ings,
		},
		CreatedAt: fixedNow,
	}
}

func titles(entities []domain.RatedEntity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Title
	}
	return out
}

func TestAggregation_GetEntities_LocalRelevance(t *testing.T) {
	f := newAggregationFixture()
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot", "tomato", "onion"))
	svc := f.service()

	result, err := svc.GetEntities(context.Background(), []string{"carrot", "tomato"}, "")
	require.NoError(t, err)
	require.Len(t, result, 1)

	assert.Equal(t, ratatouilleID, result[0].ID)
	assert.Equal(t, 0.67, result[0].Relevance)
	assert.Equal(t, 1, result[0].MissingCount)
	assert.Equal(t, domain.ProviderLocal, result[0].Provider)
}

func TestAggregation_GetEntities_ProviderFailureKeepsLocal(t *testing.T) {
	f := newAggregationFixture()
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot", "tomato", "onion"))
	f.provider.GetEntitiesFn = func([]string, string) ([]domain.RatedEntity, error) {
		return nil, &domain.ProviderError{Provider: "spoonacular", Op: "getEntities", StatusCode: 500}
	}
	svc := f.service()

	result, err := svc.GetEntities(context.Background(), []string{"carrot", "tomato"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ratatouille"}, titles(result))
}

func TestAggregation_GetEntities_StoreFailureKeepsProviders(t *testing.T) {
	f := newAggregationFixture()
	f.store.FindErr = errors.New("mongo unavailable")
	f.provider = mocks.NewMockRecipeProvider("spoonacular",
		domain.RatedEntity{ID: "101", Title: "Tomato Salad", Relevance: 1},
	)
	svc := f.service()

	result, err := svc.GetEntities(context.Background(), []string{"tomato"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tomato Salad"}, titles(result))
}

func TestAggregation_GetEntities_PanickingProviderIsIsolated(t *testing.T) {
	f := newAggregationFixture()
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot", "tomato", "onion"))
	f.provider.GetEntitiesFn = func([]string, string) ([]domain.RatedEntity, error) {
		panic("unexpected payload")
	}
	svc := f.service()

	result, err := svc.GetEntities(context.Background(), []string{"carrot"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ratatouille"}, titles(result))
}

func TestAggregation_GetEntities_MergeOrder(t *testing.T) {
	f := newAggregationFixture()
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot", "tomato"))
	f.store.Put(localDish(omeletteID, "Omelette", domain.StatePendingAdd, "egg", "tomato"))
	f.provider = mocks.NewMockRecipeProvider("spoonacular",
		domain.RatedEntity{ID: "101", Title: "Tomato Salad", Relevance: 1},
		domain.RatedEntity{ID: "102", Title: "Carrot Soup", Relevance: 0.5},
		domain.RatedEntity{ID: "103", Title: "Irrelevant", Relevance: 0},
	)
	second := mocks.NewMockRecipeProvider("edamam",
		domain.RatedEntity{ID: "e1", Title: "Tomato Tart", Relevance: 0.5},
	)
	svc := f.service(func(c *AggregationConfig) {
		c.Providers = append(c.Providers, second)
	})

	result, err := svc.GetEntities(context.Background(), []string{"tomato"}, "")
	require.NoError(t, err)

	// ties keep local first, then providers in configuration order
	assert.Equal(t, []string{"Tomato Salad", "Ratatouille", "Carrot Soup", "Tomato Tart"}, titles(result))
	for _, e := range result {
		assert.Greater(t, e.Relevance, 0.0)
	}
}

func TestAggregation_GetEntities_IsIdempotentThroughCache(t *testing.T) {
	f := newAggregationFixture()
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot", "tomato", "onion"))
	f.provider = mocks.NewMockRecipeProvider("spoonacular",
		domain.RatedEntity{ID: "101", Title: "Tomato Salad", Relevance: 1, Ingredients: []domain.Ingredient{{Name: "tomato"}}},
	)
	svc := f.service()
	ctx := context.Background()

	first, err := svc.GetEntities(ctx, []string{"tomato", "carrot"}, "")
	require.NoError(t, err)
	second, err := svc.GetEntities(ctx, []string{"carrot", "tomato"}, "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.provider.Searches(), "second call must be served from the merged cache")
	assert.Equal(t, 1, f.store.Finds())

	key := MergedKey(domain.KindDish, initialGeneration, "carrot,tomato|type=")
	raw, ok := f.cache.Peek(key)
	require.True(t, ok)
	encoded, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, raw, string(encoded))
	assert.InDelta(t, DefaultMergedTTL.Seconds(), f.cache.TTL(key).Seconds(), 5)
}

func TestAggregation_GetEntities_CacheFailureIsAMiss(t *testing.T) {
	f := newAggregationFixture()
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot"))
	f.cache.GetErr = errors.New("redis unavailable")
	f.cache.SetErr = errors.New("redis unavailable")
	svc := f.service()

	result, err := svc.GetEntities(context.Background(), []string{"carrot"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ratatouille"}, titles(result))
}

func TestAggregation_GetEntities_TypeFilter(t *testing.T) {
	f := newAggregationFixture()
	soup := localDish(ratatouilleID, "Carrot Soup", domain.StateActive, "carrot")
	soup.Type = "soup"
	cake := localDish(omeletteID, "Carrot Cake", domain.StateActive, "carrot")
	cake.Type = "dessert"
	f.store.Put(soup)
	f.store.Put(cake)

	var gotType string
	f.provider.GetEntitiesFn = func(_ []string, entityType string) ([]domain.RatedEntity, error) {
		gotType = entityType
		return nil, nil
	}
	svc := f.service()

	result, err := svc.GetEntities(context.Background(), []string{"carrot"}, "soup")
	require.NoError(t, err)
	assert.Equal(t, []string{"Carrot Soup"}, titles(result))
	assert.Equal(t, "soup", gotType)
}

func TestAggregation_GetEntities_UnknownIngredients(t *testing.T) {
	svc := newAggregationFixture().service()

	_, err := svc.GetEntities(context.Background(), []string{"plutonium", " "}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAggregation_GetEntityDetails(t *testing.T) {
	f := newAggregationFixture()
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot"))
	f.store.Put(localDish(omeletteID, "Omelette", domain.StatePendingAdd, "egg"))
	f.store.Put(localDish(stewID, "Stew", domain.StatePendingDelete, "beef"))
	f.provider.AddDetails(&domain.DetailedEntity{ID: "716429", Title: "Pasta with Garlic"})
	svc := f.service()
	ctx := context.Background()

	tests := []struct {
		name      string
		id        string
		wantTitle string
		wantErr   error
	}{
		{"visible local entity", ratatouilleID, "Ratatouille", nil},
		{"pending add is forbidden", omeletteID, "", domain.ErrForbidden},
		{"pending delete is gone", stewID, "", domain.ErrNotFound},
		{"provider entity", "716429", "Pasta with Garlic", nil},
		{"unknown valid object id", "65f0c0ffee0000000000ffff", "", domain.ErrNotFound},
		{"unknown provider id", "1", "", domain.ErrNotFound},
		{"missing id", "  ", "", domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail, err := svc.GetEntityDetails(ctx, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, detail)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, detail.Title)
		})
	}

	_, cached := f.cache.Peek(SnapshotKey(domain.KindDish, ratatouilleID))
	assert.True(t, cached, "visible entity snapshot must be cached")
	_, cached = f.cache.Peek(SnapshotKey(domain.KindDish, omeletteID))
	assert.False(t, cached, "hidden entity must never be cached")
}

func TestAggregation_GetEntityDetails_ServedFromCache(t *testing.T) {
	f := newAggregationFixture()
	f.provider.AddDetails(&domain.DetailedEntity{ID: "716429", Title: "Pasta with Garlic"})
	svc := f.service()
	ctx := context.Background()

	_, err := svc.GetEntityDetails(ctx, "716429")
	require.NoError(t, err)
	detail, err := svc.GetEntityDetails(ctx, "716429")
	require.NoError(t, err)

	assert.Equal(t, "Pasta with Garlic", detail.Title)
	assert.Equal(t, 1, f.provider.DetailProbes())
}

func TestAggregation_GetEntityDetails_FirstProviderHitWins(t *testing.T) {
	f := newAggregationFixture()
	f.provider.DetailsErr = &domain.ProviderError{Provider: "spoonacular", Op: "getEntityDetails", StatusCode: 502}
	second := mocks.NewMockRecipeProvider("edamam")
	second.AddDetails(&domain.DetailedEntity{ID: "abc", Title: "Edamam Curry"})
	third := mocks.NewMockRecipeProvider("mealdb")
	third.AddDetails(&domain.DetailedEntity{ID: "abc", Title: "MealDB Curry"})
	svc := f.service(func(c *AggregationConfig) {
		c.Providers = append(c.Providers, second, third)
	})

	detail, err := svc.GetEntityDetails(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Edamam Curry", detail.Title)
	assert.Equal(t, "edamam", detail.Provider)
}

func TestAggregation_HasEntity(t *testing.T) {
	f := newAggregationFixture()
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot"))
	f.store.Put(localDish(omeletteID, "Omelette", domain.StatePendingAdd, "egg"))
	svc := f.service()
	ctx := context.Background()

	ok, err := svc.HasEntity(ctx, ratatouilleID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasEntity(ctx, omeletteID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasEntity(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.HasEntity(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func seedQueryLogs(t *testing.T, logs *mocks.MockQueryLogStore) {
	t.Helper()
	ctx := context.Background()
	entries := []*domain.SearchQueryLog{
		{ID: "1", UserID: "u1", Kind: domain.KindDish, Ingredients: []string{"carrot", "tomato"}, CreatedAt: fixedNow.Add(-time.Hour)},
		{ID: "2", UserID: "u1", Kind: domain.KindDish, Ingredients: []string{"carrot", "tomato"}, CreatedAt: fixedNow.Add(-48 * time.Hour)},
		{ID: "3", UserID: "u1", Kind: domain.KindDish, Ingredients: []string{"egg"}, CreatedAt: fixedNow.Add(-72 * time.Hour)},
		{ID: "4", UserID: "u1", Kind: domain.KindDish, Ingredients: []string{"beef"}, CreatedAt: fixedNow.Add(-20 * 24 * time.Hour)},
		{ID: "5", UserID: "u2", Kind: domain.KindDish, Ingredients: []string{"beef"}, CreatedAt: fixedNow},
		{ID: "6", UserID: "u1", Kind: domain.KindMeal, Ingredients: []string{"beef"}, CreatedAt: fixedNow},
	}
	for _, e := range entries {
		require.NoError(t, logs.Append(ctx, e))
	}
}

func TestAggregation_GetProposal(t *testing.T) {
	f := newAggregationFixture()
	seedQueryLogs(t, f.logs)
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot", "tomato", "onion"))
	f.store.Put(localDish(omeletteID, "Omelette", domain.StateActive, "egg", "milk"))
	f.store.Put(localDish(stewID, "Beef Stew", domain.StateActive, "beef", "carrot"))
	svc := f.service()

	proposals, err := svc.GetProposal(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, proposals, 3)

	// carrot=2 tomato=2 egg=1; beef fell out of the 14 day window
	assert.Equal(t, "Ratatouille", proposals[0].Title)
	assert.Equal(t, 4, proposals[0].RecommendationPoints)
	assert.Equal(t, "Omelette", proposals[1].Title)
	assert.Equal(t, 1, proposals[1].RecommendationPoints)
	assert.Equal(t, "Beef Stew", proposals[2].Title)
	assert.Equal(t, 2, proposals[2].RecommendationPoints)
}

func TestAggregation_GetProposal_RelevanceOrderAndLimit(t *testing.T) {
	f := newAggregationFixture()
	seedQueryLogs(t, f.logs)
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot", "tomato", "onion"))
	f.store.Put(localDish(omeletteID, "Omelette", domain.StateActive, "egg"))
	f.store.Put(localDish(stewID, "Beef Stew", domain.StateActive, "beef", "carrot"))
	svc := f.service(func(c *AggregationConfig) { c.ProposalLimit = 2 })

	proposals, err := svc.GetProposal(context.Background(), "u1")
	require.NoError(t, err)

	// Omelette has a single point but the best relevance, so it survives the cap
	require.Len(t, proposals, 2)
	assert.Equal(t, "Omelette", proposals[0].Title)
	assert.Equal(t, 1.0, proposals[0].Relevance)
	assert.Equal(t, "Ratatouille", proposals[1].Title)
	assert.Equal(t, 0.67, proposals[1].Relevance)
}

func TestAggregation_GetProposal_NoHistory(t *testing.T) {
	f := newAggregationFixture()
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot"))
	svc := f.service()

	proposals, err := svc.GetProposal(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, proposals)
	assert.Empty(t, proposals)
	assert.Equal(t, 0, f.store.Finds())

	_, err = svc.GetProposal(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAggregation_GetProposal_MealWindow(t *testing.T) {
	f := newAggregationFixture()
	f.store = mocks.NewMockEntityStore(domain.KindMeal)
	ctx := context.Background()
	require.NoError(t, f.logs.Append(ctx, &domain.SearchQueryLog{
		ID: "m1", UserID: "u1", Kind: domain.KindMeal, Ingredients: []string{"rice"}, CreatedAt: fixedNow.Add(-25 * 24 * time.Hour),
	}))
	f.store.Put(localDish(ratatouilleID, "Risotto", domain.StateActive, "rice"))
	svc := f.service(func(c *AggregationConfig) { c.Kind = domain.KindMeal })

	proposals, err := svc.GetProposal(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, "Risotto", proposals[0].Title)
}

func TestAggregation_AddProposal(t *testing.T) {
	f := newAggregationFixture()
	svc := f.service()
	ctx := context.Background()

	require.NoError(t, svc.AddProposal(ctx, "u1", []string{"Carrot", "plutonium", "tomato"}))
	require.NoError(t, svc.AddProposal(ctx, "u1", []string{"plutonium"}))

	logs := f.logs.All()
	require.Len(t, logs, 1)
	assert.Equal(t, []string{"carrot", "tomato"}, logs[0].Ingredients)
	assert.Equal(t, fixedNow, logs[0].CreatedAt)
	assert.Equal(t, domain.KindDish, logs[0].Kind)
	assert.NotEmpty(t, logs[0].ID)

	assert.ErrorIs(t, svc.AddProposal(ctx, "", []string{"carrot"}), domain.ErrUnauthorized)
}
