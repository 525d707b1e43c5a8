package providers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven/mocks"
)

const findByIngredientsBody = `[
  {
    "id": 716429,
    "title": "Carrot Tomato Soup",
    "image": "https://img.spoonacular.com/recipes/716429-312x231.jpg",
    "usedIngredientCount": 2,
    "missedIngredientCount": 1,
    "usedIngredients": [{"name": "Carrot", "amount": 2, "unit": "pieces"}, {"name": "tomato", "amount": 3, "unit": ""}],
    "missedIngredients": [{"name": "onion", "amount": 1, "unit": ""}]
  },
  {
    "id": 42,
    "title": "Plain Carrots",
    "image": "",
    "usedIngredientCount": 1,
    "missedIngredientCount": 0,
    "usedIngredients": [{"name": "carrot"}],
    "missedIngredients": []
  }
]`

const informationBody = `{
  "id": 716429,
  "title": "Carrot Tomato Soup",
  "image": "https://img.spoonacular.com/recipes/716429-556x370.jpg",
  "summary": "A warming soup.",
  "readyInMinutes": 35,
  "vegetarian": true,
  "vegan": false,
  "glutenFree": true,
  "dairyFree": true,
  "sourceUrl": "https://example.com/soup",
  "creditsText": "Jane Doe",
  "dishTypes": ["soup", "lunch"],
  "extendedIngredients": [{"name": "carrot", "amount": 2, "unit": "pieces"}],
  "analyzedInstructions": [{"name": "", "steps": [{"number": 1, "step": "Chop."}, {"number": 2, "step": "Simmer."}]}]
}`

type fakeAPI struct {
	srv   *httptest.Server
	hits  atomic.Int32
	last  atomic.Value // *http.Request
	reply func(w http.ResponseWriter, r *http.Request)
}

func newFakeAPI(t *testing.T, reply func(w http.ResponseWriter, r *http.Request)) *fakeAPI {
	t.Helper()
	api := &fakeAPI{reply: reply}
	api.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.hits.Add(1)
		api.last.Store(r)
		api.reply(w, r)
	}))
	t.Cleanup(api.srv.Close)
	return api
}

func (f *fakeAPI) lastRequest() *http.Request {
	r, _ := f.last.Load().(*http.Request)
	return r
}

func jsonReply(status int, body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAdapter(api *fakeAPI, cache *mocks.MockCache, mutate ...func(*Config)) *Adapter {
	cfg := Config{
		BaseURL: api.srv.URL,
		APIKey:  "secret",
		Kind:    domain.KindDish,
		Logger:  quietLogger(),
	}
	if cache != nil {
		cfg.Cache = cache
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewSpoonacular(cfg)
}

func TestAdapter_GetEntities(t *testing.T) {
	api := newFakeAPI(t, jsonReply(http.StatusOK, findByIngredientsBody))
	cache := mocks.NewMockCache()
	adapter := newTestAdapter(api, cache)

	results, err := adapter.GetEntities(context.Background(), []string{"carrot", "tomato"}, "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	req := api.lastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "/recipes/findByIngredients", req.URL.Path)
	assert.Equal(t, "carrot,tomato", req.URL.Query().Get("ingredients"))
	assert.Equal(t, "secret", req.URL.Query().Get("apiKey"))

	soup := results[0]
	assert.Equal(t, "716429", soup.ID)
	assert.Equal(t, "Carrot Tomato Soup", soup.Title)
	assert.Equal(t, SpoonacularName, soup.Provider)
	assert.Equal(t, 0.67, soup.Relevance)
	assert.Equal(t, 1, soup.MissingCount)
	assert.Equal(t, []string{"carrot", "tomato", "onion"}, domain.IngredientNames(soup.Ingredients))
	assert.Equal(t, 1.0, results[1].Relevance)

	key := "provider:spoonacular:dish:carrot,tomato|type="
	assert.Equal(t, key, adapter.SearchKey([]string{"tomato", "carrot"}, ""))
	raw, ok := cache.Peek(key)
	require.True(t, ok, "mapped results should be cached")
	assert.NotContains(t, raw, "secret")
	assert.InDelta(t, DefaultCacheTTL.Seconds(), cache.TTL(key).Seconds(), 5)
}

func TestAdapter_GetEntitiesCacheHitSkipsNetwork(t *testing.T) {
	api := newFakeAPI(t, jsonReply(http.StatusOK, findByIngredientsBody))
	cache := mocks.NewMockCache()
	adapter := newTestAdapter(api, cache)
	ctx := context.Background()

	first, err := adapter.GetEntities(ctx, []string{"carrot", "tomato"}, "")
	require.NoError(t, err)
	second, err := adapter.GetEntities(ctx, []string{"tomato", "carrot"}, "")
	require.NoError(t, err)

	assert.Equal(t, int32(1), api.hits.Load())
	assert.Equal(t, first, second)
}

func TestAdapter_GetEntitiesServerError(t *testing.T) {
	api := newFakeAPI(t, jsonReply(http.StatusInternalServerError, `{"message":"boom"}`))
	cache := mocks.NewMockCache()
	adapter := newTestAdapter(api, cache)

	results, err := adapter.GetEntities(context.Background(), []string{"carrot"}, "")
	require.Error(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	var pe *domain.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, SpoonacularName, pe.Provider)
	assert.Equal(t, "getEntities", pe.Op)
	assert.Equal(t, http.StatusInternalServerError, pe.StatusCode)
	assert.Equal(t, 0, cache.Count(), "failures must not be cached")
}

func TestAdapter_GetEntitiesMalformedPayload(t *testing.T) {
	api := newFakeAPI(t, jsonReply(http.StatusOK, `{"not":"an array"`))
	adapter := newTestAdapter(api, nil)

	results, err := adapter.GetEntities(context.Background(), []string{"carrot"}, "")
	assert.Empty(t, results)

	var pe *domain.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Zero(t, pe.StatusCode)
	assert.Contains(t, pe.Error(), "decode")
}

func TestAdapter_GetEntitiesNetworkError(t *testing.T) {
	api := newFakeAPI(t, jsonReply(http.StatusOK, findByIngredientsBody))
	adapter := newTestAdapter(api, nil)
	api.srv.Close()

	results, err := adapter.GetEntities(context.Background(), []string{"carrot"}, "")
	assert.Empty(t, results)

	var pe *domain.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Zero(t, pe.StatusCode)
	assert.NotNil(t, pe.Err)
}

func TestAdapter_GetEntitiesTyped(t *testing.T) {
	api := newFakeAPI(t, jsonReply(http.StatusOK, `{"results":`+findByIngredientsBody+`}`))
	adapter := newTestAdapter(api, mocks.NewMockCache())

	results, err := adapter.GetEntities(context.Background(), []string{"carrot"}, "soup")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "soup", results[0].Type)

	req := api.lastRequest()
	assert.Equal(t, "/recipes/complexSearch", req.URL.Path)
	assert.Equal(t, "soup", req.URL.Query().Get("type"))
	assert.Equal(t, "carrot", req.URL.Query().Get("includeIngredients"))
}

func TestAdapter_CacheErrorFallsThrough(t *testing.T) {
	api := newFakeAPI(t, jsonReply(http.StatusOK, findByIngredientsBody))
	cache := mocks.NewMockCache()
	cache.GetErr = errors.New("redis down")
	cache.SetErr = errors.New("redis down")
	adapter := newTestAdapter(api, cache)

	results, err := adapter.GetEntities(context.Background(), []string{"carrot"}, "")
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, int32(1), api.hits.Load())
}

func TestAdapter_GetEntityDetails(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/recipes/716429/") {
			jsonReply(http.StatusOK, informationBody)(w, r)
			return
		}
		http.NotFound(w, r)
	})
	cache := mocks.NewMockCache()
	adapter := newTestAdapter(api, cache)
	ctx := context.Background()

	detail, err := adapter.GetEntityDetails(ctx, "716429")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "/recipes/716429/information", api.lastRequest().URL.Path)
	assert.Equal(t, "716429", detail.ID)
	assert.Equal(t, 35, detail.PrepTime)
	assert.Equal(t, "soup", detail.Type)
	assert.Equal(t, "Jane Doe", detail.Author)
	assert.Equal(t, SpoonacularName, detail.Provider)
	assert.Equal(t, domain.KindDish, detail.Kind)
	assert.True(t, detail.Properties.Vegetarian)
	assert.False(t, detail.Properties.Vegan)
	require.Len(t, detail.Recipe, 1)
	assert.Equal(t, []string{"Chop.", "Simmer."}, detail.Recipe[0].Steps)

	_, ok := cache.Peek("provider:spoonacular:dish:detail:716429")
	assert.True(t, ok)

	again, err := adapter.GetEntityDetails(ctx, "716429")
	require.NoError(t, err)
	assert.Equal(t, detail, again)
	assert.Equal(t, int32(1), api.hits.Load())

	missing, err := adapter.GetEntityDetails(ctx, "1")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAdapter_CircuitOpens(t *testing.T) {
	api := newFakeAPI(t, jsonReply(http.StatusServiceUnavailable, ""))
	adapter := newTestAdapter(api, nil, func(c *Config) {
		c.FailureThreshold = 2
		c.OpenTimeout = time.Minute
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := adapter.GetEntities(ctx, []string{"carrot"}, "")
		require.Error(t, err)
	}

	_, err := adapter.GetEntities(ctx, []string{"carrot"}, "")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), api.hits.Load(), "open circuit must not reach the network")
}

func TestAdapter_NotFoundDoesNotTrip(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })
	adapter := newTestAdapter(api, nil, func(c *Config) { c.FailureThreshold = 1 })

	for i := 0; i < 3; i++ {
		detail, err := adapter.GetEntityDetails(context.Background(), "7")
		require.NoError(t, err)
		assert.Nil(t, detail)
	}
	assert.Equal(t, int32(3), api.hits.Load())
}

func TestAdapter_ForeignIDsSkipNetwork(t *testing.T) {
	api := newFakeAPI(t, jsonReply(http.StatusOK, informationBody))
	adapter := newTestAdapter(api, nil)

	for _, id := range []string{"not-a-number", "65f0c0ffee0000000000abcd", "-3", "0", "", "12/../7"} {
		t.Run(id, func(t *testing.T) {
			detail, err := adapter.GetEntityDetails(context.Background(), id)
			assert.NoError(t, err)
			assert.Nil(t, detail)
		})
	}
	assert.Equal(t, int32(0), api.hits.Load())
}

func TestAdapter_ClientErrorsDoNotTrip(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/information") {
			jsonReply(http.StatusBadRequest, `{"status":"failure"}`)(w, r)
			return
		}
		jsonReply(http.StatusOK, findByIngredientsBody)(w, r)
	})
	adapter := newTestAdapter(api, nil, func(c *Config) { c.FailureThreshold = 2 })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		detail, err := adapter.GetEntityDetails(ctx, "99")
		assert.Nil(t, detail)
		var pe *domain.ProviderError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
	}

	results, err := adapter.GetEntities(ctx, []string{"carrot"}, "")
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, int32(6), api.hits.Load())
}

func TestAdapter_CredentialAndQuotaErrorsTrip(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusTooManyRequests} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			api := newFakeAPI(t, jsonReply(status, ""))
			adapter := newTestAdapter(api, nil, func(c *Config) {
				c.FailureThreshold = 1
				c.OpenTimeout = time.Minute
			})
			ctx := context.Background()

			_, err := adapter.GetEntities(ctx, []string{"carrot"}, "")
			require.Error(t, err)
			_, err = adapter.GetEntities(ctx, []string{"carrot"}, "")
			assert.ErrorIs(t, err, gobreaker.ErrOpenState)
			assert.Equal(t, int32(1), api.hits.Load())
		})
	}
}

func TestTripsBreaker(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"absent", errAbsent, false},
		{"bad request", &statusError{code: http.StatusBadRequest}, false},
		{"unprocessable", &statusError{code: http.StatusUnprocessableEntity}, false},
		{"unauthorized", &statusError{code: http.StatusUnauthorized}, true},
		{"payment required", &statusError{code: http.StatusPaymentRequired}, true},
		{"too many requests", &statusError{code: http.StatusTooManyRequests}, true},
		{"server error", &statusError{code: http.StatusBadGateway}, true},
		{"network", errors.New("connection refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tripsBreaker(tt.err))
		})
	}
}

func TestAdapter_DetailCacheIsPerKind(t *testing.T) {
	api := newFakeAPI(t, jsonReply(http.StatusOK, informationBody))
	cache := mocks.NewMockCache()
	dishes := newTestAdapter(api, cache)
	meals := newTestAdapter(api, cache, func(c *Config) { c.Kind = domain.KindMeal })
	ctx := context.Background()

	dish, err := dishes.GetEntityDetails(ctx, "716429")
	require.NoError(t, err)
	meal, err := meals.GetEntityDetails(ctx, "716429")
	require.NoError(t, err)

	assert.Equal(t, domain.KindDish, dish.Kind)
	assert.Equal(t, domain.KindMeal, meal.Kind)
	assert.Equal(t, int32(2), api.hits.Load())
	assert.NotEqual(t, dishes.DetailKey("716429"), meals.DetailKey("716429"))
}
