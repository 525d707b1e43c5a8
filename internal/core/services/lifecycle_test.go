package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven/mocks"
)

var (
	adminActor = &domain.AuthContext{UserID: "admin-1", Login: "admin", Role: domain.RoleAdmin}
	cookActor  = &domain.AuthContext{
		UserID: "user-1",
		Login:  "cook",
		Role:   domain.RoleMember,
		Capabilities: domain.Capabilities{
			CanAdd:    true,
			CanEdit:   true,
			CanDelete: true,
		},
	}
	guestActor = &domain.AuthContext{UserID: "user-2", Login: "guest", Role: domain.RoleMember}
)

type lifecycleFixture struct {
	store    *mocks.MockEntityStore
	cache    *mocks.MockCache
	comments *mocks.MockCommentStore
	ratings  *mocks.MockRatingStore
}

func newLifecycleFixture() *lifecycleFixture {
	return &lifecycleFixture{
		store:    mocks.NewMockEntityStore(domain.KindDish),
		cache:    mocks.NewMockCache(),
		comments: mocks.NewMockCommentStore(),
		ratings:  mocks.NewMockRatingStore(),
	}
}

func (f *lifecycleFixture) lifecycle() *lifecycleService {
	return NewLifecycleService(LifecycleConfig{
		Kind:     domain.KindDish,
		Store:    f.store,
		Cache:    f.cache,
		Comments: f.comments,
		Ratings:  f.ratings,
		Clock:    fixedClock,
		Logger:   discardLogger(),
	}).(*lifecycleService)
}

func (f *lifecycleFixture) aggregation() *aggregationService {
	return NewAggregationService(AggregationConfig{
		Kind:   domain.KindDish,
		Store:  f.store,
		Cache:  f.cache,
		Clock:  fixedClock,
		Logger: discardLogger(),
	}).(*aggregationService)
}

func soupDraft() domain.EntityDraft {
	return domain.EntityDraft{
		Title:    "  Tomato Soup ",
		PrepTime: 30,
		Ingredients: []domain.Ingredient{
			{Name: "Tomato", Unit: "g", Amount: 500},
			{Name: "onion", Amount: 1},
			{Name: "moon dust"},
		},
	}
}

func TestLifecycle_FullFlow(t *testing.T) {
	f := newLifecycleFixture()
	lc := f.lifecycle()
	agg := f.aggregation()
	ctx := context.Background()

	created, err := lc.Create(ctx, cookActor, soupDraft())
	require.NoError(t, err)
	assert.Equal(t, domain.StatePendingAdd, created.State)
	assert.Equal(t, "Tomato Soup", created.Title)
	assert.Equal(t, "cook", created.Author)
	assert.Equal(t, domain.KindDish, created.Kind)
	assert.Equal(t, []domain.Ingredient{
		{Name: "tomato", Unit: "g", Amount: 500},
		{Name: "onion", Amount: 1},
	}, created.Ingredients)
	require.True(t, f.store.IsValidID(created.ID))

	// awaiting review: hidden from search and lookups
	_, err = agg.GetEntityDetails(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	confirmed, err := lc.ConfirmCreate(ctx, adminActor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, confirmed.State)
	_, cached := f.cache.Peek(SnapshotKey(domain.KindDish, created.ID))
	assert.True(t, cached)

	newTitle := "Roasted Tomato Soup"
	edited, err := lc.Edit(ctx, cookActor, created.ID, domain.EntityDiff{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, domain.StatePendingEdit, edited.State)
	require.NotNil(t, edited.PendingEdit)

	// pending edits keep serving the published content
	detail, err := agg.GetEntityDetails(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tomato Soup", detail.Title)

	applied, err := lc.ConfirmEdit(ctx, adminActor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, applied.State)
	assert.Equal(t, newTitle, applied.Title)
	assert.Nil(t, applied.PendingEdit)

	detail, err = agg.GetEntityDetails(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, newTitle, detail.Title)

	deleted, err := lc.Delete(ctx, cookActor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePendingDelete, deleted.State)

	// the snapshot was evicted, so the lookup falls through to the store
	_, err = agg.GetEntityDetails(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	results, err := agg.GetEntities(ctx, []string{"tomato"}, "")
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, lc.ConfirmDelete(ctx, adminActor, created.ID))
	assert.Equal(t, 0, f.store.Count())
}

func TestLifecycle_ConfirmDeleteCascades(t *testing.T) {
	f := newLifecycleFixture()
	f.store.Put(localDish(stewID, "Stew", domain.StatePendingDelete, "beef"))
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot"))
	ctx := context.Background()

	for i, target := range []string{stewID, stewID, ratatouilleID} {
		require.NoError(t, f.comments.Create(ctx, &domain.Comment{
			ID: fmt.Sprintf("c%d", i), Kind: domain.KindDish, EntityID: target, CreatedAt: fixedNow,
		}))
	}
	require.NoError(t, f.ratings.Save(ctx, &domain.Rating{ID: "r1", Kind: domain.KindDish, EntityID: stewID, UserID: "u1", Value: 4}))
	require.NoError(t, f.ratings.Save(ctx, &domain.Rating{ID: "r2", Kind: domain.KindDish, EntityID: ratatouilleID, UserID: "u1", Value: 5}))

	require.NoError(t, f.lifecycle().ConfirmDelete(ctx, adminActor, stewID))

	assert.Equal(t, 1, f.store.Count())
	assert.Equal(t, 1, f.comments.Count())
	assert.Equal(t, 1, f.ratings.Count())
}

func TestLifecycle_ConfirmDeleteRetriesAfterCascadeFailure(t *testing.T) {
	f := newLifecycleFixture()
	f.store.Put(localDish(stewID, "Stew", domain.StatePendingDelete, "beef"))
	ctx := context.Background()

	require.NoError(t, f.comments.Create(ctx, &domain.Comment{ID: "c1", Kind: domain.KindDish, EntityID: stewID, CreatedAt: fixedNow}))
	require.NoError(t, f.ratings.Save(ctx, &domain.Rating{ID: "r1", Kind: domain.KindDish, EntityID: stewID, UserID: "u1", Value: 4}))
	f.ratings.DeleteErr = errors.New("mongo unavailable")
	lc := f.lifecycle()

	err := lc.ConfirmDelete(ctx, adminActor, stewID)
	require.Error(t, err)

	// the entity survives, still pending, so the confirm can be retried
	stew, err := f.store.Get(ctx, stewID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePendingDelete, stew.State)
	assert.Equal(t, 1, f.ratings.Count())

	f.ratings.DeleteErr = nil
	require.NoError(t, lc.ConfirmDelete(ctx, adminActor, stewID))
	assert.Equal(t, 0, f.store.Count())
	assert.Equal(t, 0, f.comments.Count())
	assert.Equal(t, 0, f.ratings.Count())
}

func TestLifecycle_CatalogChangesInvalidateMergedResults(t *testing.T) {
	f := newLifecycleFixture()
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot", "tomato"))
	lc := f.lifecycle()
	agg := f.aggregation()
	ctx := context.Background()

	search := func() []string {
		t.Helper()
		results, err := agg.GetEntities(ctx, []string{"carrot"}, "")
		require.NoError(t, err)
		return titles(results)
	}

	assert.Equal(t, []string{"Ratatouille"}, search())
	assert.Equal(t, []string{"Ratatouille"}, search())
	assert.Equal(t, 1, f.store.Finds(), "repeat search is served from the merged cache")

	_, err := lc.Delete(ctx, cookActor, ratatouilleID)
	require.NoError(t, err)
	assert.Empty(t, search(), "a soft-deleted entity must drop out of cached searches")
	assert.Equal(t, 2, f.store.Finds())

	draft := domain.EntityDraft{Title: "Carrot Cake", Ingredients: []domain.Ingredient{{Name: "carrot"}}}
	cake, err := lc.Create(ctx, cookActor, draft)
	require.NoError(t, err)
	assert.Empty(t, search(), "pending entities do not change the merged namespace")
	assert.Equal(t, 2, f.store.Finds())

	_, err = lc.ConfirmCreate(ctx, adminActor, cake.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Carrot Cake"}, search())

	_, ok := f.cache.Peek(GenerationKey(domain.KindDish))
	assert.True(t, ok)
}

func TestLifecycle_CreateValidation(t *testing.T) {
	f := newLifecycleFixture()
	lc := f.lifecycle()
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   *domain.AuthContext
		mutate  func(*domain.EntityDraft)
		wantErr error
	}{
		{"anonymous", nil, nil, domain.ErrUnauthorized},
		{"missing add capability", guestActor, nil, domain.ErrForbidden},
		{"blank title", cookActor, func(d *domain.EntityDraft) { d.Title = " " }, domain.ErrInvalidInput},
		{"no known ingredients", cookActor, func(d *domain.EntityDraft) {
			d.Ingredients = []domain.Ingredient{{Name: "moon dust"}}
		}, domain.ErrInvalidInput},
		{"negative prep time", cookActor, func(d *domain.EntityDraft) { d.PrepTime = -5 }, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := soupDraft()
			if tt.mutate != nil {
				tt.mutate(&draft)
			}
			_, err := lc.Create(ctx, tt.actor, draft)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 0, f.store.Count())
}

func TestLifecycle_TransitionErrors(t *testing.T) {
	f := newLifecycleFixture()
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot"))
	f.store.Put(localDish(omeletteID, "Omelette", domain.StatePendingAdd, "egg"))
	lc := f.lifecycle()
	ctx := context.Background()
	title := "Better Omelette"

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{"member cannot confirm", func() error {
			_, err := lc.ConfirmCreate(ctx, cookActor, omeletteID)
			return err
		}, domain.ErrForbidden},
		{"confirming an active entity", func() error {
			_, err := lc.ConfirmCreate(ctx, adminActor, ratatouilleID)
			return err
		}, domain.ErrInvalidTransition},
		{"editing a pending entity", func() error {
			_, err := lc.Edit(ctx, cookActor, omeletteID, domain.EntityDiff{Title: &title})
			return err
		}, domain.ErrInvalidTransition},
		{"deleting a pending entity", func() error {
			_, err := lc.Delete(ctx, cookActor, omeletteID)
			return err
		}, domain.ErrInvalidTransition},
		{"confirming an edit that was never made", func() error {
			_, err := lc.ConfirmEdit(ctx, adminActor, ratatouilleID)
			return err
		}, domain.ErrInvalidTransition},
		{"empty diff", func() error {
			_, err := lc.Edit(ctx, cookActor, ratatouilleID, domain.EntityDiff{})
			return err
		}, domain.ErrInvalidInput},
		{"edit without capability", func() error {
			_, err := lc.Edit(ctx, guestActor, ratatouilleID, domain.EntityDiff{Title: &title})
			return err
		}, domain.ErrForbidden},
		{"delete without capability", func() error {
			_, err := lc.Delete(ctx, guestActor, ratatouilleID)
			return err
		}, domain.ErrForbidden},
		{"malformed id", func() error {
			_, err := lc.Delete(ctx, cookActor, "not-an-id")
			return err
		}, domain.ErrInvalidInput},
		{"unknown id", func() error {
			return lc.ConfirmDelete(ctx, adminActor, "65f0c0ffee0000000000ffff")
		}, domain.ErrNotFound},
		{"anonymous", func() error {
			_, err := lc.Delete(ctx, nil, ratatouilleID)
			return err
		}, domain.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.wantErr)
		})
	}

	// nothing above may have changed state
	e, err := f.store.Get(ctx, ratatouilleID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, e.State)
}

func TestLifecycle_ListPending(t *testing.T) {
	f := newLifecycleFixture()
	f.store.Put(localDish(ratatouilleID, "Ratatouille", domain.StateActive, "carrot"))
	f.store.Put(localDish(omeletteID, "Omelette", domain.StatePendingAdd, "egg"))
	f.store.Put(localDish(stewID, "Stew", domain.StatePendingDelete, "beef"))
	lc := f.lifecycle()
	ctx := context.Background()

	pending, err := lc.ListPending(ctx, adminActor)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, omeletteID, pending[0].ID)
	assert.Equal(t, stewID, pending[1].ID)

	_, err = lc.ListPending(ctx, cookActor)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
