package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
	"github.com/pantrylab/pantry-core/internal/core/ports/driving"
	"github.com/pantrylab/pantry-core/internal/metrics"
)

// Ensure aggregationService implements AggregationService
var _ driving.AggregationService = (*aggregationService)(nil)

// DefaultProposalLimit caps proposal feeds unless configured otherwise.
const DefaultProposalLimit = 10

// AggregationConfig holds the collaborators of one aggregation engine.
type AggregationConfig struct {
	Kind      domain.EntityKind
	Store     driven.EntityStore
	Cache     driven.Cache // Optional: without a cache every call fans out
	Providers []driven.RecipeProvider
	QueryLogs driven.QueryLogStore
	Clock     driven.Clock // Optional: defaults to the wall clock
	Logger    *slog.Logger

	// Vocabulary restricts search terms (default: domain.Vocabulary)
	Vocabulary domain.IngredientVocabulary

	MergedTTL      time.Duration // default: 12h
	SnapshotTTL    time.Duration // default: 24h
	ProposalWindow time.Duration // default: 14 days for dishes, 30 days for meals
	ProposalLimit  int           // 0 disables the cap
}

// aggregationService merges local and provider results for one entity kind.
type aggregationService struct {
	kind       domain.EntityKind
	store      driven.EntityStore
	cache      cacheAside
	providers  []driven.RecipeProvider
	queryLogs  driven.QueryLogStore
	clock      driven.Clock
	logger     *slog.Logger
	vocabulary domain.IngredientVocabulary

	mergedTTL      time.Duration
	snapshotTTL    time.Duration
	proposalWindow time.Duration
	proposalLimit  int
}

// NewAggregationService creates an aggregation engine for cfg.Kind
func NewAggregationService(cfg AggregationConfig) driving.AggregationService {
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

	mergedTTL := cfg.MergedTTL
	if mergedTTL == 0 {
		mergedTTL = DefaultMergedTTL
	}
	snapshotTTL := cfg.SnapshotTTL
	if snapshotTTL == 0 {
		snapshotTTL = DefaultSnapshotTTL
	}
	window := cfg.ProposalWindow
	if window == 0 {
		window = domain.DefaultProposalWindow(cfg.Kind)
	}

	return &aggregationService{
		kind:           cfg.Kind,
		store:          cfg.Store,
		cache:          newCacheAside(cfg.Cache, logger),
		providers:      cfg.Providers,
		queryLogs:      cfg.QueryLogs,
		clock:          clock,
		logger:         logger,
		vocabulary:     vocabulary,
		mergedTTL:      mergedTTL,
		snapshotTTL:    snapshotTTL,
		proposalWindow: window,
		proposalLimit:  cfg.ProposalLimit,
	}
}

func (s *aggregationService) Kind() domain.EntityKind {
	return s.kind
}

// GetEntities returns the merged, ranked result of the local store and every provider.
func (s *aggregationService) GetEntities(ctx context.Context, ingredients []string, entityType string) ([]domain.RatedEntity, error) {
	filtered := s.vocabulary.Filter(ingredients)
	if len(filtered) == 0 {
		return nil, domain.BadRequest("getEntities", "no known ingredients given")
	}
	return s.aggregate(ctx, filtered, strings.TrimSpace(entityType)), nil
}

// aggregate serves a search from the merged cache or fans out on a miss.
func (s *aggregationService) aggregate(ctx context.Context, ingredients []string, entityType string) []domain.RatedEntity {
	key := MergedKey(s.kind, s.cache.generation(ctx, s.kind), domain.CanonicalQuery(ingredients, entityType))

	var cached []domain.RatedEntity
	if s.cache.get(ctx, key, &cached) {
		return cached
	}

	start := time.Now()
	merged := s.fanOut(ctx, ingredients, entityType)
	metrics.AggregationDuration.WithLabelValues(string(s.kind)).Observe(time.Since(start).Seconds())

	s.cache.set(ctx, key, merged, s.mergedTTL)
	return merged
}

// fanOut queries the local store and all providers concurrently.
// Failed branches contribute nothing; the rest are flattened in branch
// order, filtered to positive relevance and stably sorted.
func (s *aggregationService) fanOut(ctx context.Context, ingredients []string, entityType string) []domain.RatedEntity {
	branches := make([]branch[[]domain.RatedEntity], 0, len(s.providers)+1)
	branches = append(branches, branch[[]domain.RatedEntity]{
		name: domain.ProviderLocal,
		run: func(ctx context.Context) ([]domain.RatedEntity, error) {
			return s.searchLocal(ctx, ingredients, entityType)
		},
	})
	for _, p := range s.providers {
		branches = append(branches, branch[[]domain.RatedEntity]{
			name: p.Name(),
			run: func(ctx context.Context) ([]domain.RatedEntity, error) {
				return p.GetEntities(ctx, ingredients, entityType)
			},
		})
	}

	merged := make([]domain.RatedEntity, 0)
	for _, r := range settleAll(ctx, branches) {
		if r.err != nil {
			s.logBranchFailure("getEntities", r.name, r.err)
			continue
		}
		for _, e := range r.value {
			if e.Relevance > 0 {
				merged = append(merged, e)
			}
		}
	}
	domain.SortByRelevance(merged)
	return merged
}

func (s *aggregationService) searchLocal(ctx context.Context, ingredients []string, entityType string) ([]domain.RatedEntity, error) {
	if s.store == nil {
		return nil, nil
	}
	entities, err := s.store.FindByIngredients(ctx, ingredients, entityType)
	if err != nil {
		return nil, err
	}
	rated := make([]domain.RatedEntity, 0, len(entities))
	for _, e := range entities {
		if !e.PubliclyVisible() {
			continue
		}
		rated = append(rated, e.Rate(ingredients))
	}
	return rated, nil
}

// GetEntityDetails resolves id through the snapshot cache, the local store
// and then the providers.
func (s *aggregationService) GetEntityDetails(ctx context.Context, id string) (*domain.DetailedEntity, error) {
	const op = "getEntityDetails"

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.BadRequest(op, "missing id")
	}

	key := SnapshotKey(s.kind, id)
	var cached domain.DetailedEntity
	if s.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	detail, err := s.resolveDetails(ctx, op, id)
	if err != nil {
		return nil, err
	}

	s.cache.set(ctx, key, detail, s.snapshotTTL)
	return detail, nil
}

func (s *aggregationService) resolveDetails(ctx context.Context, op, id string) (*domain.DetailedEntity, error) {
	if s.store != nil && s.store.IsValidID(id) {
		entity, err := s.store.Get(ctx, id)
		switch {
		case err == nil:
			switch entity.State {
			case domain.StatePendingAdd:
				return nil, domain.Forbidden(op, fmt.Sprintf("%s %s is awaiting review", s.kind, id))
			case domain.StatePendingDelete, domain.StateDeleted:
				return nil, domain.NotFound(op, fmt.Sprintf("%s %s not found", s.kind, id))
			}
			return entity.Detail(), nil
		case errors.Is(err, domain.ErrNotFound):
			// not a local entity, try the providers
		default:
			s.logBranchFailure(op, domain.ProviderLocal, err)
		}
	}

	branches := make([]branch[*domain.DetailedEntity], 0, len(s.providers))
	for _, p := range s.providers {
		branches = append(branches, branch[*domain.DetailedEntity]{
			name: p.Name(),
			run: func(ctx context.Context) (*domain.DetailedEntity, error) {
				return p.GetEntityDetails(ctx, id)
			},
		})
	}
	for _, r := range settleAll(ctx, branches) {
		if r.err != nil {
			s.logBranchFailure(op, r.name, r.err)
			continue
		}
		if r.value != nil {
			return r.value, nil
		}
	}

	return nil, domain.NotFound(op, fmt.Sprintf("%s %s not found", s.kind, id))
}

// HasEntity resolves ids like GetEntityDetails; hidden and unknown entities are absent.
func (s *aggregationService) HasEntity(ctx context.Context, id string) (bool, error) {
	_, err := s.GetEntityDetails(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrForbidden):
		return false, nil
	default:
		return false, err
	}
}

// GetProposal returns entities built from the user's recent search history,
// in relevance order. Entities scoring no recommendation points are dropped.
func (s *aggregationService) GetProposal(ctx context.Context, userID string) ([]domain.ProposedEntity, error) {
	const op = "getProposal"

	if userID == "" {
		return nil, domain.Unauthorized(op, "missing user")
	}
	if s.queryLogs == nil {
		return []domain.ProposedEntity{}, nil
	}

	logs, err := s.queryLogs.ListSince(ctx, userID, s.kind, s.clock().Add(-s.proposalWindow))
	if err != nil {
		return nil, fmt.Errorf("%s: load query logs: %w", op, err)
	}

	table := domain.BuildFrequencyTable(logs)
	ingredients := s.vocabulary.Filter(table.Keys())
	if len(ingredients) == 0 {
		return []domain.ProposedEntity{}, nil
	}

	rated := s.aggregate(ctx, ingredients, "")

	proposals := make([]domain.ProposedEntity, 0, len(rated))
	for _, e := range rated {
		points := table.Points(e.Ingredients)
		if points <= 0 {
			continue
		}
		proposals = append(proposals, domain.ProposedEntity{RatedEntity: e, RecommendationPoints: points})
	}

	if s.proposalLimit > 0 && len(proposals) > s.proposalLimit {
		proposals = proposals[:s.proposalLimit]
	}
	return proposals, nil
}

// AddProposal appends a search to the user's query log.
func (s *aggregationService) AddProposal(ctx context.Context, userID string, ingredients []string) error {
	const op = "addProposal"

	if userID == "" {
		return domain.Unauthorized(op, "missing user")
	}
	filtered := s.vocabulary.Filter(ingredients)
	if len(filtered) == 0 || s.queryLogs == nil {
		return nil
	}

	log := &domain.SearchQueryLog{
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        s.kind,
		Ingredients: filtered,
		CreatedAt:   s.clock(),
	}
	if err := s.queryLogs.Append(ctx, log); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *aggregationService) logBranchFailure(op, branch string, err error) {
	metrics.AggregationBranchFailures.WithLabelValues(string(s.kind), branch).Inc()

	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		s.logger.Warn("provider failed, continuing without it",
			"op", op, "provider", pe.Provider, "status", pe.StatusCode, "error", pe.Err)
		return
	}
	s.logger.Warn("branch failed, continuing without it", "op", op, "branch", branch, "error", err)
}

// branch is one concurrent leg of a fan-out.
type branch[T any] struct {
	name string
	run  func(ctx context.Context) (T, error)
}

type settled[T any] struct {
	name  string
	value T
	err   error
}

// settleAll runs every branch concurrently and waits for all of them.
// Results keep branch order. A panicking branch settles as failed.
func settleAll[T any](ctx context.Context, branches []branch[T]) []settled[T] {
	results := make([]settled[T], len(branches))

	var wg sync.WaitGroup
	for i, b := range branches {
		wg.Add(1)
		go func(i int, b branch[T]) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = settled[T]{name: b.name, err: fmt.Errorf("branch panicked: %v", r)}
				}
			}()
			v, err := b.run(ctx)
			results[i] = settled[T]{name: b.name, value: v, err: err}
		}(i, b)
	}
	wg.Wait()

	return results
}
