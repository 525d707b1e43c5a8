// Package providers adapts external recipe APIs to driven.RecipeProvider.
package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
	"github.com/pantrylab/pantry-core/internal/metrics"
)

// Mapper builds provider requests and maps provider payloads.
// Paths are relative to the adapter's base URL and never carry credentials.
type Mapper interface {
	// OwnsID reports whether id could name a record of this provider.
	OwnsID(id string) bool
	SearchRequest(ingredients []string, entityType string) (path string, query url.Values)
	DetailRequest(id string) (path string, query url.Values)
	MapSearch(body []byte, entityType string) ([]domain.RatedEntity, error)
	MapDetail(body []byte) (*domain.DetailedEntity, error)
}

// Verify interface compliance
var _ driven.RecipeProvider = (*Adapter)(nil)

// errAbsent marks a 404 from the provider. It does not count against the breaker.
var errAbsent = errors.New("provider has no such record")

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// Adapter is a cached, circuit-broken HTTP client for one recipe provider.
type Adapter struct {
	cfg    Config
	mapper Mapper
	cb     *gobreaker.CircuitBreaker[[]byte]
	logger *slog.Logger
}

// NewAdapter creates an Adapter that talks to cfg.BaseURL through mapper.
func NewAdapter(cfg Config, mapper Mapper) *Adapter {
	cfg.applyDefaults()
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	logger := cfg.Logger.With("provider", cfg.Name, "kind", string(cfg.Kind))

	kind := string(cfg.Kind)
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name, kind).Set(0)

	threshold := cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cfg.Name + ":" + kind,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return !tripsBreaker(err)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			logger.Warn("provider circuit state changed", "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(cfg.Name, kind).Set(float64(to))
		},
	})

	return &Adapter{cfg: cfg, mapper: mapper, cb: cb, logger: logger}
}

// tripsBreaker reports whether err says the provider itself is unhealthy.
// A rejected request is the caller's problem unless it is about credentials, quota or throttling.
func tripsBreaker(err error) bool {
	if err == nil || errors.Is(err, errAbsent) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) && se.code >= 400 && se.code < 500 {
		switch se.code {
		case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusTooManyRequests:
			return true
		}
		return false
	}
	return true
}

func (a *Adapter) Name() string {
	return a.cfg.Name
}

// SearchKey is the cache key of a search. It never contains the API key.
func (a *Adapter) SearchKey(ingredients []string, entityType string) string {
	return fmt.Sprintf("provider:%s:%s:%s", a.cfg.Name, a.cfg.Kind, domain.CanonicalQuery(ingredients, entityType))
}

// DetailKey is the cache key of a detail lookup.
func (a *Adapter) DetailKey(id string) string {
	return fmt.Sprintf("provider:%s:%s:detail:%s", a.cfg.Name, a.cfg.Kind, id)
}

// GetEntities searches the provider. On failure it returns an empty slice
// together with a *domain.ProviderError.
func (a *Adapter) GetEntities(ctx context.Context, ingredients []string, entityType string) ([]domain.RatedEntity, error) {
	const op = "getEntities"
	key := a.SearchKey(ingredients, entityType)

	var cached []domain.RatedEntity
	if a.cacheGet(ctx, key, &cached) {
		metrics.RecordProviderCall(a.cfg.Name, op, metrics.OutcomeCacheHit, 0)
		return cached, nil
	}

	path, query := a.mapper.SearchRequest(ingredients, entityType)
	body, err := a.fetch(ctx, op, path, query)
	if err != nil {
		return []domain.RatedEntity{}, a.fail(op, err)
	}

	results, err := a.mapper.MapSearch(body, entityType)
	if err != nil {
		return []domain.RatedEntity{}, a.fail(op, fmt.Errorf("decode: %w", err))
	}
	for i := range results {
		results[i].Provider = a.cfg.Name
	}
	if results == nil {
		results = []domain.RatedEntity{}
	}

	a.cacheSet(ctx, key, results)
	return results, nil
}

// GetEntityDetails fetches a full record. A provider 404 or an id the
// provider cannot own yields (nil, nil).
func (a *Adapter) GetEntityDetails(ctx context.Context, id string) (*domain.DetailedEntity, error) {
	const op = "getEntityDetails"
	if !a.mapper.OwnsID(id) {
		return nil, nil
	}
	key := a.DetailKey(id)

	var cached domain.DetailedEntity
	if a.cacheGet(ctx, key, &cached) {
		metrics.RecordProviderCall(a.cfg.Name, op, metrics.OutcomeCacheHit, 0)
		return &cached, nil
	}

	path, query := a.mapper.DetailRequest(id)
	body, err := a.fetch(ctx, op, path, query)
	if errors.Is(err, errAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, a.fail(op, err)
	}

	detail, err := a.mapper.MapDetail(body)
	if err != nil {
		return nil, a.fail(op, fmt.Errorf("decode: %w", err))
	}
	detail.Kind = a.cfg.Kind
	detail.Provider = a.cfg.Name

	a.cacheSet(ctx, key, detail)
	return detail, nil
}

// fetch performs one GET through the circuit breaker and records its outcome.
func (a *Adapter) fetch(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	start := time.Now()
	body, err := a.cb.Execute(func() ([]byte, error) {
		return a.get(ctx, path, query)
	})

	outcome := metrics.OutcomeSuccess
	var se *statusError
	switch {
	case err == nil:
	case errors.Is(err, errAbsent):
		outcome = metrics.OutcomeNotFound
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = metrics.OutcomeOpen
	case errors.As(err, &se):
		outcome = metrics.OutcomeBadStatus
	default:
		outcome = metrics.OutcomeError
	}
	metrics.RecordProviderCall(a.cfg.Name, op, outcome, time.Since(start))
	return body, err
}

func (a *Adapter) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if a.cfg.APIKey != "" {
		q.Set("apiKey", a.cfg.APIKey)
	}

	target := a.cfg.BaseURL + path
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errAbsent
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, defaultMaxBodyBytes))
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// fail logs err and wraps it into a ProviderError.
func (a *Adapter) fail(op string, err error) error {
	pe := &domain.ProviderError{Provider: a.cfg.Name, Op: op, Err: err}
	var se *statusError
	if errors.As(err, &se) {
		pe.StatusCode = se.code
		pe.Err = nil
	}
	a.logger.Warn("provider call failed", "op", op, "error", pe.Error())
	return pe
}

func (a *Adapter) cacheGet(ctx context.Context, key string, dst any) bool {
	if a.cfg.Cache == nil {
		return false
	}
	raw, found, err := a.cfg.Cache.Get(ctx, key)
	metrics.RecordCacheLookup("provider", found, err)
	if err != nil {
		a.logger.Warn("provider cache read failed", "key", key, "error", err)
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		a.logger.Warn("discarding undecodable provider cache entry", "key", key, "error", err)
		return false
	}
	return true
}

func (a *Adapter) cacheSet(ctx context.Context, key string, value any) {
	if a.cfg.Cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		a.logger.Warn("provider cache encode failed", "key", key, "error", err)
		return
	}
	if err := a.cfg.Cache.Set(ctx, key, string(raw), a.cfg.CacheTTL); err != nil {
		a.logger.Warn("provider cache write failed", "key", key, "error", err)
	}
}
