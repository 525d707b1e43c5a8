package providers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
)

// Defaults for provider adapters.
const (
	DefaultTimeout          = 10 * time.Second
	DefaultCacheTTL         = time.Hour
	DefaultFailureThreshold = 5
	DefaultOpenTimeout      = 30 * time.Second
	defaultMaxBodyBytes     = 4 << 20
)

// Config configures one provider adapter for one entity kind.
type Config struct {
	// Name tags results and namespaces cache keys
	Name string

	// Kind is the entity kind searched through this adapter
	Kind domain.EntityKind

	// BaseURL is the provider API root, e.g. https://api.spoonacular.com
	BaseURL string

	// APIKey is sent as the apiKey query parameter on network calls only
	APIKey string

	// Timeout bounds each HTTP call. Ignored when HTTPClient is set.
	Timeout time.Duration

	// CacheTTL is the lifetime of cached provider responses
	CacheTTL time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before probing again
	OpenTimeout time.Duration

	// Cache is optional; without it every call reaches the network
	Cache driven.Cache

	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Kind == "" {
		c.Kind = domain.KindDish
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = DefaultOpenTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
