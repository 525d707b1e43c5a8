package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Catalog groups the services of one entity kind.
type Catalog struct {
	Aggregation driving.AggregationService
	Lifecycle   driving.LifecycleService
}

// Services are the driving ports exposed over HTTP.
type Services struct {
	Auth     driving.AuthService
	Users    driving.UserService
	Comments driving.CommentService
	Ratings  driving.RatingService
	Catalogs map[domain.EntityKind]Catalog
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	logger     *slog.Logger
	tokenTTL   time.Duration
	secure     bool

	authService    driving.AuthService
	userService    driving.UserService
	commentService driving.CommentService
	ratingService  driving.RatingService
	catalogs       map[domain.EntityKind]Catalog

	// Infrastructure health checks by name
	checks map[string]Pinger
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int

	// TokenTTL sets the session cookie lifetime
	TokenTTL time.Duration

	// SecureCookies marks the session cookie Secure (HTTPS only)
	SecureCookies bool

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		CORSOrigins:    []string{"*"},
		RateLimitRPS:   10,
		RateLimitBurst: 20,
		TokenTTL:       24 * time.Hour,
	}
}

// kindSegments maps URL segments to entity kinds
var kindSegments = map[string]domain.EntityKind{
	"dishes": domain.KindDish,
	"meals":  domain.KindMeal,
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, svc Services, checks map[string]Pinger) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}

	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		logger:         logger,
		tokenTTL:       tokenTTL,
		secure:         cfg.SecureCookies,
		authService:    svc.Auth,
		userService:    svc.Users,
		commentService: svc.Comments,
		ratingService:  svc.Ratings,
		catalogs:       svc.Catalogs,
		checks:         checks,
	}

	s.setupRoutes()

	// outermost first: logging, recovery, rate limit, CORS, router
	var h http.Handler = s.router
	h = NewCORSHandler(cfg.CORSOrigins, h)
	h = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Handler(h)
	h = NewRecoveryMiddleware(logger).Handler(h)
	h = NewLoggingMiddleware(logger).Handler(h)
	s.handler = h

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	auth := NewAuthMiddleware(s.authService)
	authed := func(h http.HandlerFunc) http.Handler {
		return auth.Authenticate(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return auth.Authenticate(auth.RequireAdmin(h))
	}
	capable := func(c domain.Capability, h http.HandlerFunc) http.Handler {
		return auth.Authenticate(auth.RequireCapability(c)(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.Handle("GET /metrics", promhttp.Handler())
	s.router.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Auth endpoints
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.router.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)
	s.router.Handle("POST /api/v1/auth/logout", authed(s.handleLogout))
	s.router.Handle("POST /api/v1/auth/password", authed(s.handleChangePassword))

	// Setup endpoint (public, one-time use)
	s.router.HandleFunc("POST /api/v1/setup", s.handleSetup)

	// User endpoints
	s.router.Handle("GET /api/v1/me", authed(s.handleGetMe))
	s.router.Handle("GET /api/v1/users", admin(s.handleListUsers))
	s.router.Handle("POST /api/v1/users", admin(s.handleCreateUser))
	s.router.Handle("PUT /api/v1/users/{id}", admin(s.handleUpdateUser))
	s.router.Handle("DELETE /api/v1/users/{id}", admin(s.handleDeleteUser))
	s.router.Handle("PUT /api/v1/users/{id}/password", admin(s.handleSetPassword))

	// Comments by id
	s.router.Handle("DELETE /api/v1/comments/{id}", authed(s.handleDeleteComment))

	// Dish and meal endpoints
	for segment, kind := range kindSegments {
		c, ok := s.catalogs[kind]
		if !ok {
			continue
		}
		base := "/api/v1/" + segment

		s.router.HandleFunc("GET "+base, s.handleSearch(c))
		s.router.Handle("GET "+base+"/proposal", authed(s.handleGetProposal(c)))
		s.router.Handle("POST "+base+"/proposal", authed(s.handleAddProposal(c)))
		s.router.Handle("GET "+base+"/pending", admin(s.handleListPending(c)))
		s.router.HandleFunc("GET "+base+"/{id}", s.handleGetDetails(c))

		s.router.Handle("POST "+base, capable(domain.CapabilityAdd, s.handleCreate(c)))
		s.router.Handle("PUT "+base+"/{id}", capable(domain.CapabilityEdit, s.handleEdit(c)))
		s.router.Handle("DELETE "+base+"/{id}", capable(domain.CapabilityDelete, s.handleDelete(c)))
		s.router.Handle("POST "+base+"/{id}/confirm-create", admin(s.handleConfirmCreate(c)))
		s.router.Handle("POST "+base+"/{id}/confirm-edit", admin(s.handleConfirmEdit(c)))
		s.router.Handle("POST "+base+"/{id}/confirm-delete", admin(s.handleConfirmDelete(c)))

		s.router.HandleFunc("GET "+base+"/{id}/comments", s.handleListComments(kind))
		s.router.Handle("POST "+base+"/{id}/comments", authed(s.handleAddComment(kind)))
		s.router.HandleFunc("GET "+base+"/{id}/rating", s.handleGetRating(kind))
		s.router.Handle("POST "+base+"/{id}/rating", authed(s.handleAddRating(kind)))
	}
}

// Start listens until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
