package main

// @title           Pantry Core API
// @version         1.0
// @description     Recipe discovery API. Search dishes and meals by the ingredients you have, across local and external catalogs.

// @contact.name   Pantry Lab
// @contact.url    https://github.com/pantrylab/pantry-core/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/pantrylab/pantry-core/docs"
	"github.com/pantrylab/pantry-core/internal/adapters/driven/auth"
	mongoadapter "github.com/pantrylab/pantry-core/internal/adapters/driven/mongo"
	"github.com/pantrylab/pantry-core/internal/adapters/driven/postgres"
	"github.com/pantrylab/pantry-core/internal/adapters/driven/providers"
	redisadapter "github.com/pantrylab/pantry-core/internal/adapters/driven/redis"
	"github.com/pantrylab/pantry-core/internal/adapters/driving/http"
	"github.com/pantrylab/pantry-core/internal/config"
	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
	"github.com/pantrylab/pantry-core/internal/core/services"
)

var version = "dev"

func main() {
	// Run mode from RUN_MODE or the first argument
	mode := os.Getenv("RUN_MODE")
	if mode == "" {
		mode = "all"
	}
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	log.Printf("pantry-core %s starting in %s mode", version, mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ===== Initialize PostgreSQL =====
	log.Println("Connecting to PostgreSQL...")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		ConnMaxIdleTime: cfg.DBConnIdleTime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("PostgreSQL connected and schema initialized")

	// ===== Initialize MongoDB =====
	log.Println("Connecting to MongoDB...")
	mdb, err := mongoadapter.Connect(ctx, mongoadapter.DefaultConfig(cfg.MongoURL, cfg.MongoDatabase))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mdb.Close(closeCtx)
	}()

	if err := mdb.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create MongoDB indexes: %v", err)
	}
	log.Println("MongoDB connected and indexes ensured")

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	checks := map[string]http.Pinger{
		"postgres": db,
		"mongo":    mdb,
	}

	// ===== Cache, sessions and lock (Redis if available, otherwise PostgreSQL) =====
	var cache driven.Cache
	var sessionStore driven.SessionStore
	var distributedLock driven.DistributedLock
	if redisClient != nil {
		redisCache := redisadapter.NewCache(redisClient, "pantry:")
		cache = redisCache
		checks["redis"] = redisCache
		sessionStore = redisadapter.NewSessionStore(redisClient)
		distributedLock = redisadapter.NewLock(redisClient)
		log.Println("Using Redis cache, session store and lock")
	} else {
		sessionStore = postgres.NewSessionStore(db)
		distributedLock = postgres.NewAdvisoryLock(db)
		log.Println("No Redis: caching disabled, using PostgreSQL sessions and advisory lock")
	}

	// ===== Stores =====
	userStore := postgres.NewUserStore(db)
	queryLogs := mongoadapter.NewQueryLogStore(mdb)
	commentStore := mongoadapter.NewCommentStore(mdb)
	ratingStore := mongoadapter.NewRatingStore(mdb)

	authAdapter := auth.NewAdapter(cfg.JWTSecret)

	// ===== Catalogs per entity kind =====
	catalogs := make(map[domain.EntityKind]http.Catalog, 2)
	aggregations := make(services.Catalogs, 2)
	for _, kind := range []domain.EntityKind{domain.KindDish, domain.KindMeal} {
		store := mongoadapter.NewEntityStore(mdb, kind)

		var recipeProviders []driven.RecipeProvider
		if cfg.SpoonacularAPIKey != "" {
			recipeProviders = append(recipeProviders, providers.NewSpoonacular(providers.Config{
				Kind:     kind,
				BaseURL:  cfg.SpoonacularURL,
				APIKey:   cfg.SpoonacularAPIKey,
				Timeout:  cfg.ProviderTimeout,
				CacheTTL: cfg.ProviderCacheTTL,
				Cache:    cache,
				Logger:   logger,
			}))
		}

		aggregation := services.NewAggregationService(services.AggregationConfig{
			Kind:          kind,
			Store:         store,
			Cache:         cache,
			Providers:     recipeProviders,
			QueryLogs:     queryLogs,
			Logger:        logger,
			MergedTTL:     cfg.MergedCacheTTL,
			SnapshotTTL:   cfg.SnapshotCacheTTL,
			ProposalLimit: cfg.ProposalLimit,
		})
		lifecycle := services.NewLifecycleService(services.LifecycleConfig{
			Kind:        kind,
			Store:       store,
			Cache:       cache,
			Comments:    commentStore,
			Ratings:     ratingStore,
			Logger:      logger,
			SnapshotTTL: cfg.SnapshotCacheTTL,
		})

		aggregations[kind] = aggregation
		catalogs[kind] = http.Catalog{Aggregation: aggregation, Lifecycle: lifecycle}
		log.Printf("%s catalog ready (%d external providers)", kind, len(recipeProviders))
	}

	// ===== Services =====
	svc := http.Services{
		Auth:     services.NewAuthService(userStore, sessionStore, authAdapter, cfg.TokenTTL),
		Users:    services.NewUserService(userStore, sessionStore, authAdapter),
		Comments: services.NewCommentService(commentStore, aggregations, driven.SystemClock, logger),
		Ratings:  services.NewRatingService(ratingStore, aggregations, driven.SystemClock),
		Catalogs: catalogs,
	}

	retentionLock := distributedLock
	if !cfg.LockRequired {
		retentionLock = nil
	}
	retention := services.NewRetentionJob(services.RetentionConfig{
		Store:    queryLogs,
		Lock:     retentionLock,
		Logger:   logger,
		Interval: cfg.RetentionInterval,
		MaxAge:   cfg.QueryLogRetention,
	})

	switch mode {
	case "api":
		runAPI(ctx, cfg, svc, checks, logger)

	case "worker":
		runWorker(ctx, retention)

	case "all":
		retention.Start(ctx)
		runAPI(ctx, cfg, svc, checks, logger)
		retention.Stop()

	default:
		log.Fatalf("Unknown mode: %s (use: api, worker, or all)", mode)
	}
}

func runAPI(ctx context.Context, cfg *config.Config, svc http.Services, checks map[string]http.Pinger, logger *slog.Logger) {
	serverCfg := http.DefaultConfig()
	serverCfg.Port = cfg.Port
	serverCfg.Version = version
	serverCfg.CORSOrigins = cfg.CORSOrigins
	serverCfg.RateLimitRPS = cfg.RateLimitRPS
	serverCfg.RateLimitBurst = cfg.RateLimitBurst
	serverCfg.TokenTTL = cfg.TokenTTL
	serverCfg.SecureCookies = cfg.SecureCookies
	serverCfg.Logger = logger

	server := http.NewServer(serverCfg, svc, checks)

	log.Printf("API server starting on :%d", cfg.Port)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func runWorker(ctx context.Context, retention *services.RetentionJob) {
	log.Println("Starting worker mode...")
	retention.Start(ctx)
	log.Println("Worker started, purging expired search history")

	<-ctx.Done()

	log.Println("Stopping worker...")
	retention.Stop()
	log.Println("Worker stopped")
}
