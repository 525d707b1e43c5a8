package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

// Collection names
const (
	DishesCollection    = "dishes"
	MealsCollection     = "meals"
	CommentsCollection  = "comments"
	RatingsCollection   = "ratings"
	QueryLogsCollection = "search_queries"
)

// Config holds MongoDB connection configuration
type Config struct {
	// URI is the connection string (mongodb://host:27017)
	URI string

	// Database is the database holding every collection
	Database string

	// ConnectTimeout bounds the initial connection and ping
	ConnectTimeout time.Duration

	// MaxPoolSize is the maximum number of pooled connections
	MaxPoolSize uint64
}

// DefaultConfig returns sensible defaults
func DefaultConfig(uri, database string) Config {
	return Config{
		URI:            uri,
		Database:       database,
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    50,
	}
}

// DB wraps a MongoDB client bound to one database
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect establishes a MongoDB connection and verifies it with a ping
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &DB{client: client, db: client.Database(cfg.Database)}, nil
}

// Collection returns a handle to the named collection
func (d *DB) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// EntityCollection returns the collection that stores kind
func (d *DB) EntityCollection(kind domain.EntityKind) *mongo.Collection {
	if kind == domain.KindMeal {
		return d.Collection(MealsCollection)
	}
	return d.Collection(DishesCollection)
}

// EnsureIndexes creates every index the stores rely on.
// Creating an existing index is a no-op.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	for name, models := range indexModels() {
		if _, err := d.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func indexModels() map[string][]mongo.IndexModel {
	entity := []mongo.IndexModel{
		{Keys: bson.D{{Key: "ingredients.name", Value: 1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	return map[string][]mongo.IndexModel{
		DishesCollection: entity,
		MealsCollection:  entity,
		CommentsCollection: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "entityId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		RatingsCollection: {
			{
				Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "entityId", Value: 1}, {Key: "userId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		QueryLogsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "kind", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
	}
}

// Ping checks if the primary is reachable
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
