package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecotrack/services"
	"ecotrack/utils"
)

const (
	EntriesCollection = "entries"
	UsersCollection   = "users"
)

var MongoClient *mongo.Client
var MongoDatabase *mongo.Database

// GetCollection returns a collection by name
func GetCollection(collectionName string) *mongo.Collection {
	return MongoDatabase.Collection(collectionName)
}

// extractDBName parses the database name from the URI, defaulting to "ecotrack"
func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "ecotrack"
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		return name
	}
	return "ecotrack"
}

// ConnectMongoDB establishes a connection to MongoDB using the provided URI.
// An empty dbName falls back to the database named in the URI.
func ConnectMongoDB(uri, dbName string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	if timeout > 0 {
		clientOptions.SetServerSelectionTimeout(timeout)
	}
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection with a ping
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	MongoClient = client
	if dbName == "" {
		dbName = extractDBName(uri)
	}
	utils.LogInfo("Using database: %s", dbName)

	MongoDatabase = client.Database(dbName)
	return nil
}

// Disconnect closes the global client, if any.
func Disconnect(ctx context.Context) error {
	if MongoClient == nil {
		return nil
	}
	return MongoClient.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the stores query by.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(EntriesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "occurredOn", Value: -1}}},
		{Keys: bson.D{{Key: "occurredOn", Value: 1}}},
	})
	if err != nil {
		return translateError("create entry indexes", err)
	}
	return nil
}

// translateError maps driver errors onto the engine's error taxonomy.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, services.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w: %w", op, services.ErrInvalidInput, err)
	case errors.Is(err, context.Canceled):
		// The caller went away; the store itself is fine.
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, services.ErrStoreUnavailable, err)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
