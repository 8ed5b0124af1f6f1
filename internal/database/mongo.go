package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"docstore/internal/config"
)

// NewMongo connects to MongoDB and returns the configured database handle.
// The caller owns the client and must disconnect it via db.Client().
func NewMongo(ctx context.Context, c config.MongoConfig) (*mongo.Database, error) {
	if c.URI == "" || c.Database == "" {
		return nil, fmt.Errorf("invalid mongo config: uri and database are required")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.URI).SetAppName(ApplicationName))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client.Database(c.Database), nil
}

// MongoPinger adapts a mongo client to the PingContext shape used by health checks.
type MongoPinger struct {
	Client *mongo.Client
}

// PingContext pings the primary.
func (p MongoPinger) PingContext(ctx context.Context) error {
	return p.Client.Ping(ctx, readpref.Primary())
}
