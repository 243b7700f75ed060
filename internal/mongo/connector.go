// Package mongo opens the MongoDB client backing the metadata catalog.
package mongo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/MrSnakeDoc/devure/internal/connect"
	"github.com/MrSnakeDoc/devure/internal/logger"
)

// ConnectOptions defines MongoDB connection and retry behavior.
type ConnectOptions struct {
	URI                    string        // ex: "mongodb://localhost:27017"
	Database               string        // database holding one collection per content kind
	AppName                string        // reported to the server in the handshake
	MaxPoolSize            uint64        // 0 keeps the driver default
	ServerSelectionTimeout time.Duration // per-operation server selection budget
	Retry                  connect.Policy
}

// New connects to MongoDB and blocks until the primary answers a ping or
// the retry policy gives up. The returned database handle shares the client.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*mongo.Client, *mongo.Database, error) {
	if opts.URI == "" {
		return nil, nil, fmt.Errorf("mongo uri is required")
	}
	if opts.Database == "" {
		return nil, nil, fmt.Errorf("mongo database is required")
	}
	if err := opts.Retry.Validate(); err != nil {
		return nil, nil, err
	}

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.AppName != "" {
		clientOpts.SetAppName(opts.AppName)
	}
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.ServerSelectionTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	ping := func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	if _, err := connect.WithRetry(ctx, "mongo", redactURI(opts.URI), opts.Retry, ping, log); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client, client.Database(opts.Database), nil
}

// redactURI hides credentials and query options so the URI can be logged.
func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "mongodb://<invalid>"
	}
	return u.Scheme + "://" + u.Host + u.Path
}
