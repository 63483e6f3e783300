package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	pkgerrors "templatehub/pkg/errors"
)

// ClientConfig holds what is needed to open a client.
type ClientConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Connect opens a client and verifies the primary is reachable. The caller
// owns the client and must Disconnect it.
func Connect(ctx context.Context, cfg ClientConfig, logger *zap.Logger) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, pkgerrors.NewValidationError("mongodb uri is required")
	}

	client, err := mongo.Connect(ctx, clientOptions(cfg))
	if err != nil {
		return nil, pkgerrors.NewNetworkError("connect to mongodb", err)
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, pkgerrors.NewNetworkError("ping mongodb", err)
	}

	logger.Info("Connected to MongoDB", zap.String("database", cfg.Database))
	return client, nil
}

// clientOptions builds the driver options. Driver-level retries are off so
// a rejected read or write reaches the caller on the first failure.
func clientOptions(cfg ClientConfig) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetRetryWrites(false).
		SetRetryReads(false)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout).SetServerSelectionTimeout(cfg.ConnectTimeout)
	}
	return opts
}
