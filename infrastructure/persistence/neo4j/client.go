package neo4j

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	pkgerrors "templatehub/pkg/errors"
)

// Config holds connection settings for the graph store.
type Config struct {
	URI               string
	Username          string
	Password          string
	Database          string
	ConnectionTimeout time.Duration
	MaxPoolSize       int
}

// Validate checks that the settings can open a driver.
func (c Config) Validate() error {
	switch {
	case c.URI == "":
		return pkgerrors.NewValidationError("neo4j uri is required")
	case c.Username == "":
		return pkgerrors.NewValidationError("neo4j username is required")
	case c.ConnectionTimeout <= 0:
		return pkgerrors.NewValidationError("neo4j connection timeout must be positive")
	}
	return nil
}

// Connect opens a driver and verifies the server is reachable. The driver's
// own transaction retries are disabled so a failed statement reaches the
// caller on the first attempt.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (neo4j.DriverWithContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), func(c *neo4j.Config) {
		c.ConnectionAcquisitionTimeout = cfg.ConnectionTimeout
		c.SocketConnectTimeout = cfg.ConnectionTimeout
		c.MaxTransactionRetryTime = 0
		if cfg.MaxPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxPoolSize
		}
	})
	if err != nil {
		return nil, pkgerrors.NewNetworkError("failed to create neo4j driver", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, cfg.ConnectionTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, pkgerrors.NewNetworkError("neo4j is unreachable at "+cfg.URI, err)
	}

	logger.Info("Connected to neo4j", zap.String("uri", cfg.URI), zap.String("database", cfg.Database))
	return driver, nil
}
