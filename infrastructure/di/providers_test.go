package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"templatehub/infrastructure/config"
	"templatehub/infrastructure/messaging"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:   "development",
		LogLevel:      "warn",
		JWTIssuer:     "templatehub",
		JWTTTLMinutes: 60,
	}
}

func TestProvideLogger_Level(t *testing.T) {
	logger, err := ProvideLogger(testConfig())
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	cfg := testConfig()
	cfg.LogLevel = "loud"
	_, err = ProvideLogger(cfg)
	assert.Error(t, err)
}

func TestProvideMetrics_Disabled(t *testing.T) {
	cfg := testConfig()
	assert.Nil(t, ProvideMetrics(cfg))
	cfg.EnableMetrics = true
	assert.NotNil(t, ProvideMetrics(cfg))
}

func TestProvideTracing_Disabled(t *testing.T) {
	tracing, cleanup, err := ProvideTracing(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tracing.Enabled)
	cleanup()
}

func TestProvideEventPublisher_LogFallback(t *testing.T) {
	pub, err := ProvideEventPublisher(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &messaging.LogPublisher{}, pub)
}

func TestProvideJWTService(t *testing.T) {
	tokens, err := ProvideJWTService(testConfig(), zap.NewNop())
	require.NoError(t, err, "development falls back to an ephemeral secret")
	token, err := tokens.GenerateToken("u1", "alice", "org")
	require.NoError(t, err)
	claims, err := tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	cfg := testConfig()
	cfg.Environment = "production"
	_, err = ProvideJWTService(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestProvideLoginLimiter_CleanupStopsPruning(t *testing.T) {
	cfg := testConfig()
	cfg.LoginRatePerMinute = 2

	limiter, cleanup := ProvideLoginLimiter(cfg)
	require.NotNil(t, limiter)
	cleanup()
	cleanup()
}
