package neo4j

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"templatehub/application/ports"
	"templatehub/application/ports/mocks"
	pkgerrors "templatehub/pkg/errors"
)

func testBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "neo4j-test",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}
}

func TestBreakerStore_PassesThrough(t *testing.T) {
	inner := new(mocks.MockGraphStore)
	node := ports.Node("Project", ports.Properties{"id": "p1"})
	inner.On("CreateNode", mock.Anything, node).Return(ports.Properties{"id": "p1"}, nil)

	b := NewBreakerStore(inner, testBreakerConfig(), zap.NewNop())
	props, err := b.CreateNode(context.Background(), node)

	require.NoError(t, err)
	assert.Equal(t, "p1", props["id"])
	inner.AssertExpectations(t)
}

func TestBreakerStore_OpensOnTransportFailures(t *testing.T) {
	inner := new(mocks.MockGraphStore)
	down := pkgerrors.NewNetworkError("graph store unreachable", errors.New("dial tcp"))
	inner.On("DeleteNode", mock.Anything, mock.Anything).Return(int64(0), down).Twice()

	b := NewBreakerStore(inner, testBreakerConfig(), zap.NewNop())
	ctx := context.Background()
	node := ports.Node("Project", nil)

	for i := 0; i < 2; i++ {
		_, err := b.DeleteNode(ctx, node)
		assert.True(t, pkgerrors.IsNetwork(err))
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.DeleteNode(ctx, node)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsUnavailable(err))
	inner.AssertNumberOfCalls(t, "DeleteNode", 2)
}

func TestBreakerStore_CallerErrorsDoNotTrip(t *testing.T) {
	inner := new(mocks.MockGraphStore)
	bad := pkgerrors.NewInvalidArgumentError("bad label")
	inner.On("ReadNodes", mock.Anything, mock.Anything).Return(nil, bad)

	b := NewBreakerStore(inner, testBreakerConfig(), zap.NewNop())
	for i := 0; i < 5; i++ {
		_, err := b.ReadNodes(context.Background(), ports.NodeQuery{})
		assert.True(t, pkgerrors.IsInvalidArgument(err))
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerStore_CreateIndexError(t *testing.T) {
	inner := new(mocks.MockGraphStore)
	inner.On("CreateIndex", mock.Anything, "Template", "tid").Return(errors.New("boom"))

	b := NewBreakerStore(inner, testBreakerConfig(), zap.NewNop())
	assert.EqualError(t, b.CreateIndex(context.Background(), "Template", "tid"), "boom")
}
