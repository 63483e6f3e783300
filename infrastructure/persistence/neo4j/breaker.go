package neo4j

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"templatehub/application/ports"
	pkgerrors "templatehub/pkg/errors"
)

// BreakerConfig tunes the graph circuit breaker.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the settings used by the API.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "neo4j",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          20 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerStore fails graph calls fast while the store is unreachable. It
// never retries: every failure still reaches the caller.
type BreakerStore struct {
	next ports.GraphStore
	cb   *gobreaker.CircuitBreaker
}

var _ ports.GraphStore = (*BreakerStore)(nil)

// NewBreakerStore wraps next. Only transport failures count towards
// tripping the breaker.
func NewBreakerStore(next ports.GraphStore, cfg BreakerConfig, logger *zap.Logger) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !pkgerrors.IsTransient(err)
		},
	})
	return &BreakerStore{next: next, cb: cb}
}

// State reports the breaker state, for readiness checks.
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func guard[T any](b *BreakerStore, fn func() (T, error)) (T, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, pkgerrors.NewUnavailableError("neo4j").WithCause(err)
		}
		if v, ok := out.(T); ok {
			return v, err
		}
		return zero, err
	}
	return out.(T), nil
}

func (b *BreakerStore) CreateNode(ctx context.Context, node ports.NodeSpec) (ports.Properties, error) {
	return guard(b, func() (ports.Properties, error) { return b.next.CreateNode(ctx, node) })
}

func (b *BreakerStore) CreateRelationship(ctx context.Context, rel ports.RelationshipSpec) (*ports.Relationship, error) {
	return guard(b, func() (*ports.Relationship, error) { return b.next.CreateRelationship(ctx, rel) })
}

func (b *BreakerStore) ReadNode(ctx context.Context, q ports.NodeQuery) (ports.Properties, error) {
	return guard(b, func() (ports.Properties, error) { return b.next.ReadNode(ctx, q) })
}

func (b *BreakerStore) ReadNodes(ctx context.Context, q ports.NodeQuery) ([]ports.Properties, error) {
	return guard(b, func() ([]ports.Properties, error) { return b.next.ReadNodes(ctx, q) })
}

func (b *BreakerStore) ReadRelationship(ctx context.Context, rel ports.RelationshipSpec) (*ports.Relationship, error) {
	return guard(b, func() (*ports.Relationship, error) { return b.next.ReadRelationship(ctx, rel) })
}

func (b *BreakerStore) ReadRelationships(ctx context.Context, rel ports.RelationshipSpec) ([]ports.Relationship, error) {
	return guard(b, func() ([]ports.Relationship, error) { return b.next.ReadRelationships(ctx, rel) })
}

func (b *BreakerStore) Query(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return guard(b, func() ([]map[string]any, error) { return b.next.Query(ctx, query, params) })
}

func (b *BreakerStore) UpdateNodes(ctx context.Context, match ports.NodeSpec, set ports.Properties) ([]ports.Properties, error) {
	return guard(b, func() ([]ports.Properties, error) { return b.next.UpdateNodes(ctx, match, set) })
}

func (b *BreakerStore) UpdateRelationship(ctx context.Context, rel ports.RelationshipSpec, props ports.Properties) (*ports.Relationship, error) {
	return guard(b, func() (*ports.Relationship, error) { return b.next.UpdateRelationship(ctx, rel, props) })
}

func (b *BreakerStore) DeleteNode(ctx context.Context, match ports.NodeSpec) (int64, error) {
	return guard(b, func() (int64, error) { return b.next.DeleteNode(ctx, match) })
}

func (b *BreakerStore) DeleteRelationship(ctx context.Context, rel ports.RelationshipSpec) (int64, error) {
	return guard(b, func() (int64, error) { return b.next.DeleteRelationship(ctx, rel) })
}

func (b *BreakerStore) CreateIndex(ctx context.Context, label, property string) error {
	_, err := guard(b, func() (struct{}, error) { return struct{}{}, b.next.CreateIndex(ctx, label, property) })
	return err
}

func (b *BreakerStore) Drop(ctx context.Context, label string) (int64, error) {
	return guard(b, func() (int64, error) { return b.next.Drop(ctx, label) })
}
