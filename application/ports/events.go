package ports

import (
	"context"

	"templatehub/domain/events"
)

// EventPublisher delivers domain events to an external bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
