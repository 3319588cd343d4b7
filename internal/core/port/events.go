package port

import (
	"context"

	"github.com/lkimdaryl/foodjournal-backend/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error
	PublishSweepCompleted(ctx context.Context, event domain.SweepCompletedEvent) error
}
