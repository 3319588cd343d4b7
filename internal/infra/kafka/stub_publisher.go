package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lkimdaryl/foodjournal-backend/internal/core/domain"
	"github.com/lkimdaryl/foodjournal-backend/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishTokenRevoked logs sessions.token.revoked events.
func (p *StubPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	payload := map[string]any{
		"jti":        event.JTI,
		"subject":    event.Subject,
		"reason":     event.Reason,
		"revoked_at": event.RevokedAt,
		"expires_at": event.ExpiresAt,
	}
	p.logEvent("sessions.token.revoked", event.RevokedAt, payload)
	return nil
}

// PublishSweepCompleted logs sessions.sweep.completed events.
func (p *StubPublisher) PublishSweepCompleted(_ context.Context, event domain.SweepCompletedEvent) error {
	payload := map[string]any{
		"ran_at":  event.RanAt,
		"deleted": event.Deleted,
	}
	p.logEvent("sessions.sweep.completed", event.RanAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
