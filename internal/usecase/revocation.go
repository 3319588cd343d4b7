package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lkimdaryl/foodjournal-backend/internal/core/domain"
	"github.com/lkimdaryl/foodjournal-backend/internal/core/port"
	"github.com/lkimdaryl/foodjournal-backend/internal/infra/logger"
	"github.com/lkimdaryl/foodjournal-backend/internal/infra/security"
)

const defaultRevocationReason = "user_logout"

// RevocationService makes a token unusable before its natural expiry.
type RevocationService struct {
	codec     *security.TokenCodec
	store     port.RevocationStore
	cache     port.RevocationCache
	publisher port.EventPublisher
	metrics   port.RevocationMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewRevocationService constructs a RevocationService instance.
func NewRevocationService(codec *security.TokenCodec, store port.RevocationStore, logger *zap.Logger) *RevocationService {
	if logger == nil {
		logger = zap.NewNop()
	}

	service := &RevocationService{
		codec:  codec,
		store:  store,
		logger: logger,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithCache attaches the hot-path revocation cache.
func (s *RevocationService) WithCache(cache port.RevocationCache) *RevocationService {
	s.cache = cache
	return s
}

// WithPublisher attaches the revocation event publisher.
func (s *RevocationService) WithPublisher(publisher port.EventPublisher) *RevocationService {
	s.publisher = publisher
	return s
}

// WithMetrics attaches revocation counters.
func (s *RevocationService) WithMetrics(metrics port.RevocationMetrics) *RevocationService {
	s.metrics = metrics
	return s
}

// WithClock overrides the service clock for deterministic tests.
func (s *RevocationService) WithClock(clock func() time.Time) *RevocationService {
	if clock != nil {
		s.now = clock
		s.codec.WithClock(clock)
	}
	return s
}

// Revoke records the presented token on the denylist, effective immediately
// for all subsequent validations. The token must still be structurally valid;
// revoking an already-expired token is a harmless no-op since validation
// rejects it on expiry grounds alone.
func (s *RevocationService) Revoke(ctx context.Context, token string, reason string) error {
	claims, err := s.codec.DecodeAllowExpired(token)
	if err != nil {
		s.logger.Debug("refusing to revoke malformed token",
			zap.String("token", logger.MaskToken(token)),
		)
		return ErrMalformedToken
	}

	now := s.now()
	expiresAt := claims.ExpiresAt.Time.UTC()
	if !expiresAt.After(now) {
		s.logger.Debug("skip revocation of expired token",
			zap.String("jti", claims.JTI()),
			zap.Time("expires_at", expiresAt),
		)
		return nil
	}

	return s.revoke(ctx, claims.JTI(), claims.Subject, expiresAt, reason)
}

// RevokeByID denylists a session by identifier without the original token
// string, for administrative session termination.
func (s *RevocationService) RevokeByID(ctx context.Context, jti string, expiresAt time.Time, reason string) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return fmt.Errorf("jti is required")
	}

	now := s.now()
	if expiresAt.IsZero() {
		// Without the token we cannot know its true expiry; hold the entry
		// for a full default lifetime so it cannot outlive the denylist.
		expiresAt = now.Add(s.codec.TTL())
	}
	if !expiresAt.After(now) {
		return nil
	}

	return s.revoke(ctx, jti, "", expiresAt.UTC(), reason)
}

func (s *RevocationService) revoke(ctx context.Context, jti, subject string, expiresAt time.Time, reason string) error {
	now := s.now()
	normalizedReason := normalizeRevocationReason(reason)
	reasonCopy := normalizedReason

	entry := domain.RevocationEntry{
		JTI:       jti,
		ExpiresAt: expiresAt,
		RevokedAt: now,
		Reason:    &reasonCopy,
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		// A lost revocation is a security gap: surface the failure so the
		// caller can retry the logout.
		s.logger.Error("record revocation failed",
			zap.String("jti", jti),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.cacheRevocation(ctx, jti, normalizedReason, expiresAt.Sub(now))
	s.publishRevocation(ctx, domain.TokenRevokedEvent{
		EventID:   uuid.NewString(),
		JTI:       jti,
		Subject:   subject,
		Reason:    normalizedReason,
		RevokedAt: now,
		ExpiresAt: expiresAt,
	})

	if s.metrics != nil {
		s.metrics.IncRevocation()
	}

	s.logger.Info("token revoked",
		zap.String("jti", jti),
		zap.String("reason", normalizedReason),
		zap.Time("expires_at", expiresAt),
	)

	return nil
}

func (s *RevocationService) cacheRevocation(ctx context.Context, jti, reason string, ttl time.Duration) {
	if s.cache == nil || ttl <= 0 {
		return
	}
	if err := s.cache.MarkRevoked(ctx, jti, reason, ttl); err != nil {
		s.logger.Warn("cache revoked token failed",
			zap.String("jti", jti),
			zap.Error(err),
		)
	}
}

func (s *RevocationService) publishRevocation(ctx context.Context, event domain.TokenRevokedEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTokenRevoked(ctx, event); err != nil {
		s.logger.Warn("publish token revoked event failed",
			zap.String("jti", event.JTI),
			zap.Error(err),
		)
	}
}

func normalizeRevocationReason(reason string) string {
	trimmed := strings.TrimSpace(strings.ToLower(reason))
	if trimmed == "" {
		return defaultRevocationReason
	}
	return strings.ReplaceAll(trimmed, " ", "_")
}
