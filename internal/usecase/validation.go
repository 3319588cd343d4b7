package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lkimdaryl/foodjournal-backend/internal/core/port"
	"github.com/lkimdaryl/foodjournal-backend/internal/infra/security"
)

var (
	// ErrMalformedToken marks structurally or cryptographically invalid tokens.
	ErrMalformedToken = errors.New("malformed token")
	// ErrExpiredToken marks tokens past their natural expiry.
	ErrExpiredToken = errors.New("token expired")
	// ErrTokenRevoked marks an explicit denylist hit.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrStoreUnavailable marks revocation store infrastructure failures.
	// On the validation path this rejects the request: fail closed, never
	// skip a revocation check.
	ErrStoreUnavailable = errors.New("revocation store unavailable")
)

// ValidationService decides whether a presented token is currently acceptable.
type ValidationService struct {
	codec   *security.TokenCodec
	store   port.RevocationStore
	cache   port.RevocationCache
	metrics port.ValidationMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewValidationService constructs a ValidationService instance.
func NewValidationService(codec *security.TokenCodec, store port.RevocationStore, logger *zap.Logger) *ValidationService {
	if logger == nil {
		logger = zap.NewNop()
	}

	service := &ValidationService{
		codec:  codec,
		store:  store,
		logger: logger,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithCache attaches the hot-path revocation cache.
func (s *ValidationService) WithCache(cache port.RevocationCache) *ValidationService {
	s.cache = cache
	return s
}

// WithMetrics attaches validation outcome counters.
func (s *ValidationService) WithMetrics(metrics port.ValidationMetrics) *ValidationService {
	s.metrics = metrics
	return s
}

// WithClock overrides the service clock for deterministic tests.
func (s *ValidationService) WithClock(clock func() time.Time) *ValidationService {
	if clock != nil {
		s.now = clock
		s.codec.WithClock(clock)
	}
	return s
}

// Validate decodes the presented token and checks it against the denylist.
// The cheap signature/expiry check runs first, so forged or already-expired
// tokens never reach the store.
func (s *ValidationService) Validate(ctx context.Context, token string) (*security.SessionClaims, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			s.reject("expired")
			return nil, ErrExpiredToken
		default:
			s.reject("malformed")
			return nil, ErrMalformedToken
		}
	}

	jti := claims.JTI()

	if s.cache != nil {
		revoked, reason, cacheErr := s.cache.IsRevoked(ctx, jti)
		if cacheErr != nil {
			// Cache outages degrade to the durable store, never to acceptance.
			s.logger.Warn("revocation cache check failed",
				zap.String("jti", jti),
				zap.Error(cacheErr),
			)
		} else if revoked {
			s.reject("revoked")
			s.logger.Debug("token rejected from cache",
				zap.String("jti", jti),
				zap.String("reason", reason),
			)
			return nil, ErrTokenRevoked
		}
	}

	revoked, err := s.store.Exists(ctx, jti)
	if err != nil {
		s.reject("store_unavailable")
		s.logger.Error("revocation lookup failed, rejecting token",
			zap.String("jti", jti),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if revoked {
		s.backfillCache(ctx, claims)
		s.reject("revoked")
		return nil, ErrTokenRevoked
	}

	if s.metrics != nil {
		s.metrics.IncAccepted()
	}

	return claims, nil
}

func (s *ValidationService) backfillCache(ctx context.Context, claims *security.SessionClaims) {
	if s.cache == nil || claims.ExpiresAt == nil {
		return
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.cache.MarkRevoked(ctx, claims.JTI(), "", ttl); err != nil {
		s.logger.Warn("cache revoked token failed",
			zap.String("jti", claims.JTI()),
			zap.Error(err),
		)
	}
}

func (s *ValidationService) reject(reason string) {
	if s.metrics != nil {
		s.metrics.IncRejected(reason)
	}
}
