package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lkimdaryl/foodjournal-backend/internal/core/domain"
	"github.com/lkimdaryl/foodjournal-backend/internal/core/port"
	"github.com/lkimdaryl/foodjournal-backend/internal/infra/config"
	"github.com/lkimdaryl/foodjournal-backend/internal/infra/security"
)

type stubRevocationStore struct {
	mu sync.Mutex

	insertFn        func(ctx context.Context, entry domain.RevocationEntry) error
	existsFn        func(ctx context.Context, jti string) (bool, error)
	deleteExpiredFn func(ctx context.Context, asOf time.Time) (int64, error)

	inserted    []domain.RevocationEntry
	existsCalls int
	deleteCalls int
}

func (s *stubRevocationStore) Insert(ctx context.Context, entry domain.RevocationEntry) error {
	s.mu.Lock()
	s.inserted = append(s.inserted, entry)
	s.mu.Unlock()
	if s.insertFn != nil {
		return s.insertFn(ctx, entry)
	}
	return nil
}

func (s *stubRevocationStore) Exists(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	s.existsCalls++
	s.mu.Unlock()
	if s.existsFn != nil {
		return s.existsFn(ctx, jti)
	}
	return false, nil
}

func (s *stubRevocationStore) DeleteExpired(ctx context.Context, asOf time.Time) (int64, error) {
	s.mu.Lock()
	s.deleteCalls++
	s.mu.Unlock()
	if s.deleteExpiredFn != nil {
		return s.deleteExpiredFn(ctx, asOf)
	}
	return 0, nil
}

type stubRevocationCache struct {
	markFn      func(ctx context.Context, jti, reason string, ttl time.Duration) error
	isRevokedFn func(ctx context.Context, jti string) (bool, string, error)

	marked map[string]time.Duration
}

func (s *stubRevocationCache) MarkRevoked(ctx context.Context, jti, reason string, ttl time.Duration) error {
	if s.marked == nil {
		s.marked = make(map[string]time.Duration)
	}
	s.marked[jti] = ttl
	if s.markFn != nil {
		return s.markFn(ctx, jti, reason, ttl)
	}
	return nil
}

func (s *stubRevocationCache) IsRevoked(ctx context.Context, jti string) (bool, string, error) {
	if s.isRevokedFn != nil {
		return s.isRevokedFn(ctx, jti)
	}
	return false, "", nil
}

type stubPublisher struct {
	mu sync.Mutex

	revoked []domain.TokenRevokedEvent
	sweeps  []domain.SweepCompletedEvent
}

func (s *stubPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked = append(s.revoked, event)
	return nil
}

func (s *stubPublisher) PublishSweepCompleted(_ context.Context, event domain.SweepCompletedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeps = append(s.sweeps, event)
	return nil
}

type stubMetrics struct {
	mu sync.Mutex

	accepted    int
	rejected    map[string]int
	revocations int
	sweeps      []domain.SweepReport
}

func (s *stubMetrics) IncAccepted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accepted++
}

func (s *stubMetrics) IncRejected(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejected == nil {
		s.rejected = make(map[string]int)
	}
	s.rejected[reason]++
}

func (s *stubMetrics) IncRevocation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revocations++
}

func (s *stubMetrics) RecordSweep(report domain.SweepReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeps = append(s.sweeps, report)
}

var (
	_ port.RevocationStore   = (*stubRevocationStore)(nil)
	_ port.RevocationCache   = (*stubRevocationCache)(nil)
	_ port.EventPublisher    = (*stubPublisher)(nil)
	_ port.ValidationMetrics = (*stubMetrics)(nil)
	_ port.RevocationMetrics = (*stubMetrics)(nil)
	_ port.SweepMetrics      = (*stubMetrics)(nil)
)

func newTestCodec(t *testing.T, now func() time.Time) *security.TokenCodec {
	t.Helper()

	codec, err := security.NewTokenCodec(config.JWTSettings{
		Secret:         "unit-test-secret",
		Algorithm:      "HS256",
		AccessTokenTTL: 24 * time.Hour,
	}, "sessions-service")
	if err != nil {
		t.Fatalf("NewTokenCodec returned error: %v", err)
	}
	return codec.WithClock(now)
}
