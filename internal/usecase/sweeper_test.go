package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lkimdaryl/foodjournal-backend/internal/core/domain"
)

// memoryStore keeps revocation entries in a map and deletes on the same
// expires_at <= asOf boundary as the SQL implementation.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]domain.RevocationEntry
	failing bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]domain.RevocationEntry)}
}

func (m *memoryStore) Insert(_ context.Context, entry domain.RevocationEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.JTI]; ok {
		return nil
	}
	m.entries[entry.JTI] = entry
	return nil
}

func (m *memoryStore) Exists(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[jti]
	return ok, nil
}

func (m *memoryStore) DeleteExpired(_ context.Context, asOf time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return 0, fmt.Errorf("connection refused")
	}

	var deleted int64
	for jti, entry := range m.entries {
		if entry.Expired(asOf) {
			delete(m.entries, jti)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memoryStore) setFailing(failing bool) {
	m.mu.Lock()
	m.failing = failing
	m.mu.Unlock()
}

func (m *memoryStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func TestSweeperRunOnceDeletesOnlyExpiredEntries(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	current := base

	store := newMemoryStore()
	seed := func(jti string, expiresAt time.Time) {
		if err := store.Insert(context.Background(), domain.RevocationEntry{
			JTI:       jti,
			ExpiresAt: expiresAt,
			RevokedAt: base,
		}); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}

	seed("long-gone", base.Add(-time.Hour))
	seed("at-boundary", base.Add(100*time.Second))
	seed("still-live", base.Add(101*time.Second))

	metrics := &stubMetrics{}
	sweeper := NewSweeper(store, time.Hour, nil).
		WithMetrics(metrics).
		WithClock(func() time.Time { return current })

	current = base.Add(100 * time.Second)

	report, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if report.Deleted != 2 {
		t.Fatalf("expected 2 deletions (past and at-boundary), got %d", report.Deleted)
	}
	if !report.RanAt.Equal(current) {
		t.Fatalf("expected ran_at %v, got %v", current, report.RanAt)
	}

	if revoked, _ := store.Exists(context.Background(), "still-live"); !revoked {
		t.Fatalf("unexpired entry must survive the sweep")
	}
	if store.size() != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", store.size())
	}

	if len(metrics.sweeps) != 1 || metrics.sweeps[0].Deleted != 2 {
		t.Fatalf("expected sweep report recorded in metrics")
	}
}

func TestSweeperRecoversAfterFailedRun(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	current := base

	store := newMemoryStore()
	if err := store.Insert(context.Background(), domain.RevocationEntry{
		JTI:       "stale",
		ExpiresAt: base.Add(-time.Minute),
		RevokedAt: base.Add(-2 * time.Hour),
	}); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	metrics := &stubMetrics{}
	sweeper := NewSweeper(store, time.Hour, nil).
		WithMetrics(metrics).
		WithClock(func() time.Time { return current })

	store.setFailing(true)
	report, err := sweeper.RunOnce(context.Background())
	if err == nil {
		t.Fatalf("expected error from failed sweep")
	}
	if !report.Failed {
		t.Fatalf("expected failed report")
	}
	if store.size() != 1 {
		t.Fatalf("failed sweep must leave entries in place")
	}

	// The stale entry stays visible to validation until a successful pass.
	if revoked, _ := store.Exists(context.Background(), "stale"); !revoked {
		t.Fatalf("entry must remain until swept")
	}

	store.setFailing(false)
	current = base.Add(time.Hour)

	report, err = sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if report.Deleted != 1 {
		t.Fatalf("expected retry pass to delete 1 entry, got %d", report.Deleted)
	}
	if len(metrics.sweeps) != 2 {
		t.Fatalf("expected 2 recorded reports, got %d", len(metrics.sweeps))
	}
	if !metrics.sweeps[0].Failed || metrics.sweeps[1].Failed {
		t.Fatalf("expected failed then successful report")
	}
}

func TestSweeperPublishesOnlyWhenWorkDone(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	store := newMemoryStore()
	publisher := &stubPublisher{}
	sweeper := NewSweeper(store, time.Hour, nil).
		WithPublisher(publisher).
		WithClock(func() time.Time { return base })

	if _, err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if len(publisher.sweeps) != 0 {
		t.Fatalf("empty sweep must not publish an event")
	}

	if err := store.Insert(context.Background(), domain.RevocationEntry{
		JTI:       "stale",
		ExpiresAt: base.Add(-time.Minute),
		RevokedAt: base.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	if _, err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if len(publisher.sweeps) != 1 {
		t.Fatalf("expected 1 sweep event, got %d", len(publisher.sweeps))
	}
	if publisher.sweeps[0].Deleted != 1 {
		t.Fatalf("expected event to carry deletion count 1, got %d", publisher.sweeps[0].Deleted)
	}
}

func TestSweeperLastSweepTracksMostRecentReport(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	current := base

	sweeper := NewSweeper(newMemoryStore(), time.Hour, nil).
		WithClock(func() time.Time { return current })

	if report := sweeper.LastSweep(); !report.RanAt.IsZero() {
		t.Fatalf("expected zero report before first run")
	}

	if _, err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	first := sweeper.LastSweep()
	if !first.RanAt.Equal(base) {
		t.Fatalf("expected last sweep at %v, got %v", base, first.RanAt)
	}

	current = base.Add(time.Hour)
	if _, err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if got := sweeper.LastSweep().RanAt; !got.Equal(current) {
		t.Fatalf("expected last sweep at %v, got %v", current, got)
	}
}

func TestSweeperStopIsTerminal(t *testing.T) {
	sweeper := NewSweeper(newMemoryStore(), time.Hour, nil)

	if err := sweeper.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	// Second Start is a no-op.
	if err := sweeper.Start(); err != nil {
		t.Fatalf("repeated Start returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sweeper.Stop(ctx); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if err := sweeper.Stop(ctx); err != nil {
		t.Fatalf("repeated Stop returned error: %v", err)
	}

	if err := sweeper.Start(); !errors.Is(err, ErrSweeperStopped) {
		t.Fatalf("expected ErrSweeperStopped on restart, got %v", err)
	}
	if _, err := sweeper.RunOnce(context.Background()); !errors.Is(err, ErrSweeperStopped) {
		t.Fatalf("expected ErrSweeperStopped from RunOnce, got %v", err)
	}
}

func TestSweeperStartRequiresPositiveInterval(t *testing.T) {
	sweeper := NewSweeper(newMemoryStore(), 0, nil)
	if err := sweeper.Start(); err == nil {
		t.Fatalf("expected error for non-positive interval")
	}
}

func TestSweeperConcurrentRevocationSurvives(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	store := newMemoryStore()
	sweeper := NewSweeper(store, time.Hour, nil).
		WithClock(func() time.Time { return base })

	// A revocation landing between sweep passes must never be lost.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = sweeper.RunOnce(context.Background())
	}()
	go func() {
		defer wg.Done()
		_ = store.Insert(context.Background(), domain.RevocationEntry{
			JTI:       "fresh",
			ExpiresAt: base.Add(time.Hour),
			RevokedAt: base,
		})
	}()
	wg.Wait()

	if revoked, _ := store.Exists(context.Background(), "fresh"); !revoked {
		t.Fatalf("unexpired entry inserted during a sweep must survive")
	}
}
