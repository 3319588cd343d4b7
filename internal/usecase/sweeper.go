package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lkimdaryl/foodjournal-backend/internal/core/domain"
	"github.com/lkimdaryl/foodjournal-backend/internal/core/port"
)

// ErrSweeperStopped indicates the sweeper has been shut down; there is no
// transition back from the stopped state.
var ErrSweeperStopped = errors.New("sweeper stopped")

// Sweeper periodically deletes revocation entries whose underlying token
// would have expired naturally anyway. It owns its own timer; the store
// dependency is injected at construction, never ambient.
type Sweeper struct {
	store     port.RevocationStore
	metrics   port.SweepMetrics
	publisher port.EventPublisher
	logger    *zap.Logger
	interval  time.Duration
	cron      *cron.Cron

	mu      sync.Mutex
	last    domain.SweepReport
	started bool
	stopped bool

	now func() time.Time
}

// NewSweeper constructs a Sweeper for the supplied store and interval.
func NewSweeper(store port.RevocationStore, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Sweeper{
		store:    store,
		logger:   logger,
		interval: interval,
	}
	s.now = func() time.Time { return time.Now().UTC() }
	return s
}

// WithMetrics attaches sweep telemetry.
func (s *Sweeper) WithMetrics(metrics port.SweepMetrics) *Sweeper {
	s.metrics = metrics
	return s
}

// WithPublisher attaches the sweep event publisher.
func (s *Sweeper) WithPublisher(publisher port.EventPublisher) *Sweeper {
	s.publisher = publisher
	return s
}

// WithClock overrides the sweeper clock for deterministic tests.
func (s *Sweeper) WithClock(clock func() time.Time) *Sweeper {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Start begins the recurring sweep schedule. Runs never overlap: a trigger
// that fires while the previous sweep is still in flight is skipped, and the
// next tick picks the work back up.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSweeperStopped
	}
	if s.started {
		return nil
	}
	if s.interval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}

	cronLogger := &sweepCronLogger{logger: s.logger}
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger)))
	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		_, _ = s.RunOnce(context.Background())
	}))
	s.cron.Start()
	s.started = true

	s.logger.Info("revocation sweeper started",
		zap.Duration("interval", s.interval),
	)
	return nil
}

// Stop terminates the schedule and waits for an in-flight sweep to finish,
// bounded by ctx. The sweeper cannot be restarted afterwards.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	runner := s.cron
	s.cron = nil
	s.mu.Unlock()

	if runner == nil {
		return nil
	}

	select {
	case <-runner.Stop().Done():
		s.logger.Info("revocation sweeper stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop sweeper: %w", ctx.Err())
	}
}

// RunOnce performs a single sweep immediately. A failed sweep is reported and
// recorded but does not affect the schedule; the next tick is the retry.
func (s *Sweeper) RunOnce(ctx context.Context) (domain.SweepReport, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return domain.SweepReport{}, ErrSweeperStopped
	}
	s.mu.Unlock()

	now := s.now()
	deleted, err := s.store.DeleteExpired(ctx, now)
	report := domain.SweepReport{
		RanAt:   now,
		Deleted: deleted,
		Failed:  err != nil,
	}

	s.record(report)

	if err != nil {
		s.logger.Error("revocation sweep failed",
			zap.Time("ran_at", now),
			zap.Error(err),
		)
		return report, fmt.Errorf("delete expired revocations: %w", err)
	}

	s.logger.Info("revocation sweep completed",
		zap.Time("ran_at", now),
		zap.Int64("deleted", deleted),
	)

	if s.publisher != nil && deleted > 0 {
		event := domain.SweepCompletedEvent{
			EventID: uuid.NewString(),
			RanAt:   now,
			Deleted: deleted,
		}
		if pubErr := s.publisher.PublishSweepCompleted(ctx, event); pubErr != nil {
			s.logger.Warn("publish sweep completed event failed", zap.Error(pubErr))
		}
	}

	return report, nil
}

// LastSweep returns the most recent sweep report for health reporting.
func (s *Sweeper) LastSweep() domain.SweepReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Sweeper) record(report domain.SweepReport) {
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSweep(report)
	}
}

// sweepCronLogger adapts zap to the cron.Logger interface so skipped
// overlapping runs surface in the service log.
type sweepCronLogger struct {
	logger *zap.Logger
}

func (l *sweepCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, zap.Any("details", keysAndValues))
}

func (l *sweepCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
