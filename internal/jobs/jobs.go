package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"pawpop-backend/internal/metrics"
	"pawpop-backend/internal/models"
)

type RetryStore interface {
	ListRetryCandidates(ctx context.Context, stalledBefore, now time.Time, maxRetries, limit int) ([]models.Order, error)
	ScheduleRetry(ctx context.Context, orderID uuid.UUID, retryCount int, next time.Time) error
}

type Workflow interface {
	RetryFailedOrder(ctx context.Context, orderID uuid.UUID) error
	CancelStalePending(ctx context.Context, createdBefore time.Time, dryRun bool) ([]uuid.UUID, error)
}

type Escalator interface {
	EscalateStalled(ctx context.Context, pendingBefore time.Time) (int, error)
}

type Config struct {
	RetryInterval      time.Duration
	RetryWorkers       int
	RetryMaxAttempts   int
	RetryBaseBackoff   time.Duration
	RetryMaxBackoff    time.Duration
	RetryStallWindow   time.Duration
	RetryBatchSize     int
	StaleAfter         time.Duration
	StaleInterval      time.Duration
	EscalateAfter      time.Duration
	EscalationInterval time.Duration
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cfg       Config
	store     RetryStore
	workflow  Workflow
	escalator Escalator
	metrics   *metrics.Registry
	logger    *slog.Logger
	now       func() time.Time
}

func NewScheduler(cfg Config, store RetryStore, workflow Workflow, escalator Escalator, m *metrics.Registry, logger *slog.Logger) *Scheduler {
	if cfg.RetryWorkers < 1 {
		cfg.RetryWorkers = 1
	}
	if cfg.RetryBatchSize < 1 {
		cfg.RetryBatchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:       cfg,
		store:     store,
		workflow:  workflow,
		escalator: escalator,
		metrics:   m,
		logger:    logger.With("component", "jobs"),
		now:       time.Now,
	}
}

// WithClock replaces the scheduler's time source.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Run starts every job with a positive interval and blocks until ctx is
// cancelled and all jobs have returned.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	start := func(name string, every time.Duration, job func(context.Context)) {
		if every <= 0 {
			s.logger.Info("job disabled", "job", name)
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.loop(ctx, name, every, job)
		}()
	}

	start("retry_sweep", s.cfg.RetryInterval, func(ctx context.Context) { s.RetrySweep(ctx) })
	start("stale_cleanup", s.cfg.StaleInterval, func(ctx context.Context) { s.CleanupStale(ctx) })
	if s.escalator != nil {
		start("review_escalation", s.cfg.EscalationInterval, func(ctx context.Context) { s.EscalateReviews(ctx) })
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, name string, every time.Duration, job func(context.Context)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	s.logger.Info("job started", "job", name, "interval", every.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

// RetrySweep retries failed and stalled physical orders that are due.
// It returns how many retries succeeded.
func (s *Scheduler) RetrySweep(ctx context.Context) int {
	now := s.now()
	orders, err := s.store.ListRetryCandidates(ctx, now.Add(-s.cfg.RetryStallWindow), now, s.cfg.RetryMaxAttempts, s.cfg.RetryBatchSize)
	if err != nil {
		s.logger.Error("failed to list retry candidates", "error", err)
		return 0
	}
	if len(orders) == 0 {
		return 0
	}
	s.logger.Info("retrying orders", "count", len(orders))

	work := make(chan models.Order)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < s.cfg.RetryWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for order := range work {
				if s.retryOne(ctx, order) {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for _, order := range orders {
		select {
		case work <- order:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()
	return succeeded
}

func (s *Scheduler) retryOne(ctx context.Context, order models.Order) bool {
	log := s.logger.With("order_id", order.ID, "session_id", order.StripeSessionID, "retry_count", order.RetryCount)

	err := s.workflow.RetryFailedOrder(ctx, order.ID)
	if err == nil {
		s.metrics.RetryAttempted("success")
		log.Info("order retry succeeded")
		return true
	}
	s.metrics.RetryAttempted("failure")

	attempts := order.RetryCount + 1
	next := s.now().Add(Backoff(s.cfg.RetryBaseBackoff, s.cfg.RetryMaxBackoff, order.RetryCount))
	if serr := s.store.ScheduleRetry(ctx, order.ID, attempts, next); serr != nil {
		log.Error("failed to schedule next retry", "error", serr)
	}
	if attempts >= s.cfg.RetryMaxAttempts {
		log.Error("order retries exhausted", "error", err)
	} else {
		log.Warn("order retry failed", "next_retry_at", next, "error", err)
	}
	return false
}

// Backoff is base·2^n, capped at limit.
func Backoff(base, limit time.Duration, n int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base
	for i := 0; i < n; i++ {
		d *= 2
		if limit > 0 && d >= limit {
			return limit
		}
	}
	if limit > 0 && d > limit {
		return limit
	}
	return d
}

// CleanupStale cancels pending orders older than the configured age.
func (s *Scheduler) CleanupStale(ctx context.Context) []uuid.UUID {
	cancelled, err := s.workflow.CancelStalePending(ctx, s.now().Add(-s.cfg.StaleAfter), false)
	if err != nil {
		s.logger.Error("stale order cleanup failed", "error", err)
		return nil
	}
	if len(cancelled) > 0 {
		s.logger.Info("cancelled stale pending orders", "count", len(cancelled))
	}
	return cancelled
}

// EscalateReviews flags reviews that have waited too long.
func (s *Scheduler) EscalateReviews(ctx context.Context) int {
	n, err := s.escalator.EscalateStalled(ctx, s.now().Add(-s.cfg.EscalateAfter))
	if err != nil {
		s.logger.Error("review escalation failed", "error", err)
	}
	if n > 0 {
		s.metrics.ReviewsEscalated(n)
		s.logger.Info("escalated stalled reviews", "count", n)
	}
	return n
}
