package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// ErrInvalidPeriod is returned by Start for a non-positive period.
var ErrInvalidPeriod = errors.New("scheduler: period must be positive")

// Scheduler runs at most one recurring job. Starting a new job removes the
// previous one first, so two periods never overlap.
type Scheduler struct {
	mu        sync.Mutex
	scheduler *gocron.Scheduler
	job       *gocron.Job
	period    time.Duration
	logger    *zap.SugaredLogger
}

// New creates a new Scheduler.
func New(logger *zap.SugaredLogger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
	}
}

// Start replaces any scheduled job with fn, run every period. The first run
// happens one full period after Start, never immediately.
func (s *Scheduler) Start(period time.Duration, fn func()) error {
	if period <= 0 {
		return ErrInvalidPeriod
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked()

	job, err := s.scheduler.Every(period).WaitForSchedule().Do(func() {
		s.logger.Debugw("scheduler: running poll job", "period", period)
		fn()
	})
	if err != nil {
		return err
	}

	s.job = job
	s.period = period
	if !s.scheduler.IsRunning() {
		s.scheduler.StartAsync()
	}
	s.logger.Infow("scheduler: poll job scheduled", "period", period)
	return nil
}

// Stop cancels the scheduled job, if any. The scheduler stays usable.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job != nil {
		s.logger.Infow("scheduler: poll job cancelled", "period", s.period)
	}
	s.removeLocked()
}

// Active reports whether a job is scheduled.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job != nil
}

// Period returns the period of the scheduled job, or zero.
func (s *Scheduler) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// Shutdown stops the underlying gocron scheduler and cancels any future jobs.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked()
	if s.scheduler != nil && s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) removeLocked() {
	if s.job != nil {
		s.scheduler.RemoveByReference(s.job)
	}
	s.job = nil
	s.period = 0
}
