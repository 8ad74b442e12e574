// Package scheduler runs the periodic maintenance jobs of the development API
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TokenCleaner purges refresh tokens older than maxAge
type TokenCleaner interface {
	// Method CleanupExpiredTokens deletes tokens issued before now minus "maxAge" and returns their count.
	CleanupExpiredTokens(ctx context.Context, maxAge time.Duration) (int, error)
}

// Scheduler runs the token cleanup on a cron schedule
type Scheduler struct {
	schedule cron.Schedule
	cleaner  TokenCleaner
	maxAge   time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a scheduler for a standard cron expression (descriptors such as "@hourly" are accepted)
func New(expr string, cleaner TokenCleaner, maxAge time.Duration, logger *zap.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, err
	}
	return newWithSchedule(schedule, cleaner, maxAge, logger), nil
}

func newWithSchedule(schedule cron.Schedule, cleaner TokenCleaner, maxAge time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		cleaner:  cleaner,
		maxAge:   maxAge,
		timeout:  time.Minute,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler started")
	go s.run()
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		<-s.done
		s.logger.Info("Scheduler stopped")
	})
}

// run executes the scheduler loop
func (s *Scheduler) run() {
	defer close(s.done)

	for {
		now := time.Now()
		timer := time.NewTimer(s.schedule.Next(now).Sub(now))
		select {
		case <-timer.C:
			s.cleanTokens()
		case <-s.stopChan:
			timer.Stop()
			return
		}
	}
}

// cleanTokens runs one cleanup pass; failures are logged and retried on the next tick
func (s *Scheduler) cleanTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	deleted, err := s.cleaner.CleanupExpiredTokens(ctx, s.maxAge)
	if err != nil {
		s.logger.Error("Failed to clean expired tokens", zap.Error(err))
		return
	}
	s.logger.Info("Expired tokens cleaned", zap.Int("deleted", deleted))
}
