package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSweepSchedule runs the TTL sweep every ten minutes
const DefaultSweepSchedule = "@every 10m"

// Sweeper periodically removes expired sessions so idle processes release
// memory between requests.
type Sweeper struct {
	store    *Store
	schedule string
	logger   *zap.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweeper creates a sweeper for store. An empty schedule disables it.
func NewSweeper(store *Store, schedule string, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		schedule: schedule,
		logger:   logger.Named("session_sweeper"),
	}
}

// Start schedules the sweep. It stops when ctx is done or Stop is called.
// Each start uses a fresh cron instance, so a restarted sweeper has exactly
// one job.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("session sweep schedule not configured, skipping")
		return nil
	}
	if s.cron != nil {
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.run); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	c.Start()
	s.cron = c
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.logger.Info("session sweeper started", zap.String("schedule", s.schedule))

	go s.watch(ctx, s.stopCh, s.doneCh)

	return nil
}

// watch stops the run owning stopCh once ctx is done. It exits as soon as
// that run is stopped explicitly.
func (s *Sweeper) watch(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	select {
	case <-ctx.Done():
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.stopCh == stopCh {
			s.stopLocked()
		}
	case <-stopCh:
	}
}

func (s *Sweeper) run() {
	removed := s.store.Sweep()
	if removed > 0 {
		s.logger.Info("session sweep completed", zap.Int("removed", removed))
		return
	}
	s.logger.Debug("session sweep completed, nothing expired")
}

// Stop halts the schedule and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	s.mu.Lock()
	doneCh := s.doneCh
	stopped := s.stopLocked()
	s.mu.Unlock()

	if stopped {
		<-doneCh
	}
}

func (s *Sweeper) stopLocked() bool {
	if s.cron == nil {
		return false
	}
	<-s.cron.Stop().Done()
	close(s.stopCh)
	s.cron = nil
	s.stopCh = nil
	s.logger.Info("session sweeper stopped")
	return true
}

// IsRunning reports whether the sweep is scheduled
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cron != nil
}

// jobs reports how many sweeps the active schedule holds
func (s *Sweeper) jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return 0
	}
	return len(s.cron.Entries())
}
