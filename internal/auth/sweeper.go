package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// DefaultSweepInterval is how often expired sessions are removed.
const DefaultSweepInterval = time.Minute

// Sweeper periodically removes expired sessions so that mounted views see
// SIGNED_OUT when a session runs out.
type Sweeper struct {
	svc       *Service
	interval  time.Duration
	scheduler *gocron.Scheduler
	log       *logrus.Entry
}

// NewSweeper creates a Sweeper. A non-positive interval uses
// DefaultSweepInterval.
func NewSweeper(svc *Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		svc:       svc,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.UTC),
		log:       logrus.WithField("component", "auth.sweeper"),
	}
}

// Start schedules the sweep job and returns immediately.
func (s *Sweeper) Start() error {
	s.scheduler.SingletonModeAll()
	if _, err := s.scheduler.Every(s.interval).Do(s.Run); err != nil {
		return fmt.Errorf("scheduling session sweep: %w", err)
	}
	s.scheduler.StartAsync()
	s.log.WithField("interval", s.interval).Debug("session sweeper started")
	return nil
}

// Run performs one sweep.
func (s *Sweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.svc.SweepExpired(ctx); err != nil {
		s.log.WithError(err).Error("sweeping expired sessions failed")
	}
}

// Stop halts the scheduler.
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}
