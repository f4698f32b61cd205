package refresh

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Scheduler re-invokes RefreshAll on a fixed interval. It is armed once at
// startup and never reset by manual refreshes: a manual pass and a scheduled
// tick may overlap, which the orchestrator tolerates per city.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	orchestrator *Orchestrator
	interval     time.Duration
	logger       *zap.Logger
}

// NewScheduler creates a Scheduler driving the given orchestrator.
func NewScheduler(interval time.Duration, orchestrator *Orchestrator, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler:    gocron.NewScheduler(time.UTC),
		orchestrator: orchestrator,
		interval:     interval,
		logger:       logger,
	}
}

// Start arms the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		s.orchestrator.RefreshAll(context.Background(), "scheduled")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("periodic refresh armed", zap.Duration("interval", interval))
	return nil
}

// Stop stops the scheduler and cancels future ticks. In-flight passes are
// drained separately via Orchestrator.Drain.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
