package vectorsync

import (
	"context"
	"time"

	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

// Scheduler re-projects on a fixed interval. Run blocks until the context
// is cancelled; the first projection happens immediately.
type Scheduler struct {
	projector *Projector
	interval  time.Duration
	log       *logger.Logger
}

func NewScheduler(projector *Projector, interval time.Duration, baseLog *logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		projector: projector,
		interval:  interval,
		log:       baseLog.With("service", "ProjectionScheduler"),
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("projection scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	n, err := s.projector.ProjectAll(ctx)
	if err != nil {
		s.log.Error("scheduled projection failed", "documents_written", n, "error", err)
		return
	}
	s.log.Info("scheduled projection finished", "documents_written", n)
}
