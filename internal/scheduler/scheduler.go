// Package scheduler triggers periodic detect batches. Concurrency control
// lives in the detect service's per-tenant lock, so overlapping ticks and
// manual triggers degrade to SKIPPED runs instead of double work.
package scheduler

import (
	"context"
	"time"

	"actiongate/internal/logger"
	"actiongate/internal/models"
	"actiongate/internal/services"
)

// Scheduler runs detect batches for a fixed set of tenants on a ticker.
type Scheduler struct {
	detect    services.DetectServicer
	tenantIDs []uint
	interval  time.Duration
	window    time.Duration
	done      chan struct{}
}

// New creates a scheduler. It does nothing until Start is called.
func New(detect services.DetectServicer, tenantIDs []uint, interval, window time.Duration) *Scheduler {
	return &Scheduler{
		detect:    detect,
		tenantIDs: tenantIDs,
		interval:  interval,
		window:    window,
		done:      make(chan struct{}),
	}
}

// Start launches the ticker loop. It returns immediately; the loop stops
// when ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

// Wait blocks until the loop has exited.
func (s *Scheduler) Wait() {
	<-s.done
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	logger.Get().Infow("detect scheduler started",
		"interval", s.interval,
		"window", s.window,
		"tenants", s.tenantIDs,
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Get().Info("detect scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	windowTo := time.Now().UTC()
	windowFrom := windowTo.Add(-s.window)

	for _, tenantID := range s.tenantIDs {
		result, err := s.detect.Run(ctx, tenantID, windowFrom, windowTo, models.SystemActor, models.AuditChannelScheduler)
		if err != nil {
			logger.Get().Errorw("scheduled detect batch failed",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
		if result.Status == models.DetectRunStatusSkipped {
			logger.Get().Infow("scheduled detect batch skipped",
				"tenant_id", tenantID,
				"running_run_id", result.RunningRunID,
			)
		}
	}
}
