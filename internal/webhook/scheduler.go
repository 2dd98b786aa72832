package webhook

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler drives periodic re-attempts. One instance runs per process,
// constructed at startup and handed the shutdown context; there is no
// ambient singleton.
type Scheduler struct {
	service  *Service
	logger   *slog.Logger
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

func NewScheduler(service *Service, logger *slog.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Scheduler{
		service:  service,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Run loops until ctx is cancelled or Stop is called. The sleep is
// interruptible; a tick already in flight drains before Run returns, so a
// shutdown never strands records in in_progress.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("webhook retry scheduler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("webhook retry scheduler stopped")
			return
		case <-s.done:
			s.logger.Info("webhook retry scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop signals the loop to exit. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// tick runs one batch. In-flight attempts use a context detached from the
// shutdown signal so cancellation stops new batches without hard-killing
// requests already on the wire. Errors are logged and the loop lives on;
// a bad batch must not terminate the service.
func (s *Scheduler) tick(ctx context.Context) {
	processed, err := s.service.RetryPending(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Error("webhook retry tick failed", "error", err)
		return
	}

	if processed > 0 {
		s.logger.Debug("webhook retry tick completed", "processed", processed)
	}
}
