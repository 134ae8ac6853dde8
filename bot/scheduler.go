package bot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"support-bot/scanner"
)

// Scheduler drives the periodic scanner passes.
type Scheduler struct {
	sweeper *scanner.Sweeper
	logger  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(sweeper *scanner.Sweeper, logger *zap.Logger) *Scheduler {
	return &Scheduler{sweeper: sweeper, logger: logger}
}

// Start launches the minute sweep and the daily retention pass. A cleanup
// runs once right away so departed guilds age out across restarts.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(2)

	go func() {
		defer s.wg.Done()
		s.every(ctx, scanner.SweepInterval, func() {
			s.sweeper.Sweep(ctx)
		})
	}()

	go func() {
		defer s.wg.Done()
		s.sweeper.CleanupRemovedGuilds()
		s.every(ctx, scanner.RetentionInterval, func() {
			s.sweeper.CleanupRemovedGuilds()
		})
	}()
}

func (s *Scheduler) every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels the passes and waits for a running one to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.logger.Info("Stopping scheduler")
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
}
