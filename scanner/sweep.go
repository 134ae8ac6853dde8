// Package scanner runs the periodic housekeeping passes: idle ticket
// closing, expired ban and intake pruning, and removal of data kept for
// guilds the bot has left.
package scanner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"support-bot/blacklist"
	"support-bot/model"
	"support-bot/pending"
	"support-bot/quota"
	"support-bot/store"
	"support-bot/tickets"
)

const (
	SweepInterval     = time.Minute
	RetentionInterval = 24 * time.Hour
)

// Sweeper owns the periodic passes.
type Sweeper struct {
	store    *store.Store
	tickets  *tickets.Service
	registry *pending.Registry
	quota    *quota.Tracker
	logger   *zap.Logger
	now      func() time.Time
	onFail   func(operation string, err error)
}

func NewSweeper(st *store.Store, svc *tickets.Service, registry *pending.Registry, tracker *quota.Tracker, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		store:    st,
		tickets:  svc,
		registry: registry,
		quota:    tracker,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Sweeper) SetClock(now func() time.Time) {
	s.now = now
}

// OnFailure sets a hook that hears about passes whose changes could not be
// saved.
func (s *Sweeper) OnFailure(fn func(operation string, err error)) {
	s.onFail = fn
}

func (s *Sweeper) fail(operation string, err error) {
	s.logger.Error("Scanner pass failed", zap.String("operation", operation), zap.Error(err))
	if s.onFail != nil {
		s.onFail(operation, err)
	}
}

// SweepResult counts what one minute pass removed.
type SweepResult struct {
	IdleClosed    int
	BansPruned    int
	PendingPruned int
}

// Sweep runs the minute pass once.
func (s *Sweeper) Sweep(ctx context.Context) SweepResult {
	now := s.now()
	var res SweepResult
	res.IdleClosed = s.tickets.CloseIdle(ctx)
	res.BansPruned = s.pruneBans(now)
	res.PendingPruned = s.registry.PruneExpired(now)
	s.quota.Sweep(now)
	if res != (SweepResult{}) {
		s.logger.Info("Sweep finished",
			zap.Int("idleClosed", res.IdleClosed),
			zap.Int("bansPruned", res.BansPruned),
			zap.Int("pendingPruned", res.PendingPruned))
	}
	return res
}

func (s *Sweeper) pruneBans(now time.Time) int {
	expired := false
	s.store.View(func(doc *model.Document) {
		for _, bl := range doc.Blacklist {
			if bl == nil {
				continue
			}
			for _, entry := range bl.Temporary {
				if entry.ExpiresAt <= model.Millis(now) {
					expired = true
					return
				}
			}
		}
	})
	if !expired {
		return 0
	}
	var pruned int
	err := s.store.Update(func(doc *model.Document) error {
		pruned = blacklist.PruneAll(doc, now)
		return nil
	})
	if err != nil {
		s.fail("Prune Blacklist", err)
		return 0
	}
	return pruned
}
