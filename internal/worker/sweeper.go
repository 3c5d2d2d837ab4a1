// Package worker contains the periodic backstop sweeper. The delay queue is
// the primary expiration path; the sweeper reclaims holds whose timer
// message was lost, never enqueued, or delivered before the deadline.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OverdueExpirer expires up to limit overdue PENDING reservations and
// reports how many were actually released.
type OverdueExpirer interface {
	ExpireOverdue(ctx context.Context, limit int) (int, error)
}

// Sweeper runs the backstop on a fixed interval.
type Sweeper struct {
	expirer  OverdueExpirer
	interval time.Duration
	limit    int
	log      *zap.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSweeper builds a sweeper. interval <= 0 is normalised to one minute.
func NewSweeper(expirer OverdueExpirer, interval time.Duration, limit int, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if limit < 1 {
		limit = 100
	}
	return &Sweeper{
		expirer:  expirer,
		interval: interval,
		limit:    limit,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start blocks, sweeping every interval until ctx is cancelled or Stop is
// called. Run it in its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	s.log.Info("expiration sweeper started",
		zap.Duration("interval", s.interval), zap.Int("limit", s.limit))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("expiration sweeper stopped (context cancelled)")
			return
		case <-s.stopCh:
			s.log.Info("expiration sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop signals the sweeper and waits for the current sweep to finish.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Sweeper) sweep(ctx context.Context) {
	released, err := s.expirer.ExpireOverdue(ctx, s.limit)
	if err != nil {
		s.log.Error("sweep failed", zap.Error(err))
		return
	}
	if released > 0 {
		s.log.Info("swept overdue holds", zap.Int("released", released))
	}
}
