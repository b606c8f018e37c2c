package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/luofilm/luofilm/internal/download/metrics"
	"github.com/luofilm/luofilm/internal/download/store"
)

// DefaultSweepInterval is how often stale tokens are purged.
const DefaultSweepInterval = 5 * time.Minute

// SweeperService periodically deletes download tokens that are used or past
// expiry and flips lapsed subscriptions to inactive. Redemption never depends
// on it having run.
type SweeperService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Metrics  *metrics.Metrics
	Now      func() time.Time

	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewSweeperService creates a sweeper. A non-positive interval uses
// DefaultSweepInterval.
func NewSweeperService(store store.Store, logger *slog.Logger, interval time.Duration) *SweeperService {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &SweeperService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background loop. The first pass runs immediately.
// Calls after the first, or after Stop, do nothing.
func (s *SweeperService) Start() {
	s.startOnce.Do(func() {
		go s.run()
		s.Logger.Info("sweeper started", "interval", s.Interval)
	})
}

// Stop halts the loop and waits for an in-flight pass to finish. Safe to
// call more than once, and before Start.
func (s *SweeperService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		// Never started: claim startOnce so a later Start cannot launch a loop.
		s.startOnce.Do(func() { close(s.doneCh) })
		<-s.doneCh
		s.Logger.Info("sweeper stopped")
	})
}

func (s *SweeperService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.sweepLogged(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweepLogged(ctx)
		case <-s.stopCh:
			return
		}
	}
}

func (s *SweeperService) sweepLogged(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		s.Logger.Error("sweep failed", "error", err)
	}
}

// Sweep runs one pass and returns the number of token records deleted. The
// token purge and the subscription pass are independent; a failure in one
// does not skip the other.
func (s *SweeperService) Sweep(ctx context.Context) (int64, error) {
	now := clock(s.Now)

	deleted, tokErr := s.Store.DownloadTokens().DeleteStaleDownloadTokens(ctx, now)
	if tokErr == nil {
		s.Metrics.SweepDeleted(deleted)
	}

	lapsed, subErr := s.Store.Subscriptions().DeactivateExpiredSubscriptions(ctx, now)

	if deleted > 0 || lapsed > 0 {
		s.Logger.Info("sweep completed",
			"tokens_deleted", deleted,
			"subscriptions_deactivated", lapsed,
		)
	} else {
		s.Logger.Debug("sweep completed, nothing to do")
	}

	return deleted, errors.Join(tokErr, subErr)
}
