package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/smarttile/energyd/internal/energy/store"
)

// HousekeepingService periodically purges reset tokens whose expiry is far
// enough in the past that they have no audit value left. Recently expired
// and used tokens stay in the table.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService builds the service with sane defaults: hourly
// runs, 30 days of retention after expiry.
func NewHousekeepingService(
	st store.Store,
	logger *slog.Logger,
	interval, retention time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	return &HousekeepingService{
		Store:     st,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the background worker. Non-blocking; pair with Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started",
		"interval", s.Interval,
		"retention", s.Retention,
	)
}

// Stop shuts the worker down, waiting for any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	ctx := context.Background()
	cutoff := time.Now().UTC().Add(-s.Retention)

	deleted, err := s.Store.ResetTokens().DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to purge stale reset tokens", "error", err)
		return
	}

	if deleted > 0 {
		s.Logger.Info("purged stale reset tokens", "deleted", deleted)
	}
}
