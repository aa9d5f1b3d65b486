package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/smarttile/energyd/internal/energy/domain"
	"github.com/smarttile/energyd/internal/energy/store"
	"github.com/smarttile/energyd/pkg/idx"
	"github.com/smarttile/energyd/pkg/slogx"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

// LedgerService owns the append-only per-user event stream. Sequence
// numbers ("footsteps") are assigned here, never by callers, and are
// gapless per user even under concurrent appends.
type LedgerService struct {
	Store store.Store
}

// Append records one footstep sample. Energy is computed once, in joules,
// and stored alongside the inputs; it is never re-derived later.
func (s *LedgerService) Append(
	ctx context.Context,
	userID string,
	force, displacement float64,
) (domain.EnergyEvent, error) {
	log := slogx.FromContext(ctx)

	if !validSample(force) || !validSample(displacement) {
		return domain.EnergyEvent{}, ErrInvalidInput
	}

	event := domain.EnergyEvent{
		ID:           idx.New().String(),
		UserID:       userID,
		Timestamp:    time.Now().UTC(),
		Force:        force,
		Displacement: displacement,
		Energy:       force * displacement,
	}

	// The allocate-and-insert runs inside a transaction so the assigned
	// footsteps value the caller gets back is the one that landed.
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		footsteps, err := tx.EnergyEvents().AppendEvent(ctx, event)
		if err != nil {
			return err
		}
		event.Footsteps = footsteps
		return nil
	})
	if err != nil {
		return domain.EnergyEvent{}, err
	}

	log.Debug("energy event appended",
		slog.String("user_id", userID),
		slog.Int64("footsteps", event.Footsteps),
		slog.Float64("energy_j", event.Energy),
	)

	return event, nil
}

// Recent returns the newest events first, ordered by footsteps rather than
// wall clock, which is not guaranteed monotonic.
func (s *LedgerService) Recent(
	ctx context.Context,
	userID string,
	limit int,
) ([]domain.EnergyEvent, error) {
	return s.Store.EnergyEvents().RecentEvents(ctx, userID, clampLimit(limit))
}

// Clear drops the user's entire ledger; the next Append starts at 1 again.
func (s *LedgerService) Clear(ctx context.Context, userID string) (int64, error) {
	log := slogx.FromContext(ctx)

	deleted, err := s.Store.EnergyEvents().ClearUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	log.Info("ledger cleared",
		slog.String("user_id", userID),
		slog.Int64("deleted", deleted),
	)
	return deleted, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecentLimit
	case limit > maxRecentLimit:
		return maxRecentLimit
	default:
		return limit
	}
}

func validSample(v float64) bool {
	return v > 0 && !math.IsInf(v, 1) && !math.IsNaN(v)
}
