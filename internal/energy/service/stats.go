package service

import (
	"context"

	"github.com/smarttile/energyd/internal/energy/store"
)

// StatsService is the read side of the ledger: aggregates computed over
// the canonical joule values, with unit conversions applied only at the
// output boundary. Re-aggregating already-converted figures compounds
// rounding error, so nothing converted is ever stored or summed.
type StatsService struct {
	Store store.Store

	// PricePerKWh prices generated energy for the dashboard estimate.
	PricePerKWh float64
}

// SeriesPoint is one charted sample: the per-user sequence number and the
// stored energy in joules.
type SeriesPoint struct {
	Footsteps int64   `json:"footsteps"`
	EnergyJ   float64 `json:"energy_j"`
}

// Totals aggregates one user's ledger. All figures are joules; a user with
// no events gets zeros, not an error.
func (s *StatsService) Totals(ctx context.Context, userID string) (store.LedgerTotals, error) {
	return s.Store.EnergyEvents().TotalsByUser(ctx, userID)
}

// Series returns the last limit events as (footsteps, energyJ) points,
// oldest to newest.
func (s *StatsService) Series(ctx context.Context, userID string, limit int) ([]SeriesPoint, error) {
	events, err := s.Store.EnergyEvents().SeriesEvents(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}

	points := make([]SeriesPoint, 0, len(events))
	for _, e := range events {
		points = append(points, SeriesPoint{Footsteps: e.Footsteps, EnergyJ: e.Energy})
	}
	return points, nil
}

// Value prices a watt-hour figure using the configured per-kWh rate.
func (s *StatsService) Value(wattHours float64) float64 {
	return WattHoursValue(wattHours, s.PricePerKWh)
}

// JoulesToMillijoules converts for display; inputs stay in joules.
func JoulesToMillijoules(j float64) float64 { return j * 1000 }

// JoulesToWattHours converts joules to watt-hours (1 Wh = 3600 J).
func JoulesToWattHours(j float64) float64 { return j / 3600 }

// WattHoursValue prices watt-hours at a per-kilowatt-hour rate.
func WattHoursValue(wh, pricePerKWh float64) float64 {
	return wh * pricePerKWh / 1000
}
