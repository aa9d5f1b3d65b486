package sqlite

import (
	"context"
	"database/sql"

	"github.com/smarttile/energyd/internal/energy/domain"
	"github.com/smarttile/energyd/internal/energy/store"
)

type energyEventsRepo struct {
	q dbtx
}

// AppendEvent allocates the next per-user footsteps value and inserts the
// event in one statement, so the allocation can never race with another
// insert for the same user (sqlite serializes writers; the aggregate
// subquery and the insert share a single write lock).
func (r *energyEventsRepo) AppendEvent(ctx context.Context, e domain.EnergyEvent) (int64, error) {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO energy_data
		     (id, user_id, timestamp, footsteps, force, displacement, energy_generated)
		 SELECT ?, ?, ?, COALESCE(MAX(footsteps), 0) + 1, ?, ?, ?
		 FROM energy_data WHERE user_id = ?`,
		e.ID, e.UserID, e.Timestamp, e.Force, e.Displacement, e.Energy, e.UserID)
	if err != nil {
		return 0, mapConstraint(err)
	}

	var footsteps int64
	err = r.q.QueryRowContext(ctx,
		`SELECT footsteps FROM energy_data WHERE id = ?`, e.ID,
	).Scan(&footsteps)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return footsteps, nil
}

func (r *energyEventsRepo) RecentEvents(ctx context.Context, userID string, limit int) ([]domain.EnergyEvent, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, timestamp, footsteps, force, displacement, energy_generated
		 FROM energy_data WHERE user_id = ?
		 ORDER BY footsteps DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// SeriesEvents returns the same window as RecentEvents but oldest first,
// which is what a chart wants.
func (r *energyEventsRepo) SeriesEvents(ctx context.Context, userID string, limit int) ([]domain.EnergyEvent, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, timestamp, footsteps, force, displacement, energy_generated
		 FROM (
		     SELECT id, user_id, timestamp, footsteps, force, displacement, energy_generated
		     FROM energy_data WHERE user_id = ?
		     ORDER BY footsteps DESC LIMIT ?
		 ) ORDER BY footsteps ASC`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// TotalsByUser aggregates straight over the stored joule values. Display
// conversions happen at the read boundary, never here.
func (r *energyEventsRepo) TotalsByUser(ctx context.Context, userID string) (store.LedgerTotals, error) {
	var t store.LedgerTotals
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(energy_generated), 0),
		        COALESCE(AVG(energy_generated), 0),
		        COALESCE(MAX(energy_generated), 0),
		        COALESCE(MIN(energy_generated), 0)
		 FROM energy_data WHERE user_id = ?`, userID,
	).Scan(&t.Steps, &t.TotalJ, &t.AvgJ, &t.MaxJ, &t.MinJ)
	if err != nil {
		return store.LedgerTotals{}, err
	}
	return t, nil
}

func (r *energyEventsRepo) ClearUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM energy_data WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func collectEvents(rows *sql.Rows) ([]domain.EnergyEvent, error) {
	defer rows.Close()

	var out []domain.EnergyEvent
	for rows.Next() {
		var e domain.EnergyEvent
		err := rows.Scan(&e.ID, &e.UserID, &e.Timestamp,
			&e.Footsteps, &e.Force, &e.Displacement, &e.Energy)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
