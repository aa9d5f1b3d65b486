package http

import (
	"net/http"
	"strconv"

	"github.com/smarttile/energyd/internal/energy/domain"
	"github.com/smarttile/energyd/internal/energy/service"
	"github.com/smarttile/energyd/internal/energy/sim"
	"github.com/smarttile/energyd/pkg/httpx"
)

type EnergyHandler struct {
	LedgerService *service.LedgerService
	StatsService  *service.StatsService
	Sampler       *sim.Sampler
}

// HandleStep simulates one footstep: the sampler synthesizes the
// force/displacement pair and the ledger assigns the sequence number.
func (h *EnergyHandler) HandleStep(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	sample := h.Sampler.Next()
	event, err := h.LedgerService.Append(r.Context(), userID, sample.Force, sample.Displacement)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, stepResponse{
		Footsteps: event.Footsteps,
		Timestamp: event.Timestamp,
		ForceN:    event.Force,
		DisplM:    event.Displacement,
		EnergyJ:   event.Energy,
		EnergyMJ:  service.JoulesToMillijoules(event.Energy),
	})
}

// HandleRecent returns the newest events, newest first.
func (h *EnergyHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	events, err := h.LedgerService.Recent(r.Context(), userID, queryLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleStats reports the joule aggregates plus display conversions. The
// conversions are applied here, once, at the boundary.
func (h *EnergyHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	totals, err := h.StatsService.Totals(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	wattHours := service.JoulesToWattHours(totals.TotalJ)
	httpx.WriteJSON(w, http.StatusOK, statsResponse{
		StepCount:      totals.Steps,
		TotalEnergyJ:   totals.TotalJ,
		AvgEnergyJ:     totals.AvgJ,
		MaxEnergyJ:     totals.MaxJ,
		MinEnergyJ:     totals.MinJ,
		TotalEnergyMJ:  service.JoulesToMillijoules(totals.TotalJ),
		TotalWattHours: wattHours,
		EstimatedValue: h.StatsService.Value(wattHours),
	})
}

// HandleSeries returns (footsteps, energy) points oldest first.
func (h *EnergyHandler) HandleSeries(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	points, err := h.StatsService.Series(r.Context(), userID, queryLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, points)
}

// HandleClear wipes the caller's ledger.
func (h *EnergyHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	deleted, err := h.LedgerService.Clear(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, clearResponse{Deleted: deleted})
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0 // service applies its default
	}
	return limit
}

func toEventResponse(e domain.EnergyEvent) eventResponse {
	return eventResponse{
		Footsteps: e.Footsteps,
		Timestamp: e.Timestamp,
		ForceN:    e.Force,
		DisplM:    e.Displacement,
		EnergyJ:   e.Energy,
	}
}
