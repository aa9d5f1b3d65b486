package http

import (
	"net/http"
	"time"

	"github.com/smarttile/energyd/internal/energy/store"
	"github.com/smarttile/energyd/pkg/httpx"
)

type HealthHandler struct {
	Store   store.Store
	Version string
	Started time.Time
}

// HandleLivez answers as long as the process is up.
func (h *HealthHandler) HandleLivez(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Uptime:  time.Since(h.Started).Round(time.Second).String(),
		Version: h.Version,
	})
}

// HandleReadyz additionally pings the database.
func (h *HealthHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Uptime:  time.Since(h.Started).Round(time.Second).String(),
		Version: h.Version,
		Checks:  &healthChecks{Database: "ok"},
	}

	status := http.StatusOK
	if err := h.Store.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Checks.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	httpx.WriteJSON(w, status, resp)
}
