package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/smarttile/energyd/internal/energy/service"
	"github.com/smarttile/energyd/internal/energy/sim"
	"github.com/smarttile/energyd/internal/energy/store/drivers/sqlite"
	"github.com/smarttile/energyd/pkg/cryptox"
	"github.com/smarttile/energyd/pkg/httpx"
	"github.com/smarttile/energyd/pkg/sessionx"
	"github.com/stretchr/testify/require"
)

type testMailer struct {
	resetLinks []string
}

func (m *testMailer) SendPasswordReset(_ context.Context, _, _, resetLink string) error {
	m.resetLinks = append(m.resetLinks, resetLink)
	return nil
}

func (m *testMailer) SendWelcome(context.Context, string, string) error { return nil }

func newTestRouter(t *testing.T) (*Router, *testMailer) {
	t.Helper()

	cryptox.SetPepperPath(t.TempDir() + "/pepper")

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	mailer := &testMailer{}
	sessions := sessionx.NewManager("test-secret", "energyd-test", time.Hour)
	logger := slog.Default()

	r := NewRouter(sessions, "test", st, mailer, sim.NewSeeded(1), logger)
	r.UserService = &service.UserService{Store: st}
	r.ResetService = &service.ResetService{Store: st, Mailer: mailer, BaseURL: "http://localhost"}
	r.LedgerService = &service.LedgerService{Store: st}
	r.StatsService = &service.StatsService{Store: st, PricePerKWh: 10.0}
	r.ApplyRoutes()

	return r, mailer
}

func doJSON(t *testing.T, r *Router, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == httpx.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestAuthAndLedgerRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/register", map[string]string{
		"username": "alice",
		"email":    "a@x.com",
		"password": "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/auth/login", map[string]string{
		"identifier": "alice",
		"password":   "wrong-password",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/auth/login", map[string]string{
		"identifier": "alice",
		"password":   "secret1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	// Anonymous callers are kept out of the ledger.
	rec = doJSON(t, r, http.MethodPost, "/v1/energy/steps", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var steps []stepResponse
	for range 3 {
		rec = doJSON(t, r, http.MethodPost, "/v1/energy/steps", nil, cookie)
		require.Equal(t, http.StatusCreated, rec.Code)

		var step stepResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &step))
		steps = append(steps, step)
	}
	require.Equal(t, int64(1), steps[0].Footsteps)
	require.Equal(t, int64(3), steps[2].Footsteps)
	require.InDelta(t, steps[0].EnergyJ*1000, steps[0].EnergyMJ, 1e-9)

	rec = doJSON(t, r, http.MethodGet, "/v1/energy/stats", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, int64(3), stats.StepCount)
	wantTotal := steps[0].EnergyJ + steps[1].EnergyJ + steps[2].EnergyJ
	require.InDelta(t, wantTotal, stats.TotalEnergyJ, 1e-9)
	require.InDelta(t, wantTotal/3600, stats.TotalWattHours, 1e-9)

	rec = doJSON(t, r, http.MethodDelete, "/v1/energy", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var cleared clearResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleared))
	require.Equal(t, int64(3), cleared.Deleted)

	rec = doJSON(t, r, http.MethodGet, "/v1/energy/recent", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestPasswordResetFlow(t *testing.T) {
	r, mailer := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/register", map[string]string{
		"username": "alice",
		"email":    "a@x.com",
		"password": "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// The response is the same whether or not the email exists.
	rec = doJSON(t, r, http.MethodPost, "/v1/auth/password/forgot",
		map[string]string{"email": "nobody@x.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, mailer.resetLinks)

	rec = doJSON(t, r, http.MethodPost, "/v1/auth/password/forgot",
		map[string]string{"email": "a@x.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, mailer.resetLinks, 1)

	link, err := url.Parse(mailer.resetLinks[0])
	require.NoError(t, err)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	rec = doJSON(t, r, http.MethodGet, "/v1/auth/password/reset/"+token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/auth/password/reset", map[string]string{
		"token":        token,
		"new_password": "newsecret2",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The token is spent.
	rec = doJSON(t, r, http.MethodPost, "/v1/auth/password/reset", map[string]string{
		"token":        token,
		"new_password": "thirdsecret3",
	}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/auth/login", map[string]string{
		"identifier": "a@x.com",
		"password":   "newsecret2",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/livez", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/readyz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
}
