package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/smarttile/energyd/internal/energy/mail"
	"github.com/smarttile/energyd/internal/energy/service"
	"github.com/smarttile/energyd/internal/energy/sim"
	"github.com/smarttile/energyd/internal/energy/store"
	"github.com/smarttile/energyd/pkg/httpx"
	"github.com/smarttile/energyd/pkg/sessionx"
	"github.com/smarttile/energyd/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	sessions     *sessionx.Manager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	mailer  mail.Mailer
	sampler *sim.Sampler

	UserService   *service.UserService
	ResetService  *service.ResetService
	LedgerService *service.LedgerService
	StatsService  *service.StatsService
}

func NewRouter(
	sessions *sessionx.Manager,
	buildVersion string,
	st store.Store,
	mailer mail.Mailer,
	sampler *sim.Sampler,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		sessions:     sessions,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		mailer:       mailer,
		sampler:      sampler,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPasswordReset()
	r.registerEnergy()
	r.registerProfile()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	registerHandler := &RegisterHandler{
		UserService: r.UserService,
		Mailer:      r.mailer,
	}

	// POST /register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /login - strict rate limit by IP + identifier to prevent one IP
	// from hammering many accounts independently
	loginHandler := &LoginHandler{
		UserService: r.UserService,
		Sessions:    r.sessions,
	}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "identifier"),
		),
	)

	// POST /logout - moderate rate limit
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerPasswordReset() {
	h := &PasswordResetHandler{ResetService: r.ResetService}

	// POST /password/forgot - strict rate limit by IP (sends mail)
	r.Mux.Handle("POST /v1/auth/password/forgot",
		httpx.Chain(http.HandlerFunc(h.HandleForgot),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /password/reset/{token} - moderate rate limit (read-only check)
	r.Mux.Handle("GET /v1/auth/password/reset/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /password/reset - strict rate limit by IP (prevent token guessing)
	r.Mux.Handle("POST /v1/auth/password/reset",
		httpx.Chain(http.HandlerFunc(h.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerEnergy() {
	h := &EnergyHandler{
		LedgerService: r.LedgerService,
		StatsService:  r.StatsService,
		Sampler:       r.sampler,
	}

	// POST /steps - lenient rate limit by user (tiles fire on every step)
	securedStep := httpx.Chain(http.HandlerFunc(h.HandleStep),
		httpx.AuthnMiddleware(r.sessions),
		httpx.RateLimitByUser(httpx.LenientLimit),
	)

	securedRecent := httpx.Chain(http.HandlerFunc(h.HandleRecent),
		httpx.AuthnMiddleware(r.sessions),
		httpx.RateLimitByUser(httpx.LenientLimit),
	)

	securedStats := httpx.Chain(http.HandlerFunc(h.HandleStats),
		httpx.AuthnMiddleware(r.sessions),
		httpx.RateLimitByUser(httpx.LenientLimit),
	)

	securedSeries := httpx.Chain(http.HandlerFunc(h.HandleSeries),
		httpx.AuthnMiddleware(r.sessions),
		httpx.RateLimitByUser(httpx.LenientLimit),
	)

	// DELETE /energy - moderate rate limit by user (destructive)
	securedClear := httpx.Chain(http.HandlerFunc(h.HandleClear),
		httpx.AuthnMiddleware(r.sessions),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/energy/steps", securedStep)
	r.Mux.Handle("GET /v1/energy/recent", securedRecent)
	r.Mux.Handle("GET /v1/energy/stats", securedStats)
	r.Mux.Handle("GET /v1/energy/series", securedSeries)
	r.Mux.Handle("DELETE /v1/energy", securedClear)
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{UserService: r.UserService}

	// PUT /profile - moderate rate limit by user
	securedUpdate := httpx.Chain(http.HandlerFunc(h.HandleUpdate),
		httpx.AuthnMiddleware(r.sessions),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	// POST /profile/password - strict rate limit by user (takes the current
	// password, so it is a credential-guessing surface)
	securedPassword := httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
		httpx.AuthnMiddleware(r.sessions),
		httpx.RateLimitByUser(httpx.StrictLimit),
	)

	// DELETE /profile - strict rate limit by user (destructive)
	securedDelete := httpx.Chain(http.HandlerFunc(h.HandleDelete),
		httpx.AuthnMiddleware(r.sessions),
		httpx.RateLimitByUser(httpx.StrictLimit),
	)

	r.Mux.Handle("PUT /v1/profile", securedUpdate)
	r.Mux.Handle("POST /v1/profile/password", securedPassword)
	r.Mux.Handle("DELETE /v1/profile", securedDelete)
}

func (r *Router) registerSystem() {
	h := &HealthHandler{
		Store:   r.store,
		Version: r.buildVersion,
		Started: r.startTime,
	}

	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(http.HandlerFunc(h.HandleLivez),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(http.HandlerFunc(h.HandleReadyz),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
