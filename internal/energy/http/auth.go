package http

import (
	"net/http"

	"github.com/smarttile/energyd/internal/energy/domain"
	"github.com/smarttile/energyd/internal/energy/mail"
	"github.com/smarttile/energyd/internal/energy/service"
	"github.com/smarttile/energyd/pkg/httpx"
	"github.com/smarttile/energyd/pkg/sessionx"
	"github.com/smarttile/energyd/pkg/slogx"
)

type RegisterHandler struct {
	UserService *service.UserService
	Mailer      mail.Mailer // optional welcome mail
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	user, err := h.UserService.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Welcome mail is advisory; registration already succeeded.
	if h.Mailer != nil {
		if err := h.Mailer.SendWelcome(ctx, user.Email, user.Username); err != nil {
			log.Warn("welcome mail delivery failed", "err", err)
		}
	}

	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

type LoginHandler struct {
	UserService *service.UserService
	Sessions    *sessionx.Manager
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	user, err := h.UserService.Authenticate(ctx, req.Identifier, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, err := h.Sessions.Mint(user.ID, user.Username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setSessionCookie(w, r, token, int(h.Sessions.TTL().Seconds()))
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		User:  toUserResponse(user),
		Token: token,
	})
}

// LogoutHandler clears the session cookie. Sessions are stateless, so
// there is nothing server-side to revoke.
type LogoutHandler struct{}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setSessionCookie(w, r, "", -1)
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     httpx.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}
