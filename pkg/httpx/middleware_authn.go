package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/smarttile/energyd/pkg/sessionx"
	"github.com/smarttile/energyd/pkg/slogx"
)

// SessionCookie is the cookie name the login handler sets and this
// middleware reads.
const SessionCookie = "energyd_session"

// AuthnMiddleware resolves the request's session token into a user
// identity on the context. Tokens are accepted from the session cookie or
// an Authorization: Bearer header; requests with neither, or with an
// invalid token, get 401.
func AuthnMiddleware(sessions *sessionx.Manager) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := sessionToken(r)
			if raw == "" {
				WriteError(w, http.StatusUnauthorized, "unauthenticated", "Login required")
				return
			}

			sess, err := sessions.Verify(raw)
			if err != nil {
				log.Warn("session verification failed", "err", err)
				WriteError(w, http.StatusUnauthorized, "unauthenticated", "Session is invalid or expired")
				return
			}

			ctx = context.WithValue(ctx, CtxKeyUserID, sess.UserID)
			ctx = context.WithValue(ctx, CtxKeyUsername, sess.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}
