// Package sessionx mints and verifies the signed session tokens the HTTP
// layer hands to browsers after login. Tokens are stateless: the server
// keeps nothing between requests, so logout is purely a transport concern
// (drop the cookie).
package sessionx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSession = errors.New("sessionx: invalid session token")

// DefaultTTL is how long a minted session stays valid.
const DefaultTTL = 24 * time.Hour

// Session is the identity a verified token carries.
type Session struct {
	UserID   string
	Username string
}

type claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Manager signs and verifies session tokens with a single HS256 secret.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewManager(secret, issuer string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// TTL returns the configured session lifetime, for cookie Max-Age.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Mint returns a signed token carrying the user id as subject.
func (m *Manager) Mint(userID, username string) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Username: username,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

// Verify parses and validates a token, returning the session it carries.
// Any failure (bad signature, wrong issuer, expired) maps to
// ErrInvalidSession so callers never branch on parser internals.
func (m *Manager) Verify(raw string) (Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Session{}, ErrInvalidSession
	}
	if c.Subject == "" {
		return Session{}, ErrInvalidSession
	}
	return Session{UserID: c.Subject, Username: c.Username}, nil
}
