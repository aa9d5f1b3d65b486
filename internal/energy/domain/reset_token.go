package domain

import "time"

// ResetToken is a single-use, time-limited password recovery capability
// bound to an email address. Tokens flip unused -> used exactly once and
// are kept afterwards for audit.
type ResetToken struct {
	ID        string
	Email     string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// Expired reports whether the token is past its TTL at the given instant.
func (t ResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
