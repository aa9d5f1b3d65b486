package domain

import "time"

// User is a registered account. Username and email are globally unique;
// email is stored lowercased so uniqueness is case-insensitive.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2id, PHC encoded
	CreatedAt    time.Time
	LastLogin    *time.Time // nil until the first successful login
}
