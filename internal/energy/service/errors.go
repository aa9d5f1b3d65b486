package service

import "errors"

// Expected outcomes surfaced to callers as typed errors. Anything else
// escaping a service method is a storage fault.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("username or email already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenNotFound      = errors.New("reset token not found")
	ErrTokenExpired       = errors.New("reset token expired")
	ErrTokenUsed          = errors.New("reset token already used")
)
