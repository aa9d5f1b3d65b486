package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/smarttile/energyd/internal/energy/service"
	"github.com/smarttile/energyd/internal/energy/store"
	"github.com/smarttile/energyd/pkg/httpx"
	"github.com/smarttile/energyd/pkg/slogx"
)

// decodeJSON reads a JSON request body into dst, rejecting unknown noise.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(dst)
}

// writeServiceError maps service errors onto stable HTTP responses. The
// invalid-credentials message never distinguishes "no such account" from
// "wrong password".
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, service.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, "conflict",
			"Username or email is already taken")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials",
			"Invalid credentials")
	case errors.Is(err, service.ErrTokenNotFound):
		httpx.WriteError(w, http.StatusNotFound, "token_not_found",
			"Reset token is invalid")
	case errors.Is(err, service.ErrTokenExpired):
		httpx.WriteError(w, http.StatusGone, "token_expired",
			"Reset token has expired")
	case errors.Is(err, service.ErrTokenUsed):
		httpx.WriteError(w, http.StatusConflict, "token_used",
			"Reset token has already been used")
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Not found")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "storage_failure",
			"Internal error")
	}
}
