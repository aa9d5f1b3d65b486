package http

import (
	"net/http"

	"github.com/smarttile/energyd/internal/energy/service"
	"github.com/smarttile/energyd/pkg/httpx"
)

type ProfileHandler struct {
	UserService *service.UserService
}

// HandleUpdate changes the caller's username and/or email.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	user, err := h.UserService.UpdateProfile(r.Context(), userID, req.Username, req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleChangePassword requires the current password before installing a
// new one.
func (h *ProfileHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	if err := h.UserService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password updated"})
}

// HandleDelete removes the account together with its ledger and any
// outstanding reset tokens. The session cookie is cleared on the way out.
func (h *ProfileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())

	var req deleteAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	if err := h.UserService.DeleteAccount(r.Context(), userID, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}

	setSessionCookie(w, r, "", -1)
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Account deleted"})
}
