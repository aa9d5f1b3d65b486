package http

import (
	"net/http"

	"github.com/smarttile/energyd/internal/energy/service"
	"github.com/smarttile/energyd/pkg/httpx"
)

type PasswordResetHandler struct {
	ResetService *service.ResetService
}

// HandleForgot accepts a reset request. The response is identical whether
// or not the email belongs to an account.
func (h *PasswordResetHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	if err := h.ResetService.Issue(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{
		Message: "If that email is registered, a reset link has been sent",
	})
}

// HandleValidate lets the reset form check a token before prompting for a
// new password. Read-only.
func (h *PasswordResetHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Token is required")
		return
	}

	t, err := h.ResetService.Validate(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"email": t.Email})
}

// HandleReset consumes a token and installs the new password.
func (h *PasswordResetHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}
	if req.Token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Token is required")
		return
	}

	if err := h.ResetService.Consume(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password has been reset"})
}
