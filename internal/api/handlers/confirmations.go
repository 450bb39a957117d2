package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/yuta/recipe-box/internal/api/dto"
	"github.com/yuta/recipe-box/internal/auth"
)

type ConfirmationsHandler struct {
	service     *auth.Service
	frontendURL string
}

func NewConfirmationsHandler(service *auth.Service, frontendURL string) *ConfirmationsHandler {
	return &ConfirmationsHandler{service: service, frontendURL: frontendURL}
}

// Confirm handles GET /api/v1/auth/confirmation, the link from the
// confirmation email. A valid token confirms the account and redirects to
// the front end; anything else is 404.
func (h *ConfirmationsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("confirmation_token")

	if _, err := h.service.Confirm(r.Context(), token); err != nil {
		writeError(w, http.StatusNotFound, "Confirmation link is invalid or has expired")
		return
	}

	http.Redirect(w, r, h.frontendURL+"?account_confirmation_success=true", http.StatusFound)
}

// Resend handles POST /api/v1/auth/confirmation. It reports success no
// matter what; mail is only sent for existing unconfirmed accounts.
func (h *ConfirmationsHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req dto.ResendConfirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.service.ResendConfirmation(r.Context(), req.Email)

	writeJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "The confirmation email has been resent. Please check your inbox.",
	})
}
