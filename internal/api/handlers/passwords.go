package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/yuta/recipe-box/internal/api/dto"
	"github.com/yuta/recipe-box/internal/auth"
)

type PasswordsHandler struct {
	service  *auth.Service
	resetURL string
}

func NewPasswordsHandler(service *auth.Service, resetURL string) *PasswordsHandler {
	return &PasswordsHandler{service: service, resetURL: resetURL}
}

// Create handles POST /api/v1/auth/password, the reset request. The
// response is identical whether or not the address is registered.
func (h *PasswordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email != "" {
		h.service.RequestPasswordReset(r.Context(), req.Email)
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "If that address is registered, a password reset email will arrive shortly.",
	})
}

// Edit handles GET /api/v1/auth/password/edit, the link from the reset
// email. A valid, unexpired token unlocks the password change and redirects
// to the front end with the token attached; everything else is 404.
func (h *PasswordsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("reset_password_token")

	if _, err := h.service.ValidateResetToken(r.Context(), token); err != nil {
		writeError(w, http.StatusNotFound, "Password reset link is invalid or has expired")
		return
	}

	http.Redirect(w, r, h.resetURL+"?reset_password_token="+url.QueryEscape(token), http.StatusFound)
}

// Update handles PUT /api/v1/auth/password, the final step of the reset.
func (h *PasswordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	_, err := h.service.UpdatePassword(r.Context(), req.ResetPasswordToken, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrResetNotAllowed):
			writeError(w, http.StatusUnauthorized, "Password change is not allowed; request a new reset link")
		case errors.Is(err, auth.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "Password reset link is invalid or has expired")
		default:
			writeError(w, http.StatusInternalServerError, "Password update failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Your password has been updated"})
}
