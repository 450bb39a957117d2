package handlers

import (
	"net/http"

	"github.com/yuta/recipe-box/internal/api/dto"
	"github.com/yuta/recipe-box/internal/api/middleware"
	"github.com/yuta/recipe-box/internal/auth"
	"github.com/yuta/recipe-box/internal/database/models"
)

type GuestHandler struct {
	service *auth.Service
	tokens  *auth.TokenStore
}

func NewGuestHandler(service *auth.Service, tokens *auth.TokenStore) *GuestHandler {
	return &GuestHandler{service: service, tokens: tokens}
}

// Create handles POST /api/v1/auth/guest_user. A signed-in non-guest may
// not create guests; an unauthenticated caller (or a guest) may.
func (h *GuestHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid := r.Header.Get(middleware.HeaderUID)
	clientID := r.Header.Get(middleware.HeaderClient)
	token := r.Header.Get(middleware.HeaderAccessToken)

	if uid != "" || clientID != "" || token != "" {
		// A rotation here would strand the caller's current token on the
		// rejection below, so only look.
		if user, err := h.tokens.Peek(r.Context(), uid, clientID, token); err == nil && user.Role != models.RoleGuest {
			writeError(w, http.StatusForbidden, "Guest sign-in is not available while signed in")
			return
		}
	}

	user, sess, err := h.service.CreateGuest(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Guest sign-in failed")
		return
	}

	middleware.SetSessionHeaders(w, sess)
	writeJSON(w, http.StatusOK, struct {
		Message string      `json:"message"`
		User    dto.UserDTO `json:"user"`
	}{
		Message: "Signed in as a guest",
		User: dto.UserDTO{
			ID:    user.ID.String(),
			Email: user.Email,
			Role:  user.Role,
		},
	})
}

// Destroy handles DELETE /api/v1/auth/guest_user. Reached through the Auth
// middleware plus a guest-role guard, so the principal here is always a
// guest. The delete is physical, and the rotated session headers are
// stripped since the account they reference is gone.
func (h *GuestHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	if err := h.service.DestroyGuest(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "Guest sign-out failed")
		return
	}

	middleware.ClearSessionHeaders(w)
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Signed out from the guest account"})
}
