package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yuta/recipe-box/internal/api/dto"
	"github.com/yuta/recipe-box/internal/api/middleware"
	"github.com/yuta/recipe-box/internal/auth"
)

const sessionNotFoundMessage = "User was not found or was not signed in"

type AuthHandler struct {
	service *auth.Service
	tokens  *auth.TokenStore
}

func NewAuthHandler(service *auth.Service, tokens *auth.TokenStore) *AuthHandler {
	return &AuthHandler{service: service, tokens: tokens}
}

// SignUp handles POST /api/v1/auth. The account starts unconfirmed and a
// confirmation email is enqueued; no session is issued yet.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	_, err := h.service.SignUp(r.Context(), auth.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
				Error:   "Validation failed",
				Details: map[string]string{"email": "Email is already registered"},
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "A confirmation email has been sent. Please confirm your account to sign in.",
	})
}

// SignIn handles POST /api/v1/auth/sign_in. Wrong password, unknown email,
// unconfirmed and withdrawn accounts all fail with the same message.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	user, sess, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	middleware.SetSessionHeaders(w, sess)
	writeJSON(w, http.StatusOK, dto.UserDTO{
		ID:    user.ID.String(),
		Email: user.Email,
		Role:  user.Role,
	})
}

// SignOut handles DELETE /api/v1/auth/sign_out. Absent or invalid session
// headers yield 404, mirroring the lookup-style contract of this endpoint.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	user, _, err := h.tokens.Validate(
		r.Context(),
		r.Header.Get(middleware.HeaderUID),
		r.Header.Get(middleware.HeaderClient),
		r.Header.Get(middleware.HeaderAccessToken),
	)
	if err != nil {
		writeError(w, http.StatusNotFound, sessionNotFoundMessage)
		return
	}

	if err := h.service.SignOut(r.Context(), user, r.Header.Get(middleware.HeaderClient)); err != nil {
		writeError(w, http.StatusInternalServerError, "Sign out failed")
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Signed out"})
}

// Withdraw handles DELETE /api/v1/auth: the soft account closure. The whole
// operation is transactional; on any internal failure nothing is applied
// and a 500 is returned.
func (h *AuthHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	user, sess, err := h.tokens.Validate(
		r.Context(),
		r.Header.Get(middleware.HeaderUID),
		r.Header.Get(middleware.HeaderClient),
		r.Header.Get(middleware.HeaderAccessToken),
	)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	if err := h.service.Withdraw(r.Context(), user.ID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		// The validation above rotated the token; the account survives a
		// failed withdrawal, so the client needs the fresh credentials.
		if sess != nil {
			middleware.SetSessionHeaders(w, *sess)
		}
		writeError(w, http.StatusInternalServerError, "Account withdrawal failed")
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Your account has been closed"})
}
