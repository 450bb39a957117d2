package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yuta/recipe-box/internal/api/dto"
	"github.com/yuta/recipe-box/internal/api/middleware"
	"github.com/yuta/recipe-box/internal/database/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

const forbiddenMessage = "You do not have permission to access this resource"

// requireOwner resolves the user id in the named path parameter and checks
// it against the authenticated principal. A mismatch is always 403,
// regardless of whether the referenced user exists.
func requireOwner(w http.ResponseWriter, r *http.Request, param string) (*models.User, bool) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Please sign in or sign up to continue")
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil || id != user.ID {
		writeError(w, http.StatusForbidden, forbiddenMessage)
		return nil, false
	}

	return user, true
}
