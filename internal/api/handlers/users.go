package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yuta/recipe-box/internal/api/dto"
	"github.com/yuta/recipe-box/internal/api/validation"
	"github.com/yuta/recipe-box/internal/database/models"
	"github.com/yuta/recipe-box/internal/storage"
	"gorm.io/gorm"
)

// maxProfileImageBytes caps profile image uploads at 5 MiB.
const maxProfileImageBytes = 5 << 20

type UsersHandler struct {
	db     *gorm.DB
	images storage.ImageStore
}

func NewUsersHandler(db *gorm.DB, images storage.ImageStore) *UsersHandler {
	return &UsersHandler{db: db, images: images}
}

func (h *UsersHandler) profileResponse(r *http.Request, user *models.User) dto.ProfileResponse {
	resp := dto.ProfileResponse{
		ID:       user.ID.String(),
		Username: user.Username,
	}
	if user.ProfileImageKey != "" {
		if url, err := h.images.URL(r.Context(), user.ProfileImageKey); err == nil {
			resp.ProfileImageURL = url
		}
	}
	return resp
}

// Show handles GET /api/v1/users/{id}.
func (h *UsersHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := requireOwner(w, r, "user_id")
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, struct {
		User dto.ProfileResponse `json:"user"`
	}{User: h.profileResponse(r, user)})
}

// Update handles PUT /api/v1/users/{id}. Accepts multipart form data with
// an optional profile_image file, or a plain JSON body with the username.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireOwner(w, r, "user_id")
	if !ok {
		return
	}

	var username string
	var uploadedKey string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxProfileImageBytes); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multipart body")
			return
		}
		username = r.FormValue("username")

		if file, header, err := r.FormFile("profile_image"); err == nil {
			defer file.Close()
			key := storage.NewImageKey()
			contentType := header.Header.Get("Content-Type")
			if err := h.images.Put(r.Context(), key, file, contentType); err != nil {
				writeError(w, http.StatusInternalServerError, "Uploading profile image failed")
				return
			}
			uploadedKey = key
		}
	} else {
		var req struct {
			Username string `json:"username"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		username = req.Username
	}

	if ok, msg := validation.ValidateUsername(username); !ok {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:   "Updating profile failed",
			Details: map[string]string{"username": msg},
		})
		return
	}

	updates := map[string]interface{}{"username": username}
	if uploadedKey != "" {
		updates["profile_image_key"] = uploadedKey
	}

	if err := h.db.WithContext(r.Context()).Model(user).Updates(updates).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Updating profile failed")
		return
	}

	// The replaced image is best-effort garbage; the profile must not fail
	// on store cleanup.
	if uploadedKey != "" && user.ProfileImageKey != "" && user.ProfileImageKey != uploadedKey {
		_ = h.images.Delete(r.Context(), user.ProfileImageKey)
	}

	user.Username = username
	if uploadedKey != "" {
		user.ProfileImageKey = uploadedKey
	}

	writeJSON(w, http.StatusOK, struct {
		Message string              `json:"message"`
		User    dto.ProfileResponse `json:"user"`
	}{
		Message: "Profile updated",
		User:    h.profileResponse(r, user),
	})
}

// DeleteProfileImage handles DELETE /api/v1/users/{id}/profile_image.
func (h *UsersHandler) DeleteProfileImage(w http.ResponseWriter, r *http.Request) {
	user, ok := requireOwner(w, r, "user_id")
	if !ok {
		return
	}

	if user.ProfileImageKey == "" {
		writeError(w, http.StatusNotFound, "No profile image is set")
		return
	}

	if err := h.images.Delete(r.Context(), user.ProfileImageKey); err != nil {
		writeError(w, http.StatusInternalServerError, "Deleting profile image failed")
		return
	}

	if err := h.db.WithContext(r.Context()).Model(user).Update("profile_image_key", "").Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Deleting profile image failed")
		return
	}
	user.ProfileImageKey = ""

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Profile image deleted"})
}
